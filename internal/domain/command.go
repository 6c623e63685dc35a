package domain

// Command is an inbound client action after boundary validation. It carries
// only the connection id, never a reference to connection state; the game
// loop resolves the player itself.
type Command struct {
	Action ActionType
	ConnID string

	// start
	Name string
	// dash, in pixels
	DashX float64
	DashY float64
	// debug-inspect
	Query string
}
