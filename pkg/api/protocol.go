package api

// Event names on the wire.
const (
	EventStart        = "start"
	EventDash         = "dash"
	EventDebugInspect = "debug-inspect"

	EventWelcome    = "welcome"
	EventState      = "state"
	EventFight      = "fight"
	EventEliminated = "eliminated"
	EventDebug      = "debug"
)

// --- SERVER -> CLIENT ---

// Vec is a 2D vector in world pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DiceDefinition describes a die kind so the client can draw it without a
// local catalog.
type DiceDefinition struct {
	Name string `json:"name"`

	// Type is 0 for dice, 1 for buff markers.
	Type int `json:"type"`

	// Icon is the suit symbol shown on the die face in the HUD.
	Icon string `json:"icon"`

	// Sides is the six-symbol side string, e.g. "SSSHHM".
	Sides string `json:"sides,omitempty"`

	Color         uint32 `json:"color"`
	DisabledColor uint32 `json:"disabledColor"`
	Desc          string `json:"desc"`
}

// DiceState is one die in a hand, or one roll in a fight.
type DiceState struct {
	DiceData    DiceDefinition `json:"diceData"`
	DiceEnabled bool           `json:"diceEnabled"`

	// SideID is the side last rolled (0-5). In a hand it is 0.
	SideID int `json:"sideId"`
}

// PlayerState is one entity as seen by one viewer.
type PlayerState struct {
	EntityID uint32  `json:"entityId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`

	// VX and VY are pixels per second; clients extrapolate with them.
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// Angle is in radians; VAngle in radians per second.
	Angle  float64 `json:"angle"`
	VAngle float64 `json:"vAngle"`
	R      float64 `json:"r"`

	Name    string `json:"name"`
	Color   uint32 `json:"color,omitempty"`
	IsHuman bool   `json:"isHuman,omitempty"`

	// IsCtrl is true on exactly one entry: the viewer's own player.
	IsCtrl bool `json:"isCtrl,omitempty"`

	// NextCanShoot is the unix ms after which this player can fight again.
	NextCanShoot int64 `json:"nextCanShoot"`

	DiceList []DiceState `json:"diceList"`

	// BuffList holds display markers for accrued modifiers (type 1).
	BuffList []DiceState `json:"buffList,omitempty"`
}

// StateMessage is a periodic snapshot, full or filtered by distance.
type StateMessage struct {
	// Tick is the server wall clock in unix ms when the snapshot was built.
	Tick int64 `json:"tick"`

	// Full is false for distance-filtered snapshots.
	Full bool `json:"full"`

	Entities []PlayerState `json:"entities"`
}

// WelcomeMessage acknowledges start.
type WelcomeMessage struct {
	EntityID uint32 `json:"entityId"`

	// TickHz is the simulation rate, frames per second.
	TickHz int `json:"tickHz"`

	// State is a full snapshot for the first render.
	State StateMessage `json:"state"`
}

// FightMessage is broadcast to everyone for each resolved fight.
type FightMessage struct {
	// UntilTick is the unix ms until which the fight animation is active.
	UntilTick int64 `json:"untilTick"`

	// Result is "A", "B" or "DRAW".
	Result string `json:"result"`

	PlayerAPos Vec `json:"playerAPos"`

	// DisplacementAB is B's position minus A's.
	DisplacementAB Vec `json:"displacementAB"`

	PlayerAID uint32 `json:"playerAId"`
	PlayerBID uint32 `json:"playerBId"`

	RollsA []DiceState `json:"rollsA"`
	RollsB []DiceState `json:"rollsB"`

	NetDamageA int `json:"netDamageA"`
	NetDamageB int `json:"netDamageB"`

	// TransferredIndex is the index in the loser's pre-fight hand of the die
	// that moved to the winner, or -1.
	TransferredIndex int `json:"transferredIndex"`
}

// EliminatedMessage tells a human its player was removed after losing all dice.
type EliminatedMessage struct {
	EntityID uint32 `json:"entityId"`
}

// DebugMessage answers debug-inspect.
type DebugMessage struct {
	Cmd      string         `json:"cmd"`
	Stats    map[string]int `json:"stats,omitempty"`
	Entities []PlayerState  `json:"entities,omitempty"`
}

// --- CLIENT -> SERVER ---

// StartPayload spawns (or re-attaches) the caller's player.
type StartPayload struct {
	Name string `json:"name" jsonschema:"maxLength=24,description=Display name; empty picks a random one"`
}

// DashPayload pushes the caller's player. Vector is in pixels.
type DashPayload struct {
	Vector Vec `json:"vector" jsonschema:"description=Impulse in pixels; finite and non-zero"`
}

// DebugInspectPayload asks for a debug dump.
type DebugInspectPayload struct {
	Cmd string `json:"cmd" jsonschema:"enum=stats,enum=entities,enum=all"`
}
