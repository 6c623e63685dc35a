package domain

import "strings"

// ActionType is the internal id of an inbound client event.
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionStart
	ActionDash
	ActionDisconnect
	ActionDebugInspect
)

var actionStringToCmd = map[string]ActionType{
	"start":         ActionStart,
	"dash":          ActionDash,
	"disconnect":    ActionDisconnect,
	"debug-inspect": ActionDebugInspect,
}

var actionCmdToString = map[ActionType]string{
	ActionStart:        "start",
	ActionDash:         "dash",
	ActionDisconnect:   "disconnect",
	ActionDebugInspect: "debug-inspect",
}

// ParseAction maps a wire event name to ActionType. Case-insensitive.
func ParseAction(s string) ActionType {
	if val, ok := actionStringToCmd[strings.ToLower(s)]; ok {
		return val
	}
	return ActionUnknown
}

func (a ActionType) String() string {
	if val, ok := actionCmdToString[a]; ok {
		return val
	}
	return "unknown"
}
