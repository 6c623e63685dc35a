package engine

import (
	"context"
	"dice-io-server/pkg/api"
)

// Debug inspect commands.
const (
	InspectStats    = "stats"
	InspectEntities = "entities"
	InspectAll      = "all"
)

type inspectRequest struct {
	cmd   string
	reply chan api.DebugMessage
}

// Inspect asks the loop goroutine for a debug dump. It blocks until the
// loop answers or ctx ends, so it only works while Run is active.
func (g *Game) Inspect(ctx context.Context, cmd string) (api.DebugMessage, error) {
	req := inspectRequest{cmd: cmd, reply: make(chan api.DebugMessage, 1)}
	select {
	case g.queries <- req:
	case <-ctx.Done():
		return api.DebugMessage{}, ctx.Err()
	}
	select {
	case msg := <-req.reply:
		return msg, nil
	case <-ctx.Done():
		return api.DebugMessage{}, ctx.Err()
	}
}

// inspect builds the dump. Unknown commands get everything.
func (g *Game) inspect(cmd string) api.DebugMessage {
	msg := api.DebugMessage{Cmd: cmd}
	if cmd != InspectEntities {
		creates, destroys := g.Physics.Pending()
		msg.Stats = map[string]int{
			"frames":           int(g.stats.Frames),
			"fights":           g.stats.Fights,
			"eliminations":     g.stats.Eliminations,
			"respawns":         g.stats.Respawns,
			"players":          g.World.Len(),
			"bodies":           g.Physics.BodyCount(),
			"pending_creates":  creates,
			"pending_destroys": destroys,
			"pending_respawns": g.respawns.Len(),
			"subscribers":      g.Hub.SubscriberCount(),
			"dropped_messages": int(g.Hub.Dropped()),
		}
	}
	if cmd != InspectStats {
		all := g.World.All()
		msg.Entities = make([]api.PlayerState, 0, len(all))
		for _, p := range all {
			if g.Physics.HasBody(p.ID) {
				msg.Entities = append(msg.Entities, playerState(p, false))
			}
		}
	}
	return msg
}
