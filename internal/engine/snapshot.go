package engine

import (
	"dice-io-server/internal/dice"
	"dice-io-server/internal/domain"
	"dice-io-server/internal/network"
	"dice-io-server/internal/systems"
	"dice-io-server/pkg/api"
)

// PublishSnapshots sends each connected human its own view of the world.
// Returns the number of snapshots queued.
func (g *Game) PublishSnapshots(full bool) int {
	sent := 0
	for _, p := range g.World.All() {
		if !p.IsHuman || !g.Physics.HasBody(p.ID) || !g.Hub.HasSubscriber(p.ConnID) {
			continue
		}
		state, ok := g.ViewFor(p.ConnID, full)
		if !ok {
			continue
		}
		if g.Hub.SendTo(p.ConnID, network.Message{Event: api.EventState, Payload: state}) {
			sent++
		}
	}
	return sent
}

// ViewFor builds the snapshot for the player on connID. Only players with a
// body are listed. Unless full, players further than the view radius from
// the viewer are left out; the viewer itself is always in.
func (g *Game) ViewFor(connID string, full bool) (api.StateMessage, bool) {
	viewer := g.World.ByConn(connID)
	if viewer == nil {
		return api.StateMessage{}, false
	}

	entities := make([]api.PlayerState, 0)
	for _, p := range g.World.All() {
		if !g.Physics.HasBody(p.ID) {
			continue
		}
		if !full && p.ID != viewer.ID {
			d, err := g.Distances.DistanceBetween(viewer.ID, p.ID)
			if err != nil || d > g.cfg.ViewRadius {
				continue
			}
		}
		entities = append(entities, playerState(p, p.ID == viewer.ID))
	}

	return api.StateMessage{
		Tick:     g.Clock().UnixMilli(),
		Full:     full,
		Entities: entities,
	}, true
}

func playerState(p *domain.Player, isCtrl bool) api.PlayerState {
	hand := make([]api.DiceState, len(p.Dice))
	for i, d := range p.Dice {
		hand[i] = api.DiceState{DiceData: definitionDTO(d.Def), DiceEnabled: d.Enabled}
	}
	var buffs []api.DiceState
	for _, def := range dice.BuffMarkers(p.Buffs.Damage, p.Buffs.Vulnerability) {
		buffs = append(buffs, api.DiceState{DiceData: definitionDTO(def), DiceEnabled: true})
	}
	return api.PlayerState{
		EntityID:     uint32(p.ID),
		X:            p.X,
		Y:            p.Y,
		VX:           p.VX,
		VY:           p.VY,
		Angle:        p.Angle,
		VAngle:       p.VAngle,
		R:            p.R,
		Name:         p.Name,
		Color:        p.Color,
		IsHuman:      p.IsHuman,
		IsCtrl:       isCtrl,
		NextCanShoot: p.NextCanShootAt,
		DiceList:     hand,
		BuffList:     buffs,
	}
}

func definitionDTO(def *dice.Definition) api.DiceDefinition {
	return api.DiceDefinition{
		Name:          def.Name,
		Type:          int(def.Kind),
		Icon:          def.Icon.Symbol(),
		Sides:         def.Sides,
		Color:         def.Color,
		DisabledColor: def.DisabledColor,
		Desc:          def.Desc,
	}
}

func rollStates(rolls []dice.Roll) []api.DiceState {
	out := make([]api.DiceState, len(rolls))
	for i, r := range rolls {
		out[i] = api.DiceState{
			DiceData:    definitionDTO(r.Def),
			DiceEnabled: r.Enabled,
			SideID:      r.SideID,
		}
	}
	return out
}

func fightMessage(res systems.FightResult) api.FightMessage {
	return api.FightMessage{
		UntilTick:        res.UntilTick,
		Result:           string(res.Outcome),
		PlayerAPos:       api.Vec{X: res.PlayerAPos.X, Y: res.PlayerAPos.Y},
		DisplacementAB:   api.Vec{X: res.DisplacementAB.X, Y: res.DisplacementAB.Y},
		PlayerAID:        uint32(res.PlayerAID),
		PlayerBID:        uint32(res.PlayerBID),
		RollsA:           rollStates(res.RollsA),
		RollsB:           rollStates(res.RollsB),
		NetDamageA:       res.NetDamageA,
		NetDamageB:       res.NetDamageB,
		TransferredIndex: res.TransferredIndex,
	}
}
