// Package agent is a headless player. It connects over the same websocket
// protocol as a browser, mirrors the arena with a reconcile.Scene and
// dashes at whoever is closest.
package agent

import (
	"context"
	"dice-io-server/internal/reconcile"
	"dice-io-server/pkg/api"
	"dice-io-server/pkg/logger"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	frameEvery = 16 * time.Millisecond
	writeWait  = 5 * time.Second
)

type Bot struct {
	URL   string
	Name  string
	Codec api.Codec

	// DashEvery is the pause between decisions.
	DashEvery time.Duration
	// DashForce is the length of each dash vector in pixels.
	DashForce float64

	rng   *rand.Rand
	scene *reconcile.Scene
	log   *logrus.Entry
}

func NewBot(url, name string, codec api.Codec, seed int64) *Bot {
	return &Bot{
		URL:       url,
		Name:      name,
		Codec:     codec,
		DashEvery: 700 * time.Millisecond,
		DashForce: 400,
		rng:       rand.New(rand.NewSource(seed)),
		scene:     reconcile.NewScene(reconcile.Default()),
		log:       logger.Component("bot").WithField("name", name),
	}
}

// Run plays until ctx is cancelled or the connection drops.
func (b *Bot) Run(ctx context.Context) error {
	url := b.URL + "?codec=" + b.Codec.Name()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	if err := b.send(conn, api.EventStart, api.StartPayload{Name: b.Name}); err != nil {
		return err
	}
	b.log.Info("Bot joined")

	inbox := make(chan api.Envelope, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(inbox)
		return b.readLoop(gctx, conn, inbox)
	})
	g.Go(func() error {
		err := b.playLoop(gctx, conn, inbox)
		// unblock the reader
		conn.Close()
		return err
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (b *Bot) readLoop(ctx context.Context, conn *websocket.Conn, inbox chan<- api.Envelope) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		env, err := b.Codec.DecodeEnvelope(frame)
		if err != nil {
			b.log.WithError(err).Warn("Bad frame from server")
			continue
		}
		select {
		case inbox <- env:
		case <-ctx.Done():
			return nil
		}
	}
}

// playLoop owns the scene: it applies server messages, advances tracks
// every frame and dashes on its own schedule.
func (b *Bot) playLoop(ctx context.Context, conn *websocket.Conn, inbox <-chan api.Envelope) error {
	frames := time.NewTicker(frameEvery)
	dashes := time.NewTicker(b.DashEvery)
	defer frames.Stop()
	defer dashes.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-inbox:
			if !ok {
				return nil
			}
			if err := b.handle(conn, env); err != nil {
				return err
			}
		case now := <-frames.C:
			b.scene.Advance(now.UnixMilli())
		case <-dashes.C:
			v, ok := ChooseDash(b.scene, b.rng, b.DashForce)
			if !ok {
				continue
			}
			if err := b.send(conn, api.EventDash, api.DashPayload{Vector: v}); err != nil {
				return err
			}
		}
	}
}

func (b *Bot) handle(conn *websocket.Conn, env api.Envelope) error {
	switch env.T {
	case api.EventWelcome:
		w, err := api.DecodePayload[api.WelcomeMessage](env)
		if err != nil {
			return err
		}
		b.scene = reconcile.NewScene(b.scene.Reconciler)
		b.scene.Apply(w.State)
		b.log.WithField("entity_id", w.EntityID).Debug("Welcome received")
	case api.EventState:
		s, err := api.DecodePayload[api.StateMessage](env)
		if err != nil {
			return err
		}
		b.scene.Apply(s)
	case api.EventEliminated:
		b.log.Info("Bot eliminated, rejoining")
		return b.send(conn, api.EventStart, api.StartPayload{Name: b.Name})
	}
	return nil
}

func (b *Bot) send(conn *websocket.Conn, event string, payload any) error {
	frame, err := api.Encode(b.Codec, event, payload)
	if err != nil {
		return err
	}
	frameType := websocket.TextMessage
	if b.Codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(frameType, frame)
}

// ChooseDash aims at the nearest other entity, or picks a random heading
// when nobody else is visible. It returns false until the scene knows which
// entity is ours.
func ChooseDash(scene *reconcile.Scene, rng *rand.Rand, force float64) (api.Vec, bool) {
	self := scene.Self()
	if self == nil {
		return api.Vec{}, false
	}

	best := math.Inf(1)
	var dx, dy float64
	for _, id := range scene.IDs() {
		if id == scene.SelfID() {
			continue
		}
		t := scene.Track(id)
		ox, oy := t.X-self.X, t.Y-self.Y
		if d := math.Hypot(ox, oy); d > 0 && d < best {
			best, dx, dy = d, ox, oy
		}
	}
	if math.IsInf(best, 1) {
		a := rng.Float64() * 2 * math.Pi
		return api.Vec{X: math.Cos(a) * force, Y: math.Sin(a) * force}, true
	}
	return api.Vec{X: dx / best * force, Y: dy / best * force}, true
}
