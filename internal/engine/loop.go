package engine

import (
	"dice-io-server/pkg/logger"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop is the fixed-step accumulator. Step runs once per simulated frame.
type Loop struct {
	FrameSize  time.Duration
	MaxCatchUp int
	Step       func(frame time.Duration)

	last    time.Time
	started bool
	frames  uint64

	warnOnce sync.Once
}

func NewLoop(frame time.Duration, maxCatchUp int, step func(time.Duration)) *Loop {
	return &Loop{FrameSize: frame, MaxCatchUp: maxCatchUp, Step: step}
}

// Update runs the frames owed up to now and returns how many ran. The first
// call runs exactly one frame. When more than MaxCatchUp frames are owed the
// rest are dropped, so the simulation falls behind wall time instead of
// spiralling.
func (l *Loop) Update(now time.Time) int {
	if !l.started {
		l.started = true
		l.last = now
		l.run()
		return 1
	}

	n := 0
	for l.last.Add(l.FrameSize).Before(now) && n < l.MaxCatchUp {
		n++
		l.run()
		l.last = l.last.Add(l.FrameSize)
	}
	if n == l.MaxCatchUp && l.last.Add(l.FrameSize).Before(now) {
		l.warnOnce.Do(func() {
			logger.Component("game_loop").WithFields(logrus.Fields{
				"behind_ms":    now.Sub(l.last).Milliseconds(),
				"max_catch_up": l.MaxCatchUp,
			}).Warn("Simulation cannot keep up; dropping frames.")
		})
	}
	l.last = now
	return n
}

func (l *Loop) run() {
	l.frames++
	if l.Step != nil {
		l.Step(l.FrameSize)
	}
}

// Frames is the total number of simulated frames.
func (l *Loop) Frames() uint64 {
	return l.frames
}
