package api

import (
	"errors"
	"math"
	"unicode/utf8"
)

const (
	MaxNameLength    = 24
	MaxDashMagnitude = 2000.0
)

// Validator is implemented by inbound payloads.
type Validator interface {
	Validate() error
}

func (p StartPayload) Validate() error {
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return errors.New("name too long")
	}
	if !utf8.ValidString(p.Name) {
		return errors.New("name is not valid utf-8")
	}
	return nil
}

func (p DashPayload) Validate() error {
	x, y := p.Vector.X, p.Vector.Y
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return errors.New("dash vector must be finite")
	}
	if x == 0 && y == 0 {
		return errors.New("dash vector cannot be zero")
	}
	if math.Hypot(x, y) > MaxDashMagnitude {
		return errors.New("dash vector too large")
	}
	return nil
}

func (p DebugInspectPayload) Validate() error {
	if p.Cmd == "" {
		return errors.New("cmd is required")
	}
	return nil
}
