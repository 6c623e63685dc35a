package dice

import (
	"errors"
	"fmt"
)

// Suit is the symbol printed on one side of a die.
type Suit byte

const (
	Sword  Suit = 'S'
	Shield Suit = 'H'
	Morale Suit = 'M'
	Book   Suit = 'B'
	Venom  Suit = 'V'
	Fast   Suit = 'F'
	Bleed  Suit = 'L'
	Arrow  Suit = 'A'
	Blank  Suit = '_'
)

// ErrUnknownSuit is returned when a side symbol is outside the suit alphabet.
var ErrUnknownSuit = errors.New("unknown suit")

// Suits lists the full alphabet in a fixed order. SuitCount is indexed by it.
var Suits = [...]Suit{Sword, Shield, Morale, Book, Venom, Fast, Bleed, Arrow, Blank}

var suitNames = map[Suit]string{
	Sword:  "SWORD",
	Shield: "SHIELD",
	Morale: "MORALE",
	Book:   "BOOK",
	Venom:  "VENOM",
	Fast:   "FAST",
	Bleed:  "BLEED",
	Arrow:  "ARROW",
	Blank:  "BLANK",
}

// ParseSuit decodes a single side symbol.
func ParseSuit(b byte) (Suit, error) {
	s := Suit(b)
	if _, ok := suitNames[s]; !ok {
		return Blank, fmt.Errorf("%w: %q", ErrUnknownSuit, b)
	}
	return s, nil
}

func (s Suit) index() int {
	for i, v := range Suits {
		if v == s {
			return i
		}
	}
	return -1
}

// Symbol is the one-letter wire form of s.
func (s Suit) Symbol() string {
	return string([]byte{byte(s)})
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// SuitCount holds how many rolled sides showed each suit. Every suit of the
// alphabet is always present, unseen ones with zero.
type SuitCount [len(Suits)]int

// Count returns the tally for s, zero for symbols outside the alphabet.
func (c SuitCount) Count(s Suit) int {
	i := s.index()
	if i < 0 {
		return 0
	}
	return c[i]
}

func (c *SuitCount) add(s Suit) {
	if i := s.index(); i >= 0 {
		c[i]++
	}
}

// Map returns the tally keyed by symbol, for logging and the wire.
func (c SuitCount) Map() map[string]int {
	out := make(map[string]int, len(Suits))
	for i, s := range Suits {
		out[s.Symbol()] = c[i]
	}
	return out
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte{byte(s)}, nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownSuit, b)
	}
	v, err := ParseSuit(b[0])
	if err != nil {
		return err
	}
	*s = v
	return nil
}
