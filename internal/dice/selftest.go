package dice

import (
	"errors"
	"fmt"
)

// SelfTest checks the catalog and distribution tables. The server refuses to
// start when it returns an error, so a bad side symbol never reaches a roll.
func SelfTest() error {
	return validate(Catalog, Distribution)
}

func validate(defs []*Definition, dist []Tier) error {
	var errs []error

	for _, d := range defs {
		if len(d.Sides) != 6 {
			errs = append(errs, fmt.Errorf("dice %q: sides %q must have 6 symbols", d.Name, d.Sides))
			continue
		}
		for i := 0; i < len(d.Sides); i++ {
			if _, err := ParseSuit(d.Sides[i]); err != nil {
				errs = append(errs, fmt.Errorf("dice %q: side %d: %w", d.Name, i, err))
			}
		}
	}

	if len(dist) == 0 {
		errs = append(errs, errors.New("distribution has no tiers"))
	}
	for i, tier := range dist {
		for _, w := range tier {
			if _, ok := lookupIn(defs, w.Name); !ok {
				errs = append(errs, fmt.Errorf("tier %d: unknown dice %q", i, w.Name))
			}
			if w.Weight < 0 {
				errs = append(errs, fmt.Errorf("tier %d: negative weight %d for %q", i, w.Weight, w.Name))
			}
		}
		if tier.total() <= 0 {
			errs = append(errs, fmt.Errorf("tier %d: total weight must be positive", i))
		}
	}

	return errors.Join(errs...)
}
