package dice

// Rand is the slice of *rand.Rand the dice need. Tests inject a seeded source.
type Rand interface {
	Intn(n int) int
}

// Die is one die held by a player. The definition is shared and immutable;
// side weights belong to this instance.
type Die struct {
	Def     *Definition
	Weights [6]int
	Enabled bool
}

// New creates a die with every side weighted 1.
func New(def *Definition) *Die {
	return &Die{
		Def:     def,
		Weights: [6]int{1, 1, 1, 1, 1, 1},
		Enabled: true,
	}
}

// LoadSide makes side i more likely to come up.
func (d *Die) LoadSide(i int) {
	if i < 0 || i >= len(d.Weights) {
		return
	}
	d.Weights[i]++
}

// Roll is the outcome of rolling one die.
type Roll struct {
	Def     *Definition
	SideID  int
	Enabled bool
}

func (r Roll) Suit() Suit {
	return r.Def.Side(r.SideID)
}

// RollSide picks a side weighted by the die's side weights.
func RollSide(rng Rand, d *Die) Roll {
	total := 0
	for _, w := range d.Weights {
		total += w
	}
	side := len(d.Weights) - 1
	if total > 0 {
		pick := rng.Intn(total)
		acc := 0
		for i, w := range d.Weights {
			acc += w
			if pick < acc {
				side = i
				break
			}
		}
	}
	return Roll{Def: d.Def, SideID: side, Enabled: d.Enabled}
}

// RollAll rolls each die in the hand once, in order.
func RollAll(rng Rand, hand []*Die) []Roll {
	rolls := make([]Roll, len(hand))
	for i, d := range hand {
		rolls[i] = RollSide(rng, d)
	}
	return rolls
}

// AggregateSuits tallies the suits shown by a set of rolls.
func AggregateSuits(rolls []Roll) SuitCount {
	var c SuitCount
	for _, r := range rolls {
		c.add(r.Suit())
	}
	return c
}

// RandomDiceName draws a die name from the given tier. Tiers past the end of
// the table use the last tier.
func RandomDiceName(rng Rand, tier int) string {
	t := tierAt(Distribution, tier)
	total := t.total()
	if total <= 0 {
		return t[len(t)-1].Name
	}
	pick := rng.Intn(total)
	acc := 0
	for _, w := range t {
		acc += w.Weight
		if pick < acc {
			return w.Name
		}
	}
	return t[len(t)-1].Name
}

func tierAt(dist []Tier, tier int) Tier {
	if tier < 0 || tier >= len(dist) {
		return dist[len(dist)-1]
	}
	return dist[tier]
}

// RandomDie returns a fresh die drawn from tier.
func RandomDie(rng Rand, tier int) *Die {
	def, ok := Lookup(RandomDiceName(rng, tier))
	if !ok {
		def = Catalog[0]
	}
	return New(def)
}

// RandomHand returns n fresh dice drawn from tier.
func RandomHand(rng Rand, tier, n int) []*Die {
	hand := make([]*Die, n)
	for i := range hand {
		hand[i] = RandomDie(rng, tier)
	}
	return hand
}

// TierForDistance maps the distance from the world centre to a rarity tier:
// the closer to the centre, the better the dice.
func TierForDistance(d float64) int {
	switch {
	case d < 600:
		return 2
	case d < 1200:
		return 1
	default:
		return 0
	}
}
