package dice

// Kind separates real dice from buff markers shown next to a player's hand.
type Kind uint8

const (
	KindDice Kind = iota
	KindBuff
)

// Definition is the immutable description of one named die.
type Definition struct {
	Name          string `json:"name"`
	Kind          Kind   `json:"type"`
	Icon          Suit   `json:"icon"`
	Sides         string `json:"sides,omitempty"`
	Color         uint32 `json:"color"`
	DisabledColor uint32 `json:"disabledColor"`
	Desc          string `json:"desc"`
}

// Side returns the suit on side i. Sides are validated at startup by SelfTest,
// so an out-of-range or unknown symbol here is reported as Blank.
func (d *Definition) Side(i int) Suit {
	if i < 0 || i >= len(d.Sides) {
		return Blank
	}
	return Suit(d.Sides[i])
}

// Catalog is the fixed set of dice a player can hold.
var Catalog = []*Definition{
	{Name: "WHITE", Icon: Sword, Sides: "SSSHHM", Color: 0xb1c6c7, DisabledColor: 0x4a5959, Desc: "Balanced basic dice"},
	{Name: "BLUE", Icon: Shield, Sides: "HHHSSM", Color: 0x4257f5, DisabledColor: 0x2d367a, Desc: "Defense dice"},
	{Name: "RED", Icon: Sword, Sides: "SSSS__", Color: 0xd11f19, DisabledColor: 0x781d1a, Desc: "Offense dice"},
	{Name: "GREEN", Icon: Venom, Sides: "VBSMM_", Color: 0x68d647, DisabledColor: 0x265e15, Desc: "Poison dice"},
	{Name: "AQUA", Icon: Fast, Sides: "FFSSMM", Color: 0x5fe8ed, DisabledColor: 0x155457, Desc: "Speed dice"},
	{Name: "YELLOW", Icon: Morale, Sides: "MMSHH_", Color: 0xf5dd53, DisabledColor: 0x807222, Desc: "Morale dice"},
	{Name: "PURPLE", Icon: Book, Sides: "BBHMMM", Color: 0xc430e6, DisabledColor: 0x590d6b, Desc: "Knowledge dice"},
}

// Buff markers are display-only; they never roll.
var (
	SwordBuff   = &Definition{Name: "SWORD", Kind: KindBuff, Icon: Sword, Color: 0x474747, Desc: "Sword Buff"}
	VenomDebuff = &Definition{Name: "VENOM", Kind: KindBuff, Icon: Venom, Color: 0x68d647, Desc: "Venom Debuff"}
)

// BuffMarkers lists one sword per point of damage buff, then one venom per
// point of vulnerability.
func BuffMarkers(damage, vulnerability int) []*Definition {
	if damage < 0 {
		damage = 0
	}
	if vulnerability < 0 {
		vulnerability = 0
	}
	out := make([]*Definition, 0, damage+vulnerability)
	for i := 0; i < damage; i++ {
		out = append(out, SwordBuff)
	}
	for i := 0; i < vulnerability; i++ {
		out = append(out, VenomDebuff)
	}
	return out
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (*Definition, bool) {
	return lookupIn(Catalog, name)
}

func lookupIn(defs []*Definition, name string) (*Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Weight is one row of a distribution tier.
type Weight struct {
	Name   string
	Weight int
}

// Tier is an ordered weighted table of die names. Order matters for the
// cumulative draw, so tiers are slices rather than maps.
type Tier []Weight

// Distribution holds the rarity tiers, index 0 being the most common dice.
var Distribution = []Tier{
	{{"WHITE", 5}, {"BLUE", 2}, {"RED", 2}, {"GREEN", 0}, {"AQUA", 0}, {"YELLOW", 1}},
	{{"WHITE", 1}, {"BLUE", 4}, {"RED", 4}, {"GREEN", 1}, {"AQUA", 2}, {"YELLOW", 1}, {"PURPLE", 1}},
	{{"WHITE", 0}, {"BLUE", 2}, {"RED", 2}, {"GREEN", 3}, {"AQUA", 3}, {"YELLOW", 2}, {"PURPLE", 3}},
}

func (t Tier) total() int {
	sum := 0
	for _, w := range t {
		sum += w.Weight
	}
	return sum
}
