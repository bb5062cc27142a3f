package genome

// Trait identifies one expressed phenotype value. Traits live at fixed gene
// indices at the start of the genome; the weight-gene range begins after
// the reserved trait block.
type Trait int

const (
	TraitSpeed Trait = iota
	TraitSize
	TraitAggression
	TraitVisionRange
	TraitEfficiency
	TraitMaxAge
	TraitArmor
	TraitResistance
	TraitFertility
	TraitMetabolicRate

	NumTraits
)

// Gene layout: trait genes occupy [0, NumTraitGenes); the controller weight
// range starts at WeightGeneBase. The reserve between NumTraits and
// NumTraitGenes keeps the weight mapping stable if traits are added later.
const (
	NumTraitGenes  = 16
	WeightGeneBase = NumTraitGenes
)

// traitRange maps the clamped [0,1] expressed value into trait units.
type traitRange struct {
	Lo, Hi float64
}

// traitRanges is indexed by Trait. Expressed values are clamped to [0,1]
// before interpolation, so drifted alleles cannot produce out-of-range
// phenotypes.
var traitRanges = [NumTraits]traitRange{
	TraitSpeed:         {20, 120},  // world units per second
	TraitSize:          {0.5, 2.5},
	TraitAggression:    {0, 1},
	TraitVisionRange:   {40, 160},
	TraitEfficiency:    {0.5, 1.5}, // divides metabolic cost
	TraitMaxAge:        {60, 240},  // seconds
	TraitArmor:         {0.5, 2},   // divides incoming damage
	TraitResistance:    {0, 1},     // disease resistance
	TraitFertility:     {0, 1},     // scales reproduction eligibility
	TraitMetabolicRate: {0.5, 1.5},
}

// Phenotype is the derived, read-only projection of the trait genes.
// Recompute whenever the genome changes.
type Phenotype struct {
	Speed         float64
	Size          float64
	Aggression    float64
	VisionRange   float64
	Efficiency    float64
	MaxAge        float64
	Armor         float64
	Resistance    float64
	Fertility     float64
	MetabolicRate float64
}

// TraitBounds returns the configured value range for a trait.
func TraitBounds(t Trait) (lo, hi float64) {
	r := traitRanges[t]
	return r.Lo, r.Hi
}

// DecodePhenotype expresses the trait gene block into named, range-clamped
// values. Pure function of the genome bytes: identical genomes always decode
// to identical phenotypes.
func DecodePhenotype(g *Genome) Phenotype {
	at := func(t Trait) float64 {
		v := g.ExpressedAt(int(t))
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		r := traitRanges[t]
		return r.Lo + v*(r.Hi-r.Lo)
	}
	return Phenotype{
		Speed:         at(TraitSpeed),
		Size:          at(TraitSize),
		Aggression:    at(TraitAggression),
		VisionRange:   at(TraitVisionRange),
		Efficiency:    at(TraitEfficiency),
		MaxAge:        at(TraitMaxAge),
		Armor:         at(TraitArmor),
		Resistance:    at(TraitResistance),
		Fertility:     at(TraitFertility),
		MetabolicRate: at(TraitMetabolicRate),
	}
}
