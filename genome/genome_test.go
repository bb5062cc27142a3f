package genome

import (
	"math"
	"math/rand"
	"testing"
)

func TestExpressDominanceBlend(t *testing.T) {
	tests := []struct {
		name     string
		gene     Gene
		expected float64
	}{
		{
			name:     "equal dominance is codominant",
			gene:     Gene{A: Allele{Value: 1, Dominance: 0.5}, B: Allele{Value: 0, Dominance: 0.5}},
			expected: 0.5,
		},
		{
			name:     "full dominance gap expresses A completely",
			gene:     Gene{A: Allele{Value: 1, Dominance: 1}, B: Allele{Value: 0, Dominance: 0}},
			expected: 1,
		},
		{
			name:     "reversed gap expresses B completely",
			gene:     Gene{A: Allele{Value: 1, Dominance: 0}, B: Allele{Value: 0, Dominance: 1}},
			expected: 0,
		},
		{
			name:     "partial gap blends",
			gene:     Gene{A: Allele{Value: 1, Dominance: 0.7}, B: Allele{Value: 0, Dominance: 0.5}},
			expected: 0.6,
		},
		{
			name:     "dominance outside [0,1] clamps the blend weight",
			gene:     Gene{A: Allele{Value: 1, Dominance: 5}, B: Allele{Value: 0, Dominance: -3}},
			expected: 1,
		},
	}

	for _, tt := range tests {
		got := Express(tt.gene)
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("%s: Express = %f, want %f", tt.name, got, tt.expected)
		}
	}
}

func TestExpressionDeterminism(t *testing.T) {
	g1 := NewRandom(rand.New(rand.NewSource(7)))
	g2 := NewRandom(rand.New(rand.NewSource(7)))

	if g1.Len() != TotalGenes || g2.Len() != TotalGenes {
		t.Fatalf("genome length: got %d and %d, want %d", g1.Len(), g2.Len(), TotalGenes)
	}

	for i := 0; i < TotalGenes; i++ {
		if g1.ExpressedAt(i) != g2.ExpressedAt(i) {
			t.Fatalf("gene %d: same seed produced different expression", i)
		}
	}

	// Reexpress must not change anything when alleles are untouched.
	before := make([]float64, TotalGenes)
	for i := range before {
		before[i] = g1.ExpressedAt(i)
	}
	g1.Reexpress()
	for i := range before {
		if g1.ExpressedAt(i) != before[i] {
			t.Fatalf("gene %d: Reexpress changed an untouched gene", i)
		}
	}
}

func TestGeneAtOutOfRange(t *testing.T) {
	g := NewRandom(rand.New(rand.NewSource(1)))

	if _, ok := g.GeneAt(-1); ok {
		t.Error("GeneAt(-1) should report missing")
	}
	if _, ok := g.GeneAt(TotalGenes); ok {
		t.Error("GeneAt past the end should report missing")
	}
	if v := g.ExpressedAt(TotalGenes + 10); v != 0 {
		t.Errorf("ExpressedAt out of range = %f, want 0", v)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewRandom(rand.New(rand.NewSource(3)))
	c := g.Clone()

	if c.Len() != g.Len() {
		t.Fatalf("clone length %d, want %d", c.Len(), g.Len())
	}

	c.Pairs[0].Genes[0].A.Value = 999
	if g.Pairs[0].Genes[0].A.Value == 999 {
		t.Error("clone shares gene storage with original")
	}
}

// tagParents gives every allele a value identifying its source: parent A
// carries 1/2 on its two strands, parent B carries 3/4.
func tagParents(a, b *Genome) {
	for p := range a.Pairs {
		for i := range a.Pairs[p].Genes {
			a.Pairs[p].Genes[i].A.Value = 1
			a.Pairs[p].Genes[i].B.Value = 2
			b.Pairs[p].Genes[i].A.Value = 3
			b.Pairs[p].Genes[i].B.Value = 4
		}
	}
}

func TestCrossoverPairComesFromOneParent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := NewRandom(rng)
	b := NewRandom(rng)
	tagParents(a, b)

	child := Crossover(a, b, 0.7, rng)
	if child.Len() != TotalGenes {
		t.Fatalf("child length %d, want %d", child.Len(), TotalGenes)
	}

	// Every pair is inherited from a single parent: no gene in it may
	// carry the other parent's tag, recombined or not.
	for p := range child.Pairs {
		fromA := child.Pairs[p].Genes[0].A.Value <= 2
		for i, gene := range child.Pairs[p].Genes {
			for _, v := range [2]float64{gene.A.Value, gene.B.Value} {
				if fromA && v != 1 && v != 2 {
					t.Fatalf("pair %d gene %d: allele value %f mixes parents", p, i, v)
				}
				if !fromA && v != 3 && v != 4 {
					t.Fatalf("pair %d gene %d: allele value %f mixes parents", p, i, v)
				}
			}
		}
	}

	// Child storage is fresh.
	child.Pairs[0].Genes[0].A.Value = -5
	if a.Pairs[0].Genes[0].A.Value == -5 || b.Pairs[0].Genes[0].A.Value == -5 {
		t.Error("child shares gene storage with a parent")
	}
}

func TestCrossoverZeroRateCopiesPairsWholesale(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	a := NewRandom(rng)
	b := NewRandom(rng)
	tagParents(a, b)

	sawA, sawB := false, false
	for trial := 0; trial < 20; trial++ {
		child := Crossover(a, b, 0, rng)
		for p := range child.Pairs {
			first := child.Pairs[p].Genes[0]
			var wantA, wantB float64
			switch {
			case first.A.Value == 1 && first.B.Value == 2:
				sawA = true
				wantA, wantB = 1, 2
			case first.A.Value == 3 && first.B.Value == 4:
				sawB = true
				wantA, wantB = 3, 4
			default:
				t.Fatalf("pair %d gene 0: alleles (%f, %f) flipped or mixed with zero crossover rate",
					p, first.A.Value, first.B.Value)
			}
			for i, gene := range child.Pairs[p].Genes {
				if gene.A.Value != wantA || gene.B.Value != wantB {
					t.Fatalf("trial %d pair %d gene %d: alleles (%f, %f) not a wholesale copy",
						trial, p, i, gene.A.Value, gene.B.Value)
				}
			}
		}
	}
	if !sawA || !sawB {
		t.Errorf("pairs never inherited from both parents (A=%v B=%v)", sawA, sawB)
	}
}

func TestCrossoverRecombinesWithinPair(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := NewRandom(rng)
	b := NewRandom(rng)

	// Both parents carry the same strand tags, so the source parent does
	// not matter; only the orientation flip at the break point shows.
	for p := range a.Pairs {
		for i := range a.Pairs[p].Genes {
			a.Pairs[p].Genes[i].A.Value = 1
			a.Pairs[p].Genes[i].B.Value = 2
			b.Pairs[p].Genes[i].A.Value = 1
			b.Pairs[p].Genes[i].B.Value = 2
		}
	}

	// With rate 1 every pair recombines: both orientations must appear,
	// straight before the break and flipped after it.
	child := Crossover(a, b, 1.0, rng)
	for p := range child.Pairs {
		straight, flipped := false, false
		for i, gene := range child.Pairs[p].Genes {
			switch {
			case gene.A.Value == 1 && gene.B.Value == 2:
				straight = true
				if flipped {
					t.Fatalf("pair %d gene %d: orientation reverted after the break", p, i)
				}
			case gene.A.Value == 2 && gene.B.Value == 1:
				flipped = true
			default:
				t.Fatalf("pair %d gene %d: unexpected alleles (%f, %f)", p, i, gene.A.Value, gene.B.Value)
			}
		}
		if !straight || !flipped {
			t.Fatalf("pair %d: no break point applied (straight=%v flipped=%v)", p, straight, flipped)
		}
	}
}

func TestMutationFrequencyConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	params := MutationParams{
		Rate:           0.02,
		PointSigma:     0.05,
		LargeChance:    0.1,
		LargeSigma:     0.3,
		DominanceRate:  0.2,
		DominanceSigma: 0.1,
	}

	const trials = 10000
	total := 0
	for i := 0; i < trials; i++ {
		g := NewRandom(rng)
		res := Mutate(g, params, rng)
		total += res.Count
	}

	observed := float64(total) / float64(trials*TotalGenes)
	if math.Abs(observed-params.Rate) > 0.002 {
		t.Errorf("observed mutation rate %f, want %f +/- 0.002", observed, params.Rate)
	}
}

func TestMutateRecomputesExpression(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := NewRandom(rng)

	params := MutationParams{Rate: 1, PointSigma: 0.5, DominanceSigma: 0.1}
	res := Mutate(g, params, rng)
	if res.Count != TotalGenes {
		t.Fatalf("rate 1 touched %d genes, want %d", res.Count, TotalGenes)
	}
	if res.AvgAbsDelta <= 0 {
		t.Error("AvgAbsDelta should be positive after value perturbations")
	}

	for p := range g.Pairs {
		for i, gene := range g.Pairs[p].Genes {
			if gene.Expressed != Express(gene) {
				t.Fatalf("pair %d gene %d: cached expression stale after mutation", p, i)
			}
		}
	}
}

func TestDecodePhenotypeRangesAndPurity(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	for trial := 0; trial < 50; trial++ {
		g := NewRandom(rng)
		ph := DecodePhenotype(g)

		checks := []struct {
			name  string
			value float64
			trait Trait
		}{
			{"speed", ph.Speed, TraitSpeed},
			{"size", ph.Size, TraitSize},
			{"aggression", ph.Aggression, TraitAggression},
			{"vision", ph.VisionRange, TraitVisionRange},
			{"efficiency", ph.Efficiency, TraitEfficiency},
			{"max_age", ph.MaxAge, TraitMaxAge},
			{"armor", ph.Armor, TraitArmor},
			{"resistance", ph.Resistance, TraitResistance},
			{"fertility", ph.Fertility, TraitFertility},
			{"metabolic_rate", ph.MetabolicRate, TraitMetabolicRate},
		}
		for _, c := range checks {
			lo, hi := TraitBounds(c.trait)
			if c.value < lo || c.value > hi {
				t.Fatalf("%s = %f outside [%f, %f]", c.name, c.value, lo, hi)
			}
		}

		if DecodePhenotype(g) != ph {
			t.Fatal("DecodePhenotype is not a pure function of the genome")
		}
	}
}
