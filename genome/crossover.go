package genome

import "math/rand"

// Crossover builds a child genome from two parents. Each chromosome pair
// is inherited independently from one parent chosen at random:
//
//   - with probability crossoverRate the pair recombines: a single random
//     break point is picked and the two allele source chromosomes swap
//     after it, so genes before the break keep the parent's orientation
//     and genes after it carry the flipped one;
//   - otherwise the whole pair is copied from the chosen parent as is.
//
// The child genome is newly allocated and shares no storage with either
// parent.
func Crossover(a, b *Genome, crossoverRate float64, rng *rand.Rand) *Genome {
	child := &Genome{Pairs: make([]ChromosomePair, NumChromosomePairs)}
	for p := 0; p < NumChromosomePairs; p++ {
		src := a
		if rng.Intn(2) == 1 {
			src = b
		}

		// flipFrom past the last gene means a wholesale copy.
		flipFrom := GenesPerChromosome
		if rng.Float64() < crossoverRate {
			flipFrom = 1 + rng.Intn(GenesPerChromosome-1)
		}

		genes := make([]Gene, GenesPerChromosome)
		for i := 0; i < GenesPerChromosome; i++ {
			g := parentGene(src, p, i)
			if i >= flipFrom {
				g.A, g.B = g.B, g.A
			}
			g.Expressed = Express(g)
			genes[i] = g
		}
		child.Pairs[p].Genes = genes
	}
	return child
}

// parentGene reads one gene from a parent, tolerating malformed genomes;
// a missing gene comes back zeroed. Anomaly accounting happens at weight
// extraction, not here.
func parentGene(parent *Genome, pair, i int) Gene {
	if pair >= len(parent.Pairs) {
		return Gene{}
	}
	genes := parent.Pairs[pair].Genes
	if i >= len(genes) {
		return Gene{}
	}
	return genes[i]
}
