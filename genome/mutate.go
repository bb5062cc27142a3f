package genome

import "math/rand"

// MutationParams bundles the perturbation settings shared by inherited and
// somatic mutation.
type MutationParams struct {
	Rate           float64 // per-gene mutation probability
	PointSigma     float64 // stddev of an ordinary value perturbation
	LargeChance    float64 // probability a value perturbation is large
	LargeSigma     float64 // stddev of a large value perturbation
	DominanceRate  float64 // probability a mutation perturbs dominance instead
	DominanceSigma float64 // stddev of a dominance perturbation
}

// MutationResult reports what a mutation pass did.
type MutationResult struct {
	Count       int     // genes touched
	AvgAbsDelta float64 // mean |delta| across applied perturbations
}

// Mutate perturbs the genome in place. For each gene independently with
// probability Rate: with probability DominanceRate one allele's dominance
// weight is perturbed; otherwise one allele's value is perturbed by a
// Gaussian draw whose stddev is LargeSigma with probability LargeChance and
// PointSigma otherwise. Expressed values of touched genes are recomputed.
func Mutate(g *Genome, p MutationParams, rng *rand.Rand) MutationResult {
	var res MutationResult
	var totalDelta float64

	for pi := range g.Pairs {
		genes := g.Pairs[pi].Genes
		for i := range genes {
			if rng.Float64() >= p.Rate {
				continue
			}
			gene := &genes[i]
			allele := &gene.A
			if rng.Intn(2) == 1 {
				allele = &gene.B
			}

			var delta float64
			if rng.Float64() < p.DominanceRate {
				delta = rng.NormFloat64() * p.DominanceSigma
				allele.Dominance += delta
			} else {
				sigma := p.PointSigma
				if rng.Float64() < p.LargeChance {
					sigma = p.LargeSigma
				}
				delta = rng.NormFloat64() * sigma
				allele.Value += delta
			}
			gene.Expressed = Express(*gene)

			if delta < 0 {
				delta = -delta
			}
			totalDelta += delta
			res.Count++
		}
	}

	if res.Count > 0 {
		res.AvgAbsDelta = totalDelta / float64(res.Count)
	}
	return res
}
