// Package genome implements the diploid genome: homologous chromosome pairs
// of allele-pair genes, dominance-weighted expression, crossover, mutation,
// and the gene-index mapping that feeds the neural controller.
package genome

import "math/rand"

// Genome dimensions. These are fixed for the lifetime of a simulation;
// only allele values and dominance weights vary.
const (
	NumChromosomePairs = 8
	GenesPerChromosome = 64
	TotalGenes         = NumChromosomePairs * GenesPerChromosome
)

// Allele is one half of a gene: a raw value plus a dominance weight.
// Dominance is stored unclamped; only the expression blend weight is clamped.
type Allele struct {
	Value     float64 `json:"v"`
	Dominance float64 `json:"d"`
}

// Gene is a homologous allele pair plus its cached expressed value.
type Gene struct {
	A         Allele  `json:"a"`
	B         Allele  `json:"b"`
	Expressed float64 `json:"e"`
}

// ChromosomePair holds one homologous pair's ordered gene sequence.
type ChromosomePair struct {
	Genes []Gene `json:"genes"`
}

// Genome is a diploid genome. Each agent owns its genome exclusively;
// offspring always receive newly constructed genomes.
type Genome struct {
	Pairs []ChromosomePair `json:"pairs"`
}

// Express computes the dominance-weighted blend of a gene's alleles:
//
//	w = clamp01(0.5 + 0.5*(domA - domB))
//	expressed = w*a + (1-w)*b
//
// Equal dominance yields a codominant 50/50 blend; a dominance gap of 1 or
// more yields complete expression of the stronger allele. One formula covers
// complete, incomplete, and codominant expression.
func Express(g Gene) float64 {
	w := 0.5 + 0.5*(g.A.Dominance-g.B.Dominance)
	if w < 0 {
		w = 0
	} else if w > 1 {
		w = 1
	}
	return w*g.A.Value + (1-w)*g.B.Value
}

// Reexpress recomputes every cached expressed value. Call after any
// operation that changes alleles or dominance weights.
func (g *Genome) Reexpress() {
	for p := range g.Pairs {
		genes := g.Pairs[p].Genes
		for i := range genes {
			genes[i].Expressed = Express(genes[i])
		}
	}
}

// Len returns the total gene count. A well-formed genome has TotalGenes.
func (g *Genome) Len() int {
	n := 0
	for p := range g.Pairs {
		n += len(g.Pairs[p].Genes)
	}
	return n
}

// GeneAt returns the gene at a flat index across all pairs. The second
// return is false when the index falls outside the (possibly malformed)
// genome; callers zero-pad in that case rather than fail.
func (g *Genome) GeneAt(idx int) (Gene, bool) {
	if idx < 0 {
		return Gene{}, false
	}
	for p := range g.Pairs {
		n := len(g.Pairs[p].Genes)
		if idx < n {
			return g.Pairs[p].Genes[idx], true
		}
		idx -= n
	}
	return Gene{}, false
}

// geneRef returns a pointer to the gene at a flat index, or nil.
func (g *Genome) geneRef(idx int) *Gene {
	for p := range g.Pairs {
		n := len(g.Pairs[p].Genes)
		if idx < n {
			return &g.Pairs[p].Genes[idx]
		}
		idx -= n
	}
	return nil
}

// ExpressedAt returns the expressed value at a flat gene index, zero when
// out of range.
func (g *Genome) ExpressedAt(idx int) float64 {
	gene, ok := g.GeneAt(idx)
	if !ok {
		return 0
	}
	return gene.Expressed
}

// NewRandom creates a full-size genome with allele values drawn around the
// neutral midpoint and uniform dominance weights. Trait genes get a wide
// uniform spread so founder populations are diverse; weight genes get a
// tight Gaussian around 0.5 so decoded network weights start small.
func NewRandom(rng *rand.Rand) *Genome {
	g := &Genome{Pairs: make([]ChromosomePair, NumChromosomePairs)}
	for p := range g.Pairs {
		g.Pairs[p].Genes = make([]Gene, GenesPerChromosome)
		for i := range g.Pairs[p].Genes {
			flat := p*GenesPerChromosome + i
			var a, b float64
			if flat < WeightGeneBase {
				a = rng.Float64()
				b = rng.Float64()
			} else {
				a = 0.5 + rng.NormFloat64()*0.08
				b = 0.5 + rng.NormFloat64()*0.08
			}
			gene := Gene{
				A: Allele{Value: a, Dominance: rng.Float64()},
				B: Allele{Value: b, Dominance: rng.Float64()},
			}
			gene.Expressed = Express(gene)
			g.Pairs[p].Genes[i] = gene
		}
	}
	return g
}

// Clone returns a deep copy. Used only when constructing snapshots; live
// agents never share genome storage.
func (g *Genome) Clone() *Genome {
	c := &Genome{Pairs: make([]ChromosomePair, len(g.Pairs))}
	for p := range g.Pairs {
		c.Pairs[p].Genes = make([]Gene, len(g.Pairs[p].Genes))
		copy(c.Pairs[p].Genes, g.Pairs[p].Genes)
	}
	return c
}
