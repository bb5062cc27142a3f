package genome

import (
	"fmt"

	"github.com/pthm-cable/vivarium/config"
)

// WeightScale maps an expressed gene value to a network weight:
// weight = (expressed - 0.5) * WeightScale. A gene at the neutral midpoint
// decodes to a zero weight.
const WeightScale = 4.0

// identityGain is the recurrent self-connection strength seeded into fresh
// RNN genomes for stability. It is written into the founder genome only and
// never re-applied after evolution.
const identityGain = 0.5

// Layout describes the contiguous weight-gene index mapping for one
// controller architecture. All indices are flat gene indices; the mapping
// is fixed by the topology constants in package config and must not change
// within a run, since it determines which chromosomes carry which weight.
//
// Order within the range: input-to-hidden row-major, then (RNN only)
// hidden-to-hidden row-major, then hidden biases, then hidden-to-output
// row-major, then output biases.
type Layout struct {
	Kind        string
	MemorySteps int
	Inputs      int
	Hidden      int
	Outputs     int

	WihBase int
	WhhBase int // == BhBase for FNN (empty range)
	BhBase  int
	WhoBase int
	BoBase  int
	End     int
}

// LayoutFor computes the weight-gene layout for a controller kind and
// memory depth, and verifies the genome constants can hold it.
func LayoutFor(kind string, memorySteps int) (Layout, error) {
	l := Layout{
		Kind:        kind,
		MemorySteps: memorySteps,
		Inputs:      config.BaseInputs + config.HiddenSize*memorySteps,
		Hidden:      config.HiddenSize,
		Outputs:     config.OutputSize,
	}
	l.WihBase = WeightGeneBase
	l.WhhBase = l.WihBase + l.Hidden*l.Inputs
	l.BhBase = l.WhhBase
	if kind == config.ControllerRNN {
		l.BhBase += l.Hidden * l.Hidden
	}
	l.WhoBase = l.BhBase + l.Hidden
	l.BoBase = l.WhoBase + l.Outputs*l.Hidden
	l.End = l.BoBase + l.Outputs

	if l.End > TotalGenes {
		return Layout{}, fmt.Errorf(
			"genome: weight layout for %s with %d memory steps needs %d genes, genome has %d",
			kind, memorySteps, l.End, TotalGenes)
	}
	return l, nil
}

// ParamCount returns the number of weight genes the layout consumes.
func (l Layout) ParamCount() int {
	return l.End - WeightGeneBase
}

// Weights holds the decoded controller parameters. Matrices are flat
// row-major float32 slices sized by the layout.
type Weights struct {
	Wih []float32 // Hidden x Inputs
	Whh []float32 // Hidden x Hidden (RNN only, nil for FNN)
	Bh  []float32 // Hidden
	Who []float32 // Outputs x Hidden
	Bo  []float32 // Outputs

	// Padded counts weight genes that fell outside the genome and were
	// substituted with zero. Nonzero means the genome is malformed; the
	// simulation continues but reports the anomaly.
	Padded int
}

// ExtractWeights decodes the layout's gene range into controller
// parameters. Out-of-range genes decode to zero weights and are counted in
// Padded rather than failing: a corrupt genome must never crash the tick
// loop.
func ExtractWeights(g *Genome, l Layout) Weights {
	w := Weights{
		Wih: make([]float32, l.Hidden*l.Inputs),
		Bh:  make([]float32, l.Hidden),
		Who: make([]float32, l.Outputs*l.Hidden),
		Bo:  make([]float32, l.Outputs),
	}
	if l.Kind == config.ControllerRNN {
		w.Whh = make([]float32, l.Hidden*l.Hidden)
	}

	decode := func(dst []float32, base int) {
		for i := range dst {
			gene, ok := g.GeneAt(base + i)
			if !ok {
				w.Padded++
				continue
			}
			dst[i] = float32((gene.Expressed - 0.5) * WeightScale)
		}
	}
	decode(w.Wih, l.WihBase)
	if w.Whh != nil {
		decode(w.Whh, l.WhhBase)
	}
	decode(w.Bh, l.BhBase)
	decode(w.Who, l.WhoBase)
	decode(w.Bo, l.BoBase)

	return w
}

// ApplyIdentityBias adds a small identity term to the recurrent weight
// genes of a fresh genome so that founder RNNs start with stable
// self-connections. Both alleles are shifted so expression is unaffected by
// dominance. No-op for FNN layouts.
func ApplyIdentityBias(g *Genome, l Layout) {
	if l.Kind != config.ControllerRNN {
		return
	}
	shift := identityGain / WeightScale
	for i := 0; i < l.Hidden; i++ {
		idx := l.WhhBase + i*l.Hidden + i
		gene := g.geneRef(idx)
		if gene == nil {
			continue
		}
		gene.A.Value += shift
		gene.B.Value += shift
		gene.Expressed = Express(*gene)
	}
}
