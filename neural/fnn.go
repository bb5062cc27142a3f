package neural

import (
	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/genome"
)

// FNN is the stateless two-layer controller: tanh at both the hidden and
// output stages, every parameter sourced from the genome weight range.
// Output is a pure function of the current input.
type FNN struct {
	w genome.Weights
	l genome.Layout
}

func newFNN(w genome.Weights, l genome.Layout) *FNN {
	return &FNN{w: w, l: l}
}

// Forward computes one pass. len(inputs) must be l.Inputs; shorter slices
// read as zero.
func (n *FNN) Forward(inputs []float32) [config.OutputSize]float32 {
	var hidden [config.HiddenSize]float32
	for i := 0; i < n.l.Hidden; i++ {
		sum := n.w.Bh[i]
		row := i * n.l.Inputs
		for j := 0; j < n.l.Inputs && j < len(inputs); j++ {
			sum += n.w.Wih[row+j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [config.OutputSize]float32
	for i := 0; i < n.l.Outputs; i++ {
		sum := n.w.Bo[i]
		row := i * n.l.Hidden
		for j := 0; j < n.l.Hidden; j++ {
			sum += n.w.Who[row+j] * hidden[j]
		}
		out[i] = tanh(sum)
	}
	return out
}

// Kind returns "fnn".
func (n *FNN) Kind() string { return config.ControllerFNN }

// Padded reports zero-padded weight genes.
func (n *FNN) Padded() int { return n.w.Padded }
