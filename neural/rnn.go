package neural

import (
	"math/rand"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/genome"
)

// hiddenInitSigma is the stddev of the small Gaussian noise the hidden
// state is born with. Zero-init would make the first recurrent step
// degenerate; large init would saturate the tanh.
const hiddenInitSigma = 0.1

// RNN is the recurrent controller:
//
//	h' = tanh(Wih*x + Whh*h + bh)
//	y  = tanh(Who*h' + bo)
//
// The hidden state is owned per agent and persists tick to tick. With N
// memory steps enabled, the last N hidden vectors are concatenated onto the
// sensor inputs (the layout's input-to-hidden matrix is sized for them).
type RNN struct {
	w genome.Weights
	l genome.Layout

	hidden []float32 // current hidden state, length Hidden
	memory []float32 // last N hidden vectors, oldest first, length Hidden*MemorySteps
	full   []float32 // scratch input: sensors + memory
}

func newRNN(w genome.Weights, l genome.Layout, rng *rand.Rand) *RNN {
	n := &RNN{
		w:      w,
		l:      l,
		hidden: make([]float32, l.Hidden),
		memory: make([]float32, l.Hidden*l.MemorySteps),
		full:   make([]float32, l.Inputs),
	}
	for i := range n.hidden {
		n.hidden[i] = float32(rng.NormFloat64()) * hiddenInitSigma
	}
	return n
}

// Forward advances the hidden state and returns the outputs. The input
// slice carries the base sensor vector; memory concatenation happens here.
func (n *RNN) Forward(inputs []float32) [config.OutputSize]float32 {
	// Assemble the full input: sensors then the memory window.
	for i := range n.full {
		n.full[i] = 0
	}
	copy(n.full, inputs)
	copy(n.full[config.BaseInputs:], n.memory)

	var next [config.HiddenSize]float32
	for i := 0; i < n.l.Hidden; i++ {
		sum := n.w.Bh[i]
		row := i * n.l.Inputs
		for j := 0; j < n.l.Inputs; j++ {
			sum += n.w.Wih[row+j] * n.full[j]
		}
		rrow := i * n.l.Hidden
		for j := 0; j < n.l.Hidden; j++ {
			sum += n.w.Whh[rrow+j] * n.hidden[j]
		}
		next[i] = tanh(sum)
	}

	// Shift the memory window before overwriting the hidden state.
	if steps := n.l.MemorySteps; steps > 0 {
		h := n.l.Hidden
		copy(n.memory, n.memory[h:])
		copy(n.memory[(steps-1)*h:], n.hidden)
	}
	copy(n.hidden, next[:n.l.Hidden])

	var out [config.OutputSize]float32
	for i := 0; i < n.l.Outputs; i++ {
		sum := n.w.Bo[i]
		row := i * n.l.Hidden
		for j := 0; j < n.l.Hidden; j++ {
			sum += n.w.Who[row+j] * n.hidden[j]
		}
		out[i] = tanh(sum)
	}
	return out
}

// Kind returns "rnn".
func (n *RNN) Kind() string { return config.ControllerRNN }

// Padded reports zero-padded weight genes.
func (n *RNN) Padded() int { return n.w.Padded }

// Hidden returns the live hidden-state vector for snapshot exposure.
// Callers must treat it as read-only.
func (n *RNN) Hidden() []float32 { return n.hidden }
