// Package neural provides the genome-derived neural controllers that drive
// agent behavior: a stateless feed-forward variant and a recurrent variant
// with per-agent hidden state.
package neural

import (
	"math/rand"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/genome"
)

// Controller evaluates one forward pass per tick. Implementations are owned
// by a single agent and are not safe for concurrent use.
type Controller interface {
	// Forward maps the base sensor vector (config.BaseInputs values) to the
	// raw output vector. Outputs are tanh-activated and guaranteed free of
	// NaN/Inf.
	Forward(inputs []float32) [config.OutputSize]float32

	// Kind returns the architecture name ("fnn" or "rnn").
	Kind() string

	// Padded reports how many weight genes were zero-padded because the
	// genome was malformed. Nonzero values are anomalies, not a supported
	// configuration.
	Padded() int
}

// Build constructs a controller from a genome's weight-gene range. The rng
// seeds the RNN's initial hidden state; it is unused for FNN.
func Build(g *genome.Genome, l genome.Layout, rng *rand.Rand) Controller {
	w := genome.ExtractWeights(g, l)
	if l.Kind == config.ControllerRNN {
		return newRNN(w, l, rng)
	}
	return newFNN(w, l)
}

// Rebuild constructs a controller after a genome change, carrying the
// previous controller's hidden state across when the shapes still match.
// Within a run shapes never change, so somatic mutation preserves memory.
func Rebuild(g *genome.Genome, l genome.Layout, prev Controller, rng *rand.Rand) Controller {
	next := Build(g, l, rng)
	if pr, ok := prev.(*RNN); ok {
		if nr, ok := next.(*RNN); ok && len(pr.hidden) == len(nr.hidden) && len(pr.memory) == len(nr.memory) {
			copy(nr.hidden, pr.hidden)
			copy(nr.memory, pr.memory)
		}
	}
	return next
}

// Drives is the interpreted output vector. Direction components stay in
// [-1,1]; the four drive channels are mapped to [0,1].
type Drives struct {
	DirX   float32 // desired world-relative direction
	DirY   float32
	Avoid  float32 // flee drive
	Attack float32 // attack drive
	Mate   float32 // mate desire
	Effort float32 // global speed/damage/cost scale
}

// Interpret maps raw tanh outputs onto behavioral drives. Raw outputs are
// in [-1,1]; drives are rescaled with 0.5x+0.5.
func Interpret(out [config.OutputSize]float32) Drives {
	half := func(x float32) float32 { return saturate01(x*0.5 + 0.5) }
	return Drives{
		DirX:   out[0],
		DirY:   out[1],
		Avoid:  half(out[2]),
		Attack: half(out[3]),
		Mate:   half(out[4]),
		Effort: half(out[5]),
	}
}

// tanh uses a fast rational approximation avoiding float64 conversion.
// Degenerate weights can produce NaN sums; those map to 0 so a corrupt
// genome steers neutrally instead of crashing or saturating.
func tanh(x float32) float32 {
	if x != x {
		return 0
	}
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func saturate01(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x
}
