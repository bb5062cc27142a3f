package genome

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/vivarium/config"
)

func TestLayoutForFNN(t *testing.T) {
	l, err := LayoutFor(config.ControllerFNN, 0)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}

	if l.Inputs != config.BaseInputs {
		t.Errorf("inputs = %d, want %d", l.Inputs, config.BaseInputs)
	}
	if l.WihBase != WeightGeneBase {
		t.Errorf("WihBase = %d, want %d", l.WihBase, WeightGeneBase)
	}
	if l.WhhBase != l.BhBase {
		t.Errorf("FNN should have an empty recurrent range: WhhBase=%d BhBase=%d", l.WhhBase, l.BhBase)
	}

	want := l.Hidden*l.Inputs + l.Hidden + l.Outputs*l.Hidden + l.Outputs
	if l.ParamCount() != want {
		t.Errorf("ParamCount = %d, want %d", l.ParamCount(), want)
	}
	if l.End > TotalGenes {
		t.Errorf("layout end %d exceeds genome size %d", l.End, TotalGenes)
	}
}

func TestLayoutForRNN(t *testing.T) {
	l, err := LayoutFor(config.ControllerRNN, 1)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}

	if l.Inputs != config.BaseInputs+config.HiddenSize {
		t.Errorf("inputs = %d, want %d", l.Inputs, config.BaseInputs+config.HiddenSize)
	}
	if l.BhBase-l.WhhBase != l.Hidden*l.Hidden {
		t.Errorf("recurrent range size = %d, want %d", l.BhBase-l.WhhBase, l.Hidden*l.Hidden)
	}

	want := l.Hidden*l.Inputs + l.Hidden*l.Hidden + l.Hidden + l.Outputs*l.Hidden + l.Outputs
	if l.ParamCount() != want {
		t.Errorf("ParamCount = %d, want %d", l.ParamCount(), want)
	}
	if l.End > TotalGenes {
		t.Errorf("layout end %d exceeds genome size %d", l.End, TotalGenes)
	}
}

func TestExtractWeightsDecodesScale(t *testing.T) {
	l, err := LayoutFor(config.ControllerFNN, 0)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}

	g := NewRandom(rand.New(rand.NewSource(8)))

	// Pin two genes: one at the neutral midpoint, one fully expressed.
	mid := g.geneRef(l.WihBase)
	mid.A = Allele{Value: 0.5, Dominance: 0.5}
	mid.B = Allele{Value: 0.5, Dominance: 0.5}
	mid.Expressed = Express(*mid)

	hot := g.geneRef(l.WihBase + 1)
	hot.A = Allele{Value: 1, Dominance: 1}
	hot.B = Allele{Value: 0, Dominance: 0}
	hot.Expressed = Express(*hot)

	w := ExtractWeights(g, l)
	if w.Padded != 0 {
		t.Fatalf("Padded = %d on a full-size genome, want 0", w.Padded)
	}
	if w.Whh != nil {
		t.Error("FNN extraction should not allocate a recurrent matrix")
	}
	if w.Wih[0] != 0 {
		t.Errorf("midpoint gene decoded to %f, want 0", w.Wih[0])
	}
	if math.Abs(float64(w.Wih[1])-0.5*WeightScale) > 1e-6 {
		t.Errorf("fully expressed gene decoded to %f, want %f", w.Wih[1], 0.5*WeightScale)
	}
}

func TestExtractWeightsZeroPadsShortGenome(t *testing.T) {
	l, err := LayoutFor(config.ControllerRNN, 1)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}

	g := NewRandom(rand.New(rand.NewSource(8)))

	// Drop chromosome pairs until the genome no longer covers the layout.
	for g.Len() >= l.End {
		g.Pairs = g.Pairs[:len(g.Pairs)-1]
	}

	missing := l.End - g.Len()
	w := ExtractWeights(g, l)
	if w.Padded != missing {
		t.Errorf("Padded = %d, want %d", w.Padded, missing)
	}
	for i, v := range w.Bo {
		if v != 0 {
			t.Errorf("padded weight Bo[%d] = %f, want 0", i, v)
		}
	}
}

func TestApplyIdentityBiasDiagonalOnly(t *testing.T) {
	l, err := LayoutFor(config.ControllerRNN, 1)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}

	g := NewRandom(rand.New(rand.NewSource(15)))
	before := ExtractWeights(g, l)
	ApplyIdentityBias(g, l)
	after := ExtractWeights(g, l)

	for r := 0; r < l.Hidden; r++ {
		for c := 0; c < l.Hidden; c++ {
			idx := r*l.Hidden + c
			delta := float64(after.Whh[idx] - before.Whh[idx])
			if r == c {
				if math.Abs(delta-0.5) > 1e-5 {
					t.Errorf("diagonal (%d,%d): delta = %f, want 0.5", r, c, delta)
				}
			} else if delta != 0 {
				t.Errorf("off-diagonal (%d,%d) changed by %f", r, c, delta)
			}
		}
	}

	// The rest of the weight ranges are untouched.
	for i := range before.Wih {
		if before.Wih[i] != after.Wih[i] {
			t.Fatalf("Wih[%d] changed", i)
		}
	}

	// FNN layouts are a no-op.
	fl, err := LayoutFor(config.ControllerFNN, 0)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}
	fg := NewRandom(rand.New(rand.NewSource(15)))
	fb := ExtractWeights(fg, fl)
	ApplyIdentityBias(fg, fl)
	fa := ExtractWeights(fg, fl)
	for i := range fb.Wih {
		if fb.Wih[i] != fa.Wih[i] {
			t.Fatal("identity bias modified an FNN genome")
		}
	}
}
