package systems

import (
	"math"
	"math/rand"
	"testing"
)

type point struct {
	id   int
	x, y float32
}

func scatter(rng *rand.Rand, n int, w, h float32) []point {
	pts := make([]point, n)
	for i := range pts {
		pts[i] = point{id: i, x: rng.Float32() * w, y: rng.Float32() * h}
	}
	return pts
}

func TestQueryRadiusMatchesBruteForce(t *testing.T) {
	const (
		w, h   = 400.0, 300.0
		radius = 55.0
	)

	for _, wrap := range []bool{true, false} {
		rng := rand.New(rand.NewSource(42))
		grid := NewGrid[int](w, h, 40, wrap)
		pts := scatter(rng, 80, w, h)
		for _, p := range pts {
			grid.Insert(p.id, p.x, p.y)
		}

		for trial := 0; trial < 50; trial++ {
			qx := rng.Float32() * w
			qy := rng.Float32() * h

			want := map[int]bool{}
			for _, p := range pts {
				var dx, dy float32
				if wrap {
					dx, dy = ToroidalDelta(qx, qy, p.x, p.y, w, h)
				} else {
					dx, dy = p.x-qx, p.y-qy
				}
				if dx*dx+dy*dy <= radius*radius {
					want[p.id] = true
				}
			}

			got := grid.QueryRadiusInto(nil, qx, qy, radius, -1)
			if len(got) != len(want) {
				t.Fatalf("wrap=%v trial %d: got %d neighbors, want %d", wrap, trial, len(got), len(want))
			}
			for _, n := range got {
				if !want[n.Item] {
					t.Fatalf("wrap=%v trial %d: unexpected neighbor %d", wrap, trial, n.Item)
				}
				wantDistSq := n.DX*n.DX + n.DY*n.DY
				if math.Abs(float64(n.DistSq-wantDistSq)) > 1e-3 {
					t.Fatalf("wrap=%v: neighbor %d DistSq %f inconsistent with deltas %f", wrap, n.Item, n.DistSq, wantDistSq)
				}
			}
		}
	}
}

func TestQueryRadiusExcludesSelf(t *testing.T) {
	grid := NewGrid[int](100, 100, 25, true)
	grid.Insert(1, 50, 50)
	grid.Insert(2, 52, 50)

	got := grid.QueryRadiusInto(nil, 50, 50, 10, 1)
	if len(got) != 1 || got[0].Item != 2 {
		t.Fatalf("got %v, want only item 2", got)
	}
}

func TestQueryNearest(t *testing.T) {
	grid := NewGrid[int](200, 200, 30, true)
	grid.Insert(1, 10, 10)
	grid.Insert(2, 40, 10)
	grid.Insert(3, 190, 10) // 20 units away across the seam

	n, ok := grid.QueryNearest(10, 10, 100, 1)
	if !ok {
		t.Fatal("QueryNearest found nothing")
	}
	if n.Item != 3 {
		t.Errorf("nearest = %d, want 3 (via wrap)", n.Item)
	}
	if n.DX != -20 {
		t.Errorf("DX = %f, want -20", n.DX)
	}

	if _, ok := grid.QueryNearest(100, 100, 5, -1); ok {
		t.Error("QueryNearest in an empty region reported a hit")
	}
}

func TestQueryNearestBounded(t *testing.T) {
	grid := NewGrid[int](200, 200, 30, false)
	grid.Insert(1, 40, 10)
	grid.Insert(2, 190, 10)

	// No wrap: the seam neighbor is 180 units away, not 20.
	n, ok := grid.QueryNearest(10, 10, 100, -1)
	if !ok {
		t.Fatal("QueryNearest found nothing")
	}
	if n.Item != 1 {
		t.Errorf("nearest = %d, want 1", n.Item)
	}
}

func TestToroidalDelta(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float32
		wantDX, wantDY float32
	}{
		{"direct", 10, 10, 30, 40, 20, 30},
		{"wrap x", 5, 50, 95, 50, -10, 0},
		{"wrap y", 50, 5, 50, 95, 0, -10},
		{"wrap both", 2, 3, 98, 97, -4, -6},
		{"half width is direct", 0, 0, 50, 0, 50, 0},
	}
	for _, tt := range tests {
		dx, dy := ToroidalDelta(tt.x1, tt.y1, tt.x2, tt.y2, 100, 100)
		if dx != tt.wantDX || dy != tt.wantDY {
			t.Errorf("%s: delta = (%f, %f), want (%f, %f)", tt.name, dx, dy, tt.wantDX, tt.wantDY)
		}
	}
}

func TestWrapPosition(t *testing.T) {
	tests := []struct {
		x, y         float32
		wantX, wantY float32
	}{
		{50, 50, 50, 50},
		{150, 50, 50, 50},
		{-10, 50, 90, 50},
		{50, -50, 50, 50},
		{0, 100, 0, 0},
	}
	for _, tt := range tests {
		x, y := WrapPosition(tt.x, tt.y, 100, 100)
		if math.Abs(float64(x-tt.wantX)) > 1e-4 || math.Abs(float64(y-tt.wantY)) > 1e-4 {
			t.Errorf("WrapPosition(%f, %f) = (%f, %f), want (%f, %f)", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestQueryResultCap(t *testing.T) {
	grid := NewGrid[int](100, 100, 25, true)
	for i := 0; i < MaxQueryResults+50; i++ {
		grid.Insert(i, 50, 50)
	}
	got := grid.QueryRadiusInto(nil, 50, 50, 10, -1)
	if len(got) != MaxQueryResults {
		t.Errorf("got %d results, want cap %d", len(got), MaxQueryResults)
	}
}

func TestQueryRadiusWiderThanWorldNoDuplicates(t *testing.T) {
	// Radius beyond half the world: the wrapped cell window would cover
	// the grid more than once, which must not repeat items.
	grid := NewGrid[int](100, 100, 25, true)
	grid.Insert(7, 10, 10)

	got := grid.QueryRadiusInto(nil, 50, 50, 60, -1)
	if len(got) != 1 {
		t.Fatalf("got %d results, want the single item once: %v", len(got), got)
	}
	if got[0].Item != 7 {
		t.Errorf("got item %d, want 7", got[0].Item)
	}

	rng := rand.New(rand.NewSource(8))
	grid.Clear()
	pts := scatter(rng, 40, 100, 100)
	for _, p := range pts {
		grid.Insert(p.id, p.x, p.y)
	}

	got = grid.QueryRadiusInto(got[:0], 50, 50, 90, -1)
	if len(got) != len(pts) {
		t.Fatalf("got %d results, want %d", len(got), len(pts))
	}
	seen := map[int]int{}
	for _, n := range got {
		seen[n.Item]++
	}
	for item, count := range seen {
		if count != 1 {
			t.Errorf("item %d returned %d times", item, count)
		}
	}

	n, ok := grid.QueryNearest(50, 50, 90, pts[0].id)
	if !ok {
		t.Fatal("QueryNearest found nothing with a world-covering radius")
	}
	if n.DistSq > 90*90 {
		t.Errorf("nearest DistSq %f exceeds the search radius", n.DistSq)
	}
}

func BenchmarkQueryRadius(b *testing.B) {
	const w, h = 1000.0, 1000.0
	rng := rand.New(rand.NewSource(42))
	grid := NewGrid[int](w, h, 80, true)
	pts := scatter(rng, 500, w, h)
	for _, p := range pts {
		grid.Insert(p.id, p.x, p.y)
	}

	var dst []Neighbor[int]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = grid.QueryRadiusInto(dst[:0], 500, 500, 120, -1)
	}
}
