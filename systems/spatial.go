// Package systems provides the per-tick building blocks of the simulation:
// the spatial index, the sensing model, and pure helpers for combat,
// metabolism, hydration, and disease.
package systems

import "math"

// Neighbor holds a nearby item with precomputed spatial data. Deltas are
// computed once at query time so sensors never redo the wrap arithmetic.
type Neighbor[T comparable] struct {
	Item   T
	DX, DY float32 // delta from query origin, respecting topology
	DistSq float32
}

// entry is one stored item with its insert position.
type entry[T comparable] struct {
	item T
	x, y float32
}

// Grid is a uniform spatial index over the world. It is rebuilt from a full
// snapshot every tick and read-only for the remainder of the tick.
//
// Cell size trades cell-iteration overhead against per-cell population:
// too small and radius queries touch many near-empty cells, too large and
// each query degenerates toward a linear scan. It is configurable; the
// default tracks the largest common query radius (vision range).
type Grid[T comparable] struct {
	cellSize float32
	cols     int
	rows     int
	width    float32
	height   float32
	wrap     bool
	cells    [][]entry[T]
}

// NewGrid creates a grid covering the given world size. wrap selects
// toroidal topology; otherwise deltas are plain Euclidean and out-of-range
// cells are skipped instead of wrapped.
func NewGrid[T comparable](width, height, cellSize float32, wrap bool) *Grid[T] {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]entry[T], cols*rows)
	for i := range cells {
		cells[i] = make([]entry[T], 0, 8)
	}

	return &Grid[T]{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		wrap:     wrap,
		cells:    cells,
	}
}

// Clear removes all items, keeping cell capacity for the next rebuild.
func (g *Grid[T]) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an item at the given position.
func (g *Grid[T]) Insert(item T, x, y float32) {
	idx := g.cellIndex(x, y)
	if idx >= 0 && idx < len(g.cells) {
		g.cells[idx] = append(g.cells[idx], entry[T]{item: item, x: x, y: y})
	}
}

// MaxQueryResults caps the number of neighbors returned by radius queries
// so density spikes cannot cause unbounded per-agent work.
const MaxQueryResults = 128

// QueryRadiusInto appends all items within radius of (x, y) to dst, up to
// MaxQueryResults, excluding the item equal to exclude. Reuse dst across
// calls to avoid allocations. An empty neighborhood yields dst unchanged.
func (g *Grid[T]) QueryRadiusInto(dst []Neighbor[T], x, y, radius float32, exclude T) []Neighbor[T] {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)
	radiusSq := radius * radius

	loC, hiC := g.axisSpan(cellRadius, g.cols)
	loR, hiR := g.axisSpan(cellRadius, g.rows)

	for dc := loC; dc <= hiC; dc++ {
		for dr := loR; dr <= hiR; dr++ {
			col := centerCol + dc
			row := centerRow + dr
			if g.wrap {
				col = ((col % g.cols) + g.cols) % g.cols
				row = ((row % g.rows) + g.rows) % g.rows
			} else if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}
			idx := row*g.cols + col

			for i := range g.cells[idx] {
				e := &g.cells[idx][i]
				if e.item == exclude {
					continue
				}
				dx, dy := g.Delta(x, y, e.x, e.y)
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor[T]{Item: e.item, DX: dx, DY: dy, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}
	return dst
}

// QueryNearest returns the closest item to (x, y) within maxRadius,
// excluding exclude. ok is false when the neighborhood is empty.
func (g *Grid[T]) QueryNearest(x, y, maxRadius float32, exclude T) (n Neighbor[T], ok bool) {
	best := maxRadius * maxRadius
	found := false

	cellRadius := int(maxRadius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	loC, hiC := g.axisSpan(cellRadius, g.cols)
	loR, hiR := g.axisSpan(cellRadius, g.rows)

	for dc := loC; dc <= hiC; dc++ {
		for dr := loR; dr <= hiR; dr++ {
			col := centerCol + dc
			row := centerRow + dr
			if g.wrap {
				col = ((col % g.cols) + g.cols) % g.cols
				row = ((row % g.rows) + g.rows) % g.rows
			} else if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}
			idx := row*g.cols + col

			for i := range g.cells[idx] {
				e := &g.cells[idx][i]
				if e.item == exclude {
					continue
				}
				dx, dy := g.Delta(x, y, e.x, e.y)
				distSq := dx*dx + dy*dy
				if distSq <= best {
					best = distSq
					n = Neighbor[T]{Item: e.item, DX: dx, DY: dy, DistSq: distSq}
					found = true
				}
			}
		}
	}
	return n, found
}

// axisSpan bounds the cell window on one axis. In wrap mode a window
// wider than the axis would revisit wrapped cells and return duplicates,
// so it is clamped to exactly one pass over the axis.
func (g *Grid[T]) axisSpan(cellRadius, n int) (lo, hi int) {
	if g.wrap && 2*cellRadius+1 > n {
		return 0, n - 1
	}
	return -cellRadius, cellRadius
}

// Delta returns the shortest delta from (x1,y1) to (x2,y2) under the
// grid's topology.
func (g *Grid[T]) Delta(x1, y1, x2, y2 float32) (dx, dy float32) {
	if g.wrap {
		return ToroidalDelta(x1, y1, x2, y2, g.width, g.height)
	}
	return x2 - x1, y2 - y1
}

// cellIndex returns the flat index for a world position.
func (g *Grid[T]) cellIndex(x, y float32) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}

// ToroidalDelta returns the shortest path delta from (x1,y1) to (x2,y2) on
// a torus of size (w, h).
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}

// WrapPosition maps a position back into [0,w) x [0,h).
func WrapPosition(x, y, w, h float32) (float32, float32) {
	return mod(x, w), mod(y, h)
}

// mod returns positive modulo (Go's % can return negative).
func mod(a, b float32) float32 {
	return float32(math.Mod(float64(a)+float64(b), float64(b)))
}
