// Package systems holds the per-organism simulation rules: spawning,
// behavior, reproduction and visual particles.
package systems

import (
	"math"
	"slices"
)

// SpatialGrid buckets agents by position so collision checks only visit
// nearby organisms. Entries are indices into the agent slice the grid was
// built from.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	width    float64
	height   float64
	cells    [][]int32
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	g := &SpatialGrid{cellSize: cellSize}
	g.Resize(width, height)
	return g
}

// Resize rebuilds the grid for a new world size. Existing entries are lost.
func (g *SpatialGrid) Resize(width, height float64) {
	if width == g.width && height == g.height && g.cells != nil {
		return
	}
	g.width, g.height = width, height
	g.cols = int(width/g.cellSize) + 1
	g.rows = int(height/g.cellSize) + 1
	g.cells = make([][]int32, g.cols*g.rows)
	for i := range g.cells {
		g.cells[i] = make([]int32, 0, 8)
	}
}

// CellSize returns the width of one grid cell.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds agent index i at the given position.
func (g *SpatialGrid) Insert(i int, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], int32(i))
}

// Build clears the grid and inserts every agent.
func (g *SpatialGrid) Build(agents []Agent) {
	g.Clear()
	for i, a := range agents {
		g.Insert(i, a.Pos.X, a.Pos.Y)
	}
}

// QueryInto appends the indices of every entry in cells overlapping the
// square of half-width radius around (x, y), in ascending order. Callers do
// their own exact distance test. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryInto(dst []int, x, y, radius float64) []int {
	start := len(dst)
	c0, r0 := g.cellCoords(x-radius, y-radius)
	c1, r1 := g.cellCoords(x+radius, y+radius)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, i := range g.cells[row*g.cols+col] {
				dst = append(dst, int(i))
			}
		}
	}
	slices.Sort(dst[start:])
	return dst
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}

// cellCoords returns the cell containing (x, y), clamped to the grid.
func (g *SpatialGrid) cellCoords(x, y float64) (col, row int) {
	col = int(math.Floor(x / g.cellSize))
	row = int(math.Floor(y / g.cellSize))
	col = min(max(col, 0), g.cols-1)
	row = min(max(row, 0), g.rows-1)
	return col, row
}
