// Package spatial provides the vector math, bounding boxes and broad-phase
// grid used by weapon traces and hit validation.
//
// The grid uses preallocated slices with integer indices (not pointers)
// to minimize GC pressure and maximize cache locality.
package spatial

import (
	"math"
)

// SpatialGrid provides O(1) average spatial queries via fixed-size cells on
// the horizontal (X/Y) plane. Height is ignored by the broad phase; the
// narrow phase in the trace does the full 3D test.
//
// Entities are inserted by their XY footprint so a box spanning a cell border
// is found from either side.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = list of entity indices
	scratch     []uint32   // reusable buffer for query results
	seen        []uint32   // seen[id] == stamp while collecting one query
	stamp       uint32
	maxEntities int
}

// NewSpatialGrid creates a grid for the given world bounds.
// maxEntities is used to preallocate cell capacity.
func NewSpatialGrid(worldWidth, worldDepth, cellSize float64, maxEntities int) *SpatialGrid {
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldDepth / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntities / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
		seen:        make([]uint32, maxEntities),
		maxEntities: maxEntities,
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0] // Keep capacity, reset length
	}
}

func (g *SpatialGrid) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= g.cols {
		return g.cols - 1
	}
	return col
}

func (g *SpatialGrid) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if row >= g.rows {
		return g.rows - 1
	}
	return row
}

// Insert adds an entity whose footprint is the given box.
// The entityID should be the index into your entity slice.
func (g *SpatialGrid) Insert(entityID uint32, b Box) {
	minCol := g.clampCol(int(math.Floor(b.Min.X * g.invCellSize)))
	maxCol := g.clampCol(int(math.Floor(b.Max.X * g.invCellSize)))
	minRow := g.clampRow(int(math.Floor(b.Min.Y * g.invCellSize)))
	maxRow := g.clampRow(int(math.Floor(b.Max.Y * g.invCellSize)))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], entityID)
		}
	}
	if int(entityID) >= len(g.seen) {
		grown := make([]uint32, int(entityID)+1)
		copy(grown, g.seen)
		g.seen = grown
	}
}

// collect appends the contents of one cell to scratch, skipping entities
// already collected in this query.
func (g *SpatialGrid) collect(col, row int) {
	for _, id := range g.cells[row*g.cols+col] {
		if g.seen[id] == g.stamp {
			continue
		}
		g.seen[id] = g.stamp
		g.scratch = append(g.scratch, id)
	}
}

func (g *SpatialGrid) beginQuery() {
	g.scratch = g.scratch[:0]
	g.stamp++
	if g.stamp == 0 {
		// Wrapped: reset so stale stamps cannot collide.
		for i := range g.seen {
			g.seen[i] = 0
		}
		g.stamp = 1
	}
}

// QueryRadius returns all entity IDs potentially within radius of (cx, cy).
//
// IMPORTANT: The returned slice is reused on subsequent calls.
// Copy the results if you need to persist them.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.beginQuery()

	minCol := g.clampCol(int(math.Floor((cx - radius) * g.invCellSize)))
	maxCol := g.clampCol(int(math.Floor((cx + radius) * g.invCellSize)))
	minRow := g.clampRow(int(math.Floor((cy - radius) * g.invCellSize)))
	maxRow := g.clampRow(int(math.Floor((cy + radius) * g.invCellSize)))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.collect(col, row)
		}
	}

	return g.scratch
}

// QuerySegment returns all entity IDs in cells crossed by the XY projection
// of the segment from a to b, widened by pad on each side. Cells are walked
// with a grid DDA so long traces only touch the cells they pass through.
//
// The returned slice is reused on subsequent calls.
func (g *SpatialGrid) QuerySegment(a, b Vec3, pad float64) []uint32 {
	g.beginQuery()

	// A padded trace sweeps a band; walk it as three parallel lines when the
	// pad is smaller than a cell, otherwise fall back to the bounding rect.
	if pad > g.cellSize {
		minCol := g.clampCol(int(math.Floor((math.Min(a.X, b.X) - pad) * g.invCellSize)))
		maxCol := g.clampCol(int(math.Floor((math.Max(a.X, b.X) + pad) * g.invCellSize)))
		minRow := g.clampRow(int(math.Floor((math.Min(a.Y, b.Y) - pad) * g.invCellSize)))
		maxRow := g.clampRow(int(math.Floor((math.Max(a.Y, b.Y) + pad) * g.invCellSize)))
		for row := minRow; row <= maxRow; row++ {
			for col := minCol; col <= maxCol; col++ {
				g.collect(col, row)
			}
		}
		return g.scratch
	}

	g.walk(a.X, a.Y, b.X, b.Y)
	if pad > 0 {
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l > 0 {
			// Perpendicular offset
			px, py := -dy/l*pad, dx/l*pad
			g.walk(a.X+px, a.Y+py, b.X+px, b.Y+py)
			g.walk(a.X-px, a.Y-py, b.X-px, b.Y-py)
		} else {
			return g.QueryRadius(a.X, a.Y, pad)
		}
	}
	return g.scratch
}

// walk visits every cell the segment (x0,y0)-(x1,y1) passes through.
func (g *SpatialGrid) walk(x0, y0, x1, y1 float64) {
	col := int(math.Floor(x0 * g.invCellSize))
	row := int(math.Floor(y0 * g.invCellSize))
	endCol := int(math.Floor(x1 * g.invCellSize))
	endRow := int(math.Floor(y1 * g.invCellSize))

	dx, dy := x1-x0, y1-y0
	stepCol, stepRow := 0, 0
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)

	if dx > 0 {
		stepCol = 1
		tDeltaX = g.cellSize / dx
		tMaxX = (float64(col+1)*g.cellSize - x0) / dx
	} else if dx < 0 {
		stepCol = -1
		tDeltaX = g.cellSize / -dx
		tMaxX = (float64(col)*g.cellSize - x0) / dx
	}
	if dy > 0 {
		stepRow = 1
		tDeltaY = g.cellSize / dy
		tMaxY = (float64(row+1)*g.cellSize - y0) / dy
	} else if dy < 0 {
		stepRow = -1
		tDeltaY = g.cellSize / -dy
		tMaxY = (float64(row)*g.cellSize - y0) / dy
	}

	// Bounded by the number of cells the segment can cross.
	maxSteps := g.cols + g.rows + 2
	for i := 0; i <= maxSteps; i++ {
		if col >= 0 && col < g.cols && row >= 0 && row < g.rows {
			g.collect(col, row)
		}
		if col == endCol && row == endRow {
			return
		}
		switch {
		case tMaxX == tMaxY:
			// Exact corner crossing: step diagonally so the walk does not
			// depend on the trace direction.
			if tMaxX > 1 {
				return
			}
			col += stepCol
			row += stepRow
			tMaxX += tDeltaX
			tMaxY += tDeltaY
		case tMaxX < tMaxY:
			if tMaxX > 1 {
				return
			}
			col += stepCol
			tMaxX += tDeltaX
		default:
			if tMaxY > 1 {
				return
			}
			row += stepRow
			tMaxY += tDeltaY
		}
	}
}

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var totalEntries, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		count := len(cell)
		totalEntries += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			nonEmpty++
		}
	}

	avgPerCell := 0.0
	if nonEmpty > 0 {
		avgPerCell = float64(totalEntries) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntries:   totalEntries,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avgPerCell,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntries   int // An entity spanning several cells counts once per cell
	MaxInCell      int
	AvgPerNonEmpty float64
}

// Dimensions returns the grid dimensions.
func (g *SpatialGrid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
