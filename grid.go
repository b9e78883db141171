package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Grid is the uniform 3D spatial hash index of spec.md §3/§4.B: a cell of
// size cellSize, Gx·Gy·Gz cells, rebuilt from scratch every step from the
// current particle positions.
//
// Grounded on the rebuild-every-frame structure of this codebase's hashed
// spatial index (clear, insert-all, then query cell-by-cell), which backs
// cells with a Go map keyed by a mixed hash. This one instead uses the
// spec's dense sorted-array layout (cellId/particleId → sortedCellId/
// sortedParticleId → cellStart) because neighbour iteration here needs an
// O(1) "first particle in this cell" lookup, not just set membership.
type Grid struct {
	dims     [3]int
	origin   mgl32.Vec3
	cellSize float32

	cellId     []int32
	particleId []int32

	sortedCellId     []int32
	sortedParticleId []int32

	cellStart []int32 // len Gx*Gy*Gz; -1 means empty

	numMaxParticlePerCell int
}

const emptyCell int32 = -1

// NewGrid builds a grid of the given cell dimensions, cell size, and world
// origin.
func NewGrid(dims [3]int, origin mgl32.Vec3, cellSize float32, numMaxParticlePerCell int) *Grid {
	numCells := dims[0] * dims[1] * dims[2]
	g := &Grid{
		dims:                  dims,
		origin:                origin,
		cellSize:              cellSize,
		cellStart:             make([]int32, numCells),
		numMaxParticlePerCell: numMaxParticlePerCell,
	}
	for i := range g.cellStart {
		g.cellStart[i] = emptyCell
	}
	return g
}

func wrapPositive(v, n int) int {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

// cellOf computes the wrapped (x,y,z) cell coordinate of a world position.
func (g *Grid) cellOf(p mgl32.Vec3) [3]int {
	rel := p.Sub(g.origin)
	fx := int(math.Floor(float64(rel.X() / g.cellSize)))
	fy := int(math.Floor(float64(rel.Y() / g.cellSize)))
	fz := int(math.Floor(float64(rel.Z() / g.cellSize)))
	return [3]int{
		wrapPositive(fx, g.dims[0]),
		wrapPositive(fy, g.dims[1]),
		wrapPositive(fz, g.dims[2]),
	}
}

func (g *Grid) cellIndex(c [3]int) int32 {
	return int32(c[0] + g.dims[0]*(c[1]+g.dims[1]*c[2]))
}

func (g *Grid) numCells() int {
	return g.dims[0] * g.dims[1] * g.dims[2]
}

// Update rebuilds the grid from positions[0:n] (spec.md §4.B).
//
// Step 4 of spec.md ("write cellStart[sortedCellId[i]] = i when the cell id
// changes") is folded into the counting sort below: a stable counting
// sort's prefix-sum offsets already give the first index of every
// non-empty cell, so there is no need to separately re-scan the sorted
// array for boundaries. The observable contract (§8: "cellStart[cellId[i]]
// != -1 and i appears in the contiguous run for that cell") is identical.
func (g *Grid) Update(positions []mgl32.Vec3, n int, scratch *Storage) {
	numCells := g.numCells()

	for i := range g.cellStart {
		g.cellStart[i] = emptyCell
	}

	if cap(g.cellId) < n {
		g.cellId = make([]int32, n)
		g.particleId = make([]int32, n)
		g.sortedCellId = make([]int32, n)
		g.sortedParticleId = make([]int32, n)
	}
	g.cellId = g.cellId[:n]
	g.particleId = g.particleId[:n]
	g.sortedCellId = g.sortedCellId[:n]
	g.sortedParticleId = g.sortedParticleId[:n]

	for i := 0; i < n; i++ {
		g.cellId[i] = g.cellIndex(g.cellOf(positions[i]))
		g.particleId[i] = int32(i)
	}

	// Counting sort by cellId: a single-pass radix sort whose base is the
	// number of cells, stable, O(n + numCells).
	counts := scratch.ensureScratch(numCells + 1)
	for i := range counts {
		counts[i] = 0
	}
	for i := 0; i < n; i++ {
		counts[g.cellId[i]+1]++
	}
	for c := 1; c <= numCells; c++ {
		counts[c] += counts[c-1]
	}
	cursor := make([]int32, numCells)
	copy(cursor, counts[:numCells])
	for c := 0; c < numCells; c++ {
		if counts[c] != counts[c+1] {
			g.cellStart[c] = counts[c]
		}
	}
	for i := 0; i < n; i++ {
		c := g.cellId[i]
		slot := cursor[c]
		cursor[c]++
		g.sortedCellId[slot] = c
		g.sortedParticleId[slot] = int32(i)
	}
}

// ForEachNeighbour walks the (2k+1)^3 block of cells around q's cell and
// invokes fn for every candidate particle id found there, honouring the
// NUM_MAX_PARTICLE_PER_CELL truncation cap of spec.md §4.B.
func (g *Grid) ForEachNeighbour(q mgl32.Vec3, k int, fn func(candidate int32)) {
	center := g.cellOf(q)
	for dz := -k; dz <= k; dz++ {
		for dy := -k; dy <= k; dy++ {
			for dx := -k; dx <= k; dx++ {
				c := [3]int{
					wrapPositive(center[0]+dx, g.dims[0]),
					wrapPositive(center[1]+dy, g.dims[1]),
					wrapPositive(center[2]+dz, g.dims[2]),
				}
				cell := g.cellIndex(c)
				start := g.cellStart[cell]
				if start == emptyCell {
					continue
				}
				scanned := 0
				for i := int(start); i < len(g.sortedCellId) && g.sortedCellId[i] == cell; i++ {
					if scanned >= g.numMaxParticlePerCell {
						break
					}
					fn(g.sortedParticleId[i])
					scanned++
				}
			}
		}
	}
}

// CellStartFor returns the start offset for the cell containing q, or
// emptyCell (-1) if that cell has no particles. Exposed for tests
// validating §8's grid-correctness property.
func (g *Grid) CellStartFor(q mgl32.Vec3) int32 {
	return g.cellStart[g.cellIndex(g.cellOf(q))]
}

// SortedParticleIDs returns the sorted particle-id slice (test/inspection
// use only).
func (g *Grid) SortedParticleIDs() []int32 { return g.sortedParticleId }

// SortedCellIDs returns the sorted cell-id slice (test/inspection use only).
func (g *Grid) SortedCellIDs() []int32 { return g.sortedCellId }
