package colorquant

import "math"

// spatialGrid is a dense 3-D uniform grid over a point set, sized so that
// cell size equals epsilon. Used to accelerate DBSCAN range queries.
type spatialGrid struct {
	minC1, minC2, minC3 float32
	cellSize            float32
	g                    int // per-dimension cell count
	cellStart            []int32
	occupants            []int32 // flattened, cellStart[c]..cellStart[c+1]
}

const maxGridDim = 256

// newSpatialGrid builds the grid over points using the given epsilon as
// cell size. A first pass counts occupants per cell, then cell index
// arrays are sized exactly and filled in a second pass (spec 4.5).
func newSpatialGrid(points []Point, eps float32) *spatialGrid {
	n := len(points)
	minC1, minC2, minC3 := points[0].C1, points[0].C2, points[0].C3
	maxC1, maxC2, maxC3 := points[0].C1, points[0].C2, points[0].C3
	for _, p := range points {
		if p.C1 < minC1 {
			minC1 = p.C1
		}
		if p.C2 < minC2 {
			minC2 = p.C2
		}
		if p.C3 < minC3 {
			minC3 = p.C3
		}
		if p.C1 > maxC1 {
			maxC1 = p.C1
		}
		if p.C2 > maxC2 {
			maxC2 = p.C2
		}
		if p.C3 > maxC3 {
			maxC3 = p.C3
		}
	}

	maxRange := maxC1 - minC1
	if r := maxC2 - minC2; r > maxRange {
		maxRange = r
	}
	if r := maxC3 - minC3; r > maxRange {
		maxRange = r
	}

	g := int(math.Ceil(float64(maxRange / eps)))
	if g < 1 {
		g = 1
	}
	if g > maxGridDim {
		g = maxGridDim
	}

	grid := &spatialGrid{
		minC1:    minC1 - eps,
		minC2:    minC2 - eps,
		minC3:    minC3 - eps,
		cellSize: eps,
		g:        g,
	}

	numCells := g * g * g
	counts := make([]int32, numCells+1)
	cellIdx := make([]int, n)
	for i, p := range points {
		c := grid.cellIndex(p)
		cellIdx[i] = c
		counts[c+1]++
	}
	for c := 0; c < numCells; c++ {
		counts[c+1] += counts[c]
	}

	occupants := make([]int32, n)
	cursor := make([]int32, numCells)
	copy(cursor, counts[:numCells])
	for i := 0; i < n; i++ {
		c := cellIdx[i]
		occupants[cursor[c]] = int32(i)
		cursor[c]++
	}

	grid.cellStart = counts
	grid.occupants = occupants
	return grid
}

func (s *spatialGrid) coord(p Point) (int, int, int) {
	cx := int((p.C1 - s.minC1) / s.cellSize)
	cy := int((p.C2 - s.minC2) / s.cellSize)
	cz := int((p.C3 - s.minC3) / s.cellSize)
	cx = clampCell(cx, s.g)
	cy = clampCell(cy, s.g)
	cz = clampCell(cz, s.g)
	return cx, cy, cz
}

func clampCell(c, g int) int {
	if c < 0 {
		return 0
	}
	if c >= g {
		return g - 1
	}
	return c
}

func (s *spatialGrid) cellIndex(p Point) int {
	cx, cy, cz := s.coord(p)
	return cx*s.g*s.g + cy*s.g + cz
}

// rangeQuery appends the indices of every occupant within eps (inclusive,
// squared comparison) of points[i] to dst, in the order: cell loop over
// dx,dy,dz in {-1,0,1}, then insertion order within each cell. Includes i
// itself. This ordering is a determinism contract (spec 4.5).
func (s *spatialGrid) rangeQuery(points []Point, i int, epsSq float32, dst []int32) []int32 {
	cx, cy, cz := s.coord(points[i])
	pi := points[i]
	for dx := -1; dx <= 1; dx++ {
		nx := cx + dx
		if nx < 0 || nx >= s.g {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			ny := cy + dy
			if ny < 0 || ny >= s.g {
				continue
			}
			for dz := -1; dz <= 1; dz++ {
				nz := cz + dz
				if nz < 0 || nz >= s.g {
					continue
				}
				cell := nx*s.g*s.g + ny*s.g + nz
				start, end := s.cellStart[cell], s.cellStart[cell+1]
				for _, j := range s.occupants[start:end] {
					if DistSq(pi, points[j]) <= epsSq {
						dst = append(dst, j)
					}
				}
			}
		}
	}
	return dst
}
