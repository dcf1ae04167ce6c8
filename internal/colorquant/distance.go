package colorquant

import (
	"runtime"
	"sync"
)

// DistSq returns the squared Euclidean distance between two points. This is
// the only metric used inside clustering.
func DistSq(a, b Point) float32 {
	d1 := a.C1 - b.C1
	d2 := a.C2 - b.C2
	d3 := a.C3 - b.C3
	return d1*d1 + d2*d2 + d3*d3
}

// PerceptualDistSq weights the per-channel squared difference according to
// the average red value of the two points: (2,4,3) when avg_r < 128, else
// (3,4,2). Used only by palette remap, never inside clustering.
func PerceptualDistSq(a, b Point) float32 {
	avgR := (a.C1 + b.C1) / 2
	var wr, wg, wb float32
	if avgR < 128 {
		wr, wg, wb = 2, 4, 3
	} else {
		wr, wg, wb = 3, 4, 2
	}
	dr := a.C1 - b.C1
	dg := a.C2 - b.C2
	db := a.C3 - b.C3
	return wr*dr*dr + wg*dg*dg + wb*db*db
}

// Nearest scans centroids and returns the index of the closest one to
// point, breaking ties toward the lower index.
func Nearest(point Point, centroids []Point) int {
	best := 0
	bestDist := DistSq(point, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := DistSq(point, centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// NearestPerceptual is Nearest under the perceptually weighted metric, used
// by palette remap.
func NearestPerceptual(point Point, palette []Point) int {
	best := 0
	bestDist := PerceptualDistSq(point, palette[0])
	for i := 1; i < len(palette); i++ {
		d := PerceptualDistSq(point, palette[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// AssignBatch assigns every point to its nearest centroid, writing into
// assignments, and returns the number of assignments that changed relative
// to the slice's incoming contents. The work is split across
// runtime.GOMAXPROCS(0) goroutines with per-worker local change counts
// reduced at the end, following a row-chunk fan-out pattern.
func AssignBatch(points []Point, centroids []Point, assignments []int) int {
	n := len(points)
	if n == 0 {
		return 0
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 || n < 256 {
		changed := 0
		for i, p := range points {
			a := Nearest(p, centroids)
			if assignments[i] != a {
				changed++
			}
			assignments[i] = a
		}
		return changed
	}

	chunk := (n + workers - 1) / workers
	changes := make([]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			local := 0
			for i := start; i < end; i++ {
				a := Nearest(points[i], centroids)
				if assignments[i] != a {
					local++
				}
				assignments[i] = a
			}
			changes[w] = local
		}(w, start, end)
	}
	wg.Wait()

	total := 0
	for _, c := range changes {
		total += c
	}
	return total
}
