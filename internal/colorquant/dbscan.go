package colorquant

import (
	"math"
	"sort"
)

// Label sentinels for DBSCAN output. NOISE and UNCLASSIFIED are the only
// values exposed publicly; the expansion loop additionally tracks queue
// membership via a bitmap rather than a third sentinel (spec 9, "Bitmap-
// as-int-array").
const (
	NOISE        int32 = -1
	UNCLASSIFIED int32 = -2
)

// DBSCANResult holds the outcome of DBSCANCluster.
type DBSCANResult struct {
	Labels      []int32
	NumClusters int
}

// bitset is a compact bit vector used for the DBSCAN in_queue membership
// test.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) get(i int32) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b bitset) set(i int32) {
	b[i>>6] |= 1 << (uint(i) & 63)
}

func (b bitset) clear(i int32) {
	b[i>>6] &^= 1 << (uint(i) & 63)
}

// DBSCANCluster runs grid-accelerated DBSCAN over points. Returns
// InvalidArgument if points is empty.
func DBSCANCluster(points []Point, eps float32, minPts int) (*DBSCANResult, error) {
	n := len(points)
	if n == 0 {
		return nil, newError(InvalidArgument, "dbscan_cluster: empty input")
	}

	labels := make([]int32, n)
	for i := range labels {
		labels[i] = UNCLASSIFIED
	}

	grid := newSpatialGrid(points, eps)
	epsSq := eps * eps
	inQueue := newBitset(n)

	var neighborBuf []int32
	var queryBuf []int32
	var usedBits []int32
	clusterID := int32(0)

	for i := 0; i < n; i++ {
		if labels[i] != UNCLASSIFIED {
			continue
		}

		neighborBuf = grid.rangeQuery(points, i, epsSq, neighborBuf[:0])
		if len(neighborBuf) < minPts {
			labels[i] = NOISE
			continue
		}

		labels[i] = clusterID
		usedBits = usedBits[:0]
		queue := make([]int32, 0, len(neighborBuf))
		for _, q := range neighborBuf {
			if q == int32(i) || inQueue.get(q) {
				continue
			}
			inQueue.set(q)
			usedBits = append(usedBits, q)
			queue = append(queue, q)
		}

		head := 0
		for head < len(queue) {
			q := queue[head]
			head++

			switch labels[q] {
			case NOISE:
				labels[q] = clusterID
			case UNCLASSIFIED:
				labels[q] = clusterID
				queryBuf = grid.rangeQuery(points, int(q), epsSq, queryBuf[:0])
				if len(queryBuf) >= minPts {
					for _, j := range queryBuf {
						if (labels[j] == UNCLASSIFIED || labels[j] == NOISE) && !inQueue.get(j) {
							inQueue.set(j)
							usedBits = append(usedBits, j)
							queue = append(queue, j)
						}
					}
				}
			default:
				// already assigned to some cluster; nothing to do.
			}
		}

		for _, b := range usedBits {
			inQueue.clear(b)
		}
		clusterID++
	}

	return &DBSCANResult{Labels: labels, NumClusters: int(clusterID)}, nil
}

// EstimateEps implements the k-distance elbow heuristic: for k =
// max(1, minPts-1), sample up to sampleSize points, compute each one's
// exact k-th nearest-neighbor distance (a full sort of all n distances per
// sample, O(n log n) each — intentionally not replaced with quickselect
// since sampleSize is small and caller-bounded,
// see DESIGN.md), sort the results, and return the 85th percentile
// clamped to [5, 100].
func EstimateEps(points []Point, minPts, sampleSize int, seed uint64) (float32, error) {
	n := len(points)
	if n == 0 {
		return 0, newError(InvalidArgument, "dbscan_calculate_eps: empty input")
	}

	k := minPts - 1
	if k < 1 {
		k = 1
	}
	if k >= n {
		k = n - 1
	}

	s := sampleSize
	if s > n {
		s = n
	}
	if s < 1 {
		s = 1
	}

	rng := NewRNG(seed)
	kDistances := make([]float64, s)
	dist := make([]float64, n)
	for si := 0; si < s; si++ {
		idx := rng.NextIntBelow(n)
		p := points[idx]
		for j, q := range points {
			dist[j] = float64(DistSq(p, q))
		}
		sort.Float64s(dist)
		kDistances[si] = dist[k]
	}
	sort.Float64s(kDistances)

	idx := int(0.85 * float64(len(kDistances)))
	if idx >= len(kDistances) {
		idx = len(kDistances) - 1
	}
	eps := float32(math.Sqrt(kDistances[idx]))
	if eps < 5 {
		eps = 5
	}
	if eps > 100 {
		eps = 100
	}
	return eps, nil
}

// DBSCANCentroids accumulates component sums in 64-bit floats per cluster
// and divides by member count. Empty clusters map to a neutral gray
// fallback (127.5, 127.5, 127.5).
func DBSCANCentroids(points []Point, labels []int32, numClusters int) []Point {
	sums := make([]point64, numClusters)
	counts := make([]int, numClusters)
	for i, l := range labels {
		if l < 0 || int(l) >= numClusters {
			continue
		}
		sums[l].c1 += float64(points[i].C1)
		sums[l].c2 += float64(points[i].C2)
		sums[l].c3 += float64(points[i].C3)
		counts[l]++
	}

	out := make([]Point, numClusters)
	for c := 0; c < numClusters; c++ {
		if counts[c] == 0 {
			out[c] = Point{127.5, 127.5, 127.5}
			continue
		}
		inv := 1.0 / float64(counts[c])
		out[c] = Point{
			C1: float32(sums[c].c1 * inv),
			C2: float32(sums[c].c2 * inv),
			C3: float32(sums[c].c3 * inv),
		}
	}
	return out
}
