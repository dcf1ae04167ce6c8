package colorquant

import "math"

// KMeansResult holds the outcome of KMeansCluster.
type KMeansResult struct {
	Centroids  []Point
	Labels     []int32
	Iterations int
}

// kmeansStrideThreshold is the k above which centroid initialization
// substitutes a striding heuristic for full K-Means++ weighted sampling, to
// cap init cost at O(n) instead of O(n*k). This is a documented performance
// bypass (spec 4.4) and must not be relied on for determinism across
// different k values.
const kmeansStrideThreshold = 64

// KMeansCluster runs K-Means++ initialization followed by Lloyd iteration
// to convergence. Returns InvalidArgument if points is empty or k <= 0. If
// k exceeds len(points), k is reduced to len(points).
func KMeansCluster(points []Point, k int, maxIter int, threshold float32, seed uint64) (*KMeansResult, error) {
	n := len(points)
	if n == 0 {
		return nil, newError(InvalidArgument, "kmeans_cluster: empty input")
	}
	if k <= 0 {
		return nil, newError(InvalidArgument, "kmeans_cluster: k must be positive")
	}
	if k > n {
		k = n
	}

	rng := NewRNG(seed)
	centroids := initCentroids(points, k, rng)
	labels := make([]int32, n)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	iterations := 0
	for iter := 0; iter < maxIter; iter++ {
		iterations++
		changed := AssignBatch(points, centroids, assignments)

		sums := make([]point64, k)
		counts := make([]int, k)
		for i, a := range assignments {
			sums[a].c1 += float64(points[i].C1)
			sums[a].c2 += float64(points[i].C2)
			sums[a].c3 += float64(points[i].C3)
			counts[a]++
		}

		repairRNG := NewRNG(seed + uint64(iter) + 1)
		newCentroids := make([]Point, k)
		var maxMovement float32
		for c := 0; c < k; c++ {
			var next Point
			if counts[c] == 0 {
				next = points[repairRNG.NextIntBelow(n)]
			} else {
				inv := 1.0 / float64(counts[c])
				next = Point{
					C1: float32(sums[c].c1 * inv),
					C2: float32(sums[c].c2 * inv),
					C3: float32(sums[c].c3 * inv),
				}
			}
			movement := float32(math.Sqrt(float64(DistSq(centroids[c], next))))
			if movement > maxMovement {
				maxMovement = movement
			}
			newCentroids[c] = next
		}
		centroids = newCentroids

		if maxMovement < threshold || changed == 0 {
			break
		}
	}

	for i, a := range assignments {
		labels[i] = int32(a)
	}

	return &KMeansResult{Centroids: centroids, Labels: labels, Iterations: iterations}, nil
}

type point64 struct {
	c1, c2, c3 float64
}

// initCentroids runs K-Means++ weighted sampling, or the striding
// heuristic when k is large (spec 4.4).
func initCentroids(points []Point, k int, rng *RNG) []Point {
	n := len(points)
	centroids := make([]Point, k)
	centroids[0] = points[rng.NextIntBelow(n)]

	if k > kmeansStrideThreshold {
		stride := n / k
		if stride < 1 {
			stride = 1
		}
		for c := 1; c < k; c++ {
			start := c * stride
			if start >= n {
				start = n - 1
			}
			span := stride
			if start+span > n {
				span = n - start
			}
			if span < 1 {
				span = 1
			}
			centroids[c] = points[start+rng.NextIntBelow(span)]
		}
		return centroids
	}

	dist := make([]float32, n)
	for c := 1; c < k; c++ {
		var total float64
		for i, p := range points {
			best := DistSq(p, centroids[0])
			for j := 1; j < c; j++ {
				d := DistSq(p, centroids[j])
				if d < best {
					best = d
				}
			}
			dist[i] = best
			total += float64(best)
		}

		target := rng.NextUnit() * total
		var cum float64
		chosen := n - 1
		for i, d := range dist {
			cum += float64(d)
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids[c] = points[chosen]
	}
	return centroids
}
