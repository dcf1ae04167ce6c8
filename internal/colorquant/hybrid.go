package colorquant

import (
	"runtime"
	"sort"
	"sync"
)

// HybridParams collects the tuning knobs for HybridCluster, grouped since
// the operation takes more arguments than is comfortable as a flat
// parameter list.
type HybridParams struct {
	K         int
	BlockSize int
	Eps       float32
	MinPts    int
	MaxIter   int
	Threshold float32
	Seed      uint64
}

// HybridResult holds the outcome of HybridCluster.
type HybridResult struct {
	Centroids  []Point
	Iterations int
}

// HybridCluster partitions points into contiguous blocks, runs DBSCAN
// within each block to collect representatives (cluster centroids plus
// every noise point verbatim), pads the representative set up to K by
// uniform draws if needed, and runs a final K-Means pass over the
// representatives. Grounded on hybrid_cluster in
// original_source/native/src/hybrid.c.
func HybridCluster(points []Point, p HybridParams) (*HybridResult, error) {
	n := len(points)
	if n == 0 {
		return nil, newError(InvalidArgument, "hybrid_cluster: empty input")
	}
	k := p.K
	if k <= 0 {
		return nil, newError(InvalidArgument, "hybrid_cluster: k must be positive")
	}
	if k > n {
		k = n
	}

	maxIter := p.MaxIter
	if k > 100 {
		maxIter = 20
	} else if k > 32 {
		maxIter = 30
	}

	if n <= 2*p.BlockSize {
		res, err := KMeansCluster(points, k, maxIter, p.Threshold, p.Seed)
		if err != nil {
			return nil, err
		}
		return &HybridResult{Centroids: res.Centroids, Iterations: res.Iterations}, nil
	}

	numBlocks := (n + p.BlockSize - 1) / p.BlockSize
	blockReps := make([][]Point, numBlocks)

	workers := runtime.GOMAXPROCS(0)
	if workers > numBlocks {
		workers = numBlocks
	}
	if workers <= 1 {
		for b := 0; b < numBlocks; b++ {
			blockReps[b] = blockRepresentatives(points, b, p.BlockSize, p.Eps, p.MinPts)
		}
	} else {
		jobs := make(chan int, numBlocks)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for b := range jobs {
					blockReps[b] = blockRepresentatives(points, b, p.BlockSize, p.Eps, p.MinPts)
				}
			}()
		}
		for b := 0; b < numBlocks; b++ {
			jobs <- b
		}
		close(jobs)
		wg.Wait()
	}

	var representatives []Point
	for b := 0; b < numBlocks; b++ {
		representatives = append(representatives, blockReps[b]...)
	}

	if len(representatives) < k {
		rng := NewRNG(p.Seed)
		for len(representatives) < k {
			representatives = append(representatives, points[rng.NextIntBelow(n)])
		}
	}

	res, err := KMeansCluster(representatives, k, maxIter, p.Threshold, p.Seed)
	if err != nil {
		return nil, err
	}
	return &HybridResult{Centroids: res.Centroids, Iterations: res.Iterations}, nil
}

// blockRepresentatives runs DBSCAN over a single contiguous block (a
// quadratic within-block implementation is acceptable since block_size is
// bounded) and returns cluster centroids followed by every noise point
// verbatim, in index order — the ordering hybrid clustering's determinism
// contract depends on.
func blockRepresentatives(points []Point, block, blockSize int, eps float32, minPts int) []Point {
	start := block * blockSize
	end := start + blockSize
	if end > len(points) {
		end = len(points)
	}
	if start >= end {
		return nil
	}
	blockPoints := points[start:end]

	res, err := DBSCANCluster(blockPoints, eps, minPts)
	if err != nil {
		return nil
	}

	reps := make([]Point, 0, res.NumClusters)
	if res.NumClusters > 0 {
		reps = append(reps, DBSCANCentroids(blockPoints, res.Labels, res.NumClusters)...)
	}
	for i, l := range res.Labels {
		if l == NOISE {
			reps = append(reps, blockPoints[i])
		}
	}
	return reps
}

// EstimateHybridEps aggregates the median k-distance per sampled block
// (up to 10 blocks) and clamps to [8, 30], falling back to a flat 15.0 for
// blocks too small to support k neighbors. Grounded verbatim on
// hybrid_calculate_dbscan_eps in original_source/native/src/hybrid.c.
func EstimateHybridEps(points []Point, blockSize, minPts int, seed uint64) float32 {
	n := len(points)
	if n <= blockSize {
		return 15.0
	}

	rng := NewRNG(seed)
	numBlocks := (n + blockSize - 1) / blockSize
	sampleBlocks := numBlocks
	if sampleBlocks > 10 {
		sampleBlocks = 10
	}

	var totalEps float32
	for s := 0; s < sampleBlocks; s++ {
		blockIdx := rng.NextIntBelow(numBlocks)
		start := blockIdx * blockSize
		end := start + blockSize
		if end > n {
			end = n
		}
		blockN := end - start

		if blockN <= minPts {
			totalEps += 15.0
			continue
		}

		k := minPts - 1
		if k < 1 {
			k = 1
		}
		if k >= blockN {
			k = blockN - 1
		}

		sampleSize := blockN
		if sampleSize > 20 {
			sampleSize = 20
		}

		kDistances := make([]float32, sampleSize)
		for i := 0; i < sampleSize; i++ {
			idx := start + rng.NextIntBelow(blockN)
			p := points[idx]
			distances := make([]float32, blockN)
			for j := 0; j < blockN; j++ {
				distances[j] = sqrtf32(DistSq(p, points[start+j]))
			}
			sort.Slice(distances, func(a, b int) bool { return distances[a] < distances[b] })
			kDistances[i] = distances[k]
		}

		sort.Slice(kDistances, func(a, b int) bool { return kDistances[a] < kDistances[b] })
		medianIdx := sampleSize / 2
		totalEps += kDistances[medianIdx]
	}

	avgEps := totalEps / float32(sampleBlocks)
	if avgEps < 8 {
		avgEps = 8
	}
	if avgEps > 30 {
		avgEps = 30
	}
	return avgEps
}
