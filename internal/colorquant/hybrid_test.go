package colorquant

import "testing"

func TestHybridClusterGradient(t *testing.T) {
	centers := []Point{{50, 50, 50}, {150, 150, 150}, {250, 50, 150}}
	rng := NewRNG(55)
	var points []Point
	for i := 0; i < 100000; i++ {
		c := centers[i%3]
		jitter := func() float32 { return float32((rng.NextUnit() - 0.5) * 6) }
		points = append(points, Point{c.C1 + jitter(), c.C2 + jitter(), c.C3 + jitter()})
	}

	res, err := HybridCluster(points, HybridParams{
		K: 3, BlockSize: 256, Eps: 10, MinPts: 4, MaxIter: 50, Threshold: 0.1, Seed: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centroids) != 3 {
		t.Fatalf("expected 3 centroids, got %d", len(res.Centroids))
	}

	for _, c := range centers {
		best := float32(1 << 30)
		for _, got := range res.Centroids {
			if d := DistSq(c, got); d < best {
				best = d
			}
		}
		if best > 5*5*3 {
			t.Fatalf("no centroid within 5 RGB units of true blob mean %v", c)
		}
	}
}

func TestHybridClusterEmptyInput(t *testing.T) {
	_, err := HybridCluster(nil, HybridParams{K: 4, BlockSize: 256, Eps: 10, MinPts: 4, MaxIter: 10, Threshold: 0.1})
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestHybridClusterShortCircuitSmallInput(t *testing.T) {
	points := []Point{{0, 0, 0}, {10, 10, 10}, {255, 255, 255}}
	res, err := HybridCluster(points, HybridParams{K: 3, BlockSize: 256, Eps: 10, MinPts: 2, MaxIter: 10, Threshold: 0.1, Seed: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centroids) != 3 {
		t.Fatalf("expected 3 centroids for n <= 2*block_size short-circuit, got %d", len(res.Centroids))
	}
}

func TestEstimateHybridEpsClamped(t *testing.T) {
	points := makeBlobs()
	eps := EstimateHybridEps(points, 64, 4, 9)
	if eps < 8 || eps > 30 {
		t.Fatalf("hybrid eps %v outside [8,30]", eps)
	}
}
