package colorquant

import "testing"

func TestKMeansClusterEmptyInput(t *testing.T) {
	_, err := KMeansCluster(nil, 4, 10, 0.1, 1)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	var qerr *Error
	if !asQuantError(err, &qerr) || qerr.Code != InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestKMeansClusterKGreaterThanN(t *testing.T) {
	points := []Point{{0, 0, 0}, {100, 100, 100}, {200, 0, 200}}
	res, err := KMeansCluster(points, 8, 50, 0.01, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centroids) != 3 {
		t.Fatalf("expected k reduced to 3, got %d centroids", len(res.Centroids))
	}
	for _, p := range points {
		found := false
		for _, c := range res.Centroids {
			if DistSq(p, c) < 1e-6 {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("input point %v not represented in centroid set", p)
		}
	}
}

func TestKMeansClusterDeterministic(t *testing.T) {
	points := makeBlobs()
	a, err := KMeansCluster(points, 3, 50, 0.01, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := KMeansCluster(points, 3, 50, 0.01, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Centroids) != len(b.Centroids) {
		t.Fatal("centroid count differs across identical runs")
	}
	for i := range a.Centroids {
		if a.Centroids[i] != b.Centroids[i] {
			t.Fatalf("centroid %d differs across identical seed/input runs", i)
		}
	}
	if a.Iterations != b.Iterations {
		t.Fatalf("iteration count differs: %d vs %d", a.Iterations, b.Iterations)
	}
}

func TestKMeansAllLabelsInRange(t *testing.T) {
	points := makeBlobs()
	res, err := KMeansCluster(points, 3, 50, 0.01, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, l := range res.Labels {
		if l < 0 || int(l) >= 3 {
			t.Fatalf("label out of range: %d", l)
		}
	}
}

func makeBlobs() []Point {
	rng := NewRNG(77)
	centers := []Point{{50, 50, 50}, {200, 50, 50}, {125, 200, 125}}
	var points []Point
	for _, c := range centers {
		for i := 0; i < 100; i++ {
			jitter := func() float32 { return float32((rng.NextUnit() - 0.5) * 10) }
			points = append(points, Point{c.C1 + jitter(), c.C2 + jitter(), c.C3 + jitter()})
		}
	}
	return points
}

func asQuantError(err error, out **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*out = e
	}
	return ok
}
