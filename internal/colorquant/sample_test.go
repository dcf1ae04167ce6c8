package colorquant

import "testing"

func TestReservoirSampleShortInputVerbatim(t *testing.T) {
	input := []Point{{1, 1, 1}, {2, 2, 2}}
	out := ReservoirSample(input, 5, 1)
	if len(out) != 2 {
		t.Fatalf("expected verbatim copy of length 2, got %d", len(out))
	}
}

func TestReservoirSampleSizeRespected(t *testing.T) {
	input := make([]Point, 1000)
	for i := range input {
		input[i] = Point{float32(i), 0, 0}
	}
	out := ReservoirSample(input, 100, 5)
	if len(out) != 100 {
		t.Fatalf("expected sample of size 100, got %d", len(out))
	}
}

func TestReservoirSampleSelectionProbability(t *testing.T) {
	n := 200
	sampleSize := 20
	input := make([]Point, n)
	for i := range input {
		input[i] = Point{float32(i), 0, 0}
	}

	trials := 3000
	counts := make([]int, n)
	for trial := 0; trial < trials; trial++ {
		out := ReservoirSample(input, sampleSize, uint64(trial+1))
		for _, p := range out {
			counts[int(p.C1)]++
		}
	}

	expected := float64(trials*sampleSize) / float64(n)
	var chiSq float64
	for _, c := range counts {
		diff := float64(c) - expected
		chiSq += diff * diff / expected
	}
	// With n=200 bins (df=199), a generous upper bound well above the
	// 0.001-significance critical value catches gross bias while
	// tolerating sampling noise.
	if chiSq > 400 {
		t.Fatalf("chi-square statistic %v suggests non-uniform selection", chiSq)
	}
}

func TestReservoirSamplePackedMatchesExtract(t *testing.T) {
	packed := []PackedPixel{Pack(1, 2, 3), Pack(4, 5, 6), Pack(7, 8, 9)}
	viaExtract := ReservoirSample(Extract(packed), 2, 11)
	viaFused := ReservoirSamplePacked(packed, 2, 11)
	if len(viaExtract) != len(viaFused) {
		t.Fatalf("length mismatch: %d vs %d", len(viaExtract), len(viaFused))
	}
	for i := range viaExtract {
		if viaExtract[i] != viaFused[i] {
			t.Fatalf("index %d: extract-then-sample %v != fused sample %v", i, viaExtract[i], viaFused[i])
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	p := Pack(10, 20, 30)
	r, g, b := p.RGB()
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("round trip failed: got (%d,%d,%d)", r, g, b)
	}
	if p&0xFF000000 != 0xFF000000 {
		t.Fatalf("expected opaque alpha tag, got %x", p)
	}
}
