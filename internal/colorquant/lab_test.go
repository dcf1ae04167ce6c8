package colorquant

import "testing"

func TestLabRoundTrip(t *testing.T) {
	rgb := []Point{{0, 0, 0}, {255, 255, 255}, {128, 64, 200}, {10, 250, 30}}
	lab := RGBToLabBatch(rgb)
	back := LabToRGBBatch(lab)

	for i, p := range rgb {
		got := back[i]
		if absDiffF(p.C1, got.C1) > 1.5 || absDiffF(p.C2, got.C2) > 1.5 || absDiffF(p.C3, got.C3) > 1.5 {
			t.Fatalf("round trip %v -> lab -> %v exceeds tolerance", p, got)
		}
	}
}

func absDiffF(a, b float32) float32 {
	if a > b {
		return a - b
	}
	return b - a
}
