package colorquant

import "testing"

func TestResynthesizeIdentitySingleColor(t *testing.T) {
	c := Pack(64, 128, 200)
	packed := make([]PackedPixel, 16)
	for i := range packed {
		packed[i] = c
	}
	palette := []Point{{64, 128, 200}}

	out, err := ResynthesizeImage(packed, 4, 4, palette, palette)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range out {
		if p != c {
			t.Fatalf("pixel %d: got %x want %x", i, p, c)
		}
	}
}

func TestResynthesizeRoundTripExactPaletteMembers(t *testing.T) {
	target := []Point{{10, 20, 30}, {200, 100, 50}}
	source := target
	packed := []PackedPixel{Pack(10, 20, 30), Pack(200, 100, 50), Pack(10, 20, 30)}

	out, err := ResynthesizeImage(packed, 3, 1, target, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range packed {
		if out[i] != p {
			t.Fatalf("pixel %d: resynthesize(P,P) changed an exact palette member: got %x want %x", i, out[i], p)
		}
	}
}

func TestPosterizeIdempotence(t *testing.T) {
	target := []Point{{0, 0, 0}, {255, 255, 255}}
	source := []Point{{30, 30, 30}, {220, 220, 220}}
	packed := []PackedPixel{Pack(10, 10, 10), Pack(250, 250, 250), Pack(128, 128, 128)}

	once, err := PosterizeImage(packed, 3, 1, target, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := PosterizeImage(once, 3, 1, source, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("pixel %d: posterize is not idempotent: %x vs %x", i, once[i], twice[i])
		}
	}
}

func TestRemapPaletteLengthMismatch(t *testing.T) {
	target := []Point{{0, 0, 0}}
	source := []Point{{0, 0, 0}, {1, 1, 1}}
	_, err := ResynthesizeImage([]PackedPixel{Pack(0, 0, 0)}, 1, 1, target, source)
	if err == nil {
		t.Fatal("expected error for mismatched palette lengths")
	}
}

func TestLUTThresholdAgreement(t *testing.T) {
	// Build two palettes of size 4096 and 4097 that are identical on
	// their first 4096 entries plus one extra far-away entry, and
	// confirm LUT-on vs LUT-off agree within 1 per channel (S6).
	palette4096 := make([]Point, MaxLUTPaletteSize)
	for i := range palette4096 {
		v := float32(i % 256)
		palette4096[i] = Point{v, v, v}
	}
	palette4097 := append(append([]Point{}, palette4096...), Point{255, 0, 0})

	packed := []PackedPixel{Pack(12, 34, 56), Pack(200, 10, 250), Pack(0, 0, 0)}

	out4096, err := ResynthesizeImage(packed, 3, 1, palette4096, palette4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out4097, err := ResynthesizeImage(packed, 3, 1, palette4097, palette4097)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range packed {
		r1, g1, b1 := out4096[i].RGB()
		r2, g2, b2 := out4097[i].RGB()
		if absDiff(r1, r2) > 1 || absDiff(g1, g2) > 1 || absDiff(b1, b2) > 1 {
			t.Fatalf("pixel %d: LUT-on/off disagreement exceeds 1 per channel", i)
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
