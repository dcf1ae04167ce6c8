package imgio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Fepozopo/clrq/internal/colorquant"
)

func TestImageToPackedRoundTrip(t *testing.T) {
	pixels := []colorquant.PackedPixel{
		colorquant.Pack(10, 20, 30),
		colorquant.Pack(40, 50, 60),
		colorquant.Pack(70, 80, 90),
		colorquant.Pack(100, 110, 120),
	}
	img := PackedToImage(2, 2, pixels)
	w, h, back, err := imageToPacked(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("expected 2x2, got %dx%d", w, h)
	}
	for i := range pixels {
		r1, g1, b1 := pixels[i].RGB()
		r2, g2, b2 := back[i].RGB()
		if r1 != r2 || g1 != g2 || b1 != b2 {
			t.Fatalf("pixel %d round trip mismatch: (%d,%d,%d) vs (%d,%d,%d)", i, r1, g1, b1, r2, g2, b2)
		}
	}
}

func TestSaveRasterPNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	pixels := []colorquant.PackedPixel{
		colorquant.Pack(255, 0, 0),
		colorquant.Pack(0, 255, 0),
		colorquant.Pack(0, 0, 255),
		colorquant.Pack(255, 255, 255),
	}
	if err := SaveRaster(path, 2, 2, pixels, 90, RasterMeta{}); err != nil {
		t.Fatalf("unexpected error saving PNG: %v", err)
	}

	w, h, got, _, err := OpenRaster(path)
	if err != nil {
		t.Fatalf("unexpected error opening saved PNG: %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("expected 2x2, got %dx%d", w, h)
	}
	for i := range pixels {
		r1, g1, b1 := pixels[i].RGB()
		r2, g2, b2 := got[i].RGB()
		if r1 != r2 || g1 != g2 || b1 != b2 {
			t.Fatalf("pixel %d mismatch after PNG round trip: (%d,%d,%d) vs (%d,%d,%d)", i, r1, g1, b1, r2, g2, b2)
		}
	}
}

func TestOpenRasterMissingFile(t *testing.T) {
	_, _, _, _, err := OpenRaster(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}
