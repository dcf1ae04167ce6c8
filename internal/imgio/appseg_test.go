package imgio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// makeExifPayload builds a minimal EXIF APP1 payload (starting with "Exif\x00\x00")
// containing a single Orientation tag (0x0112) in IFD0 with the provided value.
func makeExifPayload(orientation uint16) []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte("Exif\x00\x00"))
	// TIFF header: little-endian 'II', magic 0x2A, offset to IFD0 = 8
	buf.Write([]byte{'I', 'I'})
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x2A))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	// IFD0: 1 entry
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	// Entry: tag 0x0112 (Orientation), type SHORT (3), count 1
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(buf, binary.LittleEndian, uint16(3))
	_ = binary.Write(buf, binary.LittleEndian, uint32(1))
	// Value (4 bytes) - SHORT value placed in first two bytes
	_ = binary.Write(buf, binary.LittleEndian, uint16(orientation))
	_ = binary.Write(buf, binary.LittleEndian, uint16(0))
	// next IFD offset = 0
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

func makeTestJPEGWithSegments(t *testing.T, exifOrientation uint16) ([]byte, []AppSegment) {
	// create a small image
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	jpegBytes := buf.Bytes()
	exifPayload := makeExifPayload(exifOrientation)
	segs := []AppSegment{
		{Marker: 0xE0, Payload: []byte("JFIF\x00dummy")},
		{Marker: 0xE1, Payload: exifPayload},
		{Marker: 0xE2, Payload: []byte("XMPDATA")},
	}
	final, err := InsertAppSegmentsIntoJPEG(jpegBytes, segs)
	if err != nil {
		t.Fatalf("InsertAppSegmentsIntoJPEG failed: %v", err)
	}
	return final, segs
}

func TestAppSegmentsRoundTrip(t *testing.T) {
	origBytes, origSegs := makeTestJPEGWithSegments(t, 6)
	dir := t.TempDir()
	path := filepath.Join(dir, "orig.jpg")
	if err := os.WriteFile(path, origBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	// OpenRaster should parse the APPn segments and auto-orient.
	w, h, pixels, meta, err := OpenRaster(path)
	if err != nil {
		t.Fatalf("OpenRaster failed: %v", err)
	}
	if w == 0 || h == 0 || len(pixels) == 0 {
		t.Fatalf("expected a decoded image, got %dx%d pixels=%d", w, h, len(pixels))
	}
	if !meta.AutoOriented {
		t.Fatalf("expected AutoOriented true for orientation 6")
	}
	if len(meta.AppSegments) != len(origSegs) {
		t.Fatalf("expected %d parsed segments, got %d", len(origSegs), len(meta.AppSegments))
	}
	for i := range origSegs {
		if origSegs[i].Marker == 0xE1 {
			continue
		}
		if meta.AppSegments[i].Marker != origSegs[i].Marker {
			t.Fatalf("marker mismatch at %d: want 0x%02X got 0x%02X", i, origSegs[i].Marker, meta.AppSegments[i].Marker)
		}
		if !bytes.Equal(meta.AppSegments[i].Payload, origSegs[i].Payload) {
			t.Fatalf("payload mismatch at %d", i)
		}
	}

	// SaveRaster should reinsert segments; EXIF orientation should be rewritten to 1.
	outPath := filepath.Join(dir, "out.jpg")
	if err := SaveRaster(outPath, w, h, pixels, 92, meta); err != nil {
		t.Fatalf("SaveRaster failed: %v", err)
	}
	outBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	reParsed, err := ParseJPEGAppSegments(outBytes)
	if err != nil {
		t.Fatalf("ParseJPEGAppSegments failed: %v", err)
	}
	if len(reParsed) != len(origSegs) {
		t.Fatalf("expected %d re-parsed segments, got %d", len(origSegs), len(reParsed))
	}
	orient, oerr := extractJPEGOrientation(outBytes)
	if oerr != nil {
		t.Fatalf("extractJPEGOrientation failed: %v", oerr)
	}
	if orient != 1 {
		t.Fatalf("expected orientation 1 after save, got %d", orient)
	}
}

func TestStripRemovesAppSegments(t *testing.T) {
	origBytes, _ := makeTestJPEGWithSegments(t, 1)
	dir := t.TempDir()
	path := filepath.Join(dir, "orig2.jpg")
	if err := os.WriteFile(path, origBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	w, h, pixels, _, err := OpenRaster(path)
	if err != nil {
		t.Fatalf("OpenRaster failed: %v", err)
	}
	outPath := filepath.Join(dir, "out2.jpg")
	// Simulate a strip by saving with no metadata at all.
	if err := SaveRaster(outPath, w, h, pixels, 92, RasterMeta{}); err != nil {
		t.Fatalf("SaveRaster failed: %v", err)
	}
	outBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	reParsed, err := ParseJPEGAppSegments(outBytes)
	if err != nil {
		t.Fatalf("ParseJPEGAppSegments failed: %v", err)
	}
	if len(reParsed) != 0 {
		t.Fatalf("expected 0 app segments after strip, got %d", len(reParsed))
	}
}

func TestAutoOrientSetsExifOrientationOne(t *testing.T) {
	origBytes, _ := makeTestJPEGWithSegments(t, 3)
	dir := t.TempDir()
	path := filepath.Join(dir, "orig3.jpg")
	if err := os.WriteFile(path, origBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	w, h, pixels, meta, err := OpenRaster(path)
	if err != nil {
		t.Fatalf("OpenRaster failed: %v", err)
	}
	if !meta.AutoOriented {
		t.Fatalf("expected AutoOriented true for orientation 3")
	}
	outPath := filepath.Join(dir, "out3.jpg")
	if err := SaveRaster(outPath, w, h, pixels, 92, meta); err != nil {
		t.Fatalf("SaveRaster failed: %v", err)
	}
	outBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	orient, err := extractJPEGOrientation(outBytes)
	if err != nil {
		t.Fatalf("extractJPEGOrientation failed: %v", err)
	}
	if orient != 1 {
		t.Fatalf("expected orientation 1 after save, got %d", orient)
	}
}
