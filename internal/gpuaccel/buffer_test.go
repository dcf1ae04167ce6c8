package gpuaccel

import "testing"

func TestTileRowsForClampsToMultipleOf64(t *testing.T) {
	rows := tileRowsFor(4096, 100000)
	if rows%tileRowMultiple != 0 {
		t.Fatalf("expected a multiple of %d rows, got %d", tileRowMultiple, rows)
	}
	if rows*4096*bytesPerPixel > maxTileBytes {
		t.Fatalf("tile of %d rows exceeds the %d byte budget", rows, maxTileBytes)
	}
}

func TestTileRowsForClampsToImageHeight(t *testing.T) {
	rows := tileRowsFor(16, 10)
	if rows != 10 {
		t.Fatalf("expected rows clamped to image height 10, got %d", rows)
	}
}

func TestTileRowsForNeverBelowMinimum(t *testing.T) {
	rows := tileRowsFor(1<<20, 1000)
	if rows < tileRowMultiple {
		t.Fatalf("expected at least %d rows, got %d", tileRowMultiple, rows)
	}
}

func TestStagingBufferMapUnmapLifecycle(t *testing.T) {
	b := newStagingBuffer(16)
	if _, err := b.mapWrite(); err != nil {
		t.Fatalf("unexpected error mapping fresh buffer: %v", err)
	}
	if _, err := b.mapWrite(); err == nil {
		t.Fatal("expected error mapping an already-mapped buffer")
	}
	if err := b.unmap(); err != nil {
		t.Fatalf("unexpected error unmapping: %v", err)
	}
	b.destroy()
	if _, err := b.mapWrite(); err != errBufferDestroyed {
		t.Fatalf("expected errBufferDestroyed after destroy, got %v", err)
	}
}

func TestUploadReadbackTileRoundTrip(t *testing.T) {
	buf := newStagingBuffer(4)
	src := []byte{1, 2, 3, 4}
	if err := uploadTile(buf, src); err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}

	dst := make([]byte, 4)
	if err := readbackTile(buf, dst); err != nil {
		t.Fatalf("unexpected readback error: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: got %d want %d", i, dst[i], src[i])
		}
	}
}

func TestTileBufferPairSlotAlternates(t *testing.T) {
	p := newTileBufferPair(16)
	defer p.release()

	in0, out0 := p.slot(0)
	in2, out2 := p.slot(2)
	if in0 != in2 || out0 != out2 {
		t.Fatal("expected tile indices 0 and 2 to share the same buffer slot (mod 2)")
	}

	in1, _ := p.slot(1)
	if in1 == in0 {
		t.Fatal("expected tile indices 0 and 1 to use distinct buffer slots")
	}
}
