package paletteops

import (
	"testing"

	"github.com/Fepozopo/clrq/internal/colorquant"
)

func makeSession() *Session {
	pixels := make([]colorquant.PackedPixel, 16)
	for i := range pixels {
		if i%2 == 0 {
			pixels[i] = colorquant.Pack(10, 10, 10)
		} else {
			pixels[i] = colorquant.Pack(200, 200, 200)
		}
	}
	return &Session{
		Width:  4,
		Height: 4,
		Pixels: pixels,
		Sample: colorquant.Extract(pixels),
	}
}

func TestDispatchKMeansClusterSetsSourcePalette(t *testing.T) {
	s := makeSession()
	result, err := Dispatch(s, "kmeans_cluster", []string{"2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.SourcePalette) != 2 {
		t.Fatalf("expected a 2-entry source palette, got %d", len(s.SourcePalette))
	}
	if result.String() == "" {
		t.Fatal("expected a non-empty report string")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := makeSession()
	if _, err := Dispatch(s, "not_a_command", nil); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestDispatchRemapWithoutPriorClusteringFails(t *testing.T) {
	s := makeSession()
	if _, err := Dispatch(s, "posterize_image", nil); err == nil {
		t.Fatal("expected an error running a remap command before any clustering command")
	}
}

func TestDispatchKMeansThenPosterizeRoundTrip(t *testing.T) {
	s := makeSession()
	if _, err := Dispatch(s, "kmeans_cluster", []string{"2"}); err != nil {
		t.Fatalf("unexpected clustering error: %v", err)
	}
	if _, err := Dispatch(s, "posterize_image", nil); err != nil {
		t.Fatalf("unexpected remap error: %v", err)
	}
	if len(s.Pixels) != 16 {
		t.Fatalf("expected pixel buffer to stay the same size, got %d", len(s.Pixels))
	}
}

func TestByNameLookup(t *testing.T) {
	if _, ok := ByName("hybrid_cluster"); !ok {
		t.Fatal("expected hybrid_cluster to be a registered command")
	}
	if _, ok := ByName("nonexistent"); ok {
		t.Fatal("expected nonexistent command to not resolve")
	}
}
