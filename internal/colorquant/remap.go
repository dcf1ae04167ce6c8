package colorquant

import (
	"fmt"
	"runtime"
	"sync"
)

// ResynthesizeImage remaps packed to the source palette while preserving
// each pixel's offset from its nearest target-palette entry, so local
// contrast from the input survives even though its overall palette
// shifts.
func ResynthesizeImage(packed []PackedPixel, w, h int, target, source []Point) ([]PackedPixel, error) {
	return remapImage(packed, w, h, target, source, true)
}

// PosterizeImage remaps packed by replacing each pixel with its nearest
// source-palette entry exactly, discarding the residual.
func PosterizeImage(packed []PackedPixel, w, h int, target, source []Point) ([]PackedPixel, error) {
	return remapImage(packed, w, h, target, source, false)
}

func remapImage(packed []PackedPixel, w, h int, target, source []Point, resynth bool) ([]PackedPixel, error) {
	if len(target) == 0 || len(source) == 0 {
		return nil, newError(InvalidArgument, "remap: empty palette")
	}
	if len(target) != len(source) {
		return nil, newError(InvalidArgument, fmt.Sprintf("remap: palette length mismatch (target=%d, source=%d)", len(target), len(source)))
	}
	if len(packed) != w*h {
		return nil, newError(InvalidArgument, fmt.Sprintf("remap: pixel count %d does not match w*h=%d", len(packed), w*h))
	}

	var lut *LUT
	if len(target) <= MaxLUTPaletteSize {
		lut = BuildLUT(target)
	}

	out := make([]PackedPixel, len(packed))

	remapRange := func(start, end int) {
		for idx := start; idx < end; idx++ {
			r, g, b := packed[idx].RGB()
			p := Point{float32(r), float32(g), float32(b)}

			var nearest int
			if lut != nil {
				nearest = lut.Lookup(r, g, b)
			} else {
				nearest = NearestPerceptual(p, target)
			}

			var out1, out2, out3 float32
			if resynth {
				t := target[nearest]
				out1 = source[nearest].C1 + (p.C1 - t.C1)
				out2 = source[nearest].C2 + (p.C2 - t.C2)
				out3 = source[nearest].C3 + (p.C3 - t.C3)
			} else {
				s := source[nearest]
				out1, out2, out3 = s.C1, s.C2, s.C3
			}

			out[idx] = PointToPixel(Point{out1, out2, out3})
		}
	}

	n := len(packed)
	workers := runtime.GOMAXPROCS(0)
	if workers <= 1 || n < 4096 {
		remapRange(0, n)
		return out, nil
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			remapRange(start, end)
		}(start, end)
	}
	wg.Wait()
	return out, nil
}
