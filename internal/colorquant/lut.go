package colorquant

import (
	"runtime"
	"sync"
)

// LUTDim is the per-channel resolution of the remap LUT (D = 128, 7 bits
// per channel).
const LUTDim = 128

// LUTShift is the right-shift applied to an 8-bit channel before indexing
// the LUT (8 - log2(D) = 1).
const LUTShift = 1

// lutScale maps a quantized channel index back to an 8-bit sample point:
// scale = 255 / (D - 1).
const lutScale = 255.0 / float32(LUTDim-1)

// MaxLUTPaletteSize is the palette size above which the LUT is skipped in
// favor of direct per-pixel nearest-neighbor search (spec 4.7): the LUT's
// benefit disappears once the palette has more entries than likely
// queries.
const MaxLUTPaletteSize = 4096

// LUT is a dense D^3 table of palette indices, built once per target
// palette and reused across every pixel of a remap.
type LUT struct {
	data []uint16
}

// BuildLUT precomputes, for every quantized RGB triple (r,g,b) in
// [0,D)^3, the index of the nearest palette entry under the perceptually
// weighted metric. Both LUT build and lookup use the same dimension and
// shift as the GPU kernel ABI (spec 9, "LUT index packing").
func BuildLUT(targetPalette []Point) *LUT {
	data := make([]uint16, LUTDim*LUTDim*LUTDim)

	workers := runtime.GOMAXPROCS(0)
	if workers > LUTDim {
		workers = LUTDim
	}
	if workers <= 1 {
		buildLUTRows(data, targetPalette, 0, LUTDim)
		return &LUT{data: data}
	}

	rowsPerWorker := (LUTDim + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if start >= LUTDim {
			break
		}
		if end > LUTDim {
			end = LUTDim
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			buildLUTRows(data, targetPalette, start, end)
		}(start, end)
	}
	wg.Wait()
	return &LUT{data: data}
}

func buildLUTRows(data []uint16, palette []Point, rStart, rEnd int) {
	for r := rStart; r < rEnd; r++ {
		rc := float32(r) * lutScale
		for g := 0; g < LUTDim; g++ {
			gc := float32(g) * lutScale
			base := r*LUTDim*LUTDim + g*LUTDim
			for b := 0; b < LUTDim; b++ {
				bc := float32(b) * lutScale
				idx := NearestPerceptual(Point{rc, gc, bc}, palette)
				data[base+b] = uint16(idx)
			}
		}
	}
}

// Lookup returns the palette index for a full-precision 8-bit RGB triple,
// quantizing each channel by LUTShift before indexing.
func (l *LUT) Lookup(r, g, b uint8) int {
	ri := int(r) >> LUTShift
	gi := int(g) >> LUTShift
	bi := int(b) >> LUTShift
	return int(l.data[ri*LUTDim*LUTDim+gi*LUTDim+bi])
}
