package colorquant

// ReservoirSample draws sampleSize elements uniformly from input using
// Vitter's Algorithm R. If input has sampleSize elements or fewer, a
// verbatim copy is returned.
func ReservoirSample(input []Point, sampleSize int, seed uint64) []Point {
	n := len(input)
	if sampleSize <= 0 || n == 0 {
		return nil
	}
	if n <= sampleSize {
		out := make([]Point, n)
		copy(out, input)
		return out
	}

	rng := NewRNG(seed)
	out := make([]Point, sampleSize)
	copy(out, input[:sampleSize])
	for i := sampleSize; i < n; i++ {
		j := rng.NextIntBelow(i + 1)
		if j < sampleSize {
			out[j] = input[i]
		}
	}
	return out
}

// ReservoirSamplePacked samples directly from packed pixels, extracting
// each selected pixel to a Point on the fly rather than materializing the
// full point array first. Useful when the caller only ever wants the
// sample, not every pixel.
func ReservoirSamplePacked(input []PackedPixel, sampleSize int, seed uint64) []Point {
	n := len(input)
	if sampleSize <= 0 || n == 0 {
		return nil
	}
	if n <= sampleSize {
		return Extract(input)
	}

	rng := NewRNG(seed)
	out := make([]Point, sampleSize)
	for i := 0; i < sampleSize; i++ {
		r, g, b := input[i].RGB()
		out[i] = Point{float32(r), float32(g), float32(b)}
	}
	for i := sampleSize; i < n; i++ {
		j := rng.NextIntBelow(i + 1)
		if j < sampleSize {
			r, g, b := input[i].RGB()
			out[j] = Point{float32(r), float32(g), float32(b)}
		}
	}
	return out
}
