package colorquant

// Point is an immutable 3-component float tuple. It represents RGB (0-255)
// or CIELAB interchangeably; callers are responsible for not mixing spaces
// inside a single operation.
type Point struct {
	C1, C2, C3 float32
}

// PackedPixel encodes RGB in the low 24 bits (R<<16 | G<<8 | B). The top
// byte is either zero or an opaque alpha tag; Encode always sets it to
// 0xFF, Decode always ignores it.
type PackedPixel uint32

// Pack builds a PackedPixel from 8-bit channels, tagging alpha as opaque.
func Pack(r, g, b uint8) PackedPixel {
	return PackedPixel(0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB unpacks the low 24 bits into individual channels.
func (p PackedPixel) RGB() (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// Extract unpacks a slice of packed pixels into float Points, R/G/B in
// order.
func Extract(packed []PackedPixel) []Point {
	out := make([]Point, len(packed))
	for i, p := range packed {
		r, g, b := p.RGB()
		out[i] = Point{float32(r), float32(g), float32(b)}
	}
	return out
}

func clampByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// PointToPixel rounds and clamps a Point (interpreted as RGB) into a packed
// pixel with opaque alpha.
func PointToPixel(p Point) PackedPixel {
	return Pack(clampByte(p.C1), clampByte(p.C2), clampByte(p.C3))
}
