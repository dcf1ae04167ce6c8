package colorquant

import (
	"math"
	"sync"
)

// RGB<->CIELAB conversion under the D65 reference white, exposed as a
// stateless batch operation over Points.

var (
	labLUTOnce      sync.Once
	srgbToLinearLUT [256]float64
)

func initLabLUT() {
	labLUTOnce.Do(func() {
		for i := 0; i < 256; i++ {
			v := float64(i) / 255.0
			if v <= 0.04045 {
				srgbToLinearLUT[i] = v / 12.92
			} else {
				srgbToLinearLUT[i] = math.Pow((v+0.055)/1.055, 2.4)
			}
		}
	})
}

func linearToXyzD65(r, g, b float64) (x, y, z float64) {
	x = 0.4124564*r + 0.3575761*g + 0.1804375*b
	y = 0.2126729*r + 0.7151522*g + 0.0721750*b
	z = 0.0193339*r + 0.1191920*g + 0.9503041*b
	return
}

func xyzToLabD65(x, y, z float64) (l, a, b float64) {
	xr := x / 0.95047
	yr := y / 1.00000
	zr := z / 1.08883
	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Pow(t, 1.0/3.0)
		}
		return 7.787037*t + 16.0/116.0
	}
	fx, fy, fz := f(xr), f(yr), f(zr)
	l = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)
	return
}

func labToXyzD65(l, a, b float64) (x, y, z float64) {
	fy := (l + 16) / 116.0
	fx := fy + a/500.0
	fz := fy - b/200.0
	finv := func(t float64) float64 {
		const delta = 6.0 / 29.0
		if t > delta {
			return t * t * t
		}
		return 3 * delta * delta * (t - 4.0/29.0)
	}
	x = 0.95047 * finv(fx)
	y = 1.00000 * finv(fy)
	z = 1.08883 * finv(fz)
	return
}

func xyzToLinearD65(x, y, z float64) (r, g, b float64) {
	r = 3.2404542*x - 1.5371385*y - 0.4985314*z
	g = -0.9692660*x + 1.8760108*y + 0.0415560*z
	b = 0.0556434*x - 0.2040259*y + 1.0572252*z
	return clamp01(r), clamp01(g), clamp01(b)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func linearToSrgb(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1.0/2.4) - 0.055
}

// RGBToLabBatch converts a slice of RGB (0-255) Points into CIELAB
// Points under the D65 illuminant.
func RGBToLabBatch(points []Point) []Point {
	initLabLUT()
	out := make([]Point, len(points))
	for i, p := range points {
		rLin := srgbToLinearLUT[clampByte(p.C1)]
		gLin := srgbToLinearLUT[clampByte(p.C2)]
		bLin := srgbToLinearLUT[clampByte(p.C3)]
		x, y, z := linearToXyzD65(rLin, gLin, bLin)
		l, a, b := xyzToLabD65(x, y, z)
		out[i] = Point{float32(l), float32(a), float32(b)}
	}
	return out
}

// LabToRGBBatch converts a slice of CIELAB Points back to RGB (0-255)
// Points under the D65 illuminant.
func LabToRGBBatch(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		x, y, z := labToXyzD65(float64(p.C1), float64(p.C2), float64(p.C3))
		rLin, gLin, bLin := xyzToLinearD65(x, y, z)
		r := linearToSrgb(rLin) * 255.0
		g := linearToSrgb(gLin) * 255.0
		b := linearToSrgb(bLin) * 255.0
		out[i] = Point{float32(r), float32(g), float32(b)}
	}
	return out
}
