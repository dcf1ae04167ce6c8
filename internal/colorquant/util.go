package colorquant

import "math"

func sqrtf32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
