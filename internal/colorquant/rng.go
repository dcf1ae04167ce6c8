package colorquant

// RNG is a deterministic xorshift64 generator. Every stochastic operation in
// this package (K-Means++ seeding, empty-cluster repair, reservoir sampling,
// epsilon estimation) is driven by one of these so that results are a pure
// function of (inputs, seed).
type RNG struct {
	state uint64
}

// NewRNG initializes a generator from seed. Seed 0 is replaced with 42 since
// xorshift is fixed at the all-zero state otherwise.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 42
	}
	return &RNG{state: seed}
}

// NextU64 advances the generator and returns the next 64-bit word.
func (r *RNG) NextU64() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// NextUnit returns a float64 in [0, 1) built from the top 53 bits of the
// next word.
func (r *RNG) NextUnit() float64 {
	return float64(r.NextU64()>>11) / (1 << 53)
}

// NextIntBelow returns an integer in [0, max) via modulo. The resulting bias
// is acceptable for the small ranges this package draws from.
func (r *RNG) NextIntBelow(max int) int {
	if max <= 0 {
		return 0
	}
	return int(r.NextU64() % uint64(max))
}
