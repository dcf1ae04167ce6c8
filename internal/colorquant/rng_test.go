package colorquant

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(123)
	b := NewRNG(123)
	for i := 0; i < 1000; i++ {
		if a.NextU64() != b.NextU64() {
			t.Fatalf("sequences diverged at step %d", i)
		}
	}
}

func TestRNGSeedZeroReplacedWith42(t *testing.T) {
	a := NewRNG(0)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		if a.NextU64() != b.NextU64() {
			t.Fatalf("seed 0 did not behave as seed 42 at step %d", i)
		}
	}
}

func TestRNGNextUnitRange(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 10000; i++ {
		v := r.NextUnit()
		if v < 0 || v >= 1 {
			t.Fatalf("NextUnit out of range: %v", v)
		}
	}
}

func TestRNGNextIntBelow(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 10000; i++ {
		v := r.NextIntBelow(7)
		if v < 0 || v >= 7 {
			t.Fatalf("NextIntBelow out of range: %v", v)
		}
	}
}
