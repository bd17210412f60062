package random

import "testing"

func TestSeedKeepsConfiguredValue(t *testing.T) {
	got, err := Seed(42)
	if err != nil || got != 42 {
		t.Fatalf("expected 42 got %d (%v)", got, err)
	}
}

func TestSeedZeroDrawsFromCryptoRand(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 8; i++ {
		s, err := Seed(0)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		seen[s] = true
	}
	if len(seen) < 8 {
		t.Fatalf("expected distinct seeds, got %v", seen)
	}
}
