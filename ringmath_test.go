package chord

import (
	"math/big"
	"testing"
)

func TestDistance(t *testing.T) {
	s := NewSpace(4) // S = 16
	cases := []struct {
		a, b, want int64
	}{
		{0, 0, 0},
		{0, 5, 5},
		{5, 0, 11},
		{14, 2, 4},
	}
	for _, c := range cases {
		got := s.Distance(big.NewInt(c.a), big.NewInt(c.b))
		if got.Int64() != c.want {
			t.Fatalf("Distance(%d,%d) = %d, want %d", c.a, c.b, got.Int64(), c.want)
		}
	}
}

func TestBetween(t *testing.T) {
	s := NewSpace(4) // S = 16
	cases := []struct {
		a, b, c int64
		want    bool
	}{
		{0, 5, 10, true},
		{0, 15, 10, false},
		{10, 2, 4, true},  // wraps around 0
		{10, 12, 4, true}, // also on the wrapping arc (10..15,0..4)
		{10, 6, 4, false}, // 6 is on the short, non-wrapping side
		{5, 5, 5, true},   // a == c: full ring
		{5, 3, 5, true},   // a == c again, arbitrary b
		{5, 5, 10, false}, // b == a, a != c
	}
	for _, c := range cases {
		got := s.Between(big.NewInt(c.a), big.NewInt(c.b), big.NewInt(c.c))
		if got != c.want {
			t.Fatalf("Between(%d,%d,%d) = %v, want %v", c.a, c.b, c.c, got, c.want)
		}
	}
}

func TestSpaceSize(t *testing.T) {
	s := NewSpace(10)
	if s.Size().Int64() != 1024 {
		t.Fatalf("wrong size: %d", s.Size().Int64())
	}
	if s.M() != 10 {
		t.Fatalf("wrong M: %d", s.M())
	}
}
