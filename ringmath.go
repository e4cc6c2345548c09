package chord

import "math/big"

// Space is the modular keyspace [0, 2^m) that ring identifiers live
// in. It is derived once from Config.M and reused for every distance
// and membership test, mirroring the teacher's practice of computing
// the ring size as a big.Int rather than hard-coding a word size
// (armon-go-chord's powerOffset/distance helpers).
type Space struct {
	m    int
	size *big.Int
}

// NewSpace builds the keyspace for an m-bit ring. m must be positive.
func NewSpace(m int) *Space {
	size := new(big.Int).Lsh(big.NewInt(1), uint(m))
	return &Space{m: m, size: size}
}

// M returns the configured bit width.
func (s *Space) M() int { return s.m }

// Size returns 2^m as a fresh big.Int the caller may mutate freely.
func (s *Space) Size() *big.Int { return new(big.Int).Set(s.size) }

// mod reduces x into [0, size) without mutating x.
func (s *Space) mod(x *big.Int) *big.Int {
	r := new(big.Int).Mod(x, s.size)
	if r.Sign() < 0 {
		r.Add(r, s.size)
	}
	return r
}

// Distance computes the clockwise arc length (b - a) mod S.
func (s *Space) Distance(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(b, a)
	return s.mod(d)
}

// Between reports whether b lies on the clockwise arc from a to c,
// c included and a excluded: true iff a == c (the degenerate
// full-ring case), or b != a and distance(a,b) + distance(b,c) ==
// distance(a,c).
//
// The sum on the left is deliberately NOT reduced mod S before the
// comparison: distance(a,b)+distance(b,c) always equals distance(a,c)
// mod S for any b (it telescopes to c-a), so reducing it again would
// make the check vacuously true. Comparing the raw sum only succeeds
// when going a→b→c does not loop past a; that's what makes it a
// meaningful clockwise-arc test. Ported as-is from
// original_source/python/dftht/dht.py's `between`.
func (s *Space) Between(a, b, c *big.Int) bool {
	if a.Cmp(c) == 0 {
		return true
	}
	if b.Cmp(a) == 0 {
		return false
	}
	lhs := new(big.Int).Add(s.Distance(a, b), s.Distance(b, c))
	return lhs.Cmp(s.Distance(a, c)) == 0
}
