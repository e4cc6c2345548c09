package chord

import (
	"crypto/sha1"
	"fmt"
	"math/big"
)

// HashKey maps x to a ring identifier in [0, space.Size()), salting
// the digest so that distinct salts land at statistically
// independent positions (spec.md §4.2). salt 0 derives a node's ring
// id from its host (HashHost); the replicated operations place the
// copies of a path at salts 1..R, salt 1 being the primary placement.
//
// The salt and the value are joined with a ':' separator that can
// never appear inside salt's decimal encoding, so (salt=1, "2x")
// cannot collide by concatenation with (salt=12, "x").
func HashKey(space *Space, salt int, x string) *big.Int {
	h := sha1.New()
	fmt.Fprintf(h, "%d:%s", salt, x)
	digest := h.Sum(nil)
	id := new(big.Int).SetBytes(digest)
	return space.mod(id)
}

// HashHost is HashKey with salt 0, used to derive a node's own ring
// id from its host address.
func HashHost(space *Space, host string) *big.Int {
	return HashKey(space, 0, host)
}
