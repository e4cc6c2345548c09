package chord

import "testing"

func TestHashKeyDeterministic(t *testing.T) {
	s := NewSpace(16)
	a := HashKey(s, 1, "/foo")
	b := HashKey(s, 1, "/foo")
	if a.Cmp(b) != 0 {
		t.Fatalf("HashKey not deterministic: %v != %v", a, b)
	}
}

func TestHashKeyRange(t *testing.T) {
	s := NewSpace(8)
	id := HashKey(s, 0, "example.org:1234")
	if id.Sign() < 0 || id.Cmp(s.Size()) >= 0 {
		t.Fatalf("id %v out of range [0, %v)", id, s.Size())
	}
}

func TestHashKeySaltSeparatesPlacements(t *testing.T) {
	s := NewSpace(32)
	primary := HashKey(s, 0, "/shared")
	replica := HashKey(s, 1, "/shared")
	if primary.Cmp(replica) == 0 {
		t.Fatalf("salt 0 and salt 1 collided for the same path, suspiciously unlikely at m=32")
	}
}

func TestHashKeyNoDelimiterCollision(t *testing.T) {
	// (salt=1, "2x") must not collide with (salt=12, "x") by string
	// concatenation accident: the ':' separator is never part of a
	// salt's decimal encoding.
	s := NewSpace(64)
	a := HashKey(s, 1, "2x")
	b := HashKey(s, 12, "x")
	if a.Cmp(b) == 0 {
		t.Fatalf("salt/value concatenation collided: HashKey(1,\"2x\") == HashKey(12,\"x\")")
	}
}

func TestHashHostIsSaltZero(t *testing.T) {
	s := NewSpace(16)
	if HashHost(s, "host:1").Cmp(HashKey(s, 0, "host:1")) != 0 {
		t.Fatalf("HashHost must equal HashKey with salt 0")
	}
}
