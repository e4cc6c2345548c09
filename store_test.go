package chord

import (
	"math/big"
	"testing"
)

func TestStorePutGetExists(t *testing.T) {
	s := newStore()
	key := big.NewInt(1)
	if s.exists(key, "/a") {
		t.Fatalf("exists should be false before put")
	}
	if err := s.put(key, "/a", 42); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if !s.exists(key, "/a") {
		t.Fatalf("exists should be true after put")
	}
	v, err := s.get(key, "/a")
	if err != nil || v != 42 {
		t.Fatalf("get = %v, %v; want 42, nil", v, err)
	}
}

func TestStorePutDuplicateRejected(t *testing.T) {
	s := newStore()
	key := big.NewInt(1)
	if err := s.put(key, "/a", 1); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	err := s.put(key, "/a", 2)
	if KindOf(err) != KindDuplicate {
		t.Fatalf("second put at same path = %v, want Duplicate", err)
	}
	v, _ := s.get(key, "/a")
	if v != 1 {
		t.Fatalf("value after rejected duplicate put = %v, want 1 (no last-write-wins)", v)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := newStore()
	_, err := s.get(big.NewInt(1), "/missing")
	if KindOf(err) != KindNotFound {
		t.Fatalf("get of missing path = %v, want NotFound", err)
	}
}

func TestStorePop(t *testing.T) {
	s := newStore()
	key := big.NewInt(1)
	s.put(key, "/a", "v")
	v, err := s.pop(key, "/a")
	if err != nil || v != "v" {
		t.Fatalf("pop = %v, %v; want v, nil", v, err)
	}
	if s.exists(key, "/a") {
		t.Fatalf("path should be gone after pop")
	}
	_, err = s.pop(key, "/a")
	if KindOf(err) != KindNotFound {
		t.Fatalf("second pop = %v, want NotFound", err)
	}
}

func TestStoreKeyCollisionKeepsBothPaths(t *testing.T) {
	s := newStore()
	key := big.NewInt(7) // two distinct paths landing on the same ring key
	if err := s.put(key, "/p1", "v1"); err != nil {
		t.Fatalf("put p1: %v", err)
	}
	if err := s.put(key, "/p2", "v2"); err != nil {
		t.Fatalf("put p2: %v", err)
	}
	v1, _ := s.get(key, "/p1")
	v2, _ := s.get(key, "/p2")
	if v1 != "v1" || v2 != "v2" {
		t.Fatalf("collision list lost a value: v1=%v v2=%v", v1, v2)
	}
}

func TestStoreContentAndDelete(t *testing.T) {
	space := NewSpace(4) // S = 16
	s := newStore()
	s.put(big.NewInt(3), "/in", "v")
	s.put(big.NewInt(12), "/out", "v")

	sub := s.content(space, big.NewInt(0), big.NewInt(5))
	if _, ok := sub[big.NewInt(3).String()]; !ok {
		t.Fatalf("content([0,5]) missing key 3: %v", sub)
	}
	if _, ok := sub[big.NewInt(12).String()]; ok {
		t.Fatalf("content([0,5]) should not include key 12: %v", sub)
	}

	s.delete(space, big.NewInt(0), big.NewInt(5))
	if s.exists(big.NewInt(3), "/in") {
		t.Fatalf("delete([0,5]) should have removed key 3")
	}
	if !s.exists(big.NewInt(12), "/out") {
		t.Fatalf("delete([0,5]) should not have touched key 12")
	}
}

func TestStoreAbsorb(t *testing.T) {
	s := newStore()
	s.put(big.NewInt(1), "/existing", "v0")
	content := map[string][]pathValue{
		big.NewInt(1).String(): {{path: "/new", value: "v1"}},
	}
	s.absorb(content)
	if !s.exists(big.NewInt(1), "/existing") || !s.exists(big.NewInt(1), "/new") {
		t.Fatalf("absorb should merge into the existing collision list, not replace it")
	}
}

func TestStorePaths(t *testing.T) {
	s := newStore()
	s.put(big.NewInt(1), "/a", "v")
	s.put(big.NewInt(2), "/b", "v")
	paths := s.paths()
	if len(paths) != 2 {
		t.Fatalf("paths() = %v, want 2 entries", paths)
	}
}
