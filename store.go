package chord

import "math/big"

// pathValue is one entry of a local-store collision list: the path
// the value is stored under, and the value itself.
type pathValue struct {
	path  string
	value interface{}
}

// store is the per-node, per-key collision-list key/value table
// (spec.md §4.7). Keys collide when distinct paths hash to the same
// ring position; the inner list is expected to stay short because
// the hash is cryptographic and m is chosen large relative to the
// number of stored paths, so a linear scan per list is acceptable.
//
// store is not safe for concurrent use on its own; Node serializes
// access to it under its own mutex.
type store struct {
	entries map[string][]pathValue // keyed by key.String()
}

func newStore() *store {
	return &store{entries: make(map[string][]pathValue)}
}

func (s *store) find(key *big.Int, path string) (int, bool) {
	list := s.entries[key.String()]
	for i, pv := range list {
		if pv.path == path {
			return i, true
		}
	}
	return -1, false
}

// exists reports whether path has a stored value at key.
func (s *store) exists(key *big.Int, path string) bool {
	_, ok := s.find(key, path)
	return ok
}

// get returns the value stored at path, or ErrNotFound.
func (s *store) get(key *big.Int, path string) (interface{}, error) {
	i, ok := s.find(key, path)
	if !ok {
		return nil, ErrNotFound
	}
	return s.entries[key.String()][i].value, nil
}

// put stores value at path under key. A repeated put for a path that
// already has a value is rejected — there is no last-write-wins;
// callers that want overwrite semantics must pop then put.
func (s *store) put(key *big.Int, path string, value interface{}) error {
	k := key.String()
	if _, ok := s.find(key, path); ok {
		return ErrDuplicate
	}
	s.entries[k] = append(s.entries[k], pathValue{path: path, value: value})
	return nil
}

// pop removes and returns the value stored at path, or ErrNotFound.
func (s *store) pop(key *big.Int, path string) (interface{}, error) {
	k := key.String()
	i, ok := s.find(key, path)
	if !ok {
		return nil, ErrNotFound
	}
	list := s.entries[k]
	v := list[i].value
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(s.entries, k)
	} else {
		s.entries[k] = list
	}
	return v, nil
}

// content returns the submap of entries whose key lies in the arc
// (a, b] (the whole ring when a == b), keyed by the decimal string of the key (so it can be
// merged back in by a join peer without re-hashing).
func (s *store) content(space *Space, a, b *big.Int) map[string][]pathValue {
	out := make(map[string][]pathValue)
	for k, list := range s.entries {
		key, ok := new(big.Int).SetString(k, 10)
		if !ok {
			continue
		}
		if space.Between(a, key, b) {
			cp := make([]pathValue, len(list))
			copy(cp, list)
			out[k] = cp
		}
	}
	return out
}

// delete removes every entry whose key lies in the arc (a, b] (the
// whole ring when a == b).
func (s *store) delete(space *Space, a, b *big.Int) {
	for k := range s.entries {
		key, ok := new(big.Int).SetString(k, 10)
		if !ok {
			continue
		}
		if space.Between(a, key, b) {
			delete(s.entries, k)
		}
	}
}

// absorb merges externally supplied entries into the store, used
// when a joining node receives an arc of content from its successor.
// It does not reject duplicates the way put does: the arc transfer
// is trusted to carry entries that belong here, and the transferred
// list already enforces per-path uniqueness.
func (s *store) absorb(content map[string][]pathValue) {
	for k, list := range content {
		s.entries[k] = append(s.entries[k], list...)
	}
}

// paths returns every path stored locally, used by the list operation.
func (s *store) paths() []string {
	var out []string
	for _, list := range s.entries {
		for _, pv := range list {
			out = append(out, pv.path)
		}
	}
	return out
}
