package chord

import "math/big"

// peerEntry is a single (ring-id, host) pairing held in a peerCache.
type peerEntry struct {
	id   *big.Int
	host string
}

// peerCache is a node's learned directory of other ring members,
// used as the routing table for lookup (spec.md §4.3). It is not
// safe for concurrent use on its own — callers hold the owning
// Node's mutex around every access, per spec.md §5's single-lock
// model.
type peerCache struct {
	space   *Space
	entries map[string]*peerEntry // keyed by id.String()
}

func newPeerCache(space *Space) *peerCache {
	return &peerCache{space: space, entries: make(map[string]*peerEntry)}
}

// insert is idempotent: re-inserting an id overwrites its host, which
// tolerates a node rejoining at the same address.
func (c *peerCache) insert(id *big.Int, host string) {
	c.entries[id.String()] = &peerEntry{id: id, host: host}
}

// remove drops the entry for id, if any.
func (c *peerCache) remove(id *big.Int) {
	delete(c.entries, id.String())
}

// len reports how many peers are cached.
func (c *peerCache) len() int {
	return len(c.entries)
}

// nearest returns the cached host whose id minimizes distance(id,
// key), ties broken by numerically smallest id. ok is false when the
// cache is empty.
func (c *peerCache) nearest(key *big.Int) (id *big.Int, host string, ok bool) {
	var best *peerEntry
	var bestDist *big.Int
	for _, e := range c.entries {
		d := c.space.Distance(e.id, key)
		switch {
		case best == nil:
			best, bestDist = e, d
		case d.Cmp(bestDist) < 0:
			best, bestDist = e, d
		case d.Cmp(bestDist) == 0 && e.id.Cmp(best.id) < 0:
			best, bestDist = e, d
		}
	}
	if best == nil {
		return nil, "", false
	}
	return best.id, best.host, true
}

// snapshot returns the cache contents as a map from decimal ring id
// to host, for the /network HTTP route and List's reachability walk.
func (c *peerCache) snapshot() map[string]string {
	out := make(map[string]string, len(c.entries))
	for _, e := range c.entries {
		out[e.id.String()] = e.host
	}
	return out
}
