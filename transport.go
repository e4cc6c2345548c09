package chord

import (
	"context"
	"math/big"
)

// Transport is everything a Node needs to say to a peer over the
// wire. It mirrors the teacher's Transport/VnodeRPC split
// (armon-go-chord/chord.go) but has a single concrete implementation
// here: an HTTP client hitting the peer's §6 HTTP surface, because
// that surface IS the inter-node RPC channel — there is no separate
// transport for peers to talk over (see httptransport.go).
//
// Every method takes a context carrying the per-call timeout
// (spec.md §5); a Transport implementation must not block past it.
type Transport interface {
	// Ping probes liveness of host.
	Ping(ctx context.Context, host string) error

	// Predecessor asks host for its predecessor's address. The wire
	// protocol (spec.md §6) carries only the host string; a caller
	// that needs the predecessor's ring id must hash it locally with
	// HashHost rather than trust an id over the wire.
	Predecessor(ctx context.Context, host string) (predHost string, err error)

	// UpdatePredecessor notifies host that newPred should become its
	// predecessor.
	UpdatePredecessor(ctx context.Context, host, newPred string) error

	// Lookup asks host to resolve key, returning the chain it
	// produced (spec.md §4.6). A "" entry at the front of the chain
	// is the null sentinel for an unreachable successor.
	Lookup(ctx context.Context, host string, key *big.Int) (chain []string, err error)

	// Content asks host for the submap of its local store in the arc
	// (a, b] (the whole ring when a == b).
	Content(ctx context.Context, host string, a, b *big.Int) (map[string][]pathValue, error)

	// Delete asks host to remove its entries in the arc (a, b].
	Delete(ctx context.Context, host string, a, b *big.Int) error

	// Exists forwards an exists(path, n) replicated operation to host.
	// n is the replica count, not the already-resolved salt (spec.md
	// §4.8 step 5 forwards "with parameter n preserved"); host is
	// expected to rerun the generic OP(path, n) algorithm itself.
	Exists(ctx context.Context, host, path string, n int) (bool, error)

	// Get forwards a get(path, n) replicated operation to host.
	Get(ctx context.Context, host, path string, n int) (value interface{}, err error)

	// Put forwards a put(path, value, n) replicated operation to host.
	Put(ctx context.Context, host, path string, value interface{}, n int) error

	// Remove forwards a remove(path, n) replicated operation to host,
	// reporting whether a value was actually removed.
	Remove(ctx context.Context, host, path string, n int) (removed bool, err error)

	// LocalPaths returns every path stored in host's local store,
	// used by List's reachability walk.
	LocalPaths(ctx context.Context, host string) ([]string, error)

	// PeerHosts returns the hosts host's peer cache currently knows
	// about, used by List's reachability walk.
	PeerHosts(ctx context.Context, host string) ([]string, error)
}
