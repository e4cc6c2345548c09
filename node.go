package chord

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// state is the per-node join state machine of spec.md §4.5.
type state int

const (
	stateAlone state = iota
	stateJoining
	stateMember
)

// Config configures a Node. M and R must agree across every node in
// the same ring (spec.md §6).
type Config struct {
	// Host is this node's own transport address (host:port).
	Host string
	// M is the keyspace bit width; S = 2^M.
	M int
	// R is the replication degree: each path is stored at up to R
	// distinct ring positions.
	R int
	// RPCTimeout bounds every outgoing RPC (spec.md §5). The design
	// default is 100ms.
	RPCTimeout time.Duration
}

// DefaultConfig returns the configuration used by the worked examples
// in spec.md §8: a 10-bit ring, 3-way replication, 100ms RPC timeout.
func DefaultConfig(host string) *Config {
	return &Config{
		Host:       host,
		M:          10,
		R:          3,
		RPCTimeout: 100 * time.Millisecond,
	}
}

// predecessorRef is the (ring-id, host) pair a Node tracks for its
// predecessor (spec.md §3).
type predecessorRef struct {
	id   *big.Int
	host string
}

// Node is one DHT participant: ring membership state, a cached view
// of other peers, and the local replicated key/value store, all
// guarded by mu (spec.md §4.4). There is deliberately no successor
// field — see DESIGN.md's Open Question decision; peerCache.nearest
// stands in whenever routing needs "the closest known node".
type Node struct {
	conf  *Config
	space *Space
	id    *big.Int

	trans Transport

	mu    sync.Mutex
	state state
	pred  predecessorRef
	peers *peerCache
	local *store
}

// New creates a Node bound to conf.Host. It starts Alone: its own
// predecessor, with an empty peer cache and store. Call Join to
// attach it to an existing ring, or leave it Alone to start a new one.
func New(conf *Config, trans Transport) *Node {
	space := NewSpace(conf.M)
	id := HashHost(space, conf.Host)
	n := &Node{
		conf:  conf,
		space: space,
		id:    id,
		trans: trans,
		state: stateAlone,
		peers: newPeerCache(space),
		local: newStore(),
	}
	n.pred = predecessorRef{id: id, host: conf.Host}
	return n
}

// Host returns this node's own address.
func (n *Node) Host() string { return n.conf.Host }

// ID returns this node's ring id.
func (n *Node) ID() *big.Int { return new(big.Int).Set(n.id) }

// Predecessor returns the currently known predecessor host.
func (n *Node) Predecessor() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pred.host
}

// PeerCache returns a snapshot of the peer directory, keyed by the
// decimal ring id, for the /network HTTP route.
func (n *Node) PeerCache() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peers.snapshot()
}

// KV is a single (path, value) local-store entry, exported so the
// HTTP layer can marshal it directly and httptransport.go can decode
// a peer's response into the same shape.
type KV struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

func toKVs(list []pathValue) []KV {
	out := make([]KV, len(list))
	for i, pv := range list {
		out[i] = KV{Path: pv.path, Value: pv.value}
	}
	return out
}

func toKVMap(content map[string][]pathValue) map[string][]KV {
	out := make(map[string][]KV, len(content))
	for k, list := range content {
		out[k] = toKVs(list)
	}
	return out
}

// Content returns the submap of the local store covering the arc
// (a, b] (the whole ring when a == b), for the /content/<a>/<b> HTTP
// route and for peers pulling an arc during join.
func (n *Node) Content(a, b *big.Int) map[string][]KV {
	n.mu.Lock()
	defer n.mu.Unlock()
	return toKVMap(n.local.content(n.space, a, b))
}

// Delete removes every local entry in the arc (a, b] (the whole ring
// when a == b), for the /delete/<a>/<b> HTTP route.
func (n *Node) Delete(a, b *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.local.delete(n.space, a, b)
}

// AllContent returns the entire local store, for the bare /content
// HTTP route (no arc bounds). It reuses Space.Between's a==c
// full-ring identity: any arc [x, x] covers the whole ring.
func (n *Node) AllContent() map[string][]KV {
	n.mu.Lock()
	defer n.mu.Unlock()
	return toKVMap(n.local.content(n.space, n.id, n.id))
}

// rpcCtx derives a context bounded by the configured RPC timeout
// (spec.md §5). Every outgoing call to n.trans must be wrapped with
// it. Callers release n.mu before issuing the call; the timeout
// bounds how long an operation waits on a dead or slow peer.
func (n *Node) rpcCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, n.conf.RPCTimeout)
}

// ownsLocked reports whether key falls in this node's responsibility
// arc (predecessor.id, id]. Caller must hold n.mu.
func (n *Node) ownsLocked(key *big.Int) bool {
	return n.space.Between(n.pred.id, key, n.id)
}
