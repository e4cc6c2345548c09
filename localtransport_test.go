package chord

import (
	"context"
	"math/big"
)

// localTransport dispatches every Transport call straight into an
// in-process Node registry, the same role armon-go-chord's
// LocalTransport plays for a Vnode registered in the same process
// (armon-go-chord/transport.go). It lets the replicated-operation and
// lookup tests exercise real cross-node RPC semantics — including the
// n/salt wire-forwarding rule in replicate.go — without a real
// listener.
type localTransport struct {
	nodes map[string]*Node
}

func newLocalTransport() *localTransport {
	return &localTransport{nodes: make(map[string]*Node)}
}

func (lt *localTransport) register(n *Node) {
	lt.nodes[n.Host()] = n
}

func (lt *localTransport) peer(host string) (*Node, error) {
	n, ok := lt.nodes[host]
	if !ok {
		return nil, ErrUnreachable
	}
	return n, nil
}

func (lt *localTransport) Ping(ctx context.Context, host string) error {
	_, err := lt.peer(host)
	return err
}

func (lt *localTransport) Predecessor(ctx context.Context, host string) (string, error) {
	n, err := lt.peer(host)
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pred.host, nil
}

func (lt *localTransport) UpdatePredecessor(ctx context.Context, host, newPred string) error {
	n, err := lt.peer(host)
	if err != nil {
		return err
	}
	n.UpdatePredecessor(newPred)
	return nil
}

func (lt *localTransport) Lookup(ctx context.Context, host string, key *big.Int) ([]string, error) {
	n, err := lt.peer(host)
	if err != nil {
		return nil, err
	}
	return n.Lookup(ctx, key)
}

func (lt *localTransport) Content(ctx context.Context, host string, a, b *big.Int) (map[string][]pathValue, error) {
	n, err := lt.peer(host)
	if err != nil {
		return nil, err
	}
	kv := n.Content(a, b)
	out := make(map[string][]pathValue, len(kv))
	for k, list := range kv {
		pvs := make([]pathValue, len(list))
		for i, e := range list {
			pvs[i] = pathValue{path: e.Path, value: e.Value}
		}
		out[k] = pvs
	}
	return out, nil
}

func (lt *localTransport) Delete(ctx context.Context, host string, a, b *big.Int) error {
	n, err := lt.peer(host)
	if err != nil {
		return err
	}
	n.Delete(a, b)
	return nil
}

func (lt *localTransport) Exists(ctx context.Context, host, path string, reqN int) (bool, error) {
	n, err := lt.peer(host)
	if err != nil {
		return false, err
	}
	return n.Exists(ctx, path, reqN)
}

func (lt *localTransport) Get(ctx context.Context, host, path string, reqN int) (interface{}, error) {
	n, err := lt.peer(host)
	if err != nil {
		return nil, err
	}
	return n.Get(ctx, path, reqN)
}

func (lt *localTransport) Put(ctx context.Context, host, path string, value interface{}, reqN int) error {
	n, err := lt.peer(host)
	if err != nil {
		return err
	}
	return n.Put(ctx, path, value, reqN)
}

func (lt *localTransport) Remove(ctx context.Context, host, path string, reqN int) (bool, error) {
	n, err := lt.peer(host)
	if err != nil {
		return false, err
	}
	return n.Remove(ctx, path, reqN)
}

func (lt *localTransport) LocalPaths(ctx context.Context, host string) ([]string, error) {
	n, err := lt.peer(host)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.local.paths(), nil
}

func (lt *localTransport) PeerHosts(ctx context.Context, host string) ([]string, error) {
	n, err := lt.peer(host)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	hosts := make([]string, 0, n.peers.len())
	for _, h := range n.peers.snapshot() {
		hosts = append(hosts, h)
	}
	return hosts, nil
}
