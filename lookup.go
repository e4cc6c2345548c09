package chord

import (
	"context"
	"math/big"
)

// Lookup resolves the successor of key (spec.md §4.6): the host
// whose arc contains key, or the null sentinel ("") at the front of
// the chain if that successor is presently unreachable. The returned
// chain is a witness of the path taken, ending at this node's own
// host, and doubles as fresh peer-cache material for the caller.
func (n *Node) Lookup(ctx context.Context, key *big.Int) ([]string, error) {
	n.mu.Lock()
	if n.ownsLocked(key) {
		n.mu.Unlock()
		return []string{n.conf.Host}, nil
	}
	n.mu.Unlock()

	for {
		n.mu.Lock()
		pid, phost, ok := n.peers.nearest(key)
		predHost := n.pred.host
		n.mu.Unlock()

		if !ok {
			// Peer cache exhausted: the caller interprets this as "I am
			// the only reachable node", a degenerate but well-defined
			// answer (spec.md §4.6 step 3).
			return []string{n.conf.Host}, nil
		}

		rctx, cancel := n.rpcCtx(ctx)
		subChain, err := n.trans.Lookup(rctx, phost, key)
		cancel()
		if err != nil {
			if phost == predHost {
				return []string{"", n.conf.Host}, nil
			}
			n.mu.Lock()
			n.peers.remove(pid)
			n.mu.Unlock()
			continue
		}

		n.mu.Lock()
		n.mergeChainLocked(subChain)
		n.mu.Unlock()

		chain := make([]string, 0, len(subChain)+1)
		chain = append(chain, subChain...)
		chain = append(chain, n.conf.Host)
		return chain, nil
	}
}

// mergeChainLocked absorbs every non-sentinel host in chain into the
// peer cache. Caller must hold n.mu.
func (n *Node) mergeChainLocked(chain []string) {
	for _, host := range chain {
		if host == "" {
			continue
		}
		id := HashHost(n.space, host)
		n.peers.insert(id, host)
	}
}
