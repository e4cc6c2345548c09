package chord

import (
	"context"
	"math/big"
	"sort"
)

// Every exists/get/put/remove RPC below forwards the replica count n
// to the remote peer, not the already-resolved salt (spec.md §4.8
// step 5: "forward the operation to host with parameter n preserved").
// Since saltFor is its own inverse (saltFor(saltFor(x)) == x), calling
// n.trans.X(..., n.saltFor(salt)) hands the peer a value that its own
// Transport-facing Node method turns back into exactly this salt via
// its own resolveN+saltFor — the peer reruns the same OP(path,n)
// algorithm rather than trusting a bare salt blindly.

// resolveN validates and clamps a client-supplied replica count
// against R (spec.md §4.8): 0 means "use the default of R", a
// negative count is invalid, and anything above R is clamped down.
func (n *Node) resolveN(requested int) (int, error) {
	if requested == 0 {
		return n.conf.R, nil
	}
	if requested < 0 {
		return 0, ErrInvalidRequest
	}
	if requested > n.conf.R {
		return n.conf.R, nil
	}
	return requested, nil
}

// resolveOwner looks up key and returns the host owning it, or
// ErrUnreachable if the lookup's successor is the null sentinel.
func (n *Node) resolveOwner(ctx context.Context, key *big.Int) (string, error) {
	chain, err := n.Lookup(ctx, key)
	if err != nil {
		return "", err
	}
	if len(chain) == 0 || chain[0] == "" {
		return "", ErrUnreachable
	}
	return chain[0], nil
}

// saltFor maps a replica count n to the salt used to place/find the
// n-th replica back from the last one: salt = R - n + 1, so n == R
// is the primary placement at salt 1.
func (n *Node) saltFor(replicaCount int) int {
	return n.conf.R - replicaCount + 1
}

// Exists reports whether path has a stored value, trying salts
// starting from the one implied by nReq and falling through on
// NotFound up to R times (spec.md §4.8).
func (n *Node) Exists(ctx context.Context, path string, nReq int) (bool, error) {
	nmax, err := n.resolveN(nReq)
	if err != nil {
		return false, err
	}
	return n.existsAt(ctx, path, n.saltFor(nmax))
}

func (n *Node) existsAt(ctx context.Context, path string, salt int) (bool, error) {
	key := HashKey(n.space, salt, path)
	host, err := n.resolveOwner(ctx, key)
	if err != nil {
		if salt < n.conf.R {
			return n.existsAt(ctx, path, salt+1)
		}
		return false, ErrUnavailable
	}

	var ok bool
	var opErr error
	if host == n.conf.Host {
		n.mu.Lock()
		ok = n.local.exists(key, path)
		n.mu.Unlock()
	} else {
		rctx, cancel := n.rpcCtx(ctx)
		ok, opErr = n.trans.Exists(rctx, host, path, n.saltFor(salt))
		cancel()
	}
	if opErr != nil {
		return false, opErr
	}
	if !ok && salt < n.conf.R {
		return n.existsAt(ctx, path, salt+1)
	}
	return ok, nil
}

// Get returns the value stored at path, trying salts starting from
// the one implied by nReq and falling through on NotFound up to R
// times. It never returns a value for the wrong replica — an
// unreachable owner or the salt-correct owner's own NotFound moves
// the search forward; any other error from the owner is returned.
func (n *Node) Get(ctx context.Context, path string, nReq int) (interface{}, error) {
	nmax, err := n.resolveN(nReq)
	if err != nil {
		return nil, err
	}
	return n.getAt(ctx, path, n.saltFor(nmax))
}

func (n *Node) getAt(ctx context.Context, path string, salt int) (interface{}, error) {
	key := HashKey(n.space, salt, path)
	host, err := n.resolveOwner(ctx, key)
	if err != nil {
		if salt < n.conf.R {
			return n.getAt(ctx, path, salt+1)
		}
		return nil, ErrUnavailable
	}

	var value interface{}
	var opErr error
	if host == n.conf.Host {
		n.mu.Lock()
		value, opErr = n.local.get(key, path)
		n.mu.Unlock()
	} else {
		rctx, cancel := n.rpcCtx(ctx)
		value, opErr = n.trans.Get(rctx, host, path, n.saltFor(salt))
		cancel()
	}
	if opErr != nil {
		if KindOf(opErr) == KindNotFound {
			if salt < n.conf.R {
				return n.getAt(ctx, path, salt+1)
			}
			return nil, ErrNotFound
		}
		return nil, opErr
	}
	return value, nil
}

// Put stores value at path at the salt implied by nReq. On success
// it also fire-and-forgets put at every salt above that one, up to
// R, swallowing their failures — the first successful placement is
// the commit point (spec.md §4.8). A real failure at a reachable
// owner (Duplicate) is not retried at other salts.
func (n *Node) Put(ctx context.Context, path string, value interface{}, nReq int) error {
	nmax, err := n.resolveN(nReq)
	if err != nil {
		return err
	}
	return n.putAt(ctx, path, value, n.saltFor(nmax))
}

func (n *Node) putAt(ctx context.Context, path string, value interface{}, salt int) error {
	key := HashKey(n.space, salt, path)
	host, err := n.resolveOwner(ctx, key)
	if err != nil {
		if salt < n.conf.R {
			return n.putAt(ctx, path, value, salt+1)
		}
		return ErrUnavailable
	}

	var opErr error
	if host == n.conf.Host {
		n.mu.Lock()
		opErr = n.local.put(key, path, value)
		n.mu.Unlock()
	} else {
		rctx, cancel := n.rpcCtx(ctx)
		opErr = n.trans.Put(rctx, host, path, value, n.saltFor(salt))
		cancel()
	}
	if opErr != nil {
		return opErr
	}

	n.propagatePut(ctx, path, value, salt+1)
	return nil
}

func (n *Node) propagatePut(ctx context.Context, path string, value interface{}, fromSalt int) {
	for salt := fromSalt; salt <= n.conf.R; salt++ {
		key := HashKey(n.space, salt, path)
		host, err := n.resolveOwner(ctx, key)
		if err != nil {
			continue
		}
		if host == n.conf.Host {
			n.mu.Lock()
			n.local.put(key, path, value) // best-effort replica fill, failures swallowed
			n.mu.Unlock()
		} else {
			rctx, cancel := n.rpcCtx(ctx)
			n.trans.Put(rctx, host, path, value, n.saltFor(salt)) // best-effort
			cancel()
		}
	}
}

// Remove deletes the value at path at the salt implied by nReq. On
// success it also propagates the removal to every salt above that
// one, up to R, but only because something was actually removed
// locally — this avoids amplifying NotFound calls to replicas that
// never held the path (spec.md §4.8). The returned bool reports
// whether a value was actually removed; it is also what a peer
// forwarding this as a Transport.Remove RPC reports back to its
// caller, so the caller can make the same propagate-only-if-removed
// decision (see replicate.go's top-of-file note on n/salt forwarding).
func (n *Node) Remove(ctx context.Context, path string, nReq int) (bool, error) {
	nmax, err := n.resolveN(nReq)
	if err != nil {
		return false, err
	}
	return n.removeAt(ctx, path, n.saltFor(nmax))
}

func (n *Node) removeAt(ctx context.Context, path string, salt int) (bool, error) {
	key := HashKey(n.space, salt, path)
	host, err := n.resolveOwner(ctx, key)
	if err != nil {
		if salt < n.conf.R {
			return n.removeAt(ctx, path, salt+1)
		}
		return false, ErrUnavailable
	}

	var removed bool
	var opErr error
	if host == n.conf.Host {
		n.mu.Lock()
		_, popErr := n.local.pop(key, path)
		n.mu.Unlock()
		switch {
		case popErr == nil:
			removed = true
		case KindOf(popErr) == KindNotFound:
			opErr = ErrNotFound
		default:
			opErr = popErr
		}
	} else {
		rctx, cancel := n.rpcCtx(ctx)
		removed, opErr = n.trans.Remove(rctx, host, path, n.saltFor(salt))
		cancel()
	}
	if opErr != nil {
		return false, opErr
	}

	if removed {
		n.propagateRemove(ctx, path, salt+1)
	}
	return removed, nil
}

func (n *Node) propagateRemove(ctx context.Context, path string, fromSalt int) {
	for salt := fromSalt; salt <= n.conf.R; salt++ {
		key := HashKey(n.space, salt, path)
		host, err := n.resolveOwner(ctx, key)
		if err != nil {
			continue
		}
		if host == n.conf.Host {
			n.mu.Lock()
			n.local.pop(key, path) // best-effort
			n.mu.Unlock()
		} else {
			rctx, cancel := n.rpcCtx(ctx)
			n.trans.Remove(rctx, host, path, n.saltFor(salt)) // best-effort
			cancel()
		}
	}
}

// Copy reads src and writes its value to dst, forwarding whichever
// of the two steps fails.
func (n *Node) Copy(ctx context.Context, src, dst string, nReq int) error {
	value, err := n.Get(ctx, src, nReq)
	if err != nil {
		return err
	}
	return n.Put(ctx, dst, value, nReq)
}

// List walks the union of every reachable node's peer cache,
// depth-first from this node, collecting the union of paths present
// in any node's local store. A node that fails to respond is
// silently skipped; List is best-effort and never fails outright on
// partial reachability (spec.md §4.8).
func (n *Node) List(ctx context.Context) []string {
	visited := map[string]bool{}
	found := map[string]struct{}{}
	stack := []string{n.conf.Host}

	for len(stack) > 0 {
		host := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[host] {
			continue
		}
		visited[host] = true

		var localPaths, peerHosts []string
		if host == n.conf.Host {
			n.mu.Lock()
			localPaths = n.local.paths()
			for _, h := range n.peers.snapshot() {
				peerHosts = append(peerHosts, h)
			}
			n.mu.Unlock()
		} else {
			var err error
			rctx, cancel := n.rpcCtx(ctx)
			localPaths, err = n.trans.LocalPaths(rctx, host)
			cancel()
			if err != nil {
				continue
			}
			prctx, pcancel := n.rpcCtx(ctx)
			peerHosts, _ = n.trans.PeerHosts(prctx, host)
			pcancel()
		}

		for _, p := range localPaths {
			found[p] = struct{}{}
		}
		for _, h := range peerHosts {
			if !visited[h] {
				stack = append(stack, h)
			}
		}
	}

	out := make([]string, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
