package chord

import "context"

// Join inserts this node into the ring reachable through boot
// (spec.md §4.5). boot must not be this node's own host — the CLI
// layer is responsible for recognizing "boot == my own address" as
// "start a new ring" and never calling Join at all.
//
// Failure in any of steps 1-6 reverts local state and leaves the
// node Alone; failure in step 7 (content transfer) does not revert —
// the node is already a Member, and the duplicate keys left behind
// on the old owner are a benign, transient inconsistency resolved by
// the next arc transfer.
func (n *Node) Join(ctx context.Context, boot string) error {
	if boot == n.conf.Host {
		return ErrInvalidRequest
	}

	n.mu.Lock()
	oldPred := n.pred
	n.state = stateJoining
	n.mu.Unlock()

	revert := func() {
		n.mu.Lock()
		n.pred = oldPred
		n.state = stateAlone
		n.mu.Unlock()
	}

	// Step 1: liveness probe.
	pingCtx, cancel := n.rpcCtx(ctx)
	pingErr := n.trans.Ping(pingCtx, boot)
	cancel()
	if pingErr != nil {
		revert()
		return wrap(KindUnreachable, pingErr, "bootstrap peer unreachable")
	}

	// Step 2: ask boot to resolve our own id.
	lookupCtx, cancel := n.rpcCtx(ctx)
	chain, err := n.trans.Lookup(lookupCtx, boot, n.id)
	cancel()
	if err != nil {
		revert()
		return wrap(KindUnreachable, err, "bootstrap lookup failed")
	}
	if len(chain) == 0 || chain[0] == "" {
		revert()
		return wrap(KindUnreachable, ErrUnreachable, "bootstrap lookup returned no successor")
	}
	successor := chain[0]
	if HashHost(n.space, successor).Cmp(n.id) == 0 {
		revert()
		return ErrIdCollision
	}

	// Step 3: merge the returned chain into the peer cache.
	n.mu.Lock()
	n.mergeChainLocked(chain)
	n.mu.Unlock()

	// Step 4: ask the successor for its predecessor.
	predCtx, cancel := n.rpcCtx(ctx)
	predHost, err := n.trans.Predecessor(predCtx, successor)
	cancel()
	if err != nil {
		revert()
		return wrap(KindUnreachable, err, "failed to fetch successor's predecessor")
	}

	// Step 5: adopt it as our own predecessor. The wire protocol only
	// carries predHost (spec.md §6); its ring id is hashed locally
	// rather than trusted from the peer, per spec.md §4.5 step 5
	// ("self.predecessor = (hash(p), p)").
	predID := HashHost(n.space, predHost)
	n.mu.Lock()
	n.pred = predecessorRef{id: predID, host: predHost}
	n.peers.insert(predID, predHost)
	n.peers.insert(HashHost(n.space, successor), successor)
	n.mu.Unlock()

	// Step 6: notify the successor. Its death here means we raced it.
	notifyCtx, cancel := n.rpcCtx(ctx)
	notifyErr := n.trans.UpdatePredecessor(notifyCtx, successor, n.conf.Host)
	cancel()
	if notifyErr != nil {
		revert()
		return wrap(KindRaced, notifyErr, "successor died before accepting our predecessor notification")
	}

	n.mu.Lock()
	n.state = stateMember
	n.mu.Unlock()

	// Step 7: best-effort content transfer. The node is a Member
	// regardless of how this goes.
	contentCtx, cancel := n.rpcCtx(ctx)
	content, err := n.trans.Content(contentCtx, successor, predID, n.id)
	cancel()
	if err == nil {
		n.mu.Lock()
		n.local.absorb(content)
		n.mu.Unlock()
		deleteCtx, cancel := n.rpcCtx(ctx)
		n.trans.Delete(deleteCtx, successor, predID, n.id) // best-effort per spec.md §4.5 step 7
		cancel()
	}

	return nil
}

// UpdatePredecessor handles an incoming predecessor notification
// (the /update_predecessor/<host> HTTP route, and Join's own step 6
// against a peer). It applies spec.md §4.5's acceptance rule: the
// new predecessor id must lie strictly between the current
// predecessor id and this node's own id, unless this node is still
// Alone with itself as predecessor, in which case any predecessor is
// accepted. An update that fails the rule is silently ignored, since
// it is a best-effort notification rather than a command with
// failure semantics (spec.md §8 invariant 6: idempotence when
// newPredHost already matches).
func (n *Node) UpdatePredecessor(newPredHost string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pred.host == newPredHost {
		return
	}

	newID := HashHost(n.space, newPredHost)
	aloneWithSelf := n.pred.id.Cmp(n.id) == 0 && n.pred.host == n.conf.Host
	withinOpenInterval := newID.Cmp(n.id) != 0 && n.space.Between(n.pred.id, newID, n.id)
	if !aloneWithSelf && !withinOpenInterval {
		return
	}

	n.peers.insert(newID, newPredHost)
	n.pred = predecessorRef{id: newID, host: newPredHost}
	if n.state != stateJoining {
		n.state = stateMember
	}
}
