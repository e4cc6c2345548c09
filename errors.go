package chord

import "github.com/pkg/errors"

// Kind classifies a failure the way a caller needs to react to it:
// lookup evicts a peer on Unreachable, replicated ops fall through a
// salt on Unreachable, join reverts its state on IdCollision/Raced.
type Kind int

const (
	// KindUnreachable means an RPC timed out or the peer refused it.
	KindUnreachable Kind = iota
	// KindIdCollision means two distinct hosts hashed to the same ring id.
	KindIdCollision
	// KindRaced means a peer changed identity mid-protocol.
	KindRaced
	// KindDuplicate means put targeted a path that already has a value.
	KindDuplicate
	// KindNotFound means get/pop/remove found nothing at any tried salt.
	KindNotFound
	// KindInvalidRequest means malformed input (bad path, n<=0, ...).
	KindInvalidRequest
	// KindUnavailable means a replicated operation exhausted every
	// salt it tried (R-n+1 through R) without finding a reachable
	// owner (spec.md §4.8).
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindIdCollision:
		return "id_collision"
	case KindRaced:
		return "raced"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Callers that need to branch on the
// failure mode should use Kind, not string-match Error().
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

// wrap attaches a stack-carrying cause to a classified error, the way
// the rest of the package reports lower-level failures (a dial
// timeout, a malformed response body) without losing the Kind a
// caller dispatches on.
func wrap(kind Kind, cause error, msg string) error {
	return &Error{Kind: kind, msg: errors.Wrap(cause, msg).Error()}
}

// KindOf extracts the Kind of err, defaulting to KindUnreachable for
// errors that were never classified (e.g. a bare network failure that
// escaped the Transport layer).
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnreachable
}

var (
	// ErrUnreachable is returned when a peer cannot be contacted within
	// the configured RPC timeout.
	ErrUnreachable = newErr(KindUnreachable, "peer unreachable")
	// ErrIdCollision is returned by Join when the bootstrap peer's
	// successor already occupies this node's ring id.
	ErrIdCollision = newErr(KindIdCollision, "ring id already occupied")
	// ErrRaced is the sentinel of KindRaced. Join reports a designated
	// successor that dies between the lookup and the notify step with
	// an error of this Kind, wrapped with the notify failure.
	ErrRaced = newErr(KindRaced, "successor changed during join")
	// ErrDuplicate is returned by Put for a path that already has a
	// stored value at its ring position.
	ErrDuplicate = newErr(KindDuplicate, "value already stored at path")
	// ErrNotFound is returned by Get/Pop/Remove when no replica holds
	// the path.
	ErrNotFound = newErr(KindNotFound, "path not found")
	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = newErr(KindInvalidRequest, "invalid request")
	// ErrUnavailable is returned by a replicated operation that
	// exhausted every salt without reaching a live owner.
	ErrUnavailable = newErr(KindUnavailable, "no replica reachable")
)
