package chord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestHTTPTransportPredecessorDecodesHostOnly closes the gap a real
// join would otherwise hit: the /predecessor wire response (spec.md
// §6) is a bare host string, so the decoded result must carry no ring
// id at all — a caller that needs one must hash the host locally
// (see membership.go's Join step 5).
func TestHTTPTransportPredecessorDecodesHostOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("peer-host:9999\n"))
	}))
	defer srv.Close()

	trans := NewHTTPTransport()
	host, err := trans.Predecessor(context.Background(), srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Predecessor: %v", err)
	}
	if host != "peer-host:9999" {
		t.Fatalf("Predecessor host = %q, want %q (trailing whitespace must be trimmed)", host, "peer-host:9999")
	}
}

func TestHTTPTransportPredecessorPropagatesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	trans := NewHTTPTransport()
	_, err := trans.Predecessor(context.Background(), srv.Listener.Addr().String())
	if KindOf(err) != KindUnavailable {
		t.Fatalf("Predecessor against a 503 peer = %v, want Unavailable", err)
	}
}
