package chord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// HTTPTransport is the one concrete Transport this repository ships:
// it speaks the same HTTP surface §6 defines for clients, because
// that surface is also the inter-node RPC channel (see DESIGN.md's
// "Dropped teacher deps" entry on why this isn't gRPC). It is
// structured after armon-go-chord/net.go's TCPTransport — a single
// client, one timeout-bounded round trip per call — but over HTTP
// instead of a bespoke TCP framing.
type HTTPTransport struct {
	client *http.Client
	scheme string
}

// NewHTTPTransport builds an HTTPTransport. The per-call deadline is
// carried by the context each Transport method receives, not by the
// client itself, so a single HTTPTransport can serve calls with
// different deadlines.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{}, scheme: "http"}
}

func (t *HTTPTransport) url(host, format string, args ...interface{}) string {
	return fmt.Sprintf("%s://%s%s", t.scheme, host, fmt.Sprintf(format, args...))
}

func (t *HTTPTransport) do(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, wrap(KindUnreachable, err, "request failed")
	}
	return resp, nil
}

// statusErr maps an HTTP status code from a peer into a classified
// error per the §6/§7 status-code convention.
func statusErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := string(body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return wrap(KindUnreachable, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "peer returned an error")
	}
}

func (t *HTTPTransport) Ping(ctx context.Context, host string) error {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/"), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	return nil
}

func (t *HTTPTransport) Predecessor(ctx context.Context, host string) (string, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/predecessor"), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusErr(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrap(KindUnreachable, err, "reading predecessor response")
	}
	return string(bytes.TrimSpace(body)), nil
}

func (t *HTTPTransport) Lookup(ctx context.Context, host string, key *big.Int) ([]string, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/lookup/%s", key.String()), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	var raw []*string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, wrap(KindUnreachable, err, "decoding lookup chain")
	}
	chain := make([]string, len(raw))
	for i, h := range raw {
		if h != nil {
			chain[i] = *h
		}
	}
	return chain, nil
}

func (t *HTTPTransport) UpdatePredecessor(ctx context.Context, host, newPred string) error {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/update_predecessor/%s", url.PathEscape(newPred)), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	return nil
}

func decodeContent(body io.Reader) (map[string][]pathValue, error) {
	var raw map[string][]KV
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, wrap(KindUnreachable, err, "decoding content response")
	}
	out := make(map[string][]pathValue, len(raw))
	for k, list := range raw {
		pvs := make([]pathValue, len(list))
		for i, w := range list {
			pvs[i] = pathValue{path: w.Path, value: w.Value}
		}
		out[k] = pvs
	}
	return out, nil
}

func (t *HTTPTransport) Content(ctx context.Context, host string, a, b *big.Int) (map[string][]pathValue, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/content/%s/%s", a.String(), b.String()), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	return decodeContent(resp.Body)
}

func (t *HTTPTransport) Delete(ctx context.Context, host string, a, b *big.Int) error {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/delete/%s/%s", a.String(), b.String()), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	return nil
}

func (t *HTTPTransport) Exists(ctx context.Context, host, path string, n int) (bool, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/exists/%s/%d", url.PathEscape(path), n), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, statusErr(resp)
	}
	var ok bool
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return false, wrap(KindUnreachable, err, "decoding exists response")
	}
	return ok, nil
}

func (t *HTTPTransport) Get(ctx context.Context, host, path string, n int) (interface{}, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/get/%s/%d", url.PathEscape(path), n), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	var value interface{}
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return nil, wrap(KindUnreachable, err, "decoding get response")
	}
	return value, nil
}

func (t *HTTPTransport) Put(ctx context.Context, host, path string, value interface{}, n int) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encoding put value")
	}
	resp, err := t.do(ctx, http.MethodPut, t.url(host, "/put/%s/%d", url.PathEscape(path), n), bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	return nil
}

func (t *HTTPTransport) Remove(ctx context.Context, host, path string, n int) (bool, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/remove/%s/%d", url.PathEscape(path), n), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, statusErr(resp)
	}
	var out struct {
		Removed bool `json:"removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, wrap(KindUnreachable, err, "decoding remove response")
	}
	return out.Removed, nil
}

func (t *HTTPTransport) LocalPaths(ctx context.Context, host string) ([]string, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/content"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	content, err := decodeContent(resp.Body)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, list := range content {
		for _, pv := range list {
			paths = append(paths, pv.path)
		}
	}
	return paths, nil
}

func (t *HTTPTransport) PeerHosts(ctx context.Context, host string) ([]string, error) {
	resp, err := t.do(ctx, http.MethodGet, t.url(host, "/network"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	var peers map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
		return nil, wrap(KindUnreachable, err, "decoding network response")
	}
	hosts := make([]string, 0, len(peers))
	for _, h := range peers {
		hosts = append(hosts, h)
	}
	return hosts, nil
}
