// Package httpapi binds the HTTP routes of spec.md §6 to a
// chord.Node. It is deliberately thin: every handler parses its
// request, calls one Node method, and maps the result onto the wire
// format and status code §6/§7 specify.
package httpapi

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	chord "github.com/tumdum/ringdht"
)

// Server is the HTTP dispatcher in front of one Node. It is the
// "thin external collaborator" spec.md §1 places out of core scope:
// no ring logic lives here, only request parsing and response
// shaping.
type Server struct {
	node   *chord.Node
	log    *zap.Logger
	router *httprouter.Router
	onShut func()
}

// NewServer wires every §6 route onto node. onShutdown is invoked by
// the /shutdown route after the response is written; cmd/ringdht uses
// it to stop the process.
func NewServer(node *chord.Node, log *zap.Logger, onShutdown func()) *Server {
	s := &Server{node: node, log: log, onShut: onShutdown}
	s.router = httprouter.New()
	s.routes()
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.GET("/", s.handlePing)
	r.GET("/predecessor", s.handlePredecessor)
	r.GET("/network", s.handleNetwork)
	r.GET("/content", s.handleAllContent)
	r.GET("/content/:a/:b", s.handleContentRange)
	r.GET("/delete/:a/:b", s.handleDeleteRange)
	r.GET("/update_predecessor/:host", s.handleUpdatePredecessor)
	r.GET("/lookup/:key", s.handleLookup)
	r.GET("/exists/:path", s.handleExists)
	r.GET("/exists/:path/:n", s.handleExists)
	r.GET("/get/:path", s.handleGet)
	r.GET("/get/:path/:n", s.handleGet)
	r.POST("/put/:path", s.handlePut)
	r.PUT("/put/:path", s.handlePut)
	r.POST("/put/:path/:n", s.handlePut)
	r.PUT("/put/:path/:n", s.handlePut)
	r.GET("/remove/:path", s.handleRemove)
	r.GET("/remove/:path/:n", s.handleRemove)
	r.GET("/copy/:src/:dst", s.handleCopy)
	r.GET("/list", s.handleList)
	r.GET("/shutdown", s.handleShutdown)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handlePredecessor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeText(w, http.StatusOK, s.node.Predecessor())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.node.PeerCache())
}

func (s *Server) handleAllContent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.node.AllContent())
}

func (s *Server) handleContentRange(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, ok1 := parseBigInt(ps.ByName("a"))
	b, ok2 := parseBigInt(ps.ByName("b"))
	if !ok1 || !ok2 {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.node.Content(a, b))
}

func (s *Server) handleDeleteRange(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, ok1 := parseBigInt(ps.ByName("a"))
	b, ok2 := parseBigInt(ps.ByName("b"))
	if !ok1 || !ok2 {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	s.node.Delete(a, b)
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleUpdatePredecessor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.node.UpdatePredecessor(ps.ByName("host"))
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key, ok := parseBigInt(ps.ByName("key"))
	if !ok {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	chain, err := s.node.Lookup(r.Context(), key)
	if err != nil {
		s.log.Warn("lookup failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nullableChain(chain))
}

// nullableChain turns the "" sentinel into a JSON null, matching the
// wire shape httptransport.go's Lookup client decodes.
func nullableChain(chain []string) []*string {
	out := make([]*string, len(chain))
	for i, h := range chain {
		if h == "" {
			continue
		}
		h := h
		out[i] = &h
	}
	return out
}

func replicaCount(ps httprouter.Params) (int, bool) {
	raw := ps.ByName("n")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil && n > 0
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	n, ok := replicaCount(ps)
	if !ok {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	exists, err := s.node.Exists(r.Context(), ps.ByName("path"), n)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exists)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	n, ok := replicaCount(ps)
	if !ok {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	value, err := s.node.Get(r.Context(), ps.ByName("path"), n)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	n, ok := replicaCount(ps)
	if !ok {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	var value interface{}
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	if err := s.node.Put(r.Context(), ps.ByName("path"), value, n); err != nil {
		writeErr(w, err)
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	n, ok := replicaCount(ps)
	if !ok {
		writeErr(w, chord.ErrInvalidRequest)
		return
	}
	removed, err := s.node.Remove(r.Context(), ps.ByName("path"), n)
	if err != nil {
		writeErr(w, err)
		return
	}
	// The Go HTTPTransport client (httptransport.go) needs to know
	// whether something was actually removed, to decide whether to
	// propagate the removal to later salts — richer than spec.md
	// §6's bare "200" but compatible with it.
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.node.Copy(r.Context(), ps.ByName("src"), ps.ByName("dst"), 0); err != nil {
		writeErr(w, err)
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.node.List(r.Context()))
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeText(w, http.StatusOK, "ok")
	if s.onShut != nil {
		go s.onShut()
	}
}

func parseBigInt(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(s), 10)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a classified Kind onto the HTTP status §6/§7
// specify, refined per SPEC_FULL §7: Unavailable (every replica
// salt exhausted) surfaces as 503 rather than a bare 500, so a
// client can distinguish "never existed" from "ring partitioned".
func statusFor(kind chord.Kind) int {
	switch kind {
	case chord.KindDuplicate:
		return http.StatusConflict
	case chord.KindNotFound:
		return http.StatusNotFound
	case chord.KindInvalidRequest:
		return http.StatusBadRequest
	case chord.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(chord.KindOf(err)), map[string]string{"error": err.Error()})
}
