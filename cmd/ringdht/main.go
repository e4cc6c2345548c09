// Command ringdht runs a single DHT node: it binds the §6 HTTP
// surface to a fresh or joining chord.Node and serves until told to
// shut down (SIGINT/SIGTERM, or the /shutdown route).
//
// Mirrors original_source/python/application.py's bootstrap: if
// --boot is left at its default (this node's own --host), a new ring
// is started; otherwise the node joins through --boot.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	chord "github.com/tumdum/ringdht"
	"github.com/tumdum/ringdht/internal/httpapi"
)

func main() {
	var (
		host       = pflag.StringP("host", "l", "127.0.0.1:5000", "address this node listens on and advertises to peers")
		boot       = pflag.StringP("boot", "b", "", "address of an existing node to join through; defaults to --host, i.e. start a new ring")
		m          = pflag.IntP("bits", "m", 10, "ring keyspace bit width")
		r          = pflag.IntP("replicas", "r", 3, "replication degree R")
		rpcTimeout = pflag.Duration("rpc-timeout", 100*time.Millisecond, "per-RPC timeout")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	if *boot == "" {
		*boot = *host
	}

	log := newLogger(*verbose)
	defer log.Sync()

	conf := &chord.Config{Host: *host, M: *m, R: *r, RPCTimeout: *rpcTimeout}
	node := chord.New(conf, chord.NewHTTPTransport())

	httpServer := &http.Server{Addr: *host}
	stop := make(chan struct{}, 1)
	api := httpapi.NewServer(node, log, func() {
		select {
		case stop <- struct{}{}:
		default:
		}
	})
	httpServer.Handler = api

	go func() {
		log.Info("listening", zap.String("host", *host))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("serve failed", zap.Error(err))
		}
	}()

	if *boot != *host {
		waitForSelf(*host)
		joinCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := node.Join(joinCtx, *boot)
		cancel()
		if err != nil {
			log.Fatal("join failed", zap.String("boot", *boot), zap.Error(err))
		}
		log.Info("joined ring", zap.String("boot", *boot))
	} else {
		log.Info("starting new ring")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-stop:
	}
	shutdown(httpServer, log)
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	return log
}

// waitForSelf gives the listener goroutine a moment to bind before
// this node starts issuing RPCs that may (in a single-process test
// topology) loop back to its own freshly started server.
func waitForSelf(host string) {
	for i := 0; i < 50; i++ {
		conn, err := net.DialTimeout("tcp", host, 20*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func shutdown(s *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}
