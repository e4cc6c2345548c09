package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerRespectsVerboseFlag(t *testing.T) {
	quiet := newLogger(false)
	require.NotNil(t, quiet)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))

	verbose := newLogger(true)
	require.NotNil(t, verbose)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestWaitForSelfReturnsOnceListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		waitForSelf(ln.Addr().String())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitForSelf did not return for a listening address")
	}
}

func TestWaitForSelfGivesUpEventually(t *testing.T) {
	done := make(chan struct{})
	go func() {
		waitForSelf("127.0.0.1:1") // reserved, nothing ever listens here
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("waitForSelf should return after exhausting its retries")
	}
}
