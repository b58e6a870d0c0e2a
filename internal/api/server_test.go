package api_test

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/api"
	"github.com/mcoot/teambalancer/internal/testutil"
)

func TestServerConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("HOST", "")
		t.Setenv("PORT", "")
		config, err := api.ServerConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, api.DefaultServerConfig(), config)
	})

	t.Run("host and port", func(t *testing.T) {
		t.Setenv("HOST", "127.0.0.1")
		t.Setenv("PORT", "9090")
		config, err := api.ServerConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", config.Host)
		assert.Equal(t, 9090, config.Port)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := api.ServerConfigFromEnv()
		assert.Error(t, err)
	})
}

// TestShutdownEndsEventStreams verifies an open stream does not hold
// shutdown until its timeout
func TestShutdownEndsEventStreams(t *testing.T) {
	opened := make(chan struct{})
	ended := make(chan struct{})
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": open\n\n"))
		w.(http.Flusher).Flush()
		close(opened)
		<-r.Context().Done()
		close(ended)
	})

	config := api.DefaultServerConfig()
	config.ShutdownTimeout = 10 * time.Second
	server := api.NewServer(stream, config, testutil.NopLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/v1/rooms/abc/events")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	_, err = bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	<-opened

	start := time.Now()
	require.NoError(t, server.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("stream handler was not cancelled")
	}
	require.NoError(t, <-served)
}
