package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpopts "github.com/kart-io/sentinel-ask/pkg/options/http"
)

type fakeServer struct {
	name     string
	startErr error
	log      *[]string
	mu       *sync.Mutex
}

func (f *fakeServer) Name() string { return f.name }

func (f *fakeServer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.record("start " + f.name)
	return nil
}

func (f *fakeServer) Stop(context.Context) error {
	f.record("stop " + f.name)
	return nil
}

func (f *fakeServer) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.log = append(*f.log, s)
}

func TestManagerStartStopOrder(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	m := NewManager(
		WithServer(&fakeServer{name: "a", log: &log, mu: &mu}),
		WithServer(&fakeServer{name: "b", log: &log, mu: &mu}),
	)

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestManagerStartFailureStopsStarted(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	m := NewManager(
		WithServer(&fakeServer{name: "a", log: &log, mu: &mu}),
		WithServer(&fakeServer{name: "b", log: &log, mu: &mu, startErr: errors.New("bind failed")}),
	)

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"start a", "stop a"}, log)
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	m := NewManager(WithServer(&fakeServer{name: "a", log: &log, mu: &mu}), WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"start a", "stop a"}, log)
}

func TestHTTPServerServesAndStops(t *testing.T) {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	srv := NewHTTPServer(opts, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	require.NoError(t, srv.Start(context.Background()))
	resp, err := http.Get("http://" + srv.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, srv.Stop(context.Background()))
}

func TestHTTPServerBindError(t *testing.T) {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	first := NewHTTPServer(opts, http.NotFoundHandler())
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	busy := httpopts.NewOptions()
	busy.Addr = first.Addr().String()
	assert.Error(t, NewHTTPServer(busy, http.NotFoundHandler()).Start(context.Background()))
}
