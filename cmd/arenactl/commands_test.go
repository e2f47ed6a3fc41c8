package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"arena-matchmaking/models"
	"arena-matchmaking/storage"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVerifyCommandPostsRequest(t *testing.T) {
	var got models.VerifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/verify-match", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"verified":true}`))
	}))
	defer srv.Close()

	out, err := run(t, "verify", "m1", "x", "--host", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, models.VerifyRequest{MatchID: "m1", PlayerID: "x"}, got)
	assert.Contains(t, out, "Status Code: 200")
	assert.Contains(t, out, `{"verified":true}`)
}

func TestQueueStatusCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/queue/status", r.URL.Path)
		w.Write([]byte(`{"queue_size":3}`))
	}))
	defer srv.Close()

	out, err := run(t, "queue-status", "--host", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"queue_size":3`)
}

func TestPlayerAddAndShow(t *testing.T) {
	path := t.TempDir() + "/arena.db"

	out, err := run(t, "player", "add", "x", "Xavier", "#ABC", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved player x (Xavier)")

	out, err = run(t, "player", "show", "x", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rating:       1000")
	assert.Contains(t, out, "Tag:          #ABC")
	assert.Contains(t, out, "Settlements:  0")

	_, err = run(t, "player", "show", "ghost", "--db", path)
	assert.Error(t, err)
}

func TestWatchEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rs, err := storage.NewRedisStorage(mr.Addr(), "", 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchEvents(ctx, rs, &out) }()

	require.Eventually(t, func() bool {
		return bytes.Contains(out.Bytes(), []byte("Watching"))
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, rs.Publish(ctx, models.MatchEvent{Kind: models.MatchEventPaired, MatchID: "m1", PlayerA: "x", PlayerB: "y"}))

	require.Eventually(t, func() bool {
		return bytes.Contains(out.Bytes(), []byte(`"match_id":"m1"`))
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
