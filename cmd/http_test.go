package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/gist/mock"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunStore_InitFailure(t *testing.T) {
	s := mock.NewServer(t)
	l := zaptest.NewLogger(t)
	st, err := store.New(l, "bad-token", store.WithClientOptions(gist.WithBaseURL(s.URL)))
	require.NoError(t, err)

	err = runStore(context.Background(), l, st, true, time.Millisecond)
	require.ErrorIs(t, err, gist.ErrInvalidToken)
	assert.Equal(t, store.StateFailed, st.State())
}

func TestRunStore_Poll(t *testing.T) {
	s := mock.NewServer(t)
	l := zaptest.NewLogger(t)
	id := s.Seed(mock.Token, map[string]string{"data": `{"a":"1"}`})
	st, err := store.New(l, mock.Token,
		store.WithGistID(id),
		store.WithFilename("data"),
		store.WithClientOptions(gist.WithBaseURL(s.URL)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runStore(ctx, l, st, true, 10*time.Millisecond)
	}()

	// another writer changes the file
	c := gist.NewClient(l, mock.Token, gist.WithBaseURL(s.URL))
	_, err = c.Update(context.Background(), id, map[string]string{"data": `{"a":"2"}`})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, _, err := st.Get(context.Background(), "a")
		return err == nil && v == "2"
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("store routine did not stop")
	}
	assert.Positive(t, s.Requests("get"))
}

func TestRunStore_WithoutPoll(t *testing.T) {
	s := mock.NewServer(t)
	l := zaptest.NewLogger(t)
	st, err := store.New(l, mock.Token, store.WithClientOptions(gist.WithBaseURL(s.URL)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runStore(ctx, l, st, false, time.Millisecond)
	}()

	assert.Eventually(t, func() bool {
		return st.State() == store.StateReady
	}, time.Second, 5*time.Millisecond)
	gets := s.Requests("get")

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, gets, s.Requests("get"))
	assert.Equal(t, 1, s.Gists())
}
