package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flowdecoder/internal/session"
)

var _ session.Backend = (*Store)(nil)

// connectForTest returns a store on the server named by FLOWDECODER_TEST_REDIS_URL,
// skipping the test when it is unset.
func connectForTest(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("FLOWDECODER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FLOWDECODER_TEST_REDIS_URL not set")
	}
	store, err := Connect(context.Background(), url, "test-"+t.Name(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Clear(context.Background())
		_ = store.Close()
	})
	return store
}

func TestNew_EmptyNamespace(t *testing.T) {
	_, err := New(nil, " ", time.Minute)
	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url", "ns", time.Minute)
	require.ErrorIs(t, err, ErrFailedToParseURL)
}

func TestStore_RoundTrip(t *testing.T) {
	store := connectForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, map[string]any{
		session.KeyOriginalInput: "%7B%7D",
		session.KeyHasResult:     true,
	}))
	got, err := store.Get(ctx, session.Keys())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		session.KeyOriginalInput: "%7B%7D",
		session.KeyHasResult:     true,
	}, got)

	ttl, err := store.db.TTL(ctx, store.Key()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Clear(ctx))
	got, err = store.Get(ctx, session.Keys())
	require.NoError(t, err)
	assert.Empty(t, got)
}
