package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStore_ConsumeOnce(t *testing.T) {
	store := NewChallengeStore()
	ctx := context.Background()
	userID := uuid.New()

	id, err := store.Create(ctx, entity.ChallengeTypeWebAuthnRegister, []byte(`{"a":1}`), time.Minute, &userID)
	require.NoError(t, err)

	challenge, err := store.Consume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengeTypeWebAuthnRegister, challenge.Type)
	assert.Equal(t, []byte(`{"a":1}`), challenge.Payload)
	assert.Equal(t, userID, *challenge.UserID)

	_, err = store.Consume(ctx, id)
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_UniqueIDs(t *testing.T) {
	store := NewChallengeStore()
	seen := make(map[string]struct{})

	for range 100 {
		id, err := store.Create(context.Background(), entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestChallengeStore_Expiry(t *testing.T) {
	store := NewChallengeStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	id, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), 10*time.Minute, nil)
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)

	_, err = store.Consume(ctx, id)
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_PurgeExpired(t *testing.T) {
	store := NewChallengeStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)
	liveID, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Hour, nil)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	_, err = store.Consume(ctx, liveID)
	require.NoError(t, err)
}

func TestChallengeStore_ConcurrentConsume(t *testing.T) {
	store := NewChallengeStore()
	ctx := context.Background()

	id, err := store.Create(ctx, entity.ChallengeTypeWebAuthnAuthenticate, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, id); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}
