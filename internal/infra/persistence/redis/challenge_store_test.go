package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*challengeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewChallengeStore(client).(*challengeStore), mr
}

func TestChallengeStore_CreateAndConsume(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := store.Create(ctx, entity.ChallengeTypeWebAuthnRegister, []byte(`{"challenge":"abc"}`), 5*time.Minute, &userID)
	require.NoError(t, err)
	assert.Len(t, id, 43)
	assert.True(t, mr.Exists(challengeKey(id)))
	assert.Equal(t, 5*time.Minute, mr.TTL(challengeKey(id)))

	challenge, err := store.Consume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, challenge.ID)
	assert.Equal(t, entity.ChallengeTypeWebAuthnRegister, challenge.Type)
	assert.JSONEq(t, `{"challenge":"abc"}`, string(challenge.Payload))
	require.NotNil(t, challenge.UserID)
	assert.Equal(t, userID, *challenge.UserID)
	assert.False(t, mr.Exists(challengeKey(id)))

	_, err = store.Consume(ctx, id)
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_ConsumeUnknown(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Consume(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_ExpiresWithTTL(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Consume(ctx, id)
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_ExpiredRecordIsNotFound(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)

	// The key can outlive its logical expiry when clocks drift.
	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = store.Consume(ctx, id)
	require.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestChallengeStore_ConcurrentConsume(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, entity.ChallengeTypeOAuthState, []byte(`{}`), time.Minute, nil)
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, id); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestChallengeStore_PurgeExpiredIsNoop(t *testing.T) {
	store, _ := setupStore(t)

	purged, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, purged)
}
