package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	purges atomic.Int32
	err    error
}

func (s *countingStore) Create(context.Context, entity.ChallengeType, []byte, time.Duration, *uuid.UUID) (string, error) {
	return "", nil
}

func (s *countingStore) Consume(context.Context, string) (*entity.Challenge, error) {
	return nil, nil
}

func (s *countingStore) PurgeExpired(context.Context) (int64, error) {
	s.purges.Add(1)

	return 1, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_PurgesUntilStopped(t *testing.T) {
	store := &countingStore{}
	s := newSweeper(store, 5*time.Millisecond, discardLogger())

	served := make(chan error, 1)
	go func() { served <- s.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return store.purges.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.shutdown(context.Background()))
	require.NoError(t, <-served)
}

func TestSweeper_KeepsGoingAfterErrors(t *testing.T) {
	store := &countingStore{err: errors.New("database is down")}
	s := newSweeper(store, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	require.Eventually(t, func() bool { return store.purges.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-served)
}

func TestSweeper_Disabled(t *testing.T) {
	store := &countingStore{}
	s := newSweeper(store, 0, discardLogger())

	require.NoError(t, s.Serve(context.Background()))
	require.NoError(t, s.shutdown(context.Background()))
	assert.Zero(t, store.purges.Load())
}
