package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ms-reservations/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tallyState struct {
	Values []int `json:"values"`
	Sum    int   `json:"sum"`
	Count  int   `json:"count"`
	Empty  bool  `json:"empty"`
}

func deriveTally(s tallyState) tallyState {
	s.Sum = 0
	for _, v := range s.Values {
		s.Sum += v
	}
	s.Count = len(s.Values)
	s.Empty = s.Count == 0
	return s
}

func newTallyStore(snap store.Snapshotter, key string) *store.Store[tallyState] {
	return store.New(store.Config[tallyState]{
		Initial: tallyState{},
		Derive:  deriveTally,
		Key:     key,
		Snap:    snap,
		Restore: func(s tallyState, raw []byte) (tallyState, error) {
			err := json.Unmarshal(raw, &s)
			return s, err
		},
	})
}

func TestAggregatesComputedTogether(t *testing.T) {
	s := newTallyStore(nil, "")

	next := s.Apply(func(st tallyState) tallyState {
		st.Values = append(st.Values, 3, 4)
		return st
	})

	// the state returned by the mutation already carries the aggregates
	assert.Equal(t, 7, next.Sum)
	assert.Equal(t, 2, next.Count)
	assert.False(t, next.Empty)
}

func TestDeriveRunsOnConstruction(t *testing.T) {
	s := store.New(store.Config[tallyState]{
		Initial: tallyState{Values: []int{5}},
		Derive:  deriveTally,
	})
	assert.Equal(t, 5, s.State().Sum)
}

func TestAsyncSuccessMergesBackendResponse(t *testing.T) {
	s := newTallyStore(nil, "")

	err := s.Async(context.Background(), func(ctx context.Context) (func(tallyState) tallyState, error) {
		return func(st tallyState) tallyState {
			st.Values = []int{10}
			return st
		}, nil
	})

	require.NoError(t, err)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
	assert.Equal(t, 10, s.State().Sum)
}

func TestAsyncFailureLeavesStateUntouched(t *testing.T) {
	s := newTallyStore(nil, "")
	s.Apply(func(st tallyState) tallyState {
		st.Values = []int{1, 2}
		return st
	})
	before := s.State()

	err := s.Async(context.Background(), func(ctx context.Context) (func(tallyState) tallyState, error) {
		return nil, errors.New("backend unavailable")
	})

	require.Error(t, err)
	assert.False(t, s.Loading())
	assert.Equal(t, "backend unavailable", s.Err())
	assert.Equal(t, before, s.State())
}

func TestAsyncClearsPreviousError(t *testing.T) {
	s := newTallyStore(nil, "")

	_ = s.Async(context.Background(), func(ctx context.Context) (func(tallyState) tallyState, error) {
		return nil, errors.New("boom")
	})
	require.Equal(t, "boom", s.Err())

	loadingDuring := false
	_ = s.Async(context.Background(), func(ctx context.Context) (func(tallyState) tallyState, error) {
		loadingDuring = s.Loading()
		return nil, nil
	})

	assert.True(t, loadingDuring)
	assert.Empty(t, s.Err())
}

func TestSnapshotRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	snap := store.NewRedisSnapshots(client, time.Hour)

	s := newTallyStore(snap, "reservation:test:tally")
	s.Apply(func(st tallyState) tallyState {
		st.Values = []int{7, 8}
		return st
	})

	// a fresh store over the same key rehydrates the collection and
	// recomputes aggregates
	fresh := newTallyStore(snap, "reservation:test:tally")
	fresh.Hydrate(context.Background())
	assert.Equal(t, []int{7, 8}, fresh.State().Values)
	assert.Equal(t, 15, fresh.State().Sum)
}

func TestSnapshotWriteFailureIsNotFatal(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close() // every write now fails

	snap := store.NewRedisSnapshots(client, time.Hour)
	s := newTallyStore(snap, "reservation:test:tally")

	next := s.Apply(func(st tallyState) tallyState {
		st.Values = append(st.Values, 1)
		return st
	})

	// in-memory state stays authoritative
	assert.Equal(t, 1, next.Sum)
}

func TestHydrateWithNoSnapshotKeepsInitial(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newTallyStore(store.NewRedisSnapshots(client, time.Hour), "reservation:test:missing")
	s.Hydrate(context.Background())
	assert.True(t, s.State().Empty)
}
