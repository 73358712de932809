package history

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-sms/detector/internal/storage/models"
)

func entry(i int) models.HistoryEntry {
	return models.HistoryEntry{
		Timestamp:         fmt.Sprintf("10/17/2026, 9:%02d:00 AM", i%60),
		Message:           fmt.Sprintf("message %d", i),
		Label:             "SAFE SMS",
		ConfidencePercent: 90 + float64(i%10)/10,
		RiskyWords:        []string{},
	}
}

type flakyStore struct {
	*MemoryStore
	failures atomic.Int32
	saves    atomic.Int32
}

func (f *flakyStore) Save(ctx context.Context, key string, data []byte) error {
	f.saves.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return errors.New("database is locked")
	}
	return f.MemoryStore.Save(ctx, key, data)
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Save(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func TestLoadMissingRecordIsEmpty(t *testing.T) {
	s := NewStore(NewMemoryStore(), "")
	got := s.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadUnparsableRecordIsEmpty(t *testing.T) {
	durable := NewMemoryStore()
	require.NoError(t, durable.Save(context.Background(), DefaultKey, []byte("{not json")))

	s := NewStore(durable, DefaultKey)
	assert.Empty(t, s.Load(context.Background()))
}

func TestLoadStoreErrorIsEmpty(t *testing.T) {
	s := NewStore(brokenStore{}, DefaultKey)
	assert.Empty(t, s.Load(context.Background()))
}

func TestAppendIsNewestFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	s := NewStore(durable, DefaultKey)
	s.Load(ctx)

	const n = 40
	for i := 0; i < n; i++ {
		s.Append(ctx, entry(i))
	}

	got := s.Entries()
	require.Len(t, got, MaxEntries)
	for i, e := range got {
		assert.Equal(t, entry(n-1-i), e)
	}

	persisted, err := durable.Load(ctx, DefaultKey)
	require.NoError(t, err)
	decoded, err := Decode(persisted)
	require.NoError(t, err)
	assert.Equal(t, got, decoded)

	for _, e := range got {
		assert.NotEqual(t, "message 14", e.Message)
	}
}

func TestClearThenLoadIsEmpty(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	s := NewStore(durable, DefaultKey)
	s.Append(ctx, entry(1))
	s.Append(ctx, entry(2))

	s.Clear(ctx)

	reloaded := NewStore(durable, DefaultKey)
	assert.Empty(t, reloaded.Load(ctx))
	assert.Zero(t, s.Len())
}

func TestAppendRoundTripsThroughDurableBytes(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	s := NewStore(durable, DefaultKey)

	e := models.HistoryEntry{
		Timestamp:         "10/17/2026, 3:04:05 PM",
		Message:           "Congratulations! You won a prize, claim now at http://x.y",
		Label:             "FRAUD SMS",
		ConfidencePercent: 99.73,
		RiskyWords:        []string{"won", "prize", "claim", "http"},
	}
	s.Append(ctx, e)

	reloaded := NewStore(durable, DefaultKey).Load(ctx)
	require.Len(t, reloaded, 1)
	assert.Equal(t, e, reloaded[0])
}

func TestDurableFieldNames(t *testing.T) {
	data, err := Encode([]models.HistoryEntry{{
		Timestamp:         "t",
		Message:           "m",
		Label:             "SAFE SMS",
		ConfidencePercent: 12.5,
		RiskyWords:        []string{"otp"},
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"time":"t","message":"m","prediction":"SAFE SMS","confidence":12.5,"risky_words":["otp"]}]`, string(data))

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestLoadTruncatesOversizedRecord(t *testing.T) {
	ctx := context.Background()
	entries := make([]models.HistoryEntry, 30)
	for i := range entries {
		entries[i] = entry(i)
	}
	data, err := Encode(entries)
	require.NoError(t, err)

	durable := NewMemoryStore()
	require.NoError(t, durable.Save(ctx, DefaultKey, data))

	got := NewStore(durable, DefaultKey).Load(ctx)
	require.Len(t, got, MaxEntries)
	assert.Equal(t, entries[0], got[0])
}

func TestSaveRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	durable := &flakyStore{MemoryStore: NewMemoryStore()}
	durable.failures.Store(2)

	s := NewStore(durable, DefaultKey)
	s.retryCfg.InitialDelay = 1
	s.Append(ctx, entry(1))

	assert.Equal(t, int32(3), durable.saves.Load())
	reloaded := NewStore(durable.MemoryStore, DefaultKey).Load(ctx)
	assert.Len(t, reloaded, 1)
}

func TestSaveFailureKeepsInMemoryLog(t *testing.T) {
	ctx := context.Background()
	s := NewStore(brokenStore{}, DefaultKey)
	s.retryCfg.InitialDelay = 1

	assert.NotPanics(t, func() {
		s.Append(ctx, entry(1))
		s.Append(ctx, entry(2))
	})
	got := s.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, "message 2", got[0].Message)
}

func TestEntriesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore(), DefaultKey)
	s.Append(ctx, models.HistoryEntry{Message: "a", RiskyWords: []string{"otp"}})

	got := s.Entries()
	got[0].Message = "changed"
	got[0].RiskyWords[0] = "changed"

	again := s.Entries()
	assert.Equal(t, "a", again[0].Message)
	assert.Equal(t, []string{"otp"}, again[0].RiskyWords)
}
