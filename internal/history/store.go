package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/storage/models"
	"github.com/fraud-sms/detector/pkg/logger"
	"github.com/fraud-sms/detector/pkg/retry"
)

const (
	MaxEntries = 25
	DefaultKey = "fraud_history"
)

var ErrNotFound = errors.New("record not found")

// DurableStore persists opaque records by key. Load returns ErrNotFound for a key that
// was never saved.
type DurableStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Store is the bounded, newest-first check history. The in-memory log is authoritative;
// every mutation rewrites the whole durable record.
type Store struct {
	durable  DurableStore
	key      string
	retryCfg retry.Config

	mu      sync.Mutex
	entries []models.HistoryEntry
}

func NewStore(durable DurableStore, key string) *Store {
	if key == "" {
		key = DefaultKey
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Name = "history.save"
	retryCfg.Logger = logger.GetLogger()

	return &Store{
		durable:  durable,
		key:      key,
		retryCfg: retryCfg,
		entries:  []models.HistoryEntry{},
	}
}

// Load replaces the in-memory log with the durable record. Missing or unreadable data
// yields an empty log; Load never fails.
func (s *Store) Load(ctx context.Context) []models.HistoryEntry {
	entries := s.read(ctx)

	s.mu.Lock()
	s.entries = entries
	out := cloneEntries(s.entries)
	s.mu.Unlock()

	metrics.HistoryEntries.Set(float64(len(out)))
	logger.Info("History loaded", zap.String("key", s.key), zap.Int("entries", len(out)))

	return out
}

func (s *Store) read(ctx context.Context) []models.HistoryEntry {
	data, err := s.durable.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to read history, starting empty", zap.String("key", s.key), zap.Error(err))
		}
		return []models.HistoryEntry{}
	}

	entries, err := Decode(data)
	if err != nil {
		logger.Warn("Discarding unreadable history", zap.String("key", s.key), zap.Error(err))
		return []models.HistoryEntry{}
	}

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries
}

// Append prepends entry, evicts everything past MaxEntries and persists the result.
func (s *Store) Append(ctx context.Context, entry models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.HistoryEntry, 0, MaxEntries)
	next = append(next, entry)
	next = append(next, s.entries...)
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	s.entries = next

	s.persistLocked(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []models.HistoryEntry{}
	s.persistLocked(ctx)
}

// Entries returns a copy of the log, newest first.
func (s *Store) Entries() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneEntries(s.entries)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// persistLocked writes while holding mu so saves land in mutation order. A failed save
// is logged and counted; the in-memory log stays as is.
func (s *Store) persistLocked(ctx context.Context) {
	metrics.HistoryEntries.Set(float64(len(s.entries)))

	data, err := Encode(s.entries)
	if err != nil {
		metrics.StoreSaveFailures.Inc()
		logger.Error("Failed to encode history", zap.Error(err))
		return
	}

	err = retry.Do(ctx, s.retryCfg, func() error {
		return s.durable.Save(ctx, s.key, data)
	})
	if err != nil {
		metrics.StoreSaveFailures.Inc()
		logger.Error("Failed to persist history",
			zap.String("key", s.key),
			zap.Int("entries", len(s.entries)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("History persisted", zap.String("key", s.key), zap.Int("entries", len(s.entries)))
}

// Encode serializes entries as the durable JSON array.
func Encode(entries []models.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return data, nil
}

func Decode(data []byte) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	for i := range entries {
		if entries[i].RiskyWords == nil {
			entries[i].RiskyWords = []string{}
		}
	}
	return entries, nil
}

func cloneEntries(in []models.HistoryEntry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(in))
	for i, e := range in {
		out[i] = e
		out[i].RiskyWords = append([]string(nil), e.RiskyWords...)
		if out[i].RiskyWords == nil {
			out[i].RiskyWords = []string{}
		}
	}
	return out
}
