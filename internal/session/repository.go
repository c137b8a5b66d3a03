package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"quiz-client/internal/logger"
)

// Backend is a string key/value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Repository persists one Record per quiz. None of its operations fail
// toward the caller: storage problems are logged and the attempt carries on
// with its in-memory state.
type Repository struct {
	backend  Backend
	log      *logger.Logger
	degraded atomic.Bool
}

func NewRepository(backend Backend, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{
		backend: backend,
		log:     log.With("component", "session.Repository"),
	}
}

// Load returns the stored record for quizID. A corrupted entry is removed
// and reported as absent.
func (r *Repository) Load(ctx context.Context, quizID int64) (Record, bool) {
	key := Key(quizID)
	raw, ok, err := r.backend.Get(ctx, key)
	if err != nil {
		r.log.Warn("session load failed", "key", key, "error", err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}

	record, err := Decode(raw)
	if err != nil {
		r.log.Warn("discarding corrupted session record", "key", key, "error", err)
		if delErr := r.backend.Delete(ctx, key); delErr != nil {
			r.log.Warn("session delete failed", "key", key, "error", delErr)
		}
		return Record{}, false
	}
	return record, true
}

func (r *Repository) Save(ctx context.Context, quizID int64, record Record) {
	key := Key(quizID)
	raw, err := Encode(record)
	if err != nil {
		r.markDegraded("session encode failed", key, err)
		return
	}
	if err := r.backend.Set(ctx, key, raw); err != nil {
		r.markDegraded("session save failed", key, err)
	}
}

func (r *Repository) Delete(ctx context.Context, quizID int64) {
	key := Key(quizID)
	if err := r.backend.Delete(ctx, key); err != nil {
		r.log.Warn("session delete failed", "key", key, "error", err)
	}
}

// DeleteAllSessions removes every key under KeyPrefix, including records
// written by older schema versions.
func (r *Repository) DeleteAllSessions(ctx context.Context) {
	keys, err := r.backend.Keys(ctx, KeyPrefix)
	if err != nil {
		r.log.Warn("session sweep failed", "error", err)
		return
	}
	for _, key := range keys {
		if err := r.backend.Delete(ctx, key); err != nil {
			r.log.Warn("session delete failed", "key", key, "error", err)
		}
	}
	r.log.Debug("session sweep complete", "removed", len(keys))
}

// Degraded reports whether a save has failed since the repository was
// created; from then on the attempt is effectively in-memory only.
func (r *Repository) Degraded() bool {
	return r.degraded.Load()
}

func (r *Repository) markDegraded(msg, key string, err error) {
	if !r.degraded.Swap(true) {
		r.log.Warn(msg+"; continuing without persistence", "key", key, "error", err)
		return
	}
	r.log.Debug(msg, "key", key, "error", err)
}

// MemoryBackend keeps everything in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
