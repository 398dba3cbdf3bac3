package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/sujalbistaa/pinboard/internal/board"
)

// Manager serialises updates to each visitor's state. Locks are held only
// while state is loaded, changed and saved, never across backend calls.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*visitorLock
}

type visitorLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wraps store.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger, locks: make(map[string]*visitorLock)}
}

// NewID returns a fresh visitor id.
func NewID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generate visitor id: %w", err)
	}
	return id.String(), nil
}

// Update loads the state of id (a new board when none is stored), applies fn
// and saves the result. State is not saved when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(b *board.Board) error) error {
	unlock := m.lock(id)
	defer unlock()

	b, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		b = board.New()
	} else if err != nil {
		return err
	}

	if err := fn(b); err != nil {
		return err
	}
	return m.store.Save(ctx, id, b)
}

// Forget drops the state of id.
func (m *Manager) Forget(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// Run sweeps expired state every interval until ctx is done. It returns at
// once when the store expires entries by itself.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	sw, ok := m.store.(Sweeper)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.Sweep(ctx)
			if err != nil {
				m.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				m.logger.Debug("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &visitorLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
