package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/qaforum/internal/apperror"
)

// Opener establishes a new Store. It is called lazily by Manager.
type Opener func(ctx context.Context) (Store, error)

// Manager owns the process-wide Store.
//
// LAZY, CACHED, SINGLE OWNER:
// Nothing is opened until the first Acquire. A successful Store is cached
// and handed to every later caller. A failed attempt caches nothing, so the
// next Acquire tries again; there is no retry loop or backoff within a call.
//
// The mutex is held while opening, which means concurrent first callers
// wait for one attempt instead of each dialling the database.
type Manager struct {
	open   Opener
	logger *slog.Logger

	mu    sync.Mutex
	store Store
}

// NewManager creates a Manager that uses open to establish the Store.
func NewManager(open Opener, logger *slog.Logger) *Manager {
	return &Manager{open: open, logger: logger}
}

// Acquire returns the cached Store, opening it first if needed.
// On failure it returns an apperror.ErrUnavailable error, never the raw
// driver error.
func (m *Manager) Acquire(ctx context.Context) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return m.store, nil
	}

	store, err := m.open(ctx)
	if err != nil {
		m.store = nil
		m.logger.Error("database connection failed", slog.String("error", err.Error()))
		return nil, apperror.Unavailable(err)
	}

	m.logger.Info("database connection established")
	m.store = store
	return store, nil
}

// Ping acquires the Store and checks that it still answers.
func (m *Manager) Ping(ctx context.Context) error {
	store, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := store.Ping(ctx); err != nil {
		return apperror.Unavailable(err)
	}
	return nil
}

// Close releases the cached Store, if any. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}
