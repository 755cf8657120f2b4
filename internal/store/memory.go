package store

import (
	"context"
	"slices"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu        sync.RWMutex
	urls      map[shortener.Code]shortener.URLRecord
	analytics map[shortener.Code]*shortener.Analytics
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls:      make(map[shortener.Code]shortener.URLRecord),
		analytics: make(map[shortener.Code]*shortener.Analytics),
	}
}

func (m *MemoryStore) Exists(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.urls[code]

	return ok, nil
}

func (m *MemoryStore) Get(_ context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &record, nil
}

func (m *MemoryStore) Put(_ context.Context, record *shortener.URLRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls[record.Code] = *record

	return nil
}

func (m *MemoryStore) Analytics(_ context.Context, code shortener.Code) (*shortener.Analytics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.analytics[code]
	if !ok {
		return shortener.EmptyAnalytics(), nil
	}

	return &shortener.Analytics{
		TotalClicks: entry.TotalClicks,
		Clicks:      slices.Clone(entry.Clicks),
	}, nil
}

func (m *MemoryStore) AppendClick(_ context.Context, code shortener.Code, click shortener.ClickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.analytics[code]
	if !ok {
		entry = shortener.EmptyAnalytics()
		m.analytics[code] = entry
	}

	entry.TotalClicks++
	entry.Clicks = append(entry.Clicks, click)

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
