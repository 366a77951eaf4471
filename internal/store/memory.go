package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/short-links/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
// Every code keeps its full history so that reads after a soft delete still see the last row.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[shortener.Code][]*shortener.Link // oldest first; at most the last entry is active
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[shortener.Code][]*shortener.Link),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeLocked(link.Code) != nil {
		return shortener.ErrCodeConflict
	}

	stored := *link
	m.history[link.Code] = append(m.history[link.Code], &stored)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.history[code]
	if len(rows) == 0 {
		return nil, shortener.ErrNotFound
	}

	latest := *rows[len(rows)-1]

	return &latest, nil
}

func (m *MemoryStore) FindByURLHash(_ context.Context, hash shortener.URLHash) ([]*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []*shortener.Link

	for code := range m.history {
		if link := m.activeLocked(code); link != nil && link.URLHash == hash {
			found := *link
			links = append(links, &found)
		}
	}

	return links, nil
}

func (m *MemoryStore) Update(_ context.Context, code shortener.Code, update shortener.LinkUpdate) (*shortener.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link := m.activeLocked(code)
	if link == nil {
		return nil, shortener.ErrNotFound
	}

	if update.OriginalURL != nil {
		link.OriginalURL = *update.OriginalURL
		link.URLHash = update.URLHash
	}

	if update.ExpiresAt != nil {
		at := *update.ExpiresAt
		link.ExpiresAt = &at
	}

	updated := *link

	return &updated, nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link := m.activeLocked(code)
	if link == nil {
		return false, nil
	}

	link.Active = false

	return true, nil
}

func (m *MemoryStore) IncrementClicks(_ context.Context, code shortener.Code, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link := m.activeLocked(code)
	if link == nil {
		return shortener.ErrNotFound
	}

	link.Clicks++
	link.LastUsedAt = &at

	return nil
}

func (m *MemoryStore) ListCodes(_ context.Context) ([]shortener.Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]shortener.Code, 0, len(m.history))

	for code := range m.history {
		if m.activeLocked(code) != nil {
			codes = append(codes, code)
		}
	}

	return codes, nil
}

func (m *MemoryStore) DeactivateExpired(_ context.Context, now time.Time) ([]shortener.Code, error) {
	return m.deactivateWhere(func(l *shortener.Link) bool {
		return l.Expired(now)
	}), nil
}

func (m *MemoryStore) DeactivateUnused(_ context.Context, cutoff time.Time) ([]shortener.Code, error) {
	return m.deactivateWhere(func(l *shortener.Link) bool {
		lastSeen := l.CreatedAt
		if l.LastUsedAt != nil {
			lastSeen = *l.LastUsedAt
		}

		return lastSeen.Before(cutoff)
	}), nil
}

func (m *MemoryStore) deactivateWhere(match func(*shortener.Link) bool) []shortener.Code {
	m.mu.Lock()
	defer m.mu.Unlock()

	var codes []shortener.Code

	for code := range m.history {
		if link := m.activeLocked(code); link != nil && match(link) {
			link.Active = false
			codes = append(codes, code)
		}
	}

	return codes
}

func (m *MemoryStore) activeLocked(code shortener.Code) *shortener.Link {
	rows := m.history[code]
	if len(rows) == 0 || !rows[len(rows)-1].Active {
		return nil
	}

	return rows[len(rows)-1]
}

var _ shortener.Repository = (*MemoryStore)(nil)
