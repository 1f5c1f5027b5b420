// ABOUTME: Mock DeckStore implementation for testing
// ABOUTME: Allows tests to run without SQLite or a Supabase project

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory DeckStore implementation for testing.
// An optional Err field forces every call to fail, for exercising
// handler error paths.
type MockStore struct {
	mu    sync.RWMutex
	decks map[string]*Deck // keyed by deck ID

	// Err, when set, is returned by every method.
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		decks: make(map[string]*Deck),
	}
}

// GetDecksForUser returns the user's decks, newest first.
func (m *MockStore) GetDecksForUser(ctx context.Context, userID string) ([]*Deck, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	decks := []*Deck{}
	for _, d := range m.decks {
		if d.UserID == userID {
			copied := *d
			decks = append(decks, &copied)
		}
	}
	sortDecksNewestFirst(decks)
	return decks, nil
}

// GetDeckByID retrieves a deck scoped to the user.
func (m *MockStore) GetDeckByID(ctx context.Context, deckID, userID string) (*Deck, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decks[deckID]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

// CreateDeck stores a new deck, assigning ID and timestamps.
func (m *MockStore) CreateDeck(ctx context.Context, deck *Deck) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if deck.ID == "" {
		deck.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	deck.CreatedAt = now
	deck.UpdatedAt = now

	copied := *deck
	m.decks[copied.ID] = &copied
	return nil
}

// SearchDecks returns the user's decks matching the filters, newest first.
func (m *MockStore) SearchDecks(ctx context.Context, userID string, filters SearchFilters) ([]*Deck, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	decks := []*Deck{}
	for _, d := range m.decks {
		if d.UserID != userID {
			continue
		}
		if filters.Language != "" && d.Language != filters.Language {
			continue
		}
		if filters.Difficulty != "" && d.Difficulty != filters.Difficulty {
			continue
		}
		if filters.Category != "" && d.Category != filters.Category {
			continue
		}
		copied := *d
		decks = append(decks, &copied)
	}
	sortDecksNewestFirst(decks)
	return decks, nil
}

// DeleteDeck removes a deck owned by the user.
func (m *MockStore) DeleteDeck(ctx context.Context, deckID, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.decks[deckID]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	delete(m.decks, deckID)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// sortDecksNewestFirst orders decks by CreatedAt descending, falling back to
// ID for a stable order when timestamps collide (common in tests).
func sortDecksNewestFirst(decks []*Deck) {
	sort.SliceStable(decks, func(i, j int) bool {
		if decks[i].CreatedAt.Equal(decks[j].CreatedAt) {
			return decks[i].ID > decks[j].ID
		}
		return decks[i].CreatedAt.After(decks[j].CreatedAt)
	})
}
