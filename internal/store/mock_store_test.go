// ABOUTME: Tests for the in-memory mock DeckStore
// ABOUTME: Verifies behavior parity with the SQLite store

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockStore_CreateAndGet(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	deck := testDeck("user-1", "Mock Deck")
	if err := m.CreateDeck(ctx, deck); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if deck.ID == "" {
		t.Error("CreateDeck should assign an ID")
	}
	if deck.CreatedAt.IsZero() {
		t.Error("CreateDeck should set CreatedAt")
	}

	got, err := m.GetDeckByID(ctx, deck.ID, "user-1")
	if err != nil {
		t.Fatalf("GetDeckByID failed: %v", err)
	}
	if got.Name != "Mock Deck" {
		t.Errorf("Name = %q, want %q", got.Name, "Mock Deck")
	}
	if len(got.Cards) != 2 {
		t.Errorf("len(Cards) = %d, want 2", len(got.Cards))
	}
}

func TestMockStore_NotFound(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if _, err := m.GetDeckByID(ctx, "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDeckByID error = %v, want ErrNotFound", err)
	}
	if err := m.DeleteDeck(ctx, "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDeck error = %v, want ErrNotFound", err)
	}
}

func TestMockStore_ScopedToOwner(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	deck := testDeck("user-1", "Private")
	if err := m.CreateDeck(ctx, deck); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	if _, err := m.GetDeckByID(ctx, deck.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user GetDeckByID error = %v, want ErrNotFound", err)
	}
	if err := m.DeleteDeck(ctx, deck.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user DeleteDeck error = %v, want ErrNotFound", err)
	}

	decks, err := m.GetDecksForUser(ctx, "user-2")
	if err != nil {
		t.Fatalf("GetDecksForUser failed: %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("user-2 sees %d decks, want 0", len(decks))
	}
}

func TestMockStore_SearchFilters(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	french := testDeck("user-1", "French Travel")
	french.Language = LanguageFrench
	french.Category = "travel"
	if err := m.CreateDeck(ctx, french); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if err := m.CreateDeck(ctx, testDeck("user-1", "Spanish Basics")); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	decks, err := m.SearchDecks(ctx, "user-1", SearchFilters{Language: LanguageFrench})
	if err != nil {
		t.Fatalf("SearchDecks failed: %v", err)
	}
	if len(decks) != 1 || decks[0].Name != "French Travel" {
		t.Errorf("SearchDecks returned %d decks, want 1 named %q", len(decks), "French Travel")
	}

	decks, err = m.SearchDecks(ctx, "user-1", SearchFilters{})
	if err != nil {
		t.Fatalf("SearchDecks failed: %v", err)
	}
	if len(decks) != 2 {
		t.Errorf("unfiltered SearchDecks returned %d decks, want 2", len(decks))
	}
}

func TestMockStore_NewestFirst(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	older := testDeck("user-1", "Older")
	if err := m.CreateDeck(ctx, older); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	// CreateDeck copied the deck in; adjust the stored copy directly.
	m.decks[older.ID].CreatedAt = time.Now().UTC().Add(-time.Hour)

	newer := testDeck("user-1", "Newer")
	if err := m.CreateDeck(ctx, newer); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	decks, err := m.GetDecksForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetDecksForUser failed: %v", err)
	}
	if len(decks) != 2 || decks[0].Name != "Newer" {
		t.Errorf("got order %v, want Newer first", deckNames(decks))
	}
}

func TestMockStore_ForcedError(t *testing.T) {
	m := NewMockStore()
	forced := errors.New("store offline")
	m.Err = forced
	ctx := context.Background()

	if _, err := m.GetDecksForUser(ctx, "user-1"); !errors.Is(err, forced) {
		t.Errorf("GetDecksForUser error = %v, want forced error", err)
	}
	if err := m.CreateDeck(ctx, testDeck("user-1", "X")); !errors.Is(err, forced) {
		t.Errorf("CreateDeck error = %v, want forced error", err)
	}
	if _, err := m.SearchDecks(ctx, "user-1", SearchFilters{}); !errors.Is(err, forced) {
		t.Errorf("SearchDecks error = %v, want forced error", err)
	}
}

func TestMockStore_ReturnsCopies(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	deck := testDeck("user-1", "Original")
	if err := m.CreateDeck(ctx, deck); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	got, err := m.GetDeckByID(ctx, deck.ID, "user-1")
	if err != nil {
		t.Fatalf("GetDeckByID failed: %v", err)
	}
	got.Name = "Mutated"

	again, err := m.GetDeckByID(ctx, deck.ID, "user-1")
	if err != nil {
		t.Fatalf("GetDeckByID failed: %v", err)
	}
	if again.Name != "Original" {
		t.Errorf("stored deck mutated through returned copy: Name = %q", again.Name)
	}
}

func deckNames(decks []*Deck) []string {
	names := make([]string, len(decks))
	for i, d := range decks {
		names[i] = d.Name
	}
	return names
}
