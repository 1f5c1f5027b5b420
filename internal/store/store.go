// ABOUTME: Store interface and data types for study-buddy persistence
// ABOUTME: Defines Deck, Flashcard structs and the DeckStore interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested deck does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// Supported language values for decks.
const (
	LanguageSpanish    = "spanish"
	LanguageFrench     = "french"
	LanguageGerman     = "german"
	LanguageItalian    = "italian"
	LanguagePortuguese = "portuguese"
)

// Supported difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// CategoryOther is the default category for decks saved without one.
const CategoryOther = "other"

// Languages lists every supported language.
var Languages = []string{
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageItalian,
	LanguagePortuguese,
}

// Difficulties lists every supported difficulty level.
var Difficulties = []string{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

// Categories lists every supported deck category.
var Categories = []string{
	"greetings", "food", "travel", "numbers", "family", "verbs", "phrases", CategoryOther,
}

// Flashcard is a single word/translation pair within a deck.
type Flashcard struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

// Deck is a named collection of flashcards owned by a single user.
// JSON field names are the wire contract consumed by the widget layer.
type Deck struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Language   string      `json:"language"`
	Difficulty string      `json:"difficulty"`
	Category   string      `json:"category"`
	Cards      []Flashcard `json:"cards"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// SearchFilters narrows a deck search. Empty fields match everything.
type SearchFilters struct {
	Language   string
	Difficulty string
	Category   string
}

// DeckStore defines the interface for deck persistence. All reads and writes
// are scoped to a user ID so one user can never observe another's decks.
type DeckStore interface {
	// GetDecksForUser returns all decks owned by the user, newest first.
	GetDecksForUser(ctx context.Context, userID string) ([]*Deck, error)

	// GetDeckByID returns a single deck. Returns ErrNotFound when the deck
	// does not exist or belongs to a different user.
	GetDeckByID(ctx context.Context, deckID, userID string) (*Deck, error)

	// CreateDeck persists a new deck. The store assigns ID, CreatedAt and
	// UpdatedAt; the given deck is updated in place.
	CreateDeck(ctx context.Context, deck *Deck) error

	// SearchDecks returns the user's decks matching the filters, newest first.
	SearchDecks(ctx context.Context, userID string, filters SearchFilters) ([]*Deck, error)

	// DeleteDeck removes a deck owned by the user. Returns ErrNotFound when
	// no matching deck exists.
	DeleteDeck(ctx context.Context, deckID, userID string) error

	// Close releases store resources.
	Close() error
}

// ValidLanguage reports whether s is a supported language.
func ValidLanguage(s string) bool {
	for _, l := range Languages {
		if s == l {
			return true
		}
	}
	return false
}

// ValidDifficulty reports whether s is a supported difficulty.
func ValidDifficulty(s string) bool {
	for _, d := range Difficulties {
		if s == d {
			return true
		}
	}
	return false
}

// ValidCategory reports whether s is a supported category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}
