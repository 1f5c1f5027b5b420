// ABOUTME: SQLite implementation of the DeckStore interface using modernc.org/sqlite
// ABOUTME: Provides per-user deck persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the DeckStore interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// Cards are stored as a JSON column; the ownership and filter columns
// carry indexes because every query is scoped by user_id.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS decks (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			language   TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT 'other',
			cards      TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,

			CHECK (language IN ('spanish', 'french', 'german', 'italian', 'portuguese')),
			CHECK (difficulty IN ('beginner', 'intermediate', 'advanced'))
		);

		CREATE INDEX IF NOT EXISTS idx_decks_user_id
			ON decks(user_id);

		CREATE INDEX IF NOT EXISTS idx_decks_user_created
			ON decks(user_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// GetDecksForUser returns all decks owned by the user, newest first.
func (s *SQLiteStore) GetDecksForUser(ctx context.Context, userID string) ([]*Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, language, difficulty, category, cards, created_at, updated_at
		FROM decks
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying decks: %w", err)
	}
	defer rows.Close()

	return scanDecks(rows)
}

// GetDeckByID returns a single deck scoped to the user.
func (s *SQLiteStore) GetDeckByID(ctx context.Context, deckID, userID string) (*Deck, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, language, difficulty, category, cards, created_at, updated_at
		FROM decks
		WHERE id = ? AND user_id = ?`,
		deckID, userID)

	deck, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying deck: %w", err)
	}
	return deck, nil
}

// CreateDeck persists a new deck, assigning its ID and timestamps.
func (s *SQLiteStore) CreateDeck(ctx context.Context, deck *Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	deck.CreatedAt = now
	deck.UpdatedAt = now

	cards, err := json.Marshal(deck.Cards)
	if err != nil {
		return fmt.Errorf("encoding cards: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decks (id, user_id, name, language, difficulty, category, cards, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deck.ID, deck.UserID, deck.Name, deck.Language, deck.Difficulty, deck.Category,
		string(cards), deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting deck: %w", err)
	}

	s.logger.Debug("deck created", "deck_id", deck.ID, "user_id", deck.UserID)
	return nil
}

// SearchDecks returns the user's decks matching the filters, newest first.
func (s *SQLiteStore) SearchDecks(ctx context.Context, userID string, filters SearchFilters) ([]*Deck, error) {
	query := `
		SELECT id, user_id, name, language, difficulty, category, cards, created_at, updated_at
		FROM decks
		WHERE user_id = ?`
	args := []any{userID}

	if filters.Language != "" {
		query += " AND language = ?"
		args = append(args, filters.Language)
	}
	if filters.Difficulty != "" {
		query += " AND difficulty = ?"
		args = append(args, filters.Difficulty)
	}
	if filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching decks: %w", err)
	}
	defer rows.Close()

	return scanDecks(rows)
}

// DeleteDeck removes a deck owned by the user.
func (s *SQLiteStore) DeleteDeck(ctx context.Context, deckID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM decks WHERE id = ? AND user_id = ?`,
		deckID, userID)
	if err != nil {
		return fmt.Errorf("deleting deck: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for deck scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*Deck, error) {
	var deck Deck
	var cards string
	err := row.Scan(&deck.ID, &deck.UserID, &deck.Name, &deck.Language,
		&deck.Difficulty, &deck.Category, &cards, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cards), &deck.Cards); err != nil {
		return nil, fmt.Errorf("decoding cards: %w", err)
	}
	return &deck, nil
}

func scanDecks(rows *sql.Rows) ([]*Deck, error) {
	decks := []*Deck{}
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning deck: %w", err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decks: %w", err)
	}
	return decks, nil
}
