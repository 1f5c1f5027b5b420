// Package store provides persistent storage for flashcard decks.
//
// # Architecture
//
// The package is interface-driven: DeckStore defines the CRUD surface the
// tool handlers depend on, with three implementations:
//
//   - SQLiteStore: local SQLite database (modernc.org/sqlite), used for
//     development and tests. Every query carries a user_id predicate so the
//     ownership scoping matches what RLS enforces in production.
//   - PostgrestStore: hosted Supabase project over the PostgREST API. The
//     caller's access token is forwarded on every request so row-level
//     security is enforced by the database itself.
//   - MockStore: in-memory double for unit tests.
//
// # Data Model
//
//   - Deck: a named, categorized collection of flashcards owned by one user
//   - Flashcard: a word in the study language plus its English translation
//
// Deck JSON field names (id, user_id, cards, created_at, ...) are the wire
// contract shared with the widget layer and must not change.
//
// # SQLite Configuration
//
// The SQLite store uses WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically on startup. Cards are stored as a JSON
// column; decks are small (at most 200 cards) so no normalization is needed.
//
// # Error Handling
//
// ErrNotFound is returned when a deck does not exist or belongs to another
// user; the two cases are deliberately indistinguishable to callers.
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(":memory:") for
// integration tests with real SQLite.
package store
