// ABOUTME: Supabase PostgREST implementation of the DeckStore interface
// ABOUTME: Forwards the caller's access token so server-side RLS scopes every query

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/2389/study-buddy/internal/auth"
)

// PostgrestStore implements DeckStore against a hosted Supabase project's
// REST endpoint. Queries still carry explicit user_id filters, but the real
// isolation boundary is row-level security: every request is sent with the
// caller's access token so the database enforces ownership server-side.
type PostgrestStore struct {
	baseURL string // e.g. https://xyz.supabase.co
	anonKey string
	client  *http.Client
	logger  *slog.Logger
}

// NewPostgrestStore creates a Supabase-backed deck store. Returns an error
// when the project URL or anon key is absent rather than deferring the
// failure to the first query.
func NewPostgrestStore(baseURL, anonKey string) (*PostgrestStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if anonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}

	return &PostgrestStore{
		baseURL: baseURL,
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default().With("component", "store"),
	}, nil
}

// decksURL builds the PostgREST endpoint URL for the decks table.
func (s *PostgrestStore) decksURL(query url.Values) string {
	return s.baseURL + "/rest/v1/decks?" + query.Encode()
}

// do executes a PostgREST request with the anon key and, when the context
// carries an authenticated caller, that caller's access token. RLS policies
// key off the token's subject.
func (s *PostgrestStore) do(ctx context.Context, method, rawURL string, body io.Reader, extraHeaders map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("apikey", s.anonKey)
	token := s.anonKey
	if authCtx, err := auth.FromContext(ctx); err == nil {
		token = authCtx.AccessToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling supabase: %w", err)
	}
	return resp, nil
}

// readError drains the response body into a descriptive error.
func readError(resp *http.Response) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("supabase error: status %d: %s", resp.StatusCode, string(data))
}

// GetDecksForUser returns all decks owned by the user, newest first.
func (s *PostgrestStore) GetDecksForUser(ctx context.Context, userID string) ([]*Deck, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	resp, err := s.do(ctx, http.MethodGet, s.decksURL(q), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	defer resp.Body.Close()

	decks := []*Deck{}
	if err := json.NewDecoder(resp.Body).Decode(&decks); err != nil {
		return nil, fmt.Errorf("decoding decks: %w", err)
	}
	return decks, nil
}

// GetDeckByID returns a single deck scoped to the user.
func (s *PostgrestStore) GetDeckByID(ctx context.Context, deckID, userID string) (*Deck, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+deckID)
	q.Set("user_id", "eq."+userID)

	resp, err := s.do(ctx, http.MethodGet, s.decksURL(q), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	defer resp.Body.Close()

	var decks []*Deck
	if err := json.NewDecoder(resp.Body).Decode(&decks); err != nil {
		return nil, fmt.Errorf("decoding deck: %w", err)
	}
	if len(decks) == 0 {
		return nil, ErrNotFound
	}
	return decks[0], nil
}

// CreateDeck persists a new deck and reads back the stored row so the
// database-assigned fields are reflected on the given deck.
func (s *PostgrestStore) CreateDeck(ctx context.Context, deck *Deck) error {
	payload := map[string]any{
		"user_id":    deck.UserID,
		"name":       deck.Name,
		"language":   deck.Language,
		"difficulty": deck.Difficulty,
		"category":   deck.Category,
		"cards":      deck.Cards,
	}
	if deck.ID != "" {
		payload["id"] = deck.ID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding deck: %w", err)
	}

	q := url.Values{}
	q.Set("select", "*")
	headers := map[string]string{"Prefer": "return=representation"}

	resp, err := s.do(ctx, http.MethodPost, s.decksURL(q), bytes.NewReader(body), headers)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	defer resp.Body.Close()

	var created []*Deck
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("decoding created deck: %w", err)
	}
	if len(created) == 0 {
		return fmt.Errorf("supabase returned no created deck")
	}
	*deck = *created[0]

	s.logger.Debug("deck created", "deck_id", deck.ID, "user_id", deck.UserID)
	return nil
}

// SearchDecks returns the user's decks matching the filters, newest first.
func (s *PostgrestStore) SearchDecks(ctx context.Context, userID string, filters SearchFilters) ([]*Deck, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	if filters.Language != "" {
		q.Set("language", "eq."+filters.Language)
	}
	if filters.Difficulty != "" {
		q.Set("difficulty", "eq."+filters.Difficulty)
	}
	if filters.Category != "" {
		q.Set("category", "eq."+filters.Category)
	}
	q.Set("order", "created_at.desc")

	resp, err := s.do(ctx, http.MethodGet, s.decksURL(q), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	defer resp.Body.Close()

	decks := []*Deck{}
	if err := json.NewDecoder(resp.Body).Decode(&decks); err != nil {
		return nil, fmt.Errorf("decoding decks: %w", err)
	}
	return decks, nil
}

// DeleteDeck removes a deck owned by the user.
func (s *PostgrestStore) DeleteDeck(ctx context.Context, deckID, userID string) error {
	q := url.Values{}
	q.Set("id", "eq."+deckID)
	q.Set("user_id", "eq."+userID)
	headers := map[string]string{"Prefer": "return=representation"}

	resp, err := s.do(ctx, http.MethodDelete, s.decksURL(q), nil, headers)
	if err != nil {
		return err
	}
	// return=representation is requested, so a successful delete answers
	// 200 with the removed rows; an empty array means nothing matched.
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	defer resp.Body.Close()

	var deleted []*Deck
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		return fmt.Errorf("decoding delete result: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (s *PostgrestStore) Close() error {
	return nil
}
