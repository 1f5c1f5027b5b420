// ABOUTME: Tests for the flashcard tool handlers.
// ABOUTME: Uses the in-memory mock store and a real auth context.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/2389/study-buddy/internal/auth"
	"github.com/2389/study-buddy/internal/store"
)

const testUserID = "user-123"

func authedContext(userID string) context.Context {
	return auth.WithAuth(context.Background(), &auth.AuthContext{UserID: userID})
}

func newDeckRegistry(t *testing.T, s store.DeckStore) *Registry {
	t.Helper()
	reg := NewRegistry(slog.Default())
	if err := RegisterDeckTools(reg, s); err != nil {
		t.Fatalf("register deck tools: %v", err)
	}
	return reg
}

func callTool(t *testing.T, reg *Registry, ctx context.Context, name, input string) *Result {
	t.Helper()
	tool, err := reg.Get(name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	result, err := tool.Handler(ctx, json.RawMessage(input))
	if err != nil {
		t.Fatalf("%s handler: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *Result) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	return result.Content[0].Text
}

func seedDeck(t *testing.T, s store.DeckStore, userID string) *store.Deck {
	t.Helper()
	deck := &store.Deck{
		UserID:     userID,
		Name:       "French Basics",
		Language:   store.LanguageFrench,
		Difficulty: store.DifficultyBeginner,
		Category:   "greetings",
		Cards: []store.Flashcard{
			{Word: "bonjour", Translation: "hello"},
			{Word: "merci", Translation: "thank you"},
		},
	}
	if err := s.CreateDeck(context.Background(), deck); err != nil {
		t.Fatalf("seed deck: %v", err)
	}
	return deck
}

func TestListDecksEmpty(t *testing.T) {
	s := store.NewMockStore()
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "listDecks", `{}`)

	if result.IsError {
		t.Error("expected success result")
	}
	want := "No decks found. The widget is displayed with an option to create a new deck."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	if result.StructuredContent["userId"] != testUserID {
		t.Errorf("unexpected userId: %v", result.StructuredContent["userId"])
	}
}

func TestListDecksReturnsOwnDecks(t *testing.T) {
	s := store.NewMockStore()
	seedDeck(t, s, testUserID)
	seedDeck(t, s, "someone-else")
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "listDecks", `{}`)

	want := "Found 1 deck(s) for the user. The widget is displayed with options to select an existing deck or create a new one."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	decks, ok := result.StructuredContent["decks"].([]*store.Deck)
	if !ok {
		t.Fatalf("unexpected decks type: %T", result.StructuredContent["decks"])
	}
	if len(decks) != 1 || decks[0].UserID != testUserID {
		t.Errorf("expected only the caller's deck, got %+v", decks)
	}
}

func TestListDecksIdempotent(t *testing.T) {
	s := store.NewMockStore()
	seedDeck(t, s, testUserID)
	reg := newDeckRegistry(t, s)
	ctx := authedContext(testUserID)

	first := resultText(t, callTool(t, reg, ctx, "listDecks", `{}`))
	second := resultText(t, callTool(t, reg, ctx, "listDecks", `{}`))
	if first != second {
		t.Errorf("repeated listDecks disagreed:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestListDecksStoreError(t *testing.T) {
	s := store.NewMockStore()
	s.Err = errors.New("connection refused")
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "listDecks", `{}`)

	if !result.IsError {
		t.Error("expected IsError result for store failure")
	}
	if got := resultText(t, result); !strings.HasPrefix(got, "Error fetching decks:") {
		t.Errorf("unexpected error text: %s", got)
	}
}

func TestListDecksRequiresAuthContext(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())
	tool, err := reg.Get("listDecks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	_, err = tool.Handler(context.Background(), json.RawMessage(`{}`))
	if !errors.Is(err, auth.ErrNoContext) {
		t.Errorf("expected ErrNoContext, got %v", err)
	}
}

func TestSearchDecksMatch(t *testing.T) {
	s := store.NewMockStore()
	seedDeck(t, s, testUserID)
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "searchDecks",
		`{"language":"french","category":"greetings"}`)

	want := "Found 1 deck(s) matching the criteria (language: french, difficulty: any, category: greetings). Choose the most appropriate deck based on the user's request, or create a new one if none are suitable."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	if result.StructuredContent["language"] != "french" {
		t.Errorf("unexpected language: %v", result.StructuredContent["language"])
	}
	if _, present := result.StructuredContent["difficulty"]; present {
		t.Error("absent filter should not appear in structured content")
	}
}

func TestSearchDecksNoMatch(t *testing.T) {
	s := store.NewMockStore()
	seedDeck(t, s, testUserID)
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "searchDecks",
		`{"language":"german"}`)

	if result.IsError {
		t.Error("zero matches should be a success result")
	}
	want := "No decks found matching the criteria (language: german, difficulty: any, category: any). Create a new deck using saveDeck with the desired language, difficulty, category, and generated flashcards."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
}

func TestSearchDecksInvalidFilter(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())
	tool, _ := reg.Get("searchDecks")

	_, err := tool.Handler(authedContext(testUserID), json.RawMessage(`{"language":"klingon"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveDeck(t *testing.T) {
	s := store.NewMockStore()
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "saveDeck",
		`{"name":"Travel Words","language":"spanish","difficulty":"intermediate","category":"travel","cards":[{"word":"hola","translation":"hello"},{"word":"adios","translation":"goodbye"}]}`)

	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	deck, ok := result.StructuredContent["deck"].(*store.Deck)
	if !ok {
		t.Fatalf("unexpected deck type: %T", result.StructuredContent["deck"])
	}
	if deck.ID == "" {
		t.Error("saved deck should have an ID")
	}
	if deck.UserID != testUserID {
		t.Errorf("deck owner should be the caller, got %s", deck.UserID)
	}

	want := `Deck "Travel Words" saved successfully with 2 cards. Deck ID: ` + deck.ID +
		". Now call startStudySession with this deck ID to begin studying."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
}

func TestSaveDeckDefaultsCategory(t *testing.T) {
	s := store.NewMockStore()
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "saveDeck",
		`{"name":"Misc","language":"italian","difficulty":"beginner","cards":[{"word":"ciao","translation":"hello"}]}`)

	deck := result.StructuredContent["deck"].(*store.Deck)
	if deck.Category != store.CategoryOther {
		t.Errorf("expected category %q, got %q", store.CategoryOther, deck.Category)
	}
}

func TestSaveDeckMissingFields(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())
	tool, _ := reg.Get("saveDeck")

	cases := []struct {
		name  string
		input string
	}{
		{"no name", `{"language":"spanish","difficulty":"beginner","cards":[{"word":"a","translation":"b"}]}`},
		{"no cards", `{"name":"x","language":"spanish","difficulty":"beginner","cards":[]}`},
		{"bad language", `{"name":"x","language":"latin","difficulty":"beginner","cards":[{"word":"a","translation":"b"}]}`},
		{"bad difficulty", `{"name":"x","language":"spanish","difficulty":"expert","cards":[{"word":"a","translation":"b"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tool.Handler(authedContext(testUserID), json.RawMessage(tc.input))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSaveDeckStoreError(t *testing.T) {
	s := store.NewMockStore()
	s.Err = errors.New("disk full")
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "saveDeck",
		`{"name":"x","language":"spanish","difficulty":"beginner","cards":[{"word":"a","translation":"b"}]}`)

	if !result.IsError {
		t.Error("expected IsError result for store failure")
	}
	if got := resultText(t, result); !strings.HasPrefix(got, "Error saving deck:") {
		t.Errorf("unexpected error text: %s", got)
	}
}

func TestStartStudySessionFromDeck(t *testing.T) {
	s := store.NewMockStore()
	deck := seedDeck(t, s, testUserID)
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "startStudySessionFromDeck",
		`{"deckId":"`+deck.ID+`"}`)

	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	want := "Study session started with 2 french flashcards at beginner level. Widget shown with interactive flashcards for studying."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	if result.StructuredContent["studyLanguage"] != store.LanguageFrench {
		t.Errorf("unexpected studyLanguage: %v", result.StructuredContent["studyLanguage"])
	}
	cards, ok := result.StructuredContent["deck"].([]store.Flashcard)
	if !ok {
		t.Fatalf("unexpected deck type: %T", result.StructuredContent["deck"])
	}
	if len(cards) != 2 {
		t.Errorf("expected 2 cards, got %d", len(cards))
	}
}

func TestStartStudySessionFromDeckNotFound(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())

	result := callTool(t, reg, authedContext(testUserID), "startStudySessionFromDeck",
		`{"deckId":"missing"}`)

	if !result.IsError {
		t.Error("expected IsError result for unknown deck")
	}
	if got := resultText(t, result); got != "Deck not found: missing" {
		t.Errorf("unexpected text: %s", got)
	}
}

func TestStartStudySessionFromDeckWrongOwner(t *testing.T) {
	s := store.NewMockStore()
	deck := seedDeck(t, s, "someone-else")
	reg := newDeckRegistry(t, s)

	result := callTool(t, reg, authedContext(testUserID), "startStudySessionFromDeck",
		`{"deckId":"`+deck.ID+`"}`)

	if !result.IsError {
		t.Error("another user's deck should read as not found")
	}
	if got := resultText(t, result); got != "Deck not found: "+deck.ID {
		t.Errorf("unexpected text: %s", got)
	}
}

func TestSaveThenStartRoundTrip(t *testing.T) {
	s := store.NewMockStore()
	reg := newDeckRegistry(t, s)
	ctx := authedContext(testUserID)

	saved := callTool(t, reg, ctx, "saveDeck",
		`{"name":"Numbers","language":"german","difficulty":"advanced","category":"numbers","cards":[{"word":"eins","translation":"one"},{"word":"zwei","translation":"two"},{"word":"drei","translation":"three"}]}`)
	deck := saved.StructuredContent["deck"].(*store.Deck)

	result := callTool(t, reg, ctx, "startStudySessionFromDeck", `{"deckId":"`+deck.ID+`"}`)

	want := "Study session started with 3 german flashcards at advanced level. Widget shown with interactive flashcards for studying."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
}

func TestStartStudySessionFromScratch(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())

	result := callTool(t, reg, authedContext(testUserID), "startStudySessionFromScratch",
		`{"studyLanguage":"french","difficulty":"beginner","deck":[{"word":"chat","translation":"cat"},{"word":"chien","translation":"dog"}]}`)

	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	want := "Study session started with 2 french flashcards at beginner level. Widget shown with interactive flashcards for studying."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	if result.StructuredContent["difficulty"] != store.DifficultyBeginner {
		t.Errorf("unexpected difficulty: %v", result.StructuredContent["difficulty"])
	}
}

func TestStartStudySessionFromScratchRejectsEmptyDeck(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())
	tool, _ := reg.Get("startStudySessionFromScratch")

	_, err := tool.Handler(authedContext(testUserID),
		json.RawMessage(`{"studyLanguage":"french","difficulty":"beginner","deck":[]}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateFlashcardDeckDefaults(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())

	result := callTool(t, reg, authedContext(testUserID), "createFlashcardDeck", `{}`)

	want := "Widget shown to configure flashcard deck settings. User can select language, difficulty level, and number of cards."
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n got: %s\nwant: %s", got, want)
	}
	sc := result.StructuredContent
	if sc["studyLanguage"] != store.LanguageSpanish {
		t.Errorf("unexpected default language: %v", sc["studyLanguage"])
	}
	if sc["deckLength"] != 10 {
		t.Errorf("unexpected default length: %v", sc["deckLength"])
	}
	if sc["difficulty"] != store.DifficultyBeginner {
		t.Errorf("unexpected default difficulty: %v", sc["difficulty"])
	}
}

func TestCreateFlashcardDeckExplicitValues(t *testing.T) {
	reg := newDeckRegistry(t, store.NewMockStore())

	result := callTool(t, reg, authedContext(testUserID), "createFlashcardDeck",
		`{"studyLanguage":"portuguese","deckLength":25,"difficulty":"advanced"}`)

	sc := result.StructuredContent
	if sc["studyLanguage"] != store.LanguagePortuguese {
		t.Errorf("unexpected language: %v", sc["studyLanguage"])
	}
	if sc["deckLength"] != 25 {
		t.Errorf("unexpected length: %v", sc["deckLength"])
	}
}
