// ABOUTME: Deck and study session tool handlers backed by the deck store
// ABOUTME: Each handler reads its input, performs one store call, and shapes a Result

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/study-buddy/internal/auth"
	"github.com/2389/study-buddy/internal/store"
)

// Defaults for the open-ended deck configuration tool.
const (
	defaultStudyLanguage = store.LanguageSpanish
	defaultDifficulty    = store.DifficultyBeginner
	defaultDeckLength    = 10
)

// deckHandlers implements the flashcard tool set.
type deckHandlers struct {
	store store.DeckStore
}

// RegisterDeckTools registers the flashcard tools on the registry.
func RegisterDeckTools(reg *Registry, s store.DeckStore) error {
	h := &deckHandlers{store: s}

	toolSet := []*Tool{
		{
			Name: "listDecks",
			Description: "List all of the user's saved flashcard decks. " +
				"Call this first when the user wants to study from an existing deck.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{}}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"userId":{"type":"string"},"decks":{"type":"array"}}}`),
			Handler:      h.ListDecks,
		},
		{
			Name: "searchDecks",
			Description: "Search the user's saved decks by language, difficulty, and/or category. " +
				"Prefer this over listDecks when the user names what they want to study.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{"language":{"type":"string","enum":["spanish","french","german","italian","portuguese"]},"difficulty":{"type":"string","enum":["beginner","intermediate","advanced"]},"category":{"type":"string","enum":["greetings","food","travel","numbers","family","verbs","phrases","other"]}}}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"decks":{"type":"array"},"language":{"type":"string"},"difficulty":{"type":"string"},"category":{"type":"string"}}}`),
			Handler:      h.SearchDecks,
		},
		{
			Name: "saveDeck",
			Description: "Save a generated flashcard deck so the user can study it again later. " +
				"Provide a name, language, difficulty, optional category, and the cards.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"language":{"type":"string","enum":["spanish","french","german","italian","portuguese"]},"difficulty":{"type":"string","enum":["beginner","intermediate","advanced"]},"category":{"type":"string","enum":["greetings","food","travel","numbers","family","verbs","phrases","other"]},"cards":{"type":"array","items":{"type":"object","properties":{"word":{"type":"string"},"translation":{"type":"string"}},"required":["word","translation"]}}},"required":["name","language","difficulty","cards"]}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"deck":{"type":"object"}}}`),
			Handler:      h.SaveDeck,
		},
		{
			Name: "startStudySessionFromDeck",
			Description: "Start a study session from a previously saved deck. " +
				"Use the deck ID returned by listDecks, searchDecks, or saveDeck.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{"deckId":{"type":"string"}},"required":["deckId"]}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"studyLanguage":{"type":"string"},"difficulty":{"type":"string"},"deck":{"type":"array"}}}`),
			Handler:      h.StartStudySessionFromDeck,
		},
		{
			Name: "startStudySessionFromScratch",
			Description: "Start a study session with freshly generated flashcards. " +
				"Generate a deck matching the theme, language, length, and difficulty the user asked for, " +
				"where each flashcard has a word in the target language and its English translation.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{"studyLanguage":{"type":"string","enum":["spanish","french","german","italian","portuguese"]},"difficulty":{"type":"string","enum":["beginner","intermediate","advanced"]},"deck":{"type":"array","items":{"type":"object","properties":{"word":{"type":"string"},"translation":{"type":"string"}},"required":["word","translation"]}}},"required":["studyLanguage","difficulty","deck"]}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"studyLanguage":{"type":"string"},"difficulty":{"type":"string"},"deck":{"type":"array"}}}`),
			Handler:      h.StartStudySessionFromScratch,
		},
		{
			Name: "createFlashcardDeck",
			Description: "Help the user configure a new flashcard deck. " +
				"The user can pick the study language, the difficulty level, and how many cards they want.",
			InputSchema:  json.RawMessage(`{"type":"object","properties":{"studyLanguage":{"type":"string","enum":["spanish","french","german","italian","portuguese"]},"deckLength":{"type":"integer","minimum":1,"maximum":200},"difficulty":{"type":"string","enum":["beginner","intermediate","advanced"]}}}`),
			OutputSchema: json.RawMessage(`{"type":"object","properties":{"studyLanguage":{"type":"string"},"deckLength":{"type":"integer"},"difficulty":{"type":"string"}}}`),
			Handler:      h.CreateFlashcardDeck,
		},
	}

	for _, tool := range toolSet {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// ListDecks returns every deck owned by the authenticated user.
func (h *deckHandlers) ListDecks(ctx context.Context, _ json.RawMessage) (*Result, error) {
	authCtx, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	decks, err := h.store.GetDecksForUser(ctx, authCtx.UserID)
	if err != nil {
		return errorResult("Error fetching decks: %v", err), nil
	}

	structured := map[string]any{
		"userId": authCtx.UserID,
		"decks":  decks,
	}
	if len(decks) == 0 {
		return textResult(structured,
			"No decks found. The widget is displayed with an option to create a new deck."), nil
	}
	return textResult(structured,
		"Found %d deck(s) for the user. The widget is displayed with options to select an existing deck or create a new one.",
		len(decks)), nil
}

type searchDecksInput struct {
	Language   string `json:"language"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
}

// SearchDecks filters the user's decks by language, difficulty, and category.
// Zero matches is a success: the LLM is told to create a new deck instead.
func (h *deckHandlers) SearchDecks(ctx context.Context, input json.RawMessage) (*Result, error) {
	authCtx, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	var in searchDecksInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	if in.Language != "" && !store.ValidLanguage(in.Language) {
		return nil, fmt.Errorf("%w: unknown language %q", ErrInvalidInput, in.Language)
	}
	if in.Difficulty != "" && !store.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, in.Difficulty)
	}
	if in.Category != "" && !store.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}

	decks, err := h.store.SearchDecks(ctx, authCtx.UserID, store.SearchFilters{
		Language:   in.Language,
		Difficulty: in.Difficulty,
		Category:   in.Category,
	})
	if err != nil {
		return errorResult("Error searching decks: %v", err), nil
	}

	structured := map[string]any{"decks": decks}
	if in.Language != "" {
		structured["language"] = in.Language
	}
	if in.Difficulty != "" {
		structured["difficulty"] = in.Difficulty
	}
	if in.Category != "" {
		structured["category"] = in.Category
	}

	criteria := fmt.Sprintf("language: %s, difficulty: %s, category: %s",
		orAny(in.Language), orAny(in.Difficulty), orAny(in.Category))

	if len(decks) == 0 {
		return textResult(structured,
			"No decks found matching the criteria (%s). Create a new deck using saveDeck with the desired language, difficulty, category, and generated flashcards.",
			criteria), nil
	}
	return textResult(structured,
		"Found %d deck(s) matching the criteria (%s). Choose the most appropriate deck based on the user's request, or create a new one if none are suitable.",
		len(decks), criteria), nil
}

type saveDeckInput struct {
	Name       string            `json:"name"`
	Language   string            `json:"language"`
	Difficulty string            `json:"difficulty"`
	Category   string            `json:"category"`
	Cards      []store.Flashcard `json:"cards"`
}

// SaveDeck persists a generated deck for the authenticated user.
// A missing category defaults to "other".
func (h *deckHandlers) SaveDeck(ctx context.Context, input json.RawMessage) (*Result, error) {
	authCtx, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	var in saveDeckInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !store.ValidLanguage(in.Language) {
		return nil, fmt.Errorf("%w: unknown language %q", ErrInvalidInput, in.Language)
	}
	if !store.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, in.Difficulty)
	}
	if in.Category == "" {
		in.Category = store.CategoryOther
	} else if !store.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if len(in.Cards) == 0 {
		return nil, fmt.Errorf("%w: cards are required", ErrInvalidInput)
	}

	deck := &store.Deck{
		UserID:     authCtx.UserID,
		Name:       in.Name,
		Language:   in.Language,
		Difficulty: in.Difficulty,
		Category:   in.Category,
		Cards:      in.Cards,
	}
	if err := h.store.CreateDeck(ctx, deck); err != nil {
		return errorResult("Error saving deck: %v", err), nil
	}

	return textResult(map[string]any{"deck": deck},
		"Deck %q saved successfully with %d cards. Deck ID: %s. Now call startStudySession with this deck ID to begin studying.",
		in.Name, len(in.Cards), deck.ID), nil
}

type startFromDeckInput struct {
	DeckID string `json:"deckId"`
}

// StartStudySessionFromDeck begins a session from a saved deck.
// A missing deck is a handler-level error, not a protocol failure.
func (h *deckHandlers) StartStudySessionFromDeck(ctx context.Context, input json.RawMessage) (*Result, error) {
	authCtx, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	var in startFromDeckInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	if in.DeckID == "" {
		return nil, fmt.Errorf("%w: deckId is required", ErrInvalidInput)
	}

	deck, err := h.store.GetDeckByID(ctx, in.DeckID, authCtx.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return errorResult("Deck not found: %s", in.DeckID), nil
	}
	if err != nil {
		return errorResult("Error: %v", err), nil
	}

	return sessionResult(deck.Language, deck.Difficulty, deck.Cards), nil
}

type startFromScratchInput struct {
	StudyLanguage string            `json:"studyLanguage"`
	Difficulty    string            `json:"difficulty"`
	Deck          []store.Flashcard `json:"deck"`
}

// StartStudySessionFromScratch begins a session with inline generated cards.
func (h *deckHandlers) StartStudySessionFromScratch(ctx context.Context, input json.RawMessage) (*Result, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}

	var in startFromScratchInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	if !store.ValidLanguage(in.StudyLanguage) {
		return nil, fmt.Errorf("%w: unknown language %q", ErrInvalidInput, in.StudyLanguage)
	}
	if !store.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, in.Difficulty)
	}
	if len(in.Deck) == 0 {
		return nil, fmt.Errorf("%w: deck is required", ErrInvalidInput)
	}

	return sessionResult(in.StudyLanguage, in.Difficulty, in.Deck), nil
}

type createDeckInput struct {
	StudyLanguage string `json:"studyLanguage"`
	DeckLength    int    `json:"deckLength"`
	Difficulty    string `json:"difficulty"`
}

// CreateFlashcardDeck shows the deck configuration widget with defaults
// filled in for anything the user hasn't chosen yet.
func (h *deckHandlers) CreateFlashcardDeck(ctx context.Context, input json.RawMessage) (*Result, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}

	var in createDeckInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	if in.StudyLanguage == "" {
		in.StudyLanguage = defaultStudyLanguage
	} else if !store.ValidLanguage(in.StudyLanguage) {
		return nil, fmt.Errorf("%w: unknown language %q", ErrInvalidInput, in.StudyLanguage)
	}
	if in.Difficulty == "" {
		in.Difficulty = defaultDifficulty
	} else if !store.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, in.Difficulty)
	}
	if in.DeckLength == 0 {
		in.DeckLength = defaultDeckLength
	} else if in.DeckLength < 1 || in.DeckLength > 200 {
		return nil, fmt.Errorf("%w: deckLength must be between 1 and 200", ErrInvalidInput)
	}

	return textResult(map[string]any{
		"studyLanguage": in.StudyLanguage,
		"deckLength":    in.DeckLength,
		"difficulty":    in.Difficulty,
	}, "Widget shown to configure flashcard deck settings. User can select language, difficulty level, and number of cards."), nil
}

// sessionResult shapes the shared study session payload and summary text.
func sessionResult(language, difficulty string, cards []store.Flashcard) *Result {
	return textResult(map[string]any{
		"studyLanguage": language,
		"difficulty":    difficulty,
		"deck":          cards,
	}, "Study session started with %d %s flashcards at %s level. Widget shown with interactive flashcards for studying.",
		len(cards), language, difficulty)
}

// unmarshalInput decodes tool arguments, mapping decode failures to
// ErrInvalidInput so the dispatcher reports them as invalid params.
func unmarshalInput(input json.RawMessage, out any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// orAny substitutes "any" for an absent filter in summary text.
func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}
