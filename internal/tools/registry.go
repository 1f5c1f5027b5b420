// ABOUTME: Tool registry mapping tool names to schemas and handler functions
// ABOUTME: Built once at startup, immutable afterwards, safe for concurrent reads

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidInput indicates a tool call's arguments failed to decode or
// validate against the tool's input contract.
var ErrInvalidInput = errors.New("invalid input")

// ErrToolNotFound indicates no tool with the requested name is registered.
var ErrToolNotFound = errors.New("tool not found")

// Content is a single human-readable entry in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of one tool invocation. StructuredContent is the
// machine-readable payload the widget layer deserializes; Content carries
// the natural-language summary the LLM reads, including the suggested next
// tool call. Results with IsError false always have non-empty Content.
type Result struct {
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	Content           []Content      `json:"content"`
	IsError           bool           `json:"isError"`
}

// textResult builds a success result with a formatted summary line.
func textResult(structured map[string]any, format string, args ...any) *Result {
	return &Result{
		StructuredContent: structured,
		Content:           []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
	}
}

// errorResult builds a failed result with a single text entry. Handler
// failures are reported this way rather than as transport errors so callers
// branch on isError, never on HTTP status.
func errorResult(format string, args ...any) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// Handler executes one tool call. The context carries the authenticated
// identity bound by the auth middleware.
type Handler func(ctx context.Context, input json.RawMessage) (*Result, error)

// Tool describes a single registered tool.
type Tool struct {
	Name         string
	Description  string
	InputSchema  json.RawMessage
	OutputSchema json.RawMessage
	Handler      Handler
}

// Registry holds the process-wide tool set. All registration happens during
// startup; afterwards the registry is read-only and needs no locking.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool. Registering a duplicate name is a startup error.
func (r *Registry) Register(tool *Tool) error {
	if tool.Name == "" {
		return errors.New("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %q has no handler", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}

	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	r.logger.Debug("tool registered", "tool_name", tool.Name)
	return nil
}

// Get returns the tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (*Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	list := make([]*Tool, len(r.order))
	for i, name := range r.order {
		list[i] = r.tools[name]
	}
	return list
}
