// ABOUTME: Server orchestrator that assembles the HTTP stack
// ABOUTME: Manages deck store, auth middleware, MCP endpoint, and lifecycle

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/2389/study-buddy/internal/auth"
	"github.com/2389/study-buddy/internal/config"
	"github.com/2389/study-buddy/internal/mcp"
	"github.com/2389/study-buddy/internal/store"
	"github.com/2389/study-buddy/internal/tools"
)

// Server orchestrates the study-buddy HTTP components: the deck store, the
// token validator, and the MCP endpoint behind its auth middleware.
type Server struct {
	config     *config.Config
	store      store.DeckStore
	registry   *tools.Registry
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates a deck store based on config and environment.
func initStore(cfg *config.Config, logger *slog.Logger) (store.DeckStore, error) {
	switch cfg.Store.Driver {
	case config.DriverSupabase:
		return store.NewPostgrestStore(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	default:
		dbPath := cfg.Store.Path
		if envPath := os.Getenv("STUDY_BUDDY_DB_PATH"); envPath != "" {
			dbPath = envPath
		}
		s, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return s, nil
	}
}

// New creates a new Server instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := initStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(logger.With("component", "tools"))
	if err := tools.RegisterDeckTools(registry, s); err != nil {
		return nil, fmt.Errorf("registering deck tools: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry: registry,
		Logger:   logger.With("component", "mcp"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	srv := &Server{
		config:    cfg,
		store:     s,
		registry:  registry,
		mcpServer: mcpServer,
		logger:    logger.With("component", "server"),
	}

	validator := auth.NewValidator(cfg.Supabase.URL)
	resourceMetadataURL := strings.TrimRight(cfg.Server.PublicURL, "/") + "/.well-known/oauth-protected-resource"
	authMiddleware := auth.Middleware(validator, "/mcp", resourceMetadataURL)

	mux := http.NewServeMux()

	// Discovery endpoints - no auth required
	mux.HandleFunc("/.well-known/oauth-protected-resource", srv.handleProtectedResourceMetadata)
	mux.HandleFunc("/oauth/config.json", srv.handleOAuthConfig)
	mux.HandleFunc("/healthz", srv.handleHealth)

	// The MCP endpoint sits behind bearer token validation
	mux.Handle("/mcp", authMiddleware(mcpServer))

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setDiscoveryCORS opens the discovery endpoint to any origin; protected
// resource metadata is a public discovery mechanism.
func setDiscoveryCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleProtectedResourceMetadata serves OAuth 2.1 Protected Resource
// Metadata (RFC 9728), telling MCP clients where the authorization server
// lives.
func (s *Server) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	setDiscoveryCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	supabaseURL := strings.TrimRight(s.config.Supabase.URL, "/")
	metadata := map[string]any{
		"resource":              s.config.Server.PublicURL,
		"authorization_servers": []string{supabaseURL + "/auth/v1"},
		"scopes_supported":      []string{"email", "profile"},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		s.logger.Warn("failed to encode resource metadata", "error", err)
	}
}

// handleOAuthConfig returns the public Supabase settings the consent UI
// needs to start a login flow. The anon key is a publishable credential.
func (s *Server) handleOAuthConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := map[string]string{
		"supabaseUrl":     s.config.Supabase.URL,
		"supabaseAnonKey": s.config.Supabase.AnonKey,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		s.logger.Warn("failed to encode oauth config", "error", err)
	}
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
