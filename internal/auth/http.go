// ABOUTME: HTTP middleware guarding the MCP endpoint with bearer token auth
// ABOUTME: Validates tokens, binds the AuthContext, and shapes 401/405 responses

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// JSON-RPC error codes surfaced by the middleware. The protocol server owns
// the standard -32600..-32700 range; these cover the HTTP-level outcomes.
const (
	CodeAuthRequired     = -32001
	CodeMethodNotAllowed = -32000
	CodeInternalError    = -32603
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the empty string when the header is absent or not a Bearer scheme.
func extractBearerToken(authHeader string) string {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// Middleware returns HTTP middleware that protects the given protocol path
// (normally "/mcp"). POST requests must carry a valid bearer token; the
// verified identity is bound into the request context before the next
// handler runs. Any other verb on the protocol path is rejected with 405.
// Every other path passes through untouched so discovery and static
// endpoints stay reachable without authentication.
func Middleware(validator TokenValidator, protocolPath, resourceMetadataURL string) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != protocolPath {
				next.ServeHTTP(w, r)
				return
			}

			// Only POST carries protocol messages; every other verb is
			// rejected here so nothing reaches the dispatcher unvalidated.
			if r.Method != http.MethodPost {
				writeJSONRPCError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed.")
				return
			}

			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				w.Header().Set("WWW-Authenticate", challengeHeader(resourceMetadataURL, "", ""))
				writeJSONRPCError(w, http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
				return
			}

			authCtx, err := validator.Validate(r.Context(), token)
			if err != nil {
				description := "Invalid token"
				if errors.Is(err, ErrExpiredToken) {
					description = "Token expired"
				}
				w.Header().Set("WWW-Authenticate", challengeHeader(resourceMetadataURL, "invalid_token", description))
				writeJSONRPCError(w, http.StatusUnauthorized, CodeAuthRequired, description)
				return
			}

			// Track whether headers were written so a dispatcher panic after
			// the response is committed is swallowed rather than doubled.
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("MCP dispatcher panicked", "panic", rec, "user_id", authCtx.UserID)
					if !tw.wroteHeader {
						writeJSONRPCError(tw, http.StatusInternalServerError, CodeInternalError, "Internal server error")
					}
				}
			}()

			next.ServeHTTP(tw, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// challengeHeader builds a WWW-Authenticate value pointing clients at the
// protected-resource metadata document, optionally with RFC 6750 error
// parameters.
func challengeHeader(resourceMetadataURL, errCode, errDescription string) string {
	header := fmt.Sprintf("Bearer resource_metadata=%q", resourceMetadataURL)
	if errCode != "" {
		header += fmt.Sprintf(", error=%q", errCode)
		if errDescription != "" {
			header += fmt.Sprintf(", error_description=%q", errDescription)
		}
	}
	return header
}

// writeJSONRPCError writes a JSON-RPC shaped error body with a null id.
func writeJSONRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]any{
		"jsonrpc": "2.0",
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"id": nil,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("failed to encode error response", "error", err)
	}
}

// trackingWriter records whether response headers have been written.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(p)
}
