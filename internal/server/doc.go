// ABOUTME: Package documentation for the server package
// ABOUTME: Describes HTTP assembly and lifecycle management

// Package server assembles the study-buddy HTTP stack: it builds the deck
// store from configuration, registers the flashcard tools, and mounts the
// MCP endpoint behind bearer token validation alongside the public OAuth
// discovery endpoints and health check. Run blocks until the context is
// canceled, then shuts the HTTP server down gracefully.
package server
