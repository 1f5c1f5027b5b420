// ABOUTME: Package documentation for the tools package
// ABOUTME: Describes the tool registry and the flashcard tool set

// Package tools defines the MCP tool surface of the study server.
//
// A Registry holds named tools in registration order; each Tool pairs a
// JSON Schema description with a Handler that receives the raw call
// arguments and the request context. Handlers resolve the calling user
// from the auth context, perform a single deck store operation, and
// return a Result carrying both human-readable text and structured
// content for widget rendering.
//
// Domain failures (a missing deck, a store error) are reported inside
// the Result with IsError set so the model can react to them; only
// malformed input or a missing auth context surfaces as a Go error to
// the dispatcher.
package tools
