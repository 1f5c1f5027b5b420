// ABOUTME: Package documentation for the mcp package
// ABOUTME: Describes the stateless JSON-RPC server

// Package mcp implements the Model Context Protocol endpoint of the study
// server: a stateless JSON-RPC 2.0 dispatcher over HTTP POST supporting
// initialize, tools/list, and tools/call. Notifications are acknowledged
// with HTTP 202 and dropped.
//
// The server holds no sessions. Authentication and HTTP method filtering
// are handled upstream by the auth middleware, which binds the caller's
// identity into the request context before dispatch.
package mcp
