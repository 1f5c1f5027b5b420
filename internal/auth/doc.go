// Package auth provides OAuth bearer token authentication for the MCP endpoint.
//
// # Token Validation
//
// Access tokens are JWTs issued by the Supabase authorization server and
// signed with asymmetric keys. The Validator verifies each token against the
// issuer's published JWKS:
//
//   - signature: key selected by the token's kid header, fetched from
//     <issuer>/.well-known/jwks.json and cached with a short TTL
//   - issuer: must equal <supabase_url>/auth/v1
//   - audience: must equal "authenticated"
//   - expiry: enforced; expired tokens map to ErrExpiredToken
//   - subject: required; its value becomes the request's user ID
//
// Validation failures log the token's unverified alg and kid headers for
// operator debugging. Those decoded values are never used for authorization.
//
// # Request Context
//
// The middleware binds an AuthContext into the request's context.Context:
//
//	authCtx, err := auth.FromContext(ctx)
//
// The context carries the user ID, optional client ID and email, and the raw
// access token (forwarded to the store so row-level security applies).
// Identity is always passed explicitly through context.Context; there is no
// process-global current user.
//
// # HTTP Middleware
//
// Middleware(validator, "/mcp", metadataURL) guards the protocol endpoint:
//
//   - POST without a token: 401, WWW-Authenticate challenge pointing at the
//     protected-resource metadata document, JSON-RPC error -32001
//   - POST with a bad token: 401 with error="invalid_token" and a
//     description distinguishing expiry from other failures
//   - GET/DELETE: 405 with JSON-RPC error -32000
//   - other paths: passed through unauthenticated
package auth
