// ABOUTME: Access token validation against the authorization server's JWKS
// ABOUTME: Verifies signature, issuer, audience and expiry, then extracts identity

package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMissingSubject = errors.New("token missing 'sub' claim")
)

// expectedAudience is the audience claim Supabase stamps on user access
// tokens. Tokens minted for anything else are rejected.
const expectedAudience = "authenticated"

// validAlgorithms are the signing algorithms accepted for access tokens.
// Supabase OAuth 2.1 projects sign with asymmetric keys (ES256 by default,
// RS256 for migrated projects); symmetric HS256 tokens are always rejected.
var validAlgorithms = []string{"ES256", "RS256", "RS384", "RS512"}

// TokenValidator defines the interface for bearer token validation.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*AuthContext, error)
}

// Validator validates access tokens against a remote JWKS endpoint.
type Validator struct {
	issuer string
	jwks   *jwksCache
	logger *slog.Logger
}

// NewValidator creates a validator for tokens issued by the given Supabase
// project. The issuer is <supabaseURL>/auth/v1 and the key set is published
// at <issuer>/.well-known/jwks.json.
func NewValidator(supabaseURL string) *Validator {
	issuer := strings.TrimRight(supabaseURL, "/") + "/auth/v1"
	return &Validator{
		issuer: issuer,
		jwks:   newJWKSCache(issuer + "/.well-known/jwks.json"),
		logger: slog.Default().With("component", "auth"),
	}
}

// tokenClaims is the claim set carried by Supabase access tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// Validate verifies the token's signature against the issuer's published
// keys and checks issuer, audience and expiry. On success it returns the
// AuthContext for the request; the raw token is retained so downstream
// store calls can present it for row-level security.
//
// There is no retry: a transient JWKS fetch failure surfaces as a
// validation failure and the client is expected to try again.
func (v *Validator) Validate(ctx context.Context, tokenString string) (*AuthContext, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.jwks.Key(ctx, kid)
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, keyfunc,
		jwt.WithValidMethods(validAlgorithms),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(expectedAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logFailure(tokenString, err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		v.logFailure(tokenString, ErrMissingSubject)
		return nil, ErrMissingSubject
	}

	return &AuthContext{
		UserID:      claims.Subject,
		ClientID:    claims.ClientID,
		Email:       claims.Email,
		AccessToken: tokenString,
	}, nil
}

// logFailure emits a diagnostic for a rejected token. The token header is
// decoded without verification so an operator can compare the token's alg
// and kid against the published key set; nothing decoded here ever feeds
// back into an authorization decision.
func (v *Validator) logFailure(tokenString string, cause error) {
	attrs := []any{
		"error", cause,
		"issuer", v.issuer,
		"jwks_url", v.jwks.url,
	}

	if header, err := decodeTokenHeader(tokenString); err == nil {
		attrs = append(attrs, "token_alg", header.Alg, "token_kid", header.Kid)
		if header.Alg == "HS256" {
			v.logger.Warn("token uses symmetric HS256 signing; the project must migrate to asymmetric keys")
		} else if kids := v.jwks.Kids(); len(kids) > 0 {
			attrs = append(attrs, "jwks_kids", kids)
		}
	}

	v.logger.Error("token validation failed", attrs...)
}

// tokenHeader is the unverified JOSE header of a JWT.
type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// decodeTokenHeader decodes the header segment of a JWT without verifying
// anything. Diagnostic use only.
func decodeTokenHeader(tokenString string) (*tokenHeader, error) {
	seg, _, ok := strings.Cut(tokenString, ".")
	if !ok {
		return nil, fmt.Errorf("not a JWT")
	}
	data, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}
	var header tokenHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	return &header, nil
}
