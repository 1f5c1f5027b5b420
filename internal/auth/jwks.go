// ABOUTME: Remote JWKS fetching and caching for token signature verification
// ABOUTME: Keys are cached by kid with a TTL and refreshed on unknown key IDs

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// defaultJWKSTTL bounds how long a fetched key set is reused before the next
// unforced refresh. Unknown kids force a refresh regardless, so rotation is
// picked up as soon as a token signed with a new key arrives.
const defaultJWKSTTL = 5 * time.Minute

// jwk is a single JSON Web Key as published by the authorization server.
// Only the members needed for RSA and EC public keys are decoded.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Crv string `json:"crv"`
	N   string `json:"n"`
	E   string `json:"e"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// jwksDocument is the JWKS endpoint response shape.
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// jwksCache fetches and caches the issuer's published key set.
type jwksCache struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.Mutex
	keys      map[string]crypto.PublicKey // kid -> public key
	fetchedAt time.Time
}

func newJWKSCache(url string) *jwksCache {
	return &jwksCache{
		url:    url,
		ttl:    defaultJWKSTTL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Key returns the public key for the given kid, refreshing the cached key
// set when the kid is unknown or the cache has expired. A transient fetch
// error surfaces to the caller; there is no retry.
func (c *jwksCache) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	c.mu.Lock()
	fresh := time.Since(c.fetchedAt) < c.ttl && c.keys != nil
	key, ok := c.keys[kid]
	c.mu.Unlock()

	if ok && fresh {
		return key, nil
	}

	if err := c.refresh(ctx); err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}

	c.mu.Lock()
	key, ok = c.keys[kid]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no key with kid %q in JWKS", kid)
	}
	return key, nil
}

// Kids returns the key IDs currently cached, for diagnostics only.
func (c *jwksCache) Kids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	kids := make([]string, 0, len(c.keys))
	for kid := range c.keys {
		kids = append(kids, kid)
	}
	return kids
}

// refresh fetches the key set and replaces the cache contents.
func (c *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding JWKS: %w", err)
	}

	keys := make(map[string]crypto.PublicKey)
	for _, k := range doc.Keys {
		pub, err := k.publicKey()
		if err != nil {
			// Skip keys we can't represent; the rest of the set is still usable
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// publicKey converts a JWK into a crypto.PublicKey.
// Supports RSA and P-256/P-384/P-521 EC keys.
func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("decoding modulus: %w", err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("decoding exponent: %w", err)
		}
		exp := 0
		for _, b := range e {
			exp = exp<<8 | int(b)
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil

	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported curve %q", k.Crv)
		}
		x, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("decoding x coordinate: %w", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(k.Y)
		if err != nil {
			return nil, fmt.Errorf("decoding y coordinate: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}
