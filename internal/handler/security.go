package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/storefront-api/internal/domain/auth"
)

// Security authenticates admin requests via HMAC-SHA256 hashed API keys.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security guard with the given API key repository
// and HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Middleware rejects requests that do not carry a valid API key in the
// X-API-Key header (or api_key query parameter for browser tooling).
func (s *Security) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key == "" || !s.verify(r, key) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// verify hashes the presented key under the pepper, looks it up, and
// performs a constant-time comparison to prevent timing attacks.
func (s *Security) verify(r *http.Request, key string) bool {
	hexHash := auth.HashKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(r.Context(), hexHash)
	if err != nil {
		return false
	}

	// Constant-time comparison guards against timing side-channels even
	// though the lookup already succeeded; the stored hash could differ
	// from what we computed if the repository returns a stale/wrong row.
	computed, err := hex.DecodeString(hexHash)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, stored) == 1
}
