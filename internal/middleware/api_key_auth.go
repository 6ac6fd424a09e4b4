package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries "<subject>:<secret>".
const APIKeyHeader = "X-API-Key"

// APIKeySet maps a subject to the bcrypt hash of its secret.
type APIKeySet map[string]string

// ParseAPIKeyHashes reads "subject=hash" pairs separated by commas.
func ParseAPIKeyHashes(raw string) (APIKeySet, error) {
	set := APIKeySet{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		subject, hash, ok := strings.Cut(pair, "=")
		if !ok || subject == "" || hash == "" {
			return nil, fmt.Errorf("api key entry %q must look like subject=bcrypt-hash", pair)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("api key entry for %s: %w", subject, err)
		}
		set[subject] = hash
	}
	return set, nil
}

// HashAPIKey returns the bcrypt hash to store for secret.
func HashAPIKey(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// APIKeyAuth authenticates requests carrying a valid API key. A missing or
// wrong key leaves the request unauthenticated so a later middleware decides.
func APIKeyAuth(keys APIKeySet) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(APIKeyHeader)
		if raw == "" || len(keys) == 0 {
			c.Next() // No api key provided, let it continue
			return
		}
		subject, secret, ok := strings.Cut(raw, ":")
		hash, known := keys[subject]
		if !ok || !known || bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
			GetLoggerFromContext(c).Warn("API key rejected", "subject", subject)
			c.Next()
			return
		}
		setAuthenticated(c, subject, AuthMethodAPIKey)
		c.Next()
	}
}
