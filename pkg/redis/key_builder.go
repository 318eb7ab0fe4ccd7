package redis

import "fmt"

// Key templates
const (
	// KeyPromoRateLimit holds the sliding-window entries for one client IP.
	KeyPromoRateLimit = "promo:ratelimit:%s"
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyPromoRateLimit returns the rate-limit key for a client identifier.
func (kb *KeyBuilder) KeyPromoRateLimit(clientID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPromoRateLimit, clientID))
}
