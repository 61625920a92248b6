package config

import (
	"strconv"
	"strings"
	"time"
)

type SecurityConfig interface {
	// GetSigningKeys returns the token keyring as keyID -> secret. Multiple
	// keys let the active signing key rotate without invalidating unexpired
	// tokens signed by a previous key.
	GetSigningKeys() map[string]string
	GetActiveKeyID() string
	GetTokenIssuer() string
	GetTokenExpiry() time.Duration
	GetRateLimitWindow() time.Duration
	GetRateLimitMaxAttempts() int
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSigningKeys parses TOKEN_SIGNING_KEYS, formatted as
// "kid1:secret1,kid2:secret2". A bare secret with no key ID is registered
// under the default key ID "v1".
func (Security) GetSigningKeys() map[string]string {
	raw := GetEnv("TOKEN_SIGNING_KEYS", "")
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kid, secret, found := strings.Cut(entry, ":")
		if !found {
			keys["v1"] = entry
			continue
		}
		keys[kid] = secret
	}
	return keys
}

func (Security) GetActiveKeyID() string {
	return GetEnv("TOKEN_ACTIVE_KEY_ID", "v1")
}

func (Security) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", "microsaas-crm")
}

func (Security) GetTokenExpiry() time.Duration {
	return durationEnv("TOKEN_EXPIRY", 24*time.Hour)
}

func (Security) GetRateLimitWindow() time.Duration {
	return durationEnv("RATE_LIMIT_WINDOW", 15*time.Minute)
}

func (Security) GetRateLimitMaxAttempts() int {
	raw := GetEnv("RATE_LIMIT_MAX_ATTEMPTS", "10")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 10
	}
	return n
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
