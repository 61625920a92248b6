package token

import (
	"context"
	"sync"
	"time"
)

// RevocationRegistry is the set of invalidated token IDs. An entry must be
// retained at least until the token's natural expiry; after that the codec
// rejects the token anyway and the entry may be dropped.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// InMemoryRegistry is the single-instance implementation. A Revoke is
// visible to every IsRevoked issued after it returns.
type InMemoryRegistry struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowFunc func() time.Time
}

type RegistryOption func(*InMemoryRegistry)

func WithRegistryNowFunc(now func() time.Time) RegistryOption {
	return func(r *InMemoryRegistry) {
		r.nowFunc = now
	}
}

func NewInMemoryRegistry(options ...RegistryOption) *InMemoryRegistry {
	r := &InMemoryRegistry{
		revoked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRegistry) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *InMemoryRegistry) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.revoked[tokenID]
	return exists, nil
}

// Cleanup drops entries whose tokens have passed their natural expiry.
func (r *InMemoryRegistry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	for tokenID, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, tokenID)
		}
	}
}

// StartCleanup prunes expired entries on the given interval until ctx is done.
func (r *InMemoryRegistry) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}
