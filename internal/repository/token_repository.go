package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// DeviceToken represents a registered device token
type DeviceToken struct {
	Token     string
	Platform  string // "android" or "ios"
	CreatedAt int64
}

// TokenRepository keeps device tokens for push notifications in memory.
type TokenRepository struct {
	tokens map[string]*DeviceToken // token -> DeviceToken
	mu     sync.RWMutex
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		tokens: make(map[string]*DeviceToken),
	}
}

// RegisterToken adds or updates a device token
func (r *TokenRepository) RegisterToken(_ context.Context, token, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = &DeviceToken{
		Token:     token,
		Platform:  platform,
		CreatedAt: time.Now().Unix(),
	}
	return nil
}

// UnregisterToken removes a device token
func (r *TokenRepository) UnregisterToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

// AllTokens returns all registered tokens, sorted
func (r *TokenRepository) AllTokens(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.tokens))
	for token := range r.tokens {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens, nil
}

// TokenCount returns the number of registered tokens
func (r *TokenRepository) TokenCount(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tokens), nil
}

var _ domain.TokenRepository = (*TokenRepository)(nil)
