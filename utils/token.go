package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTokenRevoked = errors.New("token has been revoked")

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

// BlacklistToken revokes token until expiry, after which it would be
// rejected anyway.
func BlacklistToken(token string, expiry time.Time) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = expiry
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()
	return exists && time.Now().Before(expiry)
}

// ValidateToken parses token and rejects it when it has been revoked.
func ValidateToken(token string) (*CustomClaims, error) {
	if IsTokenBlacklisted(token) {
		return nil, ErrTokenRevoked
	}
	return ParseToken(token)
}

// RunBlacklistCleanup drops expired entries every interval until ctx ends.
func RunBlacklistCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneBlacklist(time.Now())
		}
	}
}

func pruneBlacklist(now time.Time) int {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	removed := 0
	for token, expiry := range blacklistedTokens {
		if !now.Before(expiry) {
			delete(blacklistedTokens, token)
			removed++
		}
	}
	return removed
}
