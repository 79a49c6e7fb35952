package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes JWTs before they expire: one token on logout, or
// every token of a user when an admin deactivates the account.
type TokenBlacklist interface {
	// AddToBlacklist revokes the token with the given JTI for ttl, normally
	// its remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// AddUserTokensToBlacklist revokes every token issued to userID so far.
	// ttl should cover the longest token lifetime.
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// revokedBefore reports whether a token issued at issuedAt falls under a
// user revocation made at cutoff. JWT iat has second precision, so a token
// minted in the same second as the revocation is revoked too.
func revokedBefore(issuedAt, cutoff time.Time) bool {
	return issuedAt.Unix() <= cutoff.Unix()
}

// RedisTokenBlacklist keeps revocations in Redis so every API instance
// sees them. Keys expire with the tokens they revoke.
type RedisTokenBlacklist struct {
	client redis.UniversalClient
}

func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func revokedTokenKey(jti string) string   { return "pos:revoked:jti:" + jti }
func revokedUserKey(userID string) string { return "pos:revoked:user:" + userID }

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, revokedTokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, revokedTokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("look up revoked token %s: %w", jti, err)
	}
	return n == 1, nil
}

// AddUserTokensToBlacklist stores the revocation time as Unix seconds
func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, revokedUserKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens of user %s: %w", userID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	cutoff, err := b.client.Get(ctx, revokedUserKey(userID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("look up revocation of user %s: %w", userID, err)
	}
	return revokedBefore(issuedAt, time.Unix(cutoff, 0)), nil
}

// InMemoryTokenBlacklist keeps revocations in process memory. With several
// API instances each would only see its own logouts, so it is meant for
// single-instance deployments and tests.
type InMemoryTokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time // jti -> revoked until
	users  map[string]time.Time // user id -> revocation time
	now    func() time.Time
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens: make(map[string]time.Time),
		users:  make(map[string]time.Time),
		now:    time.Now,
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

// IsBlacklisted forgets revocations whose token has expired anyway
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.tokens[jti]
	if ok && !b.now().Before(until) {
		delete(b.tokens, jti)
		return false, nil
	}
	return ok, nil
}

func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[userID] = b.now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff, ok := b.users[userID]
	return ok && revokedBefore(issuedAt, cutoff), nil
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
