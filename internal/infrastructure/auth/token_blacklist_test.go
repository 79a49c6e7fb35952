package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so expiry needs no sleeping
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedBlacklist() (*InMemoryTokenBlacklist, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	b := NewInMemoryTokenBlacklist()
	b.now = clock.now
	return b, clock
}

func TestInMemoryTokenBlacklist_Logout(t *testing.T) {
	ctx := context.Background()
	b, clock := newClockedBlacklist()

	require.NoError(t, b.AddToBlacklist(ctx, "jti-1", 15*time.Minute))

	tests := []struct {
		name    string
		jti     string
		elapsed time.Duration
		revoked bool
	}{
		{"revoked token", "jti-1", 0, true},
		{"other token", "jti-2", 0, false},
		{"shortly before expiry", "jti-1", 14 * time.Minute, true},
		{"after expiry", "jti-1", 2 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.advance(tt.elapsed)
			revoked, err := b.IsBlacklisted(ctx, tt.jti)
			require.NoError(t, err)
			assert.Equal(t, tt.revoked, revoked)
		})
	}
	assert.Empty(t, b.tokens, "expired revocations are dropped")
}

func TestInMemoryTokenBlacklist_DeactivatedUser(t *testing.T) {
	ctx := context.Background()
	b, clock := newClockedBlacklist()
	issuedBefore := clock.t.Add(-time.Hour)

	invalidated, err := b.IsUserTokenInvalidated(ctx, "cashier-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, b.AddUserTokensToBlacklist(ctx, "cashier-1", time.Hour))

	for issued, want := range map[time.Time]bool{
		issuedBefore:                        true,
		clock.t.Add(500 * time.Millisecond): true,
		clock.t.Add(2 * time.Second):        false,
	} {
		invalidated, err := b.IsUserTokenInvalidated(ctx, "cashier-1", issued)
		require.NoError(t, err)
		assert.Equal(t, want, invalidated, issued)
	}

	invalidated, err = b.IsUserTokenInvalidated(ctx, "cashier-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_WrapsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	b := NewRedisTokenBlacklist(client)
	ctx := context.Background()

	err := b.AddToBlacklist(ctx, "jti-1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke token jti-1")

	_, err = b.IsBlacklisted(ctx, "jti-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "look up revoked token jti-1")

	err = b.AddUserTokensToBlacklist(ctx, "user-1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke tokens of user user-1")

	_, err = b.IsUserTokenInvalidated(ctx, "user-1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "look up revocation of user user-1")
}

func TestRevokedBefore(t *testing.T) {
	cutoff := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.True(t, revokedBefore(cutoff.Add(-time.Second), cutoff))
	assert.True(t, revokedBefore(cutoff.Add(999*time.Millisecond), cutoff))
	assert.False(t, revokedBefore(cutoff.Add(time.Second), cutoff))
}
