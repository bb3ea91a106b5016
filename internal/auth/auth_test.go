package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func exerciseStore(t *testing.T, store TokenStore) {
	t.Helper()
	ctx := context.Background()

	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Set(ctx, "  abc.def.ghi \n"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, store.Clear(ctx))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "token")))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client))
}

func TestRedisStoreExpiresWithToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client)
	ctx := context.Background()

	token := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Minute).Unix()})
	require.NoError(t, store.Set(ctx, token))
	assert.Greater(t, mr.TTL(redisTokenKey), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	expired := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	require.ErrorIs(t, store.Set(ctx, expired), ErrTokenExpired)
}

func TestReadClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"user_id": float64(42), "sub": "someone", "exp": exp.Unix()})

	claims, err := ReadClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "someone", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
}

func TestReadClaimsFallsBackToSubject(t *testing.T) {
	claims, err := ReadClaims(signedToken(t, jwt.MapClaims{"sub": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.UserID)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestReadClaimsErrors(t *testing.T) {
	_, err := ReadClaims("  ")
	require.ErrorIs(t, err, ErrTokenMissing)

	_, err = ReadClaims("opaque-token")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestUserIDTravelsInContext(t *testing.T) {
	_, ok := UserIDFrom(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFrom(WithUserID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := UserIDFrom(WithUserID(context.Background(), "42"))
	assert.True(t, ok)
	assert.Equal(t, "42", id)
}
