package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testSecret, "", time.Hour)
	require.NoError(t, err)
	return tm
}

func TestNewTokenManager_ShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", "", 0)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	tm := newManager(t)

	token, expiresAt, err := tm.Issue(42, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidate_Expired(t *testing.T) {
	tm := newManager(t)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.Issue(1, "a@example.com")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Validate(token)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Contains(t, err.Error(), "token expired")
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _, err := newManager(t).Issue(1, "a@example.com")
	require.NoError(t, err)

	other, err := NewTokenManager(strings.Repeat("x", 32), "", time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestValidate_WrongIssuer(t *testing.T) {
	token, _, err := newManager(t).Issue(1, "a@example.com")
	require.NoError(t, err)

	other, err := NewTokenManager(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    DefaultIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newManager(t).Validate(token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestValidate_Garbage(t *testing.T) {
	_, err := newManager(t).Validate("not-a-token")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}
