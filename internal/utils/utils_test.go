package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", "admin", time.Hour)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

    claims, err := ParseAccessToken("secret", tok.Token)
    require.NoError(t, err)
    assert.Equal(t, "admin", claims.Subject)
    assert.Equal(t, OperatorRole, claims.Role)
}

func TestParseAccessToken_Rejects(t *testing.T) {
    good, err := NewAccessToken("secret", "admin", time.Hour)
    require.NoError(t, err)
    expired, err := NewAccessToken("secret", "admin", -time.Minute)
    require.NoError(t, err)
    none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "admin"}).
        SignedString(jwt.UnsafeAllowNoneSignatureType)
    require.NoError(t, err)

    for name, raw := range map[string]string{
        "wrong secret": good.Token,
        "garbage":      "not-a-token",
        "none alg":     none,
    } {
        _, err := ParseAccessToken("other", raw)
        assert.ErrorIs(t, err, ErrInvalidToken, name)
    }
    _, err = ParseAccessToken("secret", expired.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("hunter2", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "hunter2"))
    assert.False(t, VerifyPassword(hash, "hunter3"))
    assert.False(t, VerifyPassword("not-a-hash", "hunter2"))
}
