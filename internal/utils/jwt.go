// Package utils provides the token and password helpers behind the
// operator login.
package utils

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/pkg/errors"
)

// OperatorRole is the only role issued.  The claim is kept so that read
// only roles can be introduced without invalidating existing tokens.
const OperatorRole = "operator"

var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
    Token string    `json:"token"`
    Exp   time.Time `json:"expires"`
}

// Claims are the registered claims plus the role.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token for the named operator that is
// valid for ttl.
func NewAccessToken(secret, subject string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := Claims{
        Role: OperatorRole,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   subject,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, errors.Wrap(err, "sign access token")
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and returns
// the claims.  Any failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (*Claims, error) {
    claims := &Claims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid || claims.Subject == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
