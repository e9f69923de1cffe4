package utils

import (
    "github.com/pkg/errors"
    "golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of plain.  A cost of zero uses
// bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
    if cost == 0 {
        cost = bcrypt.DefaultCost
    }
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", errors.Wrap(err, "hash password")
    }
    return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
