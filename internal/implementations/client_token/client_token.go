package clienttoken

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"passgate/internal/core/domain/user"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 16

// Issuer mints per-client bearer tokens. The plaintext leaves the
// process exactly once, in the issue result; only its bcrypt hash is
// meant to be stored.
type Issuer struct {
	lifespan time.Duration
	cost     int
}

func NewIssuer(lifespan time.Duration, cost int) *Issuer {
	return &Issuer{lifespan: lifespan, cost: cost}
}

func (i *Issuer) IssueToken(now time.Time) (token user.IssuedToken, err error) {
	plaintext := randomURLSafe(tokenBytes)
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), i.cost)
	if err != nil {
		return token, err
	}
	return user.IssuedToken{
		ClientID:  user.ClientID(uuid.New().String()),
		Plaintext: plaintext,
		TokenHash: string(hash),
		ExpiresAt: now.Add(i.lifespan),
	}, nil
}

func (i *Issuer) ValidateToken(plaintext string, stored user.ClientToken) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored.TokenHash), []byte(plaintext))
	return err == nil
}

func randomURLSafe(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("could not read random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
