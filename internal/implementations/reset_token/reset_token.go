package resettoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"passgate/internal/core/domain/user"
)

const tokenBytes = 24

// HMAC generates URL-safe reset tokens and digests them with a keyed
// HMAC-SHA256, so a leaked store does not expose usable tokens and the
// digest column stays collation-neutral.
type HMAC struct {
	secretKey []byte
}

func NewHMAC(secretKey string) *HMAC {
	return &HMAC{secretKey: []byte(secretKey)}
}

func (h *HMAC) GenerateResetToken() user.RawResetToken {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("could not read random bytes: %v", err))
	}
	return user.RawResetToken(base64.RawURLEncoding.EncodeToString(b))
}

func (h *HMAC) DigestResetToken(token user.RawResetToken) user.ResetTokenDigest {
	hasher := hmac.New(sha256.New, h.secretKey)
	hasher.Write([]byte(token))
	return user.ResetTokenDigest(fmt.Sprintf("%x", hasher.Sum(nil)))
}
