package user

import (
	"context"
	c "passgate/internal/core/domain/common"
	"time"
)

// ResetRequest is the parameter bundle a reset-instructions message is
// bound to. It lives only for the duration of one RequestReset call.
type ResetRequest struct {
	Email            c.Email
	RedirectURL      string
	ClientConfigName string
}

// IssuedToken is the per-client bearer credential minted after a
// successful token confirmation. Plaintext is returned to the caller
// exactly once; only TokenHash is persisted.
type IssuedToken struct {
	ClientID  ClientID
	Plaintext string
	TokenHash string
	ExpiresAt time.Time
}

// ResetTokenizer generates reset tokens and produces the one-way digest
// the store indexes them by.
type ResetTokenizer interface {
	GenerateResetToken() RawResetToken
	DigestResetToken(token RawResetToken) ResetTokenDigest
}

// ClientTokenIssuer mints and validates per-client bearer tokens.
type ClientTokenIssuer interface {
	IssueToken(now time.Time) (IssuedToken, error)
	ValidateToken(plaintext string, stored ClientToken) bool
}

type PasswordHasher interface {
	HashPassword(password RawPassword) (PasswordHash, error)
	ValidatePassword(password RawPassword, hash PasswordHash) bool
}

// Notifier delivers the reset-instructions message. Delivery may be
// queued by the implementation; the flow treats the call as the single
// notification attempt either way.
type Notifier interface {
	SendResetInstructions(ctx context.Context, u User, token RawResetToken, req ResetRequest) error
}

// Hook is an optional extension point invoked at fixed places in the
// flow (post-lookup, post-finalize, post-update). A nil Hook is skipped.
type Hook func(ctx context.Context, u User)

func (h Hook) Invoke(ctx context.Context, u User) {
	if h != nil {
		h(ctx, u)
	}
}
