package user

import (
	"fmt"
	c "passgate/internal/core/domain/common"
	e "passgate/internal/core/domain/errors"
	"time"
)

type ID int64

type Provider string

// ProviderEmail is the built-in provider: accounts that authenticate
// with a locally stored password. Every other provider value denotes an
// external identity provider whose accounts carry no local credential.
const ProviderEmail = Provider("email")

type PasswordHash string

func (p PasswordHash) String() string {
	return "***"
}

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

// RawResetToken is the opaque value mailed to the user. Only its digest
// is ever persisted.
type RawResetToken string

func (t RawResetToken) String() string {
	return "***"
}

// ResetTokenDigest is the one-way digest the store indexes reset tokens by.
type ResetTokenDigest string

// ClientID identifies one device/client of a user within the per-client
// token map.
type ClientID string

// ClientToken is the stored half of an issued bearer token: a slow hash
// of the plaintext plus its expiry as unix seconds.
type ClientToken struct {
	TokenHash string `json:"token"`
	ExpiresAt int64  `json:"expiry"`
}

type TokenMap map[ClientID]ClientToken

// Clone returns a copy safe to mutate without aliasing the original map.
func (m TokenMap) Clone() TokenMap {
	clone := make(TokenMap, len(m)+1)
	for clientID, token := range m {
		clone[clientID] = token
	}
	return clone
}

type User struct {
	ID                  ID
	Email               c.Optional[c.Email]
	PasswordHash        c.Optional[PasswordHash]
	Provider            Provider
	ResetTokenDigest    c.Optional[ResetTokenDigest]
	ResetSentAt         c.Optional[time.Time]
	AllowPasswordChange bool
	ConfirmedAt         c.Optional[time.Time]
	CreatedAt           time.Time
	Tokens              TokenMap
}

func (u *User) Validate() error {
	if u.Provider == "" {
		return e.NewInvalidStateError(fmt.Sprintf("provider is not set for user %d", u.ID))
	}
	if u.Provider == ProviderEmail && !u.Email.IsPresent {
		return e.NewInvalidStateError(fmt.Sprintf("email is not set for email-provider user %d", u.ID))
	}
	return nil
}

// HasPassword reports whether the account holds a local credential.
// Accounts provisioned only through an external provider do not.
func (u *User) HasPassword() bool {
	return u.PasswordHash.IsPresent && u.PasswordHash.Value != ""
}

// ResetWindowValid reports whether the stored reset token is still
// inside its validity window.
func (u *User) ResetWindowValid(now time.Time, window time.Duration) bool {
	if !u.ResetTokenDigest.IsPresent || !u.ResetSentAt.IsPresent {
		return false
	}
	return now.Sub(u.ResetSentAt.Value) <= window
}

// Capabilities describes store-declared properties the reset flow must
// honor. They are passed in explicitly at construction instead of being
// discovered from the store's schema at runtime.
type Capabilities struct {
	// CaseInsensitiveEmail folds incoming emails to lower case before lookup.
	CaseInsensitiveEmail bool
	// MultipleProviders relaxes lookups and password updates to match
	// any provider instead of only the built-in email provider.
	MultipleProviders bool
	// CaseInsensitiveCollation marks stores whose default comparison
	// folds case, so the single-provider lookup must force a
	// case-sensitive match to avoid ambiguous cross-provider hits.
	CaseInsensitiveCollation bool
	// Confirmable marks credential workflows with an email-confirmation
	// step; completing a password reset confirms the user as a side effect.
	Confirmable bool
}

func (caps Capabilities) NormalizeEmail(email c.Email) c.Email {
	if caps.CaseInsensitiveEmail {
		return email.Lower()
	}
	return email
}
