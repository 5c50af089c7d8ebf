package user

import (
	"context"
	c "passgate/internal/core/domain/common"
	"time"
)

type CreateUserInput struct {
	Email        c.Optional[c.Email]
	PasswordHash c.Optional[PasswordHash]
	Provider     Provider
	ConfirmedAt  c.Optional[time.Time]
	CreatedAt    time.Time
}

type GetByEmailInput struct {
	Email c.Email
	// Provider restricts the match to one provider. Unset means lookup
	// by email alone (multiple-providers stores).
	Provider c.Optional[Provider]
	// ForceCaseSensitive overrides a case-insensitive store collation
	// for this lookup.
	ForceCaseSensitive bool
}

type UpdateUserInput struct {
	ID ID

	DoTokensUpdate bool
	Tokens         TokenMap

	DoAllowPasswordChangeUpdate bool
	AllowPasswordChange         bool

	DoConfirmedAtUpdate bool
	ConfirmedAt         c.Optional[time.Time]
}

type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (User, error)
	GetByID(ctx context.Context, id ID) (User, error)
	GetByEmail(ctx context.Context, input GetByEmailInput) (User, error)
	GetByResetTokenDigest(ctx context.Context, digest ResetTokenDigest) (User, error)
	// SetResetToken stores the digest and the sent-at timestamp that
	// anchors the validity window.
	SetResetToken(ctx context.Context, id ID, digest ResetTokenDigest, sentAt time.Time) error
	// ConsumeResetToken clears the stored token and returns the owning
	// user. Single-use enforcement lives here: a second call with the
	// same digest fails with ErrUserDoesNotExist.
	ConsumeResetToken(ctx context.Context, digest ResetTokenDigest) (User, error)
	Update(ctx context.Context, input UpdateUserInput) (User, error)
	SetPassword(ctx context.Context, id ID, password PasswordHash) error
	SetAllowPasswordChange(ctx context.Context, id ID, allow bool) error
}
