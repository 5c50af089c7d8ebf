package auth

import (
	"context"
	"errors"
	c "passgate/internal/core/domain/common"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"time"
)

type contextAuthCredentials string

const CONTEXT_AUTH_CREDENTIALS_KEY = contextAuthCredentials("authCredentials")

// Credentials is the bearer triple presented with authenticated
// requests: the account UID plus one entry of its per-client token map.
type Credentials struct {
	UID         c.Email
	ClientID    user.ClientID
	AccessToken string
}

type Input interface {
	WithAuthenticatedUser(u user.User) Input
}

type service[T Input, S any] struct {
	userRepository user.UserRepository
	tokenIssuer    user.ClientTokenIssuer
	caps           user.Capabilities
	now            func() time.Time
	inner          services.Service[T, S]
}

// WithAuthentication resolves the request's bearer credentials into a
// user before running the inner service. The token must exist in the
// user's token map, be unexpired, and hash-match the presented value.
// The uid lookup honors the same store capabilities as the reset flow,
// so in single-provider mode an external-provider row sharing the email
// cannot shadow the account holding the token map.
func WithAuthentication[T Input, S any](
	userRepository user.UserRepository,
	tokenIssuer user.ClientTokenIssuer,
	caps user.Capabilities,
	now func() time.Time,
	inner services.Service[T, S],
) services.Service[T, S] {
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if tokenIssuer == nil {
		panic(e.NewNilArgumentError("tokenIssuer"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &service[T, S]{
		userRepository: userRepository,
		tokenIssuer:    tokenIssuer,
		caps:           caps,
		now:            now,
		inner:          inner,
	}
}

func (s *service[T, S]) Run(ctx context.Context, input T) (result S, err error) {
	creds, ok := ctx.Value(CONTEXT_AUTH_CREDENTIALS_KEY).(Credentials)
	if !ok {
		return result, user.ErrUnauthorized
	}
	getInput := user.GetByEmailInput{Email: s.caps.NormalizeEmail(creds.UID)}
	if !s.caps.MultipleProviders {
		getInput.Provider = c.NewOptional(user.ProviderEmail, true)
		getInput.ForceCaseSensitive = s.caps.CaseInsensitiveCollation
	}
	u, err := s.userRepository.GetByEmail(ctx, getInput)
	if errors.Is(err, user.ErrUserDoesNotExist) {
		return result, user.ErrUnauthorized
	}
	if err != nil {
		return result, err
	}
	stored, ok := u.Tokens[creds.ClientID]
	if !ok {
		return result, user.ErrUnauthorized
	}
	if stored.ExpiresAt <= s.now().Unix() {
		return result, user.ErrUnauthorized
	}
	if !s.tokenIssuer.ValidateToken(creds.AccessToken, stored) {
		return result, user.ErrUnauthorized
	}
	return s.inner.Run(ctx, input.WithAuthenticatedUser(u).(T))
}
