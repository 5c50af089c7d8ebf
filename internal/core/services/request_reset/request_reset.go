package requestreset

import (
	"context"
	"errors"
	"fmt"
	c "passgate/internal/core/domain/common"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/logging"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"strings"
	"time"
)

type Input struct {
	Email            string
	RedirectURL      string
	ClientConfigName string
}

func (i Input) GetRateLimitKey() string {
	return fmt.Sprintf("request-password-reset::%s", strings.ToLower(i.Email))
}

type Result struct {
	User  user.User
	Token user.RawResetToken
}

type service struct {
	log                logging.Logger
	userRepository     user.UserRepository
	tokenizer          user.ResetTokenizer
	notifier           user.Notifier
	caps               user.Capabilities
	defaultRedirectURL string
	redirectAllowList  []string
	hook               user.Hook
	now                func() time.Time
}

// New creates the reset-request service. redirectAllowList nil or empty
// means any redirect URL is accepted; hook may be nil.
func New(
	log logging.Logger,
	userRepository user.UserRepository,
	tokenizer user.ResetTokenizer,
	notifier user.Notifier,
	caps user.Capabilities,
	defaultRedirectURL string,
	redirectAllowList []string,
	hook user.Hook,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if tokenizer == nil {
		panic(e.NewNilArgumentError("tokenizer"))
	}
	if notifier == nil {
		panic(e.NewNilArgumentError("notifier"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:                log,
		userRepository:     userRepository,
		tokenizer:          tokenizer,
		notifier:           notifier,
		caps:               caps,
		defaultRedirectURL: defaultRedirectURL,
		redirectAllowList:  redirectAllowList,
		hook:               hook,
		now:                now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if strings.TrimSpace(input.Email) == "" {
		return result, user.ErrMissingEmail
	}

	redirectURL := input.RedirectURL
	if redirectURL == "" {
		redirectURL = s.defaultRedirectURL
	}
	if redirectURL == "" {
		return result, user.ErrMissingRedirectURL
	}

	email := s.caps.NormalizeEmail(c.NewEmail(input.Email))

	if !s.redirectAllowed(redirectURL) {
		// The rejection payload still carries resource data when the
		// email matches an account, so look the user up best effort.
		notAllowed := &user.RedirectNotAllowedError{RedirectURL: redirectURL}
		if u, lookupErr := s.lookup(ctx, email); lookupErr == nil {
			notAllowed.User = c.NewOptional(u, true)
		}
		return result, notAllowed
	}

	u, err := s.lookup(ctx, email)
	if errors.Is(err, user.ErrUserDoesNotExist) {
		s.log.Info(ctx, "No user found for password reset request.", logging.Entry("email", email))
		return result, err
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("email", email), logging.Entry("err", err))
		return result, err
	}

	if !u.HasPassword() {
		s.log.Info(
			ctx,
			"Password reset requested for account without a password.",
			logging.Entry("userID", u.ID),
			logging.Entry("provider", u.Provider),
		)
		return result, user.ErrNoPasswordSet
	}

	s.hook.Invoke(ctx, u)

	rawToken := s.tokenizer.GenerateResetToken()
	digest := s.tokenizer.DigestResetToken(rawToken)
	if err = s.userRepository.SetResetToken(ctx, u.ID, digest, s.now()); err != nil {
		var validationErr *user.ValidationError
		if errors.As(err, &validationErr) {
			return result, err
		}
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}

	req := user.ResetRequest{
		Email:            email,
		RedirectURL:      redirectURL,
		ClientConfigName: input.ClientConfigName,
	}
	if err = s.notifier.SendResetInstructions(ctx, u, rawToken, req); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}

	s.log.Info(
		ctx,
		"Password reset instructions have been sent.",
		logging.Entry("userID", u.ID),
		logging.Entry("redirectURL", redirectURL),
	)
	return Result{User: u, Token: rawToken}, nil
}

func (s *service) lookup(ctx context.Context, email c.Email) (user.User, error) {
	getInput := user.GetByEmailInput{Email: email}
	if !s.caps.MultipleProviders {
		getInput.Provider = c.NewOptional(user.ProviderEmail, true)
		// Stores with case-folding collation would otherwise match the
		// same address across providers ambiguously.
		getInput.ForceCaseSensitive = s.caps.CaseInsensitiveCollation
	}
	return s.userRepository.GetByEmail(ctx, getInput)
}

func (s *service) redirectAllowed(redirectURL string) bool {
	if len(s.redirectAllowList) == 0 {
		return true
	}
	for _, allowed := range s.redirectAllowList {
		if allowed == redirectURL {
			return true
		}
	}
	return false
}
