package updatepassword

import (
	"context"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/logging"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"passgate/internal/core/services/auth"
)

type Input struct {
	Password             user.RawPassword
	PasswordConfirmation user.RawPassword
	CurrentPassword      user.RawPassword
	User                 user.User
}

func (i Input) WithAuthenticatedUser(u user.User) auth.Input {
	i.User = u
	return i
}

type Result struct {
	User user.User
}

type service struct {
	log                  logging.Logger
	userRepository       user.UserRepository
	passwordHasher       user.PasswordHasher
	caps                 user.Capabilities
	checkCurrentPassword bool
	hook                 user.Hook
}

func New(
	log logging.Logger,
	userRepository user.UserRepository,
	passwordHasher user.PasswordHasher,
	caps user.Capabilities,
	checkCurrentPassword bool,
	hook user.Hook,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if passwordHasher == nil {
		panic(e.NewNilArgumentError("passwordHasher"))
	}
	return &service{
		log:                  log,
		userRepository:       userRepository,
		passwordHasher:       passwordHasher,
		caps:                 caps,
		checkCurrentPassword: checkCurrentPassword,
		hook:                 hook,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	u := input.User

	if !s.caps.MultipleProviders && u.Provider != user.ProviderEmail {
		return result, &user.PasswordNotRequiredError{Provider: u.Provider}
	}

	if input.Password == "" || input.PasswordConfirmation == "" {
		return result, user.ErrMissingPassword
	}

	// The exemption is one-shot: any attempt from here on consumes it,
	// whether or not the update itself goes through.
	guarded := s.checkCurrentPassword && !u.AllowPasswordChange
	if u.AllowPasswordChange {
		if clearErr := s.userRepository.SetAllowPasswordChange(ctx, u.ID, false); clearErr != nil {
			logging.Error(ctx, s.log, clearErr, logging.Entry("userID", u.ID), logging.Entry("err", clearErr))
			return result, clearErr
		}
		u.AllowPasswordChange = false
	}

	if input.Password != input.PasswordConfirmation {
		return result, &user.ValidationError{Errors: []user.FieldError{
			{Field: "password_confirmation", Message: "doesn't match Password"},
		}}
	}
	if guarded {
		if input.CurrentPassword == "" ||
			!s.passwordHasher.ValidatePassword(input.CurrentPassword, u.PasswordHash.Value) {
			return result, &user.ValidationError{Errors: []user.FieldError{
				{Field: "current_password", Message: "is invalid"},
			}}
		}
	}

	newHash, err := s.passwordHasher.HashPassword(input.Password)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}
	if err = s.userRepository.SetPassword(ctx, u.ID, newHash); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}
	u.PasswordHash.Value = newHash
	u.PasswordHash.IsPresent = true

	s.hook.Invoke(ctx, u)

	s.log.Info(ctx, "Password has been successfully updated.", logging.Entry("userID", u.ID))
	return Result{User: u}, nil
}
