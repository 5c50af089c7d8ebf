package services

import (
	"passgate/internal/app/deps"
	drl "passgate/internal/core/domain/rate_limiter"
	"passgate/internal/core/services"
	"passgate/internal/core/services/auth"
	confirmreset "passgate/internal/core/services/confirm_reset"
	ratelimiting "passgate/internal/core/services/rate_limiting"
	requestreset "passgate/internal/core/services/request_reset"
	updatepassword "passgate/internal/core/services/update_password"
)

type Services struct {
	RequestReset   services.Service[requestreset.Input, requestreset.Result]
	ConfirmReset   services.Service[confirmreset.Input, confirmreset.Result]
	UpdatePassword services.Service[updatepassword.Input, updatepassword.Result]
}

func InitServices(deps *deps.Deps) *Services {
	requestResetService := ratelimiting.WithRateLimiting(
		deps.Logger,
		deps.RateLimiter,
		drl.Limit{Interval: drl.Hour, Value: 3},
		requestreset.New(
			deps.Logger,
			deps.UserRepository,
			deps.ResetTokenizer,
			deps.Notifier,
			deps.Capabilities,
			deps.Config.DefaultResetRedirectURL,
			deps.Config.RedirectAllowList,
			nil,
			deps.Now,
		),
	)

	confirmResetService := confirmreset.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.ResetTokenizer,
		deps.ClientTokenIssuer,
		deps.Capabilities,
		deps.Config.ResetTokenValidDuration,
		nil,
		deps.Now,
	)

	updatePasswordService := auth.WithAuthentication(
		deps.UserRepository,
		deps.ClientTokenIssuer,
		deps.Capabilities,
		deps.Now,
		updatepassword.New(
			deps.Logger,
			deps.UserRepository,
			deps.PasswordHasher,
			deps.Capabilities,
			deps.Config.CheckCurrentPasswordBeforeUpdate,
			nil,
		),
	)

	return &Services{
		RequestReset:   requestResetService,
		ConfirmReset:   confirmResetService,
		UpdatePassword: updatePasswordService,
	}
}
