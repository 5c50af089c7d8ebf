package confirmreset

import (
	"context"
	"errors"
	c "passgate/internal/core/domain/common"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/logging"
	uow "passgate/internal/core/domain/unit_of_work"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"time"
)

type Input struct {
	Token user.RawResetToken
}

type Result struct {
	User  user.User
	Token user.IssuedToken
}

type service struct {
	log         logging.Logger
	unitOfWork  uow.UnitOfWork
	tokenizer   user.ResetTokenizer
	tokenIssuer user.ClientTokenIssuer
	caps        user.Capabilities
	resetWindow time.Duration
	hook        user.Hook
	now         func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	tokenizer user.ResetTokenizer,
	tokenIssuer user.ClientTokenIssuer,
	caps user.Capabilities,
	resetWindow time.Duration,
	hook user.Hook,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if tokenizer == nil {
		panic(e.NewNilArgumentError("tokenizer"))
	}
	if tokenIssuer == nil {
		panic(e.NewNilArgumentError("tokenIssuer"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:         log,
		unitOfWork:  unitOfWork,
		tokenizer:   tokenizer,
		tokenIssuer: tokenIssuer,
		caps:        caps,
		resetWindow: resetWindow,
		hook:        hook,
		now:         now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Token == "" {
		return result, user.ErrInvalidResetToken
	}
	digest := s.tokenizer.DigestResetToken(input.Token)

	uowCtx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("err", err))
		return result, err
	}
	defer uowCtx.Rollback(ctx)

	u, err := uowCtx.Users().GetByResetTokenDigest(ctx, digest)
	if errors.Is(err, user.ErrUserDoesNotExist) {
		s.log.Info(ctx, "No user matches the reset password token.")
		return result, user.ErrInvalidResetToken
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("err", err))
		return result, err
	}

	now := s.now()
	if !u.ResetWindowValid(now, s.resetWindow) {
		s.log.Info(
			ctx,
			"Reset password token is outside its validity window.",
			logging.Entry("userID", u.ID),
		)
		return result, user.ErrInvalidResetToken
	}

	// Token consumption is the store's single-use enforcement point.
	u, err = uowCtx.Users().ConsumeResetToken(ctx, digest)
	if err != nil {
		s.log.Info(ctx, "Could not consume reset password token.", logging.Entry("err", err))
		return result, err
	}

	issued, err := s.tokenIssuer.IssueToken(now)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}

	tokens := u.Tokens.Clone()
	tokens[issued.ClientID] = user.ClientToken{
		TokenHash: issued.TokenHash,
		ExpiresAt: issued.ExpiresAt.Unix(),
	}

	update := user.UpdateUserInput{
		ID:                          u.ID,
		DoTokensUpdate:              true,
		Tokens:                      tokens,
		DoAllowPasswordChangeUpdate: true,
		AllowPasswordChange:         true,
	}
	if s.caps.Confirmable && !u.ConfirmedAt.IsPresent {
		// Completing a password reset proves ownership of the mailbox,
		// so the pending confirmation step is satisfied as well.
		update.DoConfirmedAtUpdate = true
		update.ConfirmedAt = c.NewOptional(now, true)
	}

	u, err = uowCtx.Users().Update(ctx, update)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}
	if err = uowCtx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("userID", u.ID), logging.Entry("err", err))
		return result, err
	}

	s.hook.Invoke(ctx, u)

	s.log.Info(
		ctx,
		"Reset password token confirmed, client token issued.",
		logging.Entry("userID", u.ID),
		logging.Entry("clientID", issued.ClientID),
	)
	return Result{User: u, Token: issued}, nil
}
