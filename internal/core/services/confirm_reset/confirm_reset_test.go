package confirmreset

import (
	"context"
	c "passgate/internal/core/domain/common"
	"passgate/internal/core/domain/logging"
	uow "passgate/internal/core/domain/unit_of_work"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	EMAIL          = "test@test.test"
	RESET_TOKEN    = "test-reset-token"
	RESET_WINDOW   = 6 * time.Hour
	TOKEN_LIFESPAN = 24 * time.Hour
)

var NOW = time.Date(2023, 2, 2, 10, 30, 0, 0, time.UTC)

type testSuite struct {
	log         *logging.FakeLogger
	unitOfWork  *uow.FakeUnitOfWork
	tokenizer   *user.FakeResetTokenizer
	tokenIssuer *user.FakeClientTokenIssuer
}

func setupSuite() *testSuite {
	return &testSuite{
		log:         logging.NewFakeLogger(),
		unitOfWork:  uow.NewFakeUnitOfWork(),
		tokenizer:   user.NewFakeResetTokenizer(RESET_TOKEN),
		tokenIssuer: user.NewFakeClientTokenIssuer(TOKEN_LIFESPAN),
	}
}

func (s *testSuite) userRepo() *user.FakeUserRepository {
	return s.unitOfWork.Context.UserRepository
}

func (s *testSuite) createService(caps user.Capabilities, hook user.Hook) services.Service[Input, Result] {
	return New(
		s.log,
		s.unitOfWork,
		s.tokenizer,
		s.tokenIssuer,
		caps,
		RESET_WINDOW,
		hook,
		func() time.Time { return NOW },
	)
}

func (s *testSuite) addUserWithToken(sentAt time.Time, confirmed bool) user.User {
	input := user.CreateUserInput{
		Email:        c.NewOptional(c.NewEmail(EMAIL), true),
		PasswordHash: c.NewOptional(user.PasswordHash("hash"), true),
		Provider:     user.ProviderEmail,
		CreatedAt:    NOW,
	}
	if confirmed {
		input.ConfirmedAt = c.NewOptional(NOW, true)
	}
	u, err := s.userRepo().Create(context.Background(), input)
	if err != nil {
		panic(err)
	}
	digest := s.tokenizer.DigestResetToken(RESET_TOKEN)
	if err := s.userRepo().SetResetToken(context.Background(), u.ID, digest, sentAt); err != nil {
		panic(err)
	}
	u, err = s.userRepo().GetByID(context.Background(), u.ID)
	if err != nil {
		panic(err)
	}
	return u
}

func TestEmptyToken(t *testing.T) {
	suite := setupSuite()
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: ""})

	require.ErrorIs(t, err, user.ErrInvalidResetToken)
}

func TestUnknownToken(t *testing.T) {
	suite := setupSuite()
	suite.addUserWithToken(NOW, true)
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: "other-token"})

	require.ErrorIs(t, err, user.ErrInvalidResetToken)
	require.False(t, suite.unitOfWork.Context.WasCommitCalled)
}

func TestExpiredToken(t *testing.T) {
	suite := setupSuite()
	u := suite.addUserWithToken(NOW.Add(-RESET_WINDOW-time.Second), true)
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.ErrorIs(t, err, user.ErrInvalidResetToken)
	require.False(t, suite.unitOfWork.Context.WasCommitCalled)

	// The expired token stays in place, it is not consumed.
	stored, repoErr := suite.userRepo().GetByID(context.Background(), u.ID)
	require.NoError(t, repoErr)
	require.True(t, stored.ResetTokenDigest.IsPresent)
}

func TestTokenAtWindowBoundaryStillValid(t *testing.T) {
	suite := setupSuite()
	suite.addUserWithToken(NOW.Add(-RESET_WINDOW), true)
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.NoError(t, err)
}

func TestSuccess(t *testing.T) {
	suite := setupSuite()
	u := suite.addUserWithToken(NOW.Add(-time.Hour), true)

	var hookedUser user.User
	hook := func(ctx context.Context, hu user.User) { hookedUser = hu }
	service := suite.createService(user.Capabilities{}, hook)

	result, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.NoError(t, err)
	require.True(t, suite.unitOfWork.Context.WasCommitCalled)
	require.Equal(t, u.ID, result.User.ID)
	require.Equal(t, u.ID, hookedUser.ID)

	require.NotEmpty(t, result.Token.ClientID)
	require.NotEmpty(t, result.Token.Plaintext)
	require.Equal(t, NOW.Add(TOKEN_LIFESPAN), result.Token.ExpiresAt)

	stored, err := suite.userRepo().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.False(t, stored.ResetTokenDigest.IsPresent)
	require.True(t, stored.AllowPasswordChange)

	clientToken, ok := stored.Tokens[result.Token.ClientID]
	require.True(t, ok)
	require.Equal(t, result.Token.TokenHash, clientToken.TokenHash)
	require.Equal(t, result.Token.ExpiresAt.Unix(), clientToken.ExpiresAt)
	require.True(t, suite.tokenIssuer.ValidateToken(result.Token.Plaintext, clientToken))
}

func TestSuccessKeepsExistingClientTokens(t *testing.T) {
	suite := setupSuite()
	u := suite.addUserWithToken(NOW, true)
	existing := user.ClientToken{TokenHash: "existing-hash", ExpiresAt: NOW.Unix()}
	_, err := suite.userRepo().Update(context.Background(), user.UpdateUserInput{
		ID:             u.ID,
		DoTokensUpdate: true,
		Tokens:         user.TokenMap{"existing-client": existing},
	})
	require.NoError(t, err)

	service := suite.createService(user.Capabilities{}, nil)

	result, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.NoError(t, err)
	stored, err := suite.userRepo().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, stored.Tokens, 2)
	require.Equal(t, existing, stored.Tokens["existing-client"])
	require.NotEqual(t, user.ClientID("existing-client"), result.Token.ClientID)
}

func TestConfirmableMarksUnconfirmedUser(t *testing.T) {
	cases := []struct {
		id                string
		caps              user.Capabilities
		confirmed         bool
		expectConfirmedAt bool
	}{
		{
			id:                "confirmable and unconfirmed",
			caps:              user.Capabilities{Confirmable: true},
			confirmed:         false,
			expectConfirmedAt: true,
		},
		{
			id:                "confirmable and already confirmed",
			caps:              user.Capabilities{Confirmable: true},
			confirmed:         true,
			expectConfirmedAt: true,
		},
		{
			id:                "not confirmable",
			caps:              user.Capabilities{},
			confirmed:         false,
			expectConfirmedAt: false,
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			suite := setupSuite()
			u := suite.addUserWithToken(NOW, testcase.confirmed)
			service := suite.createService(testcase.caps, nil)

			_, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

			require.NoError(t, err)
			stored, repoErr := suite.userRepo().GetByID(context.Background(), u.ID)
			require.NoError(t, repoErr)
			require.Equal(t, testcase.expectConfirmedAt, stored.ConfirmedAt.IsPresent)
		})
	}
}

func TestTokenIssuerError(t *testing.T) {
	suite := setupSuite()
	suite.addUserWithToken(NOW, true)
	suite.tokenIssuer.ReturnError = true
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.Error(t, err)
	require.False(t, suite.unitOfWork.Context.WasCommitCalled)
	require.True(t, suite.unitOfWork.Context.WasRollbackCalled)
}

func TestCommitError(t *testing.T) {
	suite := setupSuite()
	suite.addUserWithToken(NOW, true)
	suite.unitOfWork.Context.CommitError = context.DeadlineExceeded
	service := suite.createService(user.Capabilities{}, nil)

	_, err := service.Run(context.Background(), Input{Token: RESET_TOKEN})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}
