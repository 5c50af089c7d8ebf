package auth

import (
	"context"
	c "passgate/internal/core/domain/common"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const EMAIL = "test@test.test"

var NOW = time.Date(2023, 2, 2, 10, 30, 0, 0, time.UTC)

type testInput struct {
	User user.User
}

func (i testInput) WithAuthenticatedUser(u user.User) Input {
	i.User = u
	return i
}

type stubService struct {
	WasRun    bool
	LastInput testInput
}

func (s *stubService) Run(ctx context.Context, input testInput) (result struct{}, err error) {
	s.WasRun = true
	s.LastInput = input
	return result, nil
}

type testSuite struct {
	userRepo    *user.FakeUserRepository
	tokenIssuer *user.FakeClientTokenIssuer
	inner       *stubService
}

func setupSuite() *testSuite {
	return &testSuite{
		userRepo:    user.NewFakeUserRepository(),
		tokenIssuer: user.NewFakeClientTokenIssuer(24 * time.Hour),
		inner:       &stubService{},
	}
}

func (s *testSuite) addUserWithToken(issuedAt time.Time) (user.User, user.IssuedToken) {
	u, err := s.userRepo.Create(context.Background(), user.CreateUserInput{
		Email:     c.NewOptional(c.NewEmail(EMAIL), true),
		Provider:  user.ProviderEmail,
		CreatedAt: NOW,
	})
	if err != nil {
		panic(err)
	}
	issued, err := s.tokenIssuer.IssueToken(issuedAt)
	if err != nil {
		panic(err)
	}
	tokens := user.TokenMap{
		issued.ClientID: {TokenHash: issued.TokenHash, ExpiresAt: issued.ExpiresAt.Unix()},
	}
	u, err = s.userRepo.Update(context.Background(), user.UpdateUserInput{
		ID:             u.ID,
		DoTokensUpdate: true,
		Tokens:         tokens,
	})
	if err != nil {
		panic(err)
	}
	return u, issued
}

func (s *testSuite) createService(caps user.Capabilities) services.Service[testInput, struct{}] {
	return WithAuthentication[testInput, struct{}](
		s.userRepo,
		s.tokenIssuer,
		caps,
		func() time.Time { return NOW },
		s.inner,
	)
}

func contextWithCredentials(creds Credentials) context.Context {
	return context.WithValue(context.Background(), CONTEXT_AUTH_CREDENTIALS_KEY, creds)
}

func TestNoCredentialsInContext(t *testing.T) {
	suite := setupSuite()
	suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	_, err := service.Run(context.Background(), testInput{})

	require.ErrorIs(t, err, user.ErrUnauthorized)
	require.False(t, suite.inner.WasRun)
}

func TestUnknownUID(t *testing.T) {
	suite := setupSuite()
	_, issued := suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail("unknown@test.test"),
		ClientID:    issued.ClientID,
		AccessToken: issued.Plaintext,
	})
	_, err := service.Run(ctx, testInput{})

	require.ErrorIs(t, err, user.ErrUnauthorized)
	require.False(t, suite.inner.WasRun)
}

func TestUnknownClientID(t *testing.T) {
	suite := setupSuite()
	_, issued := suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail(EMAIL),
		ClientID:    "other-client",
		AccessToken: issued.Plaintext,
	})
	_, err := service.Run(ctx, testInput{})

	require.ErrorIs(t, err, user.ErrUnauthorized)
	require.False(t, suite.inner.WasRun)
}

func TestExpiredToken(t *testing.T) {
	suite := setupSuite()
	_, issued := suite.addUserWithToken(NOW.Add(-48 * time.Hour))
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail(EMAIL),
		ClientID:    issued.ClientID,
		AccessToken: issued.Plaintext,
	})
	_, err := service.Run(ctx, testInput{})

	require.ErrorIs(t, err, user.ErrUnauthorized)
	require.False(t, suite.inner.WasRun)
}

func TestTokenHashMismatch(t *testing.T) {
	suite := setupSuite()
	_, issued := suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail(EMAIL),
		ClientID:    issued.ClientID,
		AccessToken: "wrong-token",
	})
	_, err := service.Run(ctx, testInput{})

	require.ErrorIs(t, err, user.ErrUnauthorized)
	require.False(t, suite.inner.WasRun)
}

func TestExternalProviderRowDoesNotShadowEmailAccount(t *testing.T) {
	suite := setupSuite()
	// The external account shares the email and has a lower id, so an
	// unconstrained lookup would resolve it instead of the account that
	// holds the token map.
	_, err := suite.userRepo.Create(context.Background(), user.CreateUserInput{
		Email:     c.NewOptional(c.NewEmail(EMAIL), true),
		Provider:  user.Provider("github"),
		CreatedAt: NOW,
	})
	require.NoError(t, err)
	u, issued := suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail(EMAIL),
		ClientID:    issued.ClientID,
		AccessToken: issued.Plaintext,
	})
	_, err = service.Run(ctx, testInput{})

	require.NoError(t, err)
	require.True(t, suite.inner.WasRun)
	require.Equal(t, u.ID, suite.inner.LastInput.User.ID)
	require.Equal(t, user.ProviderEmail, suite.inner.LastInput.User.Provider)
}

func TestCaseInsensitiveEmailNormalizedForLookup(t *testing.T) {
	suite := setupSuite()
	_, issued := suite.addUserWithToken(NOW)
	// The collation flag forces an exact match, so the lookup only
	// succeeds if the uid is folded to lower case first.
	service := suite.createService(user.Capabilities{
		CaseInsensitiveEmail:     true,
		CaseInsensitiveCollation: true,
	})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail("TEST@test.test"),
		ClientID:    issued.ClientID,
		AccessToken: issued.Plaintext,
	})
	_, err := service.Run(ctx, testInput{})

	require.NoError(t, err)
	require.True(t, suite.inner.WasRun)
}

func TestAuthenticatedUserPassedToInner(t *testing.T) {
	suite := setupSuite()
	u, issued := suite.addUserWithToken(NOW)
	service := suite.createService(user.Capabilities{})

	ctx := contextWithCredentials(Credentials{
		UID:         c.NewEmail(EMAIL),
		ClientID:    issued.ClientID,
		AccessToken: issued.Plaintext,
	})
	_, err := service.Run(ctx, testInput{})

	require.NoError(t, err)
	require.True(t, suite.inner.WasRun)
	require.Equal(t, u.ID, suite.inner.LastInput.User.ID)
}
