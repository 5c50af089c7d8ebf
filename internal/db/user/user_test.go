package user

import (
	"context"
	c "passgate/internal/core/domain/common"
	"passgate/internal/core/domain/user"
	"passgate/internal/db"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/suite"
)

const (
	EMAIL         = "test@test.test"
	PASSWORD_HASH = "test-password-hash"
	RESET_DIGEST  = "test-reset-digest"
)

var NOW time.Time = time.Date(2023, 2, 2, 10, 30, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo *PgxUserRepository
}

func (suite *testSuite) SetupSuite() {
	suite.pool = db.CreateTestPool(suite.T())
	suite.repo = NewPgxRepository(suite.pool)
}

func (suite *testSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *testSuite) TearDownTest() {
	db.TruncateTables(suite.pool)
}

func TestPgxUserRepository(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) createUser(email string, provider user.Provider) user.User {
	u, err := suite.repo.Create(context.Background(), user.CreateUserInput{
		Email:        c.NewOptional(c.NewEmail(email), true),
		PasswordHash: c.NewOptional(user.PasswordHash(PASSWORD_HASH), true),
		Provider:     provider,
		CreatedAt:    NOW,
	})
	suite.Require().Nil(err)
	return u
}

func (suite *testSuite) TestCreateSuccess() {
	input := user.CreateUserInput{
		Email:        c.NewOptional(c.NewEmail(EMAIL), true),
		PasswordHash: c.NewOptional(user.PasswordHash(PASSWORD_HASH), true),
		Provider:     user.ProviderEmail,
		ConfirmedAt:  c.NewOptional(NOW, true),
		CreatedAt:    NOW,
	}

	u, err := suite.repo.Create(context.Background(), input)

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(input.Email, u.Email)
	assert.Equal(input.PasswordHash, u.PasswordHash)
	assert.Equal(user.ProviderEmail, u.Provider)
	assert.True(input.CreatedAt.Equal(u.CreatedAt))
	assert.True(u.ConfirmedAt.IsPresent)
	assert.False(u.AllowPasswordChange)
	assert.NotNil(u.Tokens)
	assert.Len(u.Tokens, 0)
}

func (suite *testSuite) TestEmailAlreadyExistsError() {
	suite.createUser(EMAIL, user.ProviderEmail)

	_, err := suite.repo.Create(context.Background(), user.CreateUserInput{
		Email:     c.NewOptional(c.NewEmail("TEST@test.test"), true),
		Provider:  user.ProviderEmail,
		CreatedAt: NOW,
	})

	suite.Require().ErrorIs(err, user.ErrEmailAlreadyExists)
}

func (suite *testSuite) TestSameEmailDifferentProvider() {
	suite.createUser(EMAIL, user.ProviderEmail)

	_, err := suite.repo.Create(context.Background(), user.CreateUserInput{
		Email:     c.NewOptional(c.NewEmail(EMAIL), true),
		Provider:  user.Provider("github"),
		CreatedAt: NOW,
	})

	suite.Require().Nil(err)
}

func (suite *testSuite) TestGetByEmail() {
	created := suite.createUser(EMAIL, user.ProviderEmail)

	cases := []struct {
		id    string
		input user.GetByEmailInput
		found bool
	}{
		{
			id:    "exact match",
			input: user.GetByEmailInput{Email: c.Email(EMAIL)},
			found: true,
		},
		{
			id:    "case folded match",
			input: user.GetByEmailInput{Email: c.Email("TEST@Test.test")},
			found: true,
		},
		{
			id: "case folded match rejected when forced sensitive",
			input: user.GetByEmailInput{
				Email:              c.Email("TEST@Test.test"),
				ForceCaseSensitive: true,
			},
			found: false,
		},
		{
			id: "provider match",
			input: user.GetByEmailInput{
				Email:    c.Email(EMAIL),
				Provider: c.NewOptional(user.ProviderEmail, true),
			},
			found: true,
		},
		{
			id: "provider mismatch",
			input: user.GetByEmailInput{
				Email:    c.Email(EMAIL),
				Provider: c.NewOptional(user.Provider("github"), true),
			},
			found: false,
		},
		{
			id:    "unknown email",
			input: user.GetByEmailInput{Email: c.Email("other@test.test")},
			found: false,
		},
	}

	for _, testcase := range cases {
		suite.Run(testcase.id, func() {
			u, err := suite.repo.GetByEmail(context.Background(), testcase.input)

			if testcase.found {
				suite.Require().Nil(err)
				suite.Require().Equal(created.ID, u.ID)
				return
			}
			suite.Require().ErrorIs(err, user.ErrUserDoesNotExist)
		})
	}
}

func (suite *testSuite) TestSetAndGetByResetTokenDigest() {
	created := suite.createUser(EMAIL, user.ProviderEmail)

	err := suite.repo.SetResetToken(
		context.Background(),
		created.ID,
		user.ResetTokenDigest(RESET_DIGEST),
		NOW,
	)
	suite.Require().Nil(err)

	u, err := suite.repo.GetByResetTokenDigest(context.Background(), user.ResetTokenDigest(RESET_DIGEST))

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(created.ID, u.ID)
	assert.True(u.ResetSentAt.IsPresent)
	assert.True(NOW.Equal(u.ResetSentAt.Value))
}

func (suite *testSuite) TestSetResetTokenUnknownUser() {
	err := suite.repo.SetResetToken(
		context.Background(),
		user.ID(12345),
		user.ResetTokenDigest(RESET_DIGEST),
		NOW,
	)

	suite.Require().ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestConsumeResetTokenIsSingleUse() {
	created := suite.createUser(EMAIL, user.ProviderEmail)
	err := suite.repo.SetResetToken(
		context.Background(),
		created.ID,
		user.ResetTokenDigest(RESET_DIGEST),
		NOW,
	)
	suite.Require().Nil(err)

	u, err := suite.repo.ConsumeResetToken(context.Background(), user.ResetTokenDigest(RESET_DIGEST))

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(created.ID, u.ID)
	assert.False(u.ResetTokenDigest.IsPresent)
	assert.False(u.ResetSentAt.IsPresent)

	_, err = suite.repo.ConsumeResetToken(context.Background(), user.ResetTokenDigest(RESET_DIGEST))
	assert.ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestUpdate() {
	created := suite.createUser(EMAIL, user.ProviderEmail)
	tokens := user.TokenMap{
		"test-client": {TokenHash: "test-hash", ExpiresAt: NOW.Unix()},
	}

	u, err := suite.repo.Update(context.Background(), user.UpdateUserInput{
		ID:                          created.ID,
		DoTokensUpdate:              true,
		Tokens:                      tokens,
		DoAllowPasswordChangeUpdate: true,
		AllowPasswordChange:         true,
		DoConfirmedAtUpdate:         true,
		ConfirmedAt:                 c.NewOptional(NOW, true),
	})

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(tokens, u.Tokens)
	assert.True(u.AllowPasswordChange)
	assert.True(u.ConfirmedAt.IsPresent)

	stored, err := suite.repo.GetByID(context.Background(), created.ID)
	assert.Nil(err)
	assert.Equal(tokens, stored.Tokens)
	assert.True(stored.AllowPasswordChange)
}

func (suite *testSuite) TestUpdateOnlyFlaggedFields() {
	created := suite.createUser(EMAIL, user.ProviderEmail)

	u, err := suite.repo.Update(context.Background(), user.UpdateUserInput{
		ID:                          created.ID,
		DoAllowPasswordChangeUpdate: true,
		AllowPasswordChange:         true,
	})

	assert := suite.Require()
	assert.Nil(err)
	assert.True(u.AllowPasswordChange)
	assert.Len(u.Tokens, 0)
	assert.False(u.ConfirmedAt.IsPresent)
}

func (suite *testSuite) TestSetPassword() {
	created := suite.createUser(EMAIL, user.ProviderEmail)

	err := suite.repo.SetPassword(context.Background(), created.ID, user.PasswordHash("new-hash"))
	suite.Require().Nil(err)

	stored, err := suite.repo.GetByID(context.Background(), created.ID)
	suite.Require().Nil(err)
	suite.Require().Equal(user.PasswordHash("new-hash"), stored.PasswordHash.Value)
}

func (suite *testSuite) TestSetAllowPasswordChange() {
	created := suite.createUser(EMAIL, user.ProviderEmail)

	err := suite.repo.SetAllowPasswordChange(context.Background(), created.ID, true)
	suite.Require().Nil(err)

	stored, err := suite.repo.GetByID(context.Background(), created.ID)
	suite.Require().Nil(err)
	suite.Require().True(stored.AllowPasswordChange)

	err = suite.repo.SetAllowPasswordChange(context.Background(), created.ID, false)
	suite.Require().Nil(err)

	stored, err = suite.repo.GetByID(context.Background(), created.ID)
	suite.Require().Nil(err)
	suite.Require().False(stored.AllowPasswordChange)
}
