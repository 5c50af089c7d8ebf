package uow

import (
	"context"
	"fmt"
	"passgate/internal/core/domain/user"
)

type FakeUnitOfWorkContext struct {
	UserRepository    *user.FakeUserRepository
	WasRollbackCalled bool
	WasCommitCalled   bool
	CommitError       error
}

func NewFakeUnitOfWorkContext(userRepository *user.FakeUserRepository) *FakeUnitOfWorkContext {
	return &FakeUnitOfWorkContext{UserRepository: userRepository}
}

func (c *FakeUnitOfWorkContext) Rollback(ctx context.Context) error {
	c.WasRollbackCalled = true
	return nil
}

func (c *FakeUnitOfWorkContext) Commit(ctx context.Context) error {
	if c.CommitError != nil {
		return c.CommitError
	}
	c.WasCommitCalled = true
	return nil
}

func (c *FakeUnitOfWorkContext) Users() user.UserRepository {
	return c.UserRepository
}

type FakeUnitOfWork struct {
	Context     *FakeUnitOfWorkContext
	ReturnError bool
}

func NewFakeUnitOfWork() *FakeUnitOfWork {
	return &FakeUnitOfWork{
		Context: NewFakeUnitOfWorkContext(user.NewFakeUserRepository()),
	}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) (Context, error) {
	if u.ReturnError {
		return nil, fmt.Errorf("could not begin unit of work")
	}
	return u.Context, nil
}
