package user

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	c "passgate/internal/core/domain/common"
	"strings"
	"sync"
	"time"
)

type FakePasswordHasher struct{}

func NewFakePasswordHasher() *FakePasswordHasher {
	return &FakePasswordHasher{}
}

func (h *FakePasswordHasher) HashPassword(password RawPassword) (PasswordHash, error) {
	hash := md5.New()
	io.WriteString(hash, string(password))
	return PasswordHash(fmt.Sprintf("%x", hash.Sum(nil))), nil
}

func (h *FakePasswordHasher) ValidatePassword(password RawPassword, hash PasswordHash) bool {
	actualHash, err := h.HashPassword(password)
	if err != nil {
		return false
	}
	return actualHash == hash
}

// FakeResetTokenizer digests by simple prefixing so tests can compute
// expected digests by hand.
type FakeResetTokenizer struct {
	Token RawResetToken
}

func NewFakeResetTokenizer(token string) *FakeResetTokenizer {
	return &FakeResetTokenizer{Token: RawResetToken(token)}
}

func (g *FakeResetTokenizer) GenerateResetToken() RawResetToken {
	return g.Token
}

func (g *FakeResetTokenizer) DigestResetToken(token RawResetToken) ResetTokenDigest {
	return ResetTokenDigest("digest::" + string(token))
}

type FakeClientTokenIssuer struct {
	Lifespan    time.Duration
	ReturnError bool
	counter     int
	lock        sync.Mutex
}

func NewFakeClientTokenIssuer(lifespan time.Duration) *FakeClientTokenIssuer {
	return &FakeClientTokenIssuer{Lifespan: lifespan}
}

func (i *FakeClientTokenIssuer) IssueToken(now time.Time) (token IssuedToken, err error) {
	if i.ReturnError {
		return token, fmt.Errorf("could not issue client token")
	}
	i.lock.Lock()
	defer i.lock.Unlock()
	i.counter++
	plaintext := fmt.Sprintf("plain-token-%d", i.counter)
	return IssuedToken{
		ClientID:  ClientID(fmt.Sprintf("client-%d", i.counter)),
		Plaintext: plaintext,
		TokenHash: "hash::" + plaintext,
		ExpiresAt: now.Add(i.Lifespan),
	}, nil
}

func (i *FakeClientTokenIssuer) ValidateToken(plaintext string, stored ClientToken) bool {
	return stored.TokenHash == "hash::"+plaintext
}

type FakeNotifier struct {
	Sent        []ResetRequest
	SentTokens  []RawResetToken
	ReturnError error
	lock        sync.Mutex
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (n *FakeNotifier) SendResetInstructions(
	ctx context.Context,
	u User,
	token RawResetToken,
	req ResetRequest,
) error {
	if n.ReturnError != nil {
		return n.ReturnError
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	n.Sent = append(n.Sent, req)
	n.SentTokens = append(n.SentTokens, token)
	return nil
}

func (n *FakeNotifier) SentCount() int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return len(n.Sent)
}

type FakeUserRepository struct {
	Users       []User
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{Users: make([]User, 0, 10)}
}

func (r *FakeUserRepository) Create(ctx context.Context, input CreateUserInput) (u User, err error) {
	if r.ReturnError {
		return u, fmt.Errorf("could not create user %v", input)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	maxID := ID(0)
	for _, u := range r.Users {
		if input.Email.IsPresent && u.Email == input.Email && u.Provider == input.Provider {
			return u, ErrEmailAlreadyExists
		}
		maxID = u.ID
	}
	u = User{
		ID:           maxID + 1,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Provider:     input.Provider,
		ConfirmedAt:  input.ConfirmedAt,
		CreatedAt:    input.CreatedAt,
		Tokens:       TokenMap{},
	}
	r.Users = append(r.Users, u)
	return u, nil
}

func (r *FakeUserRepository) GetByID(ctx context.Context, id ID) (u User, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, input GetByEmailInput) (u User, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if !u.Email.IsPresent {
			continue
		}
		if input.ForceCaseSensitive {
			if u.Email.Value != input.Email {
				continue
			}
		} else if !strings.EqualFold(string(u.Email.Value), string(input.Email)) {
			continue
		}
		if input.Provider.IsPresent && u.Provider != input.Provider.Value {
			continue
		}
		return u, nil
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) GetByResetTokenDigest(
	ctx context.Context,
	digest ResetTokenDigest,
) (u User, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.ResetTokenDigest.IsPresent && u.ResetTokenDigest.Value == digest {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) SetResetToken(
	ctx context.Context,
	id ID,
	digest ResetTokenDigest,
	sentAt time.Time,
) error {
	if r.ReturnError {
		return fmt.Errorf("could not set reset token for user %d", id)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == id {
			r.Users[ix].ResetTokenDigest = c.NewOptional(digest, true)
			r.Users[ix].ResetSentAt = c.NewOptional(sentAt, true)
			return nil
		}
	}
	return ErrUserDoesNotExist
}

func (r *FakeUserRepository) ConsumeResetToken(
	ctx context.Context,
	digest ResetTokenDigest,
) (u User, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ResetTokenDigest.IsPresent && u.ResetTokenDigest.Value == digest {
			r.Users[ix].ResetTokenDigest = c.NewOptional(ResetTokenDigest(""), false)
			r.Users[ix].ResetSentAt = c.NewOptional(time.Time{}, false)
			return r.Users[ix], nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) Update(ctx context.Context, input UpdateUserInput) (u User, err error) {
	if r.ReturnError {
		return u, fmt.Errorf("could not update user %d", input.ID)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == input.ID {
			if input.DoTokensUpdate {
				r.Users[ix].Tokens = input.Tokens
			}
			if input.DoAllowPasswordChangeUpdate {
				r.Users[ix].AllowPasswordChange = input.AllowPasswordChange
			}
			if input.DoConfirmedAtUpdate {
				r.Users[ix].ConfirmedAt = input.ConfirmedAt
			}
			return r.Users[ix], nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) SetPassword(ctx context.Context, id ID, password PasswordHash) error {
	if r.ReturnError {
		return fmt.Errorf("could not set password for user %d", id)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == id {
			r.Users[ix].PasswordHash = c.NewOptional(password, true)
			return nil
		}
	}
	return ErrUserDoesNotExist
}

func (r *FakeUserRepository) SetAllowPasswordChange(ctx context.Context, id ID, allow bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == id {
			r.Users[ix].AllowPasswordChange = allow
			return nil
		}
	}
	return ErrUserDoesNotExist
}
