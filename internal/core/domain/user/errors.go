package user

import (
	"errors"
	"fmt"
	c "passgate/internal/core/domain/common"
	"strings"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserDoesNotExist   = errors.New("user does not exist")
	ErrMissingEmail       = errors.New("email is missing")
	ErrMissingRedirectURL = errors.New("redirect URL is missing")
	ErrNoPasswordSet      = errors.New("user has no password set")
	ErrInvalidResetToken  = errors.New("reset password token is invalid or expired")
	ErrMissingPassword    = errors.New("password or password confirmation is missing")
	ErrUnauthorized       = errors.New("unauthorized")
)

// RedirectNotAllowedError carries the rejected URL and, when the email
// matched an account, that account, so the error payload can still
// include resource data.
type RedirectNotAllowedError struct {
	RedirectURL string
	User        c.Optional[User]
}

func (e *RedirectNotAllowedError) Error() string {
	return fmt.Sprintf("redirect to %q is not allowed", e.RedirectURL)
}

// PasswordNotRequiredError signals an external-provider account with no
// local password to update.
type PasswordNotRequiredError struct {
	Provider Provider
}

func (e *PasswordNotRequiredError) Error() string {
	return fmt.Sprintf("provider %q account does not require a password", e.Provider)
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationError is the store's validation-error collection. Handlers
// surface it verbatim instead of replacing it with a generic message.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// FullMessages renders the collection the way the response payload
// expects it, one human-readable message per field error.
func (e *ValidationError) FullMessages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		field := strings.ReplaceAll(fe.Field, "_", " ")
		if field != "" {
			field = strings.ToUpper(field[:1]) + field[1:]
		}
		msgs = append(msgs, fmt.Sprintf("%s %s", field, fe.Message))
	}
	return msgs
}
