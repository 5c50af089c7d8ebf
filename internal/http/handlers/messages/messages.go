// Package messages holds the user-facing strings of the password reset
// flow, kept together so wording changes do not touch handler logic.
package messages

import "fmt"

const (
	MissingEmail           = "You must provide an email address."
	MissingRedirectURL     = "Missing redirect URL."
	MissingPasswords       = "You must fill out the fields labeled 'Password' and 'Password confirmation'."
	PasswordNotRequired    = "This account does not require a password. Sign in using your '%s' account instead."
	InvalidResetToken      = "Reset password token is invalid"
	NotFound               = "Not Found"
	SuccessfullyUpdated    = "Your password has been successfully updated."
	SendInstructionsFormat = "An email has been sent to '%s' containing instructions for resetting your password."
	UserNotFoundFormat     = "Unable to find user with email '%s'."
	RedirectNotAllowed     = "Redirect to '%s' not allowed."
)

func SendInstructions(email string) string {
	return fmt.Sprintf(SendInstructionsFormat, email)
}

func UserNotFound(email string) string {
	return fmt.Sprintf(UserNotFoundFormat, email)
}

func NotAllowedRedirect(url string) string {
	return fmt.Sprintf(RedirectNotAllowed, url)
}

func PasswordNotRequiredFor(provider string) string {
	return fmt.Sprintf(PasswordNotRequired, provider)
}
