package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"passgate/internal/core/domain/user"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier sends reset instructions through Amazon SES. The message
// links to the token confirmation endpoint with the plaintext token and
// the validated redirect target in the query string.
type Notifier struct {
	ses *ses.Client
	// This address must be verified with Amazon SES.
	sender               string
	resetTemplate        string
	confirmationEndpoint url.URL
	defaultConfigName    string
}

func NewNotifier(
	awsConfig aws.Config,
	sender string,
	resetTemplate string,
	confirmationEndpoint url.URL,
) *Notifier {
	return &Notifier{
		ses:                  ses.NewFromConfig(awsConfig),
		sender:               sender,
		resetTemplate:        resetTemplate,
		confirmationEndpoint: confirmationEndpoint,
		defaultConfigName:    "default",
	}
}

func (n *Notifier) SendResetInstructions(
	ctx context.Context,
	u user.User,
	token user.RawResetToken,
	req user.ResetRequest,
) error {
	if !u.Email.IsPresent {
		return errors.New("user email is not defined")
	}

	templateParamsBytes, err := json.Marshal(
		resetTemplateParams{
			Email:    string(u.Email.Value),
			ResetUrl: n.buildResetUrl(token, req),
		},
	)
	if err != nil {
		return err
	}
	templateParams := string(templateParamsBytes)

	email := string(u.Email.Value)
	_, err = n.ses.SendTemplatedEmail(
		ctx,
		&ses.SendTemplatedEmailInput{
			Source: &n.sender,
			Destination: &types.Destination{
				CcAddresses: []string{},
				ToAddresses: []string{email},
			},
			Template:     &n.resetTemplate,
			TemplateData: &templateParams,
		},
	)
	return err
}

func (n *Notifier) buildResetUrl(token user.RawResetToken, req user.ResetRequest) string {
	resetUrl := n.confirmationEndpoint
	configName := req.ClientConfigName
	if configName == "" {
		configName = n.defaultConfigName
	}
	query := resetUrl.Query()
	query.Set("reset_password_token", string(token))
	query.Set("redirect_url", req.RedirectURL)
	query.Set("config", configName)
	resetUrl.RawQuery = query.Encode()
	return resetUrl.String()
}

type resetTemplateParams struct {
	Email    string `json:"email"`
	ResetUrl string `json:"resetUrl"`
}
