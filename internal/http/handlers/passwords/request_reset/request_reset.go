package requestreset

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "passgate/internal/core/domain/errors"
	ratelimiter "passgate/internal/core/domain/rate_limiter"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	service "passgate/internal/core/services/request_reset"
	"passgate/internal/http/handlers/messages"
	"passgate/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Handler struct {
	service    services.Service[service.Input, service.Result]
	isTestMode bool
}

func New(
	service services.Service[service.Input, service.Result],
	isTestMode bool,
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service, isTestMode: isTestMode}
}

type Input struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirect_url"`
	ConfigName  string `json:"config_name"`
}

func (i *Input) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(i)
}

// Presence checks stay in the service so their dedicated statuses are
// preserved; only size limits are enforced here.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Length(0, 512)),
		validation.Field(&i.RedirectURL, validation.Length(0, 2048)),
		validation.Field(&i.ConfigName, validation.Length(0, 128)),
	)
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderError(rw, "invalid request data", http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		response.Render(rw, err, http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(
		r.Context(),
		service.Input{
			Email:            input.Email,
			RedirectURL:      input.RedirectURL,
			ClientConfigName: input.ConfigName,
		},
	)
	if err != nil {
		h.renderError(rw, input, err)
		return
	}

	if h.isTestMode {
		rw.Header().Set("x-test-password-reset-token", string(result.Token))
	}

	email := input.Email
	if result.User.Email.IsPresent {
		email = string(result.User.Email.Value)
	}
	data := response.User{}
	data.FromDomainUser(result.User)
	response.RenderSuccess(rw, &data, messages.SendInstructions(email), http.StatusOK)
}

func (h *Handler) renderError(rw http.ResponseWriter, input Input, err error) {
	var notAllowed *user.RedirectNotAllowedError
	var validationErr *user.ValidationError

	switch {
	case errors.Is(err, user.ErrMissingEmail):
		response.RenderErrors(rw, []string{messages.MissingEmail}, http.StatusUnauthorized)
	case errors.Is(err, user.ErrMissingRedirectURL):
		response.RenderErrors(rw, []string{messages.MissingRedirectURL}, http.StatusUnauthorized)
	case errors.As(err, &notAllowed):
		errs := []string{messages.NotAllowedRedirect(notAllowed.RedirectURL)}
		if notAllowed.User.IsPresent {
			data := response.User{}
			data.FromDomainUser(notAllowed.User.Value)
			response.RenderErrorsWithData(rw, &data, errs, http.StatusUnprocessableEntity)
			return
		}
		response.RenderErrors(rw, errs, http.StatusUnprocessableEntity)
	case errors.Is(err, user.ErrUserDoesNotExist):
		response.RenderErrors(rw, []string{messages.UserNotFound(input.Email)}, http.StatusNotFound)
	case errors.Is(err, user.ErrNoPasswordSet):
		response.RenderErrors(rw, nil, http.StatusBadRequest)
	case errors.As(err, &validationErr):
		response.RenderErrors(rw, validationErr.FullMessages(), http.StatusBadRequest)
	case errors.Is(err, ratelimiter.ErrRateLimitExceeded):
		response.RenderRateLimitExceeded(rw)
	default:
		response.RenderInternalError(rw)
	}
}
