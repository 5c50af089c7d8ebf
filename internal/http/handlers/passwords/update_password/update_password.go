package updatepassword

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	service "passgate/internal/core/services/update_password"
	"passgate/internal/http/handlers/messages"
	"passgate/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Handler struct {
	service services.Service[service.Input, service.Result]
}

func New(service services.Service[service.Input, service.Result]) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CurrentPassword      string `json:"current_password"`
}

func (i *Input) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Password, validation.Length(0, 512)),
		validation.Field(&i.PasswordConfirmation, validation.Length(0, 512)),
		validation.Field(&i.CurrentPassword, validation.Length(0, 512)),
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
			Password:             user.RawPassword(input.Password),
			PasswordConfirmation: user.RawPassword(input.PasswordConfirmation),
			CurrentPassword:      user.RawPassword(input.CurrentPassword),
		},
	)
	if err != nil {
		h.renderError(rw, err)
		return
	}

	data := response.User{}
	data.FromDomainUser(result.User)
	response.RenderSuccess(rw, &data, messages.SuccessfullyUpdated, http.StatusOK)
}

func (h *Handler) renderError(rw http.ResponseWriter, err error) {
	var notRequired *user.PasswordNotRequiredError
	var validationErr *user.ValidationError

	switch {
	case errors.Is(err, user.ErrUnauthorized):
		response.RenderUnauthorized(rw)
	case errors.As(err, &notRequired):
		response.RenderErrors(
			rw,
			[]string{messages.PasswordNotRequiredFor(string(notRequired.Provider))},
			http.StatusUnprocessableEntity,
		)
	case errors.Is(err, user.ErrMissingPassword):
		response.RenderErrors(rw, []string{messages.MissingPasswords}, http.StatusUnprocessableEntity)
	case errors.As(err, &validationErr):
		response.RenderErrors(rw, validationErr.FullMessages(), http.StatusUnprocessableEntity)
	default:
		response.RenderInternalError(rw)
	}
}
