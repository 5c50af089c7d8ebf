package confirmreset

import (
	"errors"
	"net/http"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services"
	service "passgate/internal/core/services/confirm_reset"
	"passgate/internal/http/handlers/messages"
	"passgate/internal/http/handlers/response"
)

const TOKEN_QUERY_PARAM = "reset_password_token"

type Handler struct {
	service services.Service[service.Input, service.Result]
}

func New(service services.Service[service.Input, service.Result]) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type successData struct {
	response.User
	ResetPassword bool   `json:"reset_password"`
	Token         string `json:"token"`
	ClientID      string `json:"client_id"`
	Expiry        int64  `json:"expiry"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(TOKEN_QUERY_PARAM)

	result, err := h.service.Run(r.Context(), service.Input{Token: user.RawResetToken(token)})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidResetToken):
			response.RenderErrors(rw, []string{messages.InvalidResetToken}, http.StatusUnauthorized)
		case errors.Is(err, user.ErrUserDoesNotExist):
			response.RenderErrors(rw, []string{messages.NotFound}, http.StatusNotFound)
		default:
			response.RenderInternalError(rw)
		}
		return
	}

	data := successData{
		ResetPassword: true,
		Token:         result.Token.Plaintext,
		ClientID:      string(result.Token.ClientID),
		Expiry:        result.Token.ExpiresAt.Unix(),
	}
	data.FromDomainUser(result.User)
	response.RenderSuccess(rw, &data, "", http.StatusOK)
}
