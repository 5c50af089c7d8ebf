package response

import (
	"encoding/json"
	"net/http"
)

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors"`
}

func RenderSuccess(rw http.ResponseWriter, data interface{}, message string, status int) {
	Render(rw, successResponse{Success: true, Data: data, Message: message}, status)
}

func RenderErrors(rw http.ResponseWriter, errs []string, status int) {
	Render(rw, errorResponse{Success: false, Errors: errs}, status)
}

func RenderError(rw http.ResponseWriter, msg string, status int) {
	RenderErrors(rw, []string{msg}, status)
}

// RenderErrorsWithData is for rejections that still include resource
// data, such as a disallowed redirect URL for a known account.
func RenderErrorsWithData(rw http.ResponseWriter, data interface{}, errs []string, status int) {
	Render(rw, errorResponse{Success: false, Data: data, Errors: errs}, status)
}

func RenderUnauthorized(rw http.ResponseWriter) {
	RenderError(rw, "Unauthorized", http.StatusUnauthorized)
}

func RenderInternalError(rw http.ResponseWriter) {
	RenderError(rw, "internal error", http.StatusInternalServerError)
}

func RenderRateLimitExceeded(rw http.ResponseWriter) {
	RenderError(rw, "rate limit exceeded", http.StatusTooManyRequests)
}

func Render(rw http.ResponseWriter, res interface{}, status int) {
	rw.Header().Set("Content-Type", "application/json")

	content, err := json.Marshal(res)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(status)
	rw.Write(content)
}
