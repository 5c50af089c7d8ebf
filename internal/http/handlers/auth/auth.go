package auth

import (
	"context"
	"net/http"
	c "passgate/internal/core/domain/common"
	"passgate/internal/core/domain/user"
	"passgate/internal/core/services/auth"
)

const (
	UID_HEADER          = "uid"
	CLIENT_HEADER       = "client"
	ACCESS_TOKEN_HEADER = "access-token"

	HEADER_MAX_LEN = 1024
)

// ParseCredentials reads the uid/client/access-token header triple.
// All three must be present for the request to count as authenticated.
func ParseCredentials(r *http.Request) (creds auth.Credentials, ok bool) {
	uid := r.Header.Get(UID_HEADER)
	clientID := r.Header.Get(CLIENT_HEADER)
	accessToken := r.Header.Get(ACCESS_TOKEN_HEADER)
	if uid == "" || clientID == "" || accessToken == "" {
		return creds, false
	}
	if len(uid) > HEADER_MAX_LEN || len(clientID) > HEADER_MAX_LEN || len(accessToken) > HEADER_MAX_LEN {
		return creds, false
	}
	return auth.Credentials{
		UID:         c.NewEmail(uid),
		ClientID:    user.ClientID(clientID),
		AccessToken: accessToken,
	}, true
}

func SetAuthCredentialsToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, ok := ParseCredentials(r)
		if ok {
			ctx := context.WithValue(r.Context(), auth.CONTEXT_AUTH_CREDENTIALS_KEY, creds)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
