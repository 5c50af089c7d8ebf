package app

import (
	"fmt"
	"net/http"
	"passgate/internal/app/deps"
	"passgate/internal/app/services"
	"passgate/internal/http/handlers/auth"
	confirmreset "passgate/internal/http/handlers/passwords/confirm_reset"
	requestreset "passgate/internal/http/handlers/passwords/request_reset"
	updatepassword "passgate/internal/http/handlers/passwords/update_password"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	isTestMode := deps.Config.IsTestMode

	passwordRouter := chi.NewRouter()
	passwordRouter.Use(auth.SetAuthCredentialsToContext)
	passwordRouter.Method(http.MethodPost, "/reset", requestreset.New(s.RequestReset, isTestMode))
	passwordRouter.Method(http.MethodGet, "/edit", confirmreset.New(s.ConfirmReset))
	passwordRouter.Method(http.MethodPut, "/", updatepassword.New(s.UpdatePassword))

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Mount("/auth/password", passwordRouter)

	address := fmt.Sprintf("0.0.0.0:%d", deps.Config.Port)

	return &http.Server{
		Handler: router,
		Addr:    address,
	}
}
