// Package httpapi exposes the account service over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/server/config"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
	"github.com/dmitrijs2005/elibrary/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// AccountService is the part of services.AccountService the API uses.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	VerifyEmail(ctx context.Context, email, otp string) error
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	Authenticate(ctx context.Context, token string) (*models.Account, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
	UpdatePassword(ctx context.Context, accountID string, in services.UpdatePasswordInput) (*models.Account, string, error)
}

type HTTPServer struct {
	address      string
	accounts     AccountService
	logger       logging.Logger
	frontendURL  string
	cookieExpire time.Duration
	cookieSecure bool
}

func NewHTTPServer(l logging.Logger, as AccountService, cfg *config.Config) *HTTPServer {
	return &HTTPServer{
		address:      cfg.EndpointAddrHTTP,
		logger:       l.With("module", "http_server"),
		accounts:     as,
		frontendURL:  cfg.FrontendURL,
		cookieExpire: cfg.CookieExpire,
		cookieSecure: cfg.CookieSecure,
	}
}

// Router builds the route tree.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLogger())
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("The server is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	})

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/verify-email", s.verifyEmail)
		r.Post("/login", s.login)
		r.Post("/password/forgot", s.forgotPassword)
		r.Put("/password/reset", s.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)
			r.Get("/logout", s.logout)
			r.Get("/me", s.me)
			r.Put("/password/update", s.updatePassword)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns
// once in-flight requests have drained or the shutdown timeout has passed.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *HTTPServer) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if shutdownErr != nil {
		s.logger.Error(ctx, "shutdown error", "error", shutdownErr)
		return shutdownErr
	}

	return nil
}
