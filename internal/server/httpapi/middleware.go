package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
	"github.com/dmitrijs2005/elibrary/internal/server/services"
	chilogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const accountKey ctxKey = "account"

func accountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(accountKey).(*models.Account)
	return a, ok
}

// authenticated resolves the session cookie to an account and stores it in
// the request context.
func (s *HTTPServer) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(common.SessionCookieName); err == nil {
			token = c.Value
		}

		account, err := s.accounts.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogger picks the request logger matching the configured backend.
func (s *HTTPServer) accessLogger() func(http.Handler) http.Handler {
	if l, ok := s.logger.(*logging.LogrusLogger); ok {
		return chilogger.Logger("router", l.FieldLogger())
	}
	return requestLogger(s.logger)
}

func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

var _ AccountService = (*services.AccountService)(nil)
