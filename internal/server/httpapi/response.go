package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
	"github.com/dmitrijs2005/elibrary/internal/server/services"
)

const msgInvalidBody = "Invalid request body"

type response struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	User    *userView `json:"user,omitempty"`
}

// userView is the account as the frontend sees it.
type userView struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Role            models.Role         `json:"role"`
	Capabilities    []models.Capability `json:"capabilities"`
	AccountVerified bool                `json:"accountVerified"`
	BorrowedBooks   []string            `json:"borrowedBooks"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func newUserView(a *models.Account) *userView {
	books := a.BorrowedBooks
	if books == nil {
		books = []string{}
	}
	return &userView{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Role:            a.Role,
		Capabilities:    a.Role.Capabilities(),
		AccountVerified: a.AccountVerified,
		BorrowedBooks:   books,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status. A *common.Error is
// mapped by its Kind alone so that its cause cannot change the status.
func statusFor(err error) int {
	var ce *common.Error
	if errors.As(err, &ce) {
		err = ce.Kind
	}

	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {success:false,message}. Server-side failures
// are logged with their cause.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	message := services.MsgInternal
	var ce *common.Error
	if errors.As(err, &ce) {
		message = ce.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, response{Success: false, Message: message})
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cookieExpire),
		MaxAge:   int(s.cookieExpire / time.Second),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
