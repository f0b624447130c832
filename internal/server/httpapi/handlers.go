package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/server/services"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"adminSecret"`
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// otpValue accepts the code as a JSON string or a JSON number.
type otpValue string

func (o *otpValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = otpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = otpValue(n.String())
	return nil
}

type verifyEmailRequest struct {
	Email string   `json:"email"`
	OTP   otpValue `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email              string   `json:"email"`
	OTP                otpValue `json:"otp"`
	NewPassword        string   `json:"newPassword"`
	ConfirmNewPassword string   `json:"confirmNewPassword"`
}

type updatePasswordRequest struct {
	OldPassword        string `json:"oldPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: msgInvalidBody})
		return false
	}
	return true
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	account, err := s.accounts.Register(r.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Verification code sent to " + account.Email + ".",
	})
}

func (s *HTTPServer) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.accounts.VerifyEmail(r.Context(), req.Email, string(req.OTP)); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Email verified successfully!"})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	account, token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Logged in successfully.",
		User:    newUserView(account),
	})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Logged out successfully."})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	writeJSON(w, http.StatusOK, response{Success: true, User: newUserView(account)})
}

func (s *HTTPServer) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Password reset code sent to your email."})
}

func (s *HTTPServer) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.accounts.ResetPassword(r.Context(), services.ResetPasswordInput{
		Email:              req.Email,
		OTP:                string(req.OTP),
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Password Reset Successfully. Please Login."})
}

func (s *HTTPServer) updatePassword(w http.ResponseWriter, r *http.Request) {
	current, ok := accountFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.NewError(common.ErrorUnauthorized, services.MsgLoginRequired))
		return
	}

	var req updatePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	account, token, err := s.accounts.UpdatePassword(r.Context(), current.ID, services.UpdatePasswordInput{
		OldPassword:        req.OldPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Password Updated Successfully",
		User:    newUserView(account),
	})
}
