// Package services contains server-side business logic. This file implements
// AccountService: registration with emailed OTP verification, login, and the
// password reset and update flows.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/cryptox"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/server/auth"
	"github.com/dmitrijs2005/elibrary/internal/server/config"
	"github.com/dmitrijs2005/elibrary/internal/server/mailer"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/repomanager"
)

// Client-facing messages.
const (
	MsgMissingRegisterFields = "Please enter all Fields."
	MsgPasswordLength        = "Password must be between 8 and 16 Characters."
	MsgPasswordWeak          = "Password is too weak. Use a longer password with mixed character types."
	MsgInvalidEmail          = "Please enter a valid email address."
	MsgInvalidAdminSecret    = "Invalid admin secret."
	MsgAlreadyVerified       = "User already exists and is verified. Please Login."
	MsgTooManyAttempts       = "You have exceeded the number of registration attempts. Contact support."
	MsgVerificationMailFail  = "Failed to send verification email."
	MsgMissingOTPFields      = "Please enter OTP and Email"
	MsgNoPendingAccount      = "User not found or already verified"
	MsgInvalidOTP            = "Invalid or expired OTP"
	MsgMissingLoginFields    = "Please enter Email and Password"
	MsgInvalidCredentials    = "Invalid Email or Password"
	MsgMissingEmail          = "Please enter your Email"
	MsgUnknownEmail          = "User not found with this email."
	MsgResetMailFail         = "Failed to send reset email."
	MsgMissingFields         = "Please enter all fields"
	MsgPasswordsMismatch     = "Passwords do not match"
	MsgInvalidUser           = "Invalid User"
	MsgNewPasswordsMismatch  = "New passwords do not match"
	MsgOldPasswordIncorrect  = "Old Password is incorrect"
	MsgLoginRequired         = "Please login to access this resource"
	MsgInvalidToken          = "Json Web Token is invalid, Try again."
	MsgUserGone              = "User no longer exists"
	MsgDuplicate             = "Duplicate Field Value Entered"
	MsgInvalidID             = "Resource not found. Invalid: id"
	MsgInternal              = "Internal server error"
)

// Seams for tests.
var (
	generateCode  = cryptox.GenerateCode
	hashPassword  = cryptox.HashPassword
	generateToken = auth.GenerateToken
)

// dummyHash is compared against when the email is unknown so that login
// takes the same time either way.
var dummyHash = sync.OnceValue(func() string {
	h, _ := cryptox.HashPassword("not-a-real-password")
	return h
})

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	AdminSecret string
}

type ResetPasswordInput struct {
	Email              string
	OTP                string
	NewPassword        string
	ConfirmNewPassword string
}

type UpdatePasswordInput struct {
	OldPassword        string
	NewPassword        string
	ConfirmNewPassword string
}

// AccountService implements the account lifecycle. Every failure it returns
// is a *common.Error carrying the client-facing message.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	mailer      mailer.Sender
	logger      logging.Logger
	jwtSecret   []byte
	jwtExpire   time.Duration
	adminSecret string
	minEntropy  float64
	otpLifetime time.Duration
	now         func() time.Time
}

// NewAccountService constructs an AccountService using the repository
// manager, the code mailer and server config.
func NewAccountService(m repomanager.RepositoryManager, sender mailer.Sender, logger logging.Logger, cfg *config.Config) *AccountService {
	otpLifetime := cfg.OTPLifetime
	if otpLifetime <= 0 {
		otpLifetime = common.VerificationCodeLifetime
	}
	return &AccountService{
		repomanager: m,
		mailer:      sender,
		logger:      logger.With("component", "accounts"),
		jwtSecret:   []byte(cfg.SecretKey),
		jwtExpire:   cfg.JWTExpire,
		adminSecret: cfg.AdminSecret,
		minEntropy:  cfg.MinPasswordEntropy,
		otpLifetime: otpLifetime,
		now:         time.Now,
	}
}

// Register stores a pending account and emails its verification code.
// A new submission for an email with pending records reuses the most
// recent one. If the email cannot be sent the stored state is restored.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, common.NewError(common.ErrValidation, MsgMissingRegisterFields)
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, common.NewError(common.ErrValidation, MsgInvalidEmail)
	}

	role, err := s.roleFor(in.AdminSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts()

	if _, err := repo.FindVerifiedByEmail(ctx, email); err == nil {
		return nil, common.NewError(common.ErrConflict, MsgAlreadyVerified)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeError(err)
	}

	pending, err := repo.ListUnverifiedByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err)
	}

	attempts := 0
	for _, p := range pending {
		attempts += p.RegistrationAttempts
	}
	if attempts >= common.MaxUnverifiedAttempts {
		return nil, common.NewError(common.ErrTooManyAttempts, MsgTooManyAttempts)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, common.WrapError(common.ErrorInternal, MsgInternal, err)
	}
	code, err := generateCode()
	if err != nil {
		return nil, common.WrapError(common.ErrorInternal, MsgInternal, err)
	}
	expire := s.now().Add(s.otpLifetime)

	var (
		account  *models.Account
		snapshot *models.Account
	)

	if len(pending) > 0 {
		account = pending[0]
		snapshot = account.Clone()

		account.Name = name
		account.PasswordHash = hash
		account.Role = role
		account.VerificationCode = &code
		account.VerificationCodeExpire = &expire
		account.RegistrationAttempts++

		if err := repo.Update(ctx, account); err != nil {
			return nil, storeError(err)
		}
	} else {
		account, err = repo.Create(ctx, &models.Account{
			Name:                   name,
			Email:                  email,
			PasswordHash:           hash,
			Role:                   role,
			VerificationCode:       &code,
			VerificationCodeExpire: &expire,
			RegistrationAttempts:   1,
			BorrowedBooks:          []string{},
		})
		if err != nil {
			return nil, storeError(err)
		}
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		s.rollbackRegistration(ctx, repo, account, snapshot)
		return nil, common.WrapError(common.ErrDelivery, MsgVerificationMailFail, err)
	}

	s.logger.Info(ctx, "verification code sent", "account_id", account.ID, "attempts", account.RegistrationAttempts)

	return account, nil
}

// rollbackRegistration removes a freshly inserted record or restores the
// previous state of an updated one.
func (s *AccountService) rollbackRegistration(ctx context.Context, repo accounts.Repository, account, snapshot *models.Account) {
	var err error
	if snapshot == nil {
		err = repo.Delete(ctx, account.ID)
	} else {
		err = repo.Update(ctx, snapshot)
	}
	if err != nil {
		s.logger.Error(ctx, "registration rollback failed", "account_id", account.ID, "error", err)
	}
}

// VerifyEmail checks otp against the most recent pending record for email,
// marks it verified and drops the other pending records.
func (s *AccountService) VerifyEmail(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return common.NewError(common.ErrValidation, MsgMissingOTPFields)
	}

	pending, err := s.repomanager.Accounts().ListUnverifiedByEmail(ctx, email)
	if err != nil {
		return storeError(err)
	}
	if len(pending) == 0 {
		return common.NewError(common.ErrorNotFound, MsgNoPendingAccount)
	}

	account := pending[0]
	if !account.VerificationCodeValid(otp, s.now()) {
		return common.NewError(common.ErrValidation, MsgInvalidOTP)
	}

	account.AccountVerified = true
	account.VerificationCode = nil
	account.VerificationCodeExpire = nil

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		if err := repo.Update(ctx, account); err != nil {
			return err
		}
		for _, stale := range pending[1:] {
			if err := repo.Delete(ctx, stale.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeError(err)
	}

	s.logger.Info(ctx, "email verified", "account_id", account.ID, "stale_removed", len(pending)-1)

	return nil
}

// Login authenticates a verified account and returns it with a fresh
// session token. Unknown, unverified and wrong-password attempts fail the
// same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", common.NewError(common.ErrValidation, MsgMissingLoginFields)
	}

	account, err := s.repomanager.Accounts().FindVerifiedByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, "", storeError(err)
		}
		cryptox.CheckPassword(dummyHash(), password)
		return nil, "", common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
	}

	if !cryptox.CheckPassword(account.PasswordHash, password) {
		return nil, "", common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}

	return account, token, nil
}

// Authenticate resolves a session token to its account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, common.NewError(common.ErrorUnauthorized, MsgLoginRequired)
	}

	id, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.WrapError(common.ErrorUnauthorized, MsgInvalidToken, err)
	}

	return s.Profile(ctx, id)
}

// Profile returns the account with the given id.
func (s *AccountService) Profile(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repomanager.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgUserGone)
		}
		return nil, storeError(err)
	}
	return account, nil
}

// ForgotPassword sets a reset code on the account for email and mails it.
// The code is cleared again if the email cannot be sent.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return common.NewError(common.ErrValidation, MsgMissingEmail)
	}

	repo := s.repomanager.Accounts()

	account, err := s.findByEmail(ctx, repo, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUnknownEmail)
		}
		return storeError(err)
	}

	code, err := generateCode()
	if err != nil {
		return common.WrapError(common.ErrorInternal, MsgInternal, err)
	}
	expire := s.now().Add(s.otpLifetime)

	account.ResetPasswordToken = &code
	account.ResetPasswordExpire = &expire
	if err := repo.Update(ctx, account); err != nil {
		return storeError(err)
	}

	if err := s.mailer.SendPasswordResetCode(ctx, email, code); err != nil {
		account.ResetPasswordToken = nil
		account.ResetPasswordExpire = nil
		if rbErr := repo.Update(ctx, account); rbErr != nil {
			s.logger.Error(ctx, "reset token rollback failed", "account_id", account.ID, "error", rbErr)
		}
		return common.WrapError(common.ErrDelivery, MsgResetMailFail, err)
	}

	s.logger.Info(ctx, "reset code sent", "account_id", account.ID)

	return nil
}

// ResetPassword replaces the password of the account for in.Email when
// in.OTP matches its live reset code. Nothing is stored on failure.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email := normalizeEmail(in.Email)
	otp := strings.TrimSpace(in.OTP)
	if email == "" || otp == "" || in.NewPassword == "" || in.ConfirmNewPassword == "" {
		return common.NewError(common.ErrValidation, MsgMissingFields)
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return common.NewError(common.ErrValidation, MsgPasswordsMismatch)
	}
	if err := s.validatePassword(in.NewPassword); err != nil {
		return err
	}

	repo := s.repomanager.Accounts()

	account, err := s.findByEmail(ctx, repo, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrValidation, MsgInvalidUser)
		}
		return storeError(err)
	}

	if !account.ResetTokenValid(otp, s.now()) {
		return common.NewError(common.ErrValidation, MsgInvalidOTP)
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return common.WrapError(common.ErrorInternal, MsgInternal, err)
	}

	account.PasswordHash = hash
	account.ResetPasswordToken = nil
	account.ResetPasswordExpire = nil
	if err := repo.Update(ctx, account); err != nil {
		return storeError(err)
	}

	s.logger.Info(ctx, "password reset", "account_id", account.ID)

	return nil
}

// UpdatePassword changes the password of the signed-in account after
// checking the old one, and returns a fresh session token.
func (s *AccountService) UpdatePassword(ctx context.Context, accountID string, in UpdatePasswordInput) (*models.Account, string, error) {
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmNewPassword == "" {
		return nil, "", common.NewError(common.ErrValidation, MsgMissingFields)
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return nil, "", common.NewError(common.ErrValidation, MsgNewPasswordsMismatch)
	}
	if err := s.validatePassword(in.NewPassword); err != nil {
		return nil, "", err
	}

	account, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, "", err
	}

	if !cryptox.CheckPassword(account.PasswordHash, in.OldPassword) {
		return nil, "", common.NewError(common.ErrValidation, MsgOldPasswordIncorrect)
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return nil, "", common.WrapError(common.ErrorInternal, MsgInternal, err)
	}

	account.PasswordHash = hash
	if err := s.repomanager.Accounts().Update(ctx, account); err != nil {
		return nil, "", storeError(err)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info(ctx, "password updated", "account_id", account.ID)

	return account, token, nil
}

// --- helpers below ---

// findByEmail prefers the verified account and falls back to the most
// recent pending one.
func (s *AccountService) findByEmail(ctx context.Context, repo accounts.Repository, email string) (*models.Account, error) {
	account, err := repo.FindVerifiedByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	pending, err := repo.ListUnverifiedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, common.ErrorNotFound
	}
	return pending[0], nil
}

func (s *AccountService) roleFor(adminSecret string) (models.Role, error) {
	if adminSecret == "" {
		return models.RoleUser, nil
	}
	if s.adminSecret != "" && subtle.ConstantTimeCompare([]byte(adminSecret), []byte(s.adminSecret)) == 1 {
		return models.RoleAdmin, nil
	}
	return "", common.NewError(common.ErrorUnauthorized, MsgInvalidAdminSecret)
}

func (s *AccountService) validatePassword(password string) error {
	err := cryptox.ValidatePassword(password, s.minEntropy)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordWeak):
		return common.WrapError(common.ErrValidation, MsgPasswordWeak, err)
	default:
		return common.NewError(common.ErrValidation, MsgPasswordLength)
	}
}

func (s *AccountService) issueToken(account *models.Account) (string, error) {
	token, err := generateToken(account.ID, s.jwtSecret, s.jwtExpire)
	if err != nil {
		return "", common.WrapError(common.ErrorInternal, MsgInternal, err)
	}
	return token, nil
}

// storeError translates repository failures into client-facing errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, common.ErrDuplicate):
		return common.WrapError(common.ErrConflict, MsgDuplicate, err)
	case errors.Is(err, common.ErrInvalidID):
		return common.WrapError(common.ErrValidation, MsgInvalidID, err)
	default:
		return common.WrapError(common.ErrorInternal, MsgInternal, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
