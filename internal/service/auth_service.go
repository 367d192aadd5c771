package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"
	"unicode"

	"finbridge/internal/email"
	"finbridge/internal/model"
	"finbridge/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
)

// Progressive lockout after repeated failed logins.
var lockoutSteps = map[int]time.Duration{
	3: 3 * time.Minute,
	4: 15 * time.Minute,
	5: 60 * time.Minute,
}

// DTOs for Request validation
type RegisterRequest struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required"`
	Role            string  `json:"role" binding:"omitempty,oneof=buyer supplier"`
	InvitationToken *string `json:"invitation_token"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Code    string `json:"code" binding:"required,len=6"`
	Purpose string `json:"purpose" binding:"required,oneof=registration login password_reset"`
}

type ResendOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required,oneof=registration login password_reset"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required"`
}

type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"-"`
	// RequiresVerification is set when login succeeds on credentials but the
	// email is still unverified; a fresh login OTP has been issued.
	RequiresVerification bool `json:"requires_verification,omitempty"`
}

// AuthService defines the interface for credential and session business logic
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResult, error)
	ResendOTP(ctx context.Context, req ResendOTPRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users       repository.UserRepository
	otps        repository.OTPRepository
	invitations repository.InvitationRepository
	mailer      email.Sender
	logger      *zap.Logger
	issueToken  func(userID, email, role string) (string, error)
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	invitations repository.InvitationRepository,
	mailer email.Sender,
	logger *zap.Logger,
	issueToken func(userID, email, role string) (string, error),
) AuthService {
	return &authService{
		users:       users,
		otps:        otps,
		invitations: invitations,
		mailer:      mailer,
		logger:      logger,
		issueToken:  issueToken,
	}
}

// ValidatePassword enforces the platform password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return badRequest("Password must be at least 8 characters long")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	switch {
	case !hasLower:
		return badRequest("Password must contain a lowercase letter")
	case !hasUpper:
		return badRequest("Password must contain an uppercase letter")
	case !hasDigit:
		return badRequest("Password must contain a digit")
	case !hasSpecial:
		return badRequest("Password must contain a special character")
	}
	return nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// issueOTP invalidates any active code for (email, purpose) and creates a new
// bcrypt-hashed one. Delivery is best effort.
func (s *authService) issueOTP(ctx context.Context, user *model.User, purpose string) error {
	if err := s.otps.InvalidateActive(ctx, user.Email, purpose); err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	otp := &model.OTPCode{
		UserID:      &user.ID,
		Email:       strings.ToLower(user.Email),
		CodeHash:    string(hash),
		Purpose:     purpose,
		ExpiresAt:   time.Now().Add(otpTTL),
		MaxAttempts: otpMaxAttempts,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(user.Email, code, purpose); err != nil {
		s.logger.Warn("otp email delivery failed", zap.String("email", user.Email), zap.Error(err))
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleBuyer
	}

	var invitation *model.SupplierInvitation
	if req.InvitationToken != nil && *req.InvitationToken != "" {
		inv, err := s.invitations.GetByToken(ctx, *req.InvitationToken)
		if err != nil {
			return nil, badRequest("Invalid invitation token")
		}
		if inv.IsExpired(time.Now()) {
			return nil, badRequest("Invitation expired")
		}
		if !strings.EqualFold(inv.InvitedEmail, req.Email) {
			return nil, badRequest("Invitation was issued for a different email address")
		}
		invitation = inv
		role = model.RoleSupplier
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, conflict("An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Email:         strings.ToLower(req.Email),
		PasswordHash:  string(hash),
		Role:          role,
		AccountStatus: model.AccountPendingVerification,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if invitation != nil {
		invitation.Status = model.InvitationRegistered
		invitation.SupplierUserID = &user.ID
		if err := s.invitations.Update(ctx, invitation); err != nil {
			s.logger.Warn("failed to link invitation to new account",
				zap.String("invitation_id", invitation.ID.String()), zap.Error(err))
		}
	}

	if err := s.issueOTP(ctx, user, model.OTPPurposeRegistration); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, RequiresVerification: true}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, unauthorized("Invalid email or password")
	}

	now := time.Now()
	if user.LockoutUntil != nil && user.LockoutUntil.After(now) {
		remaining := int(user.LockoutUntil.Sub(now).Minutes()) + 1
		return nil, &Error{
			Status:  http.StatusLocked,
			Message: fmt.Sprintf("Account temporarily locked. Try again in %d minutes", remaining),
			Details: map[string]interface{}{"locked_until": user.LockoutUntil},
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		attempts := user.FailedLoginAttempts
		if attempts > 5 {
			attempts = 5
		}
		if d, ok := lockoutSteps[attempts]; ok {
			until := now.Add(d)
			user.LockoutUntil = &until
		}
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.Error("failed to record failed login", zap.Error(err))
		}
		return nil, unauthorized("Invalid email or password")
	}

	if user.AccountStatus == model.AccountSuspended {
		return nil, forbidden("Account is suspended")
	}

	if !user.EmailVerified {
		if err := s.issueOTP(ctx, user, model.OTPPurposeLogin); err != nil {
			return nil, err
		}
		return &AuthResult{User: user, RequiresVerification: true}, nil
	}

	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to record login", zap.Error(err))
	}

	token, err := s.issueToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResult, error) {
	otp, err := s.otps.GetActive(ctx, req.Email, req.Purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Hint the client at the flow that actually has a pending code.
			if other, err2 := s.otps.GetLatestForEmail(ctx, req.Email); err2 == nil && other.Purpose != req.Purpose {
				return nil, &Error{
					Status:  http.StatusBadRequest,
					Message: "No verification code found for this purpose",
					Details: map[string]interface{}{"purpose_hint": other.Purpose},
				}
			}
			return nil, badRequest("Verification code is invalid or has expired")
		}
		return nil, err
	}

	if otp.AttemptsCount >= otp.MaxAttempts {
		return nil, newError(http.StatusTooManyRequests, "Too many incorrect attempts. Request a new code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(req.Code)); err != nil {
		otp.AttemptsCount++
		if err := s.otps.Update(ctx, otp); err != nil {
			s.logger.Error("failed to record otp attempt", zap.Error(err))
		}
		remaining := otp.MaxAttempts - otp.AttemptsCount
		if remaining <= 0 {
			return nil, newError(http.StatusTooManyRequests, "Too many incorrect attempts. Request a new code")
		}
		return nil, &Error{
			Status:  http.StatusBadRequest,
			Message: "Incorrect verification code",
			Details: map[string]interface{}{"attempts_remaining": remaining},
		}
	}

	otp.Verified = true
	if err := s.otps.Update(ctx, otp); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, notFound("Account not found")
	}

	if !user.EmailVerified {
		user.EmailVerified = true
		if user.AccountStatus == model.AccountPendingVerification {
			user.AccountStatus = model.AccountActive
		}
	}
	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) ResendOTP(ctx context.Context, req ResendOTPRequest) error {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Do not leak account existence.
		return nil
	}
	return s.issueOTP(ctx, user, req.Purpose)
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	result, err := s.VerifyOTP(ctx, VerifyOTPRequest{
		Email:   req.Email,
		Code:    req.Code,
		Purpose: model.OTPPurposePasswordReset,
	})
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user := result.User
	user.PasswordHash = string(hash)
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	return s.users.Update(ctx, user)
}

func (s *authService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("Account not found")
	}
	return user, nil
}
