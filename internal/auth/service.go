package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Mailer delivers transactional mail. The jobs client implements it by
// enqueueing an asynq task; tests use an in-memory fake.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// GroupAssigner places a fresh account into its role group.
type GroupAssigner interface {
	AssignRole(ctx context.Context, userID int64, role string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  *TokenIssuer
	mailer  Mailer
	groups  GroupAssigner
	logger  *slog.Logger
	codeTTL time.Duration
}

// NewService constructs a new Service. codeTTL bounds the lifetime of
// confirmation tokens and reset codes.
func NewService(repo Repository, tokens *TokenIssuer, mailer Mailer, groups GroupAssigner, logger *slog.Logger, codeTTL time.Duration) *Service {
	return &Service{repo: repo, tokens: tokens, mailer: mailer, groups: groups, logger: logger, codeTTL: codeTTL}
}

// SignupInput carries the public registration payload.
type SignupInput struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// Signup registers an inactive account, assigns its role group and mails
// a confirmation link. Only USER and SERVICE_PROVIDER may self-register.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	role := strings.ToUpper(in.Role)
	if role == "" {
		role = shared.RoleUser
	}
	if role != shared.RoleUser && role != shared.RoleServiceProvider {
		return nil, fmt.Errorf("%w: role %s cannot self-register", httpx.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		IsActive:     false,
		PasswordHash: string(hash),
	}
	user.ID, err = s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.groups.AssignRole(ctx, user.ID, role); err != nil {
		return nil, fmt.Errorf("assign signup group: %w", err)
	}

	confirmation := EmailConfirmation{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.repo.SaveConfirmation(ctx, confirmation); err != nil {
		return nil, err
	}

	body := i18n.Localized{
		AR: "فعّل حسابك باستخدام هذا الرمز: " + confirmation.Token,
		EN: "Activate your account with this code: " + confirmation.Token,
	}
	if err := s.mailer.Send(ctx, user.Email, "Confirm your email", body.Pick(i18n.LangFromContext(ctx))); err != nil {
		s.logger.Error("send confirmation mail", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.Info("user signed up", slog.Int64("user_id", user.ID), slog.String("role", role))
	return user, nil
}

// ConfirmEmail consumes a confirmation token and activates the account.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	confirmation, err := s.repo.ConsumeConfirmation(ctx, token)
	if err != nil {
		return err
	}
	if time.Now().After(confirmation.ExpiresAt) {
		return fmt.Errorf("%w: confirmation code expired", httpx.ErrUnprocessable)
	}
	if err := s.repo.ActivateUser(ctx, confirmation.UserID); err != nil {
		return err
	}
	s.logger.Info("email confirmed", slog.Int64("user_id", confirmation.UserID))
	return nil
}

// Login validates credentials and issues an access token. Inactive
// accounts are indistinguishable from wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// RequestPasswordReset mails a short numeric code. Unknown addresses
// succeed silently so the endpoint cannot enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Info("password reset for unknown email")
		return nil
	}

	code, err := numericCode(6)
	if err != nil {
		return err
	}
	reset := PasswordReset{UserID: user.ID, Code: code, ExpiresAt: time.Now().Add(s.codeTTL)}
	if err := s.repo.SaveReset(ctx, reset); err != nil {
		return err
	}

	body := i18n.Localized{
		AR: "رمز إعادة تعيين كلمة المرور: " + code,
		EN: "Your password reset code is: " + code,
	}
	return s.mailer.Send(ctx, user.Email, "Password reset", body.Pick(i18n.LangFromContext(ctx)))
}

// ResetPassword consumes a reset code and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	reset, err := s.repo.ConsumeReset(ctx, strings.ToLower(strings.TrimSpace(email)), code)
	if err != nil {
		return err
	}
	if time.Now().After(reset.ExpiresAt) {
		return fmt.Errorf("%w: reset code expired", httpx.ErrUnprocessable)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password reset", slog.Int64("user_id", reset.UserID))
	return nil
}

// ChangePassword verifies the current password before storing a new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// RequestEmailChange records a pending change and mails a confirmation
// token to the new address.
func (s *Service) RequestEmailChange(ctx context.Context, userID int64, newEmail string) error {
	change := EmailChange{
		UserID:    userID,
		NewEmail:  strings.ToLower(strings.TrimSpace(newEmail)),
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.repo.SaveEmailChange(ctx, change); err != nil {
		return err
	}
	body := i18n.Localized{
		AR: "أكّد بريدك الجديد باستخدام هذا الرمز: " + change.Token,
		EN: "Confirm your new email with this code: " + change.Token,
	}
	return s.mailer.Send(ctx, change.NewEmail, "Confirm email change", body.Pick(i18n.LangFromContext(ctx)))
}

// ConfirmEmailChange consumes the token and applies the new address.
func (s *Service) ConfirmEmailChange(ctx context.Context, token string) error {
	change, err := s.repo.ConsumeEmailChange(ctx, token)
	if err != nil {
		return err
	}
	if time.Now().After(change.ExpiresAt) {
		return fmt.Errorf("%w: change code expired", httpx.ErrUnprocessable)
	}
	if err := s.repo.UpdateEmail(ctx, change.UserID, change.NewEmail); err != nil {
		return err
	}
	s.logger.Info("email changed", slog.Int64("user_id", change.UserID))
	return nil
}

// Me loads the acting user's account.
func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// PurgeExpiredCodes removes stale confirmation and reset rows.
func (s *Service) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredCodes(ctx, time.Now())
}

func numericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
