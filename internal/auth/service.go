package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// Service manages accounts: registration, sign-in, email verification,
// profile changes and password recovery.
type Service struct {
	store  store.Store
	mailer Mailer
	tokens *TokenIssuer
	cfg    model.AuthConfig
	logger *slog.Logger

	cost int
	now  func() time.Time
}

// NewService creates an account service.
func NewService(
	s store.Store,
	mailer Mailer,
	tokens *TokenIssuer,
	cfg model.AuthConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		mailer: mailer,
		tokens: tokens,
		cfg:    cfg,
		logger: logger.With("component", "auth"),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// SignUp registers a new account and sends the verification email.
// A failed delivery is logged only; signing in re-sends it.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !model.ValidatePassword(password) {
		return nil, ErrWeakPassword
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:             email,
		DisplayName:       strings.TrimSpace(name),
		PasswordHash:      hash,
		VerificationToken: uuid.NewString(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("signing up: %w", err)
	}
	s.logger.Info("account created", "user_id", user.ID)

	if err := s.sendVerification(ctx, user, user.Email); err != nil {
		s.logger.Warn("verification email not sent", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// SignIn checks credentials and issues a session. An unverified account
// gets a fresh verification email and ErrEmailNotVerified.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, *model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, nil, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, nil, fmt.Errorf("signing in: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, nil, ErrInvalidCredentials
	}

	if s.cfg.RequireVerifiedEmail && !user.EmailVerified {
		user.VerificationToken = uuid.NewString()
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return Session{}, nil, fmt.Errorf("rotating verification token: %w", err)
		}
		if err := s.sendVerification(ctx, user, user.Email); err != nil {
			return Session{}, nil, err
		}
		return Session{}, nil, ErrEmailNotVerified
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, nil, err
	}
	s.logger.Info("signed in", "user_id", user.ID)
	return session, user, nil
}

// VerifyEmail confirms the address a verification token was sent to.
// When an email change is pending, the new address takes effect now.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	user, err := s.store.GetUserByVerificationToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("verifying email: %w", err)
	}

	if user.PendingEmail != "" {
		user.Email = user.PendingEmail
		user.PendingEmail = ""
	}
	user.EmailVerified = true
	user.VerificationToken = ""

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("verifying email: %w", err)
	}
	s.logger.Info("email verified", "user_id", user.ID)
	return user, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	if s.cfg.RequireVerifiedEmail && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return user, nil
}

// UpdateName changes the display name.
func (s *Service) UpdateName(ctx context.Context, userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("updating name: %w", err)
	}
	user.DisplayName = name
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating name: %w", err)
	}
	return user, nil
}

// RequestEmailChange sends a verification email to newEmail. The
// account email only changes once that token is verified.
func (s *Service) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	newEmail, err := normalizeEmail(newEmail)
	if err != nil {
		return err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("changing email: %w", err)
	}
	if strings.EqualFold(user.Email, newEmail) {
		return ErrSameEmail
	}
	if _, err := s.store.GetUserByEmail(ctx, newEmail); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("changing email: %w", err)
	}

	user.PendingEmail = newEmail
	user.VerificationToken = uuid.NewString()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("changing email: %w", err)
	}
	return s.sendVerification(ctx, user, newEmail)
}

// UpdatePassword replaces the password of a signed-in user.
func (s *Service) UpdatePassword(ctx context.Context, userID, password string) error {
	if !model.ValidatePassword(password) {
		return ErrWeakPassword
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// DeleteAccount removes the user's tasks, then the user.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	n, err := s.store.DeleteTasksByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("deleting account tasks: %w", err)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	s.logger.Info("account deleted", "user_id", userID, "tasks", n)
	return nil
}

// RequestPasswordReset emails a reset token. Unknown addresses succeed
// silently so the endpoint does not reveal which emails exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}

	expires := s.now().Add(s.cfg.ResetTTL()).UTC()
	user.ResetToken = uuid.NewString()
	user.ResetExpiresAt = &expires
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}

	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Reset your FocusFlow password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nUse this code to choose a new password:\n\n    %s\n\n"+
				"The code expires at %s. If you did not ask for it, ignore this email.\n",
			user.Name(), user.ResetToken, expires.Format(time.RFC1123),
		),
	})
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.store.GetUserByResetToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	if user.ResetExpiresAt == nil || s.now().After(*user.ResetExpiresAt) {
		return ErrInvalidToken
	}
	if !model.ValidatePassword(password) {
		return ErrWeakPassword
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetExpiresAt = nil
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *model.User, to string) error {
	err := s.mailer.Send(ctx, Message{
		To:      to,
		Subject: "Verify your FocusFlow email",
		Body: fmt.Sprintf(
			"Hello %s,\n\nUse this code to verify your email address:\n\n    %s\n",
			user.Name(), user.VerificationToken,
		),
	})
	if err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// normalizeEmail accepts a bare address and returns it lowercased.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}
