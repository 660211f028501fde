package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// AccountService coordinates registration, login, password reset and account
// maintenance flows.
type AccountService struct {
	users           repository.UserRepository
	hasher          *auth.PasswordHasher
	tokenMgr        *auth.TokenManager
	publisher       events.Publisher
	logger          *zap.Logger
	resetTTL        time.Duration
	resetTokenBytes int
	now             func() time.Time
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	UserRepo  repository.UserRepository
	Hasher    *auth.PasswordHasher
	TokenMgr  *auth.TokenManager
	Publisher events.Publisher
	Logger    *zap.Logger
}

// AccountChanges carries the optional fields of an account update.
type AccountChanges struct {
	Email    *string
	Password *string
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(cfg.BcryptCost)
	}
	tokenMgr := deps.TokenMgr
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	resetTTL := cfg.PasswordResetTTL()
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	tokenBytes := cfg.ResetTokenBytes
	if tokenBytes < auth.DefaultResetTokenBytes {
		tokenBytes = auth.DefaultResetTokenBytes
	}
	return &AccountService{
		users:           deps.UserRepo,
		hasher:          hasher,
		tokenMgr:        tokenMgr,
		publisher:       deps.Publisher,
		logger:          logger,
		resetTTL:        resetTTL,
		resetTokenBytes: tokenBytes,
		now:             time.Now,
	}
}

// Login verifies credentials and issues a bearer session. Unknown email and
// wrong password fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (session *domain.Session, err error) {
	defer func() { err = s.normalize("login", err) }()

	user, err := s.users.GetByEmail(ctx, email, repository.ProjectionCredentials)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInvalidCredentials("Invalid email or password.")
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperrors.NewInvalidCredentials("Invalid email or password.")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &domain.Session{Token: token, UserID: user.ID, ExpiresAt: expiresAt}, nil
}

// SignUp creates an account and sends the confirmation mail.
func (s *AccountService) SignUp(ctx context.Context, email, password string) (created *domain.User, err error) {
	defer func() { err = s.normalize("sign_up", err) }()

	_, err = s.users.GetByEmail(ctx, email, repository.ProjectionPublic)
	switch {
	case err == nil:
		return nil, emailTaken(email)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailTaken(email)
		}
		return nil, err
	}

	if err := s.publish(ctx, events.NewEvent(events.EventAccountCreated, user.ID, user.Email, s.now())); err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Forgot starts a password reset: a fresh token is stored with its deadline
// and mailed to the account owner.
func (s *AccountService) Forgot(ctx context.Context, email string) (err error) {
	defer func() { err = s.normalize("forgot", err) }()

	user, err := s.users.GetByEmail(ctx, email, repository.ProjectionPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("account", map[string]any{"email": email})
	}
	if err != nil {
		return err
	}

	token, err := auth.GenerateResetToken(s.resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	now := s.now()
	reset := &repository.PasswordReset{Token: token, ExpiresAt: now.Add(s.resetTTL)}
	if err := s.users.UpdateFields(ctx, user.ID, repository.UserChanges{PasswordReset: reset}); err != nil {
		return err
	}

	event := events.NewEvent(events.EventPasswordResetRequested, user.ID, user.Email, now)
	event.Token = token
	return s.publish(ctx, event)
}

// ResetPassword consumes an unexpired reset token and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { err = s.normalize("reset_password", err) }()

	user, err := s.users.GetByResetToken(ctx, token, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewResetTokenExpired()
	}
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	changes := repository.UserChanges{PasswordHash: &hash, ClearPasswordReset: true}
	if err := s.users.UpdateFields(ctx, user.ID, changes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewResetTokenExpired()
		}
		return err
	}

	return s.publish(ctx, events.NewEvent(events.EventPasswordResetCompleted, user.ID, user.Email, s.now()))
}

// UpdatePassword replaces the password of the acting user after checking the
// old one. A vanished account fails like a wrong password.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	defer func() { err = s.normalize("update_password", err) }()

	user, err := s.users.GetByID(ctx, userID, repository.ProjectionCredentials)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewInvalidCredentials("Invalid credentials.")
	}
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, oldPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return apperrors.NewInvalidCredentials("Old password is incorrect.")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateFields(ctx, user.ID, repository.UserChanges{PasswordHash: &hash}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInvalidCredentials("Invalid credentials.")
		}
		return err
	}
	return nil
}

// GetProfile returns the public view of a user.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (user *domain.User, err error) {
	defer func() { err = s.normalize("get_profile", err) }()
	return s.findPublic(ctx, userID)
}

// GetAccount returns the acting user's own account.
func (s *AccountService) GetAccount(ctx context.Context, userID string) (user *domain.User, err error) {
	defer func() { err = s.normalize("get_account", err) }()
	return s.findPublic(ctx, userID)
}

// GetUser looks up another user by id. A malformed id is reported as not found.
func (s *AccountService) GetUser(ctx context.Context, id string) (user *domain.User, err error) {
	defer func() { err = s.normalize("get_user", err) }()

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return s.findPublic(ctx, id)
}

// FindMemberWithMail looks up a user by email.
func (s *AccountService) FindMemberWithMail(ctx context.Context, email string) (user *domain.User, err error) {
	defer func() { err = s.normalize("find_member_with_mail", err) }()

	found, err := s.users.GetByEmail(ctx, email, repository.ProjectionPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, err
	}
	return found.Public(), nil
}

// PutAccount applies email and/or password changes to the acting user.
// Empty values are ignored.
func (s *AccountService) PutAccount(ctx context.Context, userID string, in AccountChanges) (err error) {
	defer func() { err = s.normalize("put_account", err) }()

	var changes repository.UserChanges
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		email := *in.Email
		_, err := s.users.GetByEmailExcluding(ctx, email, userID)
		switch {
		case err == nil:
			return emailTaken(email)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		changes.Email = &email
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		changes.PasswordHash = &hash
	}

	if changes.IsEmpty() {
		_, err = s.findPublic(ctx, userID)
		return err
	}

	err = s.users.UpdateFields(ctx, userID, changes)
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return emailTaken(*changes.Email)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("user", nil)
	}
	return err
}

// DeleteAccount hard-deletes the acting user.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) (err error) {
	defer func() { err = s.normalize("delete_account", err) }()

	if _, err := s.users.GetByID(ctx, userID, repository.ProjectionPublic); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewAccountNotFound()
		}
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewAccountNotFound()
		}
		return err
	}
	return nil
}

// Authenticate verifies a bearer token and loads the account it names.
func (s *AccountService) Authenticate(ctx context.Context, token string) (user *domain.User, err error) {
	defer func() { err = s.normalize("authenticate", err) }()

	userID, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}
	found, err := s.users.GetByID(ctx, userID, repository.ProjectionPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return found.Public(), nil
}

func (s *AccountService) findPublic(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID, repository.ProjectionPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
	}
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// publish runs after the state change is committed; a failure still fails the call.
func (s *AccountService) publish(ctx context.Context, event events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return apperrors.NewInternalError(fmt.Errorf("publish %s: %w", event.Type, err))
	}
	return nil
}

// normalize keeps recognised domain errors and collapses everything else into
// an internal error, logging the cause.
func (s *AccountService) normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code == apperrors.CodeInternal {
		s.logger.Error("account operation failed", zap.String("op", op), zap.Error(err))
	}
	return domainErr
}

func emailTaken(email string) error {
	return apperrors.NewConflict("Account with that email address already exists.", map[string]any{"email": email})
}
