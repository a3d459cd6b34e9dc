package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"shop-service/internal/domain"
	"shop-service/internal/hashing"
	"shop-service/internal/infra/kafka"
	"shop-service/internal/repository"
	"shop-service/internal/token"

	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type UserService struct {
	repo   repository.UserRepository
	hasher PasswordHasher
	tokens token.ProviderInterface
	mailer kafka.EmailSenderInterface
	log    *zap.Logger
}

func NewUserService(r repository.UserRepository, h PasswordHasher, t token.ProviderInterface, mailer kafka.EmailSenderInterface, log *zap.Logger) *UserService {
	return &UserService{repo: r, hasher: h, tokens: t, mailer: mailer, log: log}
}

type RegisterInput struct {
	Email    string
	UserName string
	Password string
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", invalid("email is not valid")
	}
	return email, nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		return nil, invalid("userName is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, invalid("password is required")
	}

	exists, err := s.repo.ExistsByEmailOrUserName(ctx, email, userName, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user with this email or username", ErrConflict)
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, hashing.ErrPasswordTooLong) {
		return nil, invalid("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{UserName: userName, Email: email, Password: hash, Role: domain.RoleCustomer}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user with this email or username", ErrConflict)
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint64("user_id", u.ID))
	msg := kafka.EmailMessage{
		To:       u.Email,
		Subject:  "Welcome!",
		Template: kafka.TemplateWelcome,
		Data:     map[string]any{"userName": u.UserName},
	}
	if err := s.mailer.SendEmail(ctx, u.Email, msg); err != nil {
		s.log.Warn("queue welcome email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

type LoginInput struct {
	Email    string
	UserName string
	Password string
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*domain.User, *token.Pair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	userName := strings.TrimSpace(in.UserName)
	if email == "" && userName == "" {
		return nil, nil, invalid("email or userName is required")
	}
	if in.Password == "" {
		return nil, nil, invalid("password is required")
	}

	u, err := s.repo.FindByLogin(ctx, email, userName)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrUserNotFound
	}
	if !s.hasher.Compare(u.Password, in.Password) {
		s.log.Warn("login rejected", zap.Uint64("user_id", u.ID))
		return nil, nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *UserService) issue(ctx context.Context, u *domain.User) (*token.Pair, error) {
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.repo.UpdateRefreshTokenHash(ctx, u.ID, token.Hash(pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh rotates the token pair. The presented refresh token must be the one
// most recently issued to the user.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *token.Pair, error) {
	if refreshToken == "" {
		return nil, nil, fmt.Errorf("%w: refresh token is required", ErrUnauthorized)
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(u.RefreshTokenHash), []byte(token.Hash(refreshToken))) != 1 {
		return nil, nil, fmt.Errorf("%w: refresh token is expired or used", ErrUnauthorized)
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *UserService) Logout(ctx context.Context, id domain.Identity) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	return s.repo.UpdateRefreshTokenHash(ctx, id.UserID, "")
}

type UpdateDetailsInput struct {
	UserName string
	Email    string
}

func (s *UserService) UpdateDetails(ctx context.Context, id domain.Identity, in UpdateDetailsInput) (*domain.User, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		return nil, invalid("userName is required")
	}

	exists, err := s.repo.ExistsByEmailOrUserName(ctx, email, userName, id.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email or username already taken", ErrConflict)
	}

	u, err := s.repo.UpdateDetails(ctx, id.UserID, userName, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email or username already taken", ErrConflict)
		}
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Authenticate resolves an access token into the caller's identity. The user
// row is reloaded so role changes take effect without re-login.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (domain.Identity, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: invalid access token", ErrUnauthorized)
	}
	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return domain.Identity{}, err
	}
	if u == nil {
		return domain.Identity{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	return domain.IdentityOf(u), nil
}

func (s *UserService) Promote(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	ok, err := s.repo.UpdateRoleByEmail(ctx, email, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	s.log.Info("user promoted", zap.String("email", email))
	return nil
}
