package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-fix/internal/auth"
	"github.com/spec-kit/campus-fix/internal/config"
	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/repository"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

// TokenTypeBearer is the only token type issued by Login.
const TokenTypeBearer = "bearer"

// dummyPassword backs the hash verified for unknown college IDs.
const dummyPassword = "campus-fix-timing-equalizer"

// AuthService coordinates registration and login flows.
type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service. Hasher
// and Tokens default to instances built from configuration.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Hasher   *auth.PasswordHasher
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name      string
	Email     string
	CollegeID string
	Role      domain.Role
	Password  string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	TokenType string
	Role      domain.Role
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(cfg.Auth)
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  deps.UserRepo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// TokenManager exposes the token manager shared with the authorizer.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a new account. College ID is checked before email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{"user_type": "oneof"})
	}

	taken, err := s.exists(ctx, s.users.GetByCollegeID, input.CollegeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, duplicateCollegeID()
	}
	taken, err = s.exists(ctx, s.users.GetByEmail, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, duplicateEmail()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		CollegeID:    input.CollegeID,
		Role:         input.Role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCollegeID):
			return nil, duplicateCollegeID()
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, duplicateEmail()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

func (s *AuthService) exists(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, apperrors.NewInternalError(err)
	}
}

// Login verifies credentials and issues a session token. Unknown college IDs
// and wrong passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, collegeID, password string) (*LoginResult, error) {
	user, err := s.users.GetByCollegeID(ctx, collegeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerification(password)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, apperrors.NewInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Token:     token,
		TokenType: TokenTypeBearer,
		Role:      user.Role,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// burnVerification runs a verification against a throwaway hash so unknown
// college IDs cost about as much as a wrong password.
func (s *AuthService) burnVerification(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("dummy hash generation failed", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(s.dummyHash, password)
	}
}

func duplicateCollegeID() error {
	return apperrors.NewDuplicateEntity("College ID already registered", map[string]any{"field": "college_id"})
}

func duplicateEmail() error {
	return apperrors.NewDuplicateEntity("Email already registered", map[string]any{"field": "email"})
}
