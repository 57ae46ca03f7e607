package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/repository"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

// SubjectResolver looks up the user named by a token subject.
type SubjectResolver interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authorizer decodes bearer tokens into users and gates operations by role.
type Authorizer struct {
	tokens *TokenManager
	users  SubjectResolver
}

// NewAuthorizer constructs an authorizer.
func NewAuthorizer(tokens *TokenManager, users SubjectResolver) *Authorizer {
	return &Authorizer{tokens: tokens, users: users}
}

// Authorize runs the full check for a protected operation: bearer header,
// token verification, subject lookup and, when roles are given, role gate.
func (a *Authorizer) Authorize(ctx context.Context, authHeader string, roles ...domain.Role) (*domain.User, error) {
	token, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	user, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return user, nil
	}
	return RequireRole(user, roles...)
}

// Authenticate verifies the token and resolves its subject to a stored user.
func (a *Authorizer) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}

	user, err := a.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnknownSubject()
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", apperrors.NewUnauthenticated("Not authenticated")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthenticated("Not authenticated")
	}
	return strings.TrimSpace(parts[1]), nil
}
