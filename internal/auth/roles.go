package auth

import (
	"github.com/spec-kit/campus-fix/internal/domain"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

// RequireRole ensures the user holds one of the allowed roles.
func RequireRole(user *domain.User, allowed ...domain.Role) (*domain.User, error) {
	if user == nil {
		return nil, apperrors.NewUnauthenticated("Not authenticated")
	}
	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, apperrors.NewForbidden("Not authorized")
}
