package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/campus-fix/internal/domain"
)

// RegisterRequest is accepted as form data or JSON. "role" is an alias for
// "user_type".
type RegisterRequest struct {
	Name      string `json:"name" form:"name" validate:"required,max=200"`
	Email     string `json:"email" form:"email" validate:"required,email,max=320"`
	CollegeID string `json:"college_id" form:"college_id" validate:"required,max=64"`
	UserType  string `json:"user_type" form:"user_type" validate:"omitempty,oneof=student management"`
	Role      string `json:"role" form:"role" validate:"omitempty,oneof=student management"`
	Password  string `json:"password" form:"password" validate:"required,min=1,max=128"`
}

// Normalize trims surrounding whitespace from identifiers.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.CollegeID = strings.TrimSpace(r.CollegeID)
	r.UserType = strings.ToLower(strings.TrimSpace(r.UserType))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// EffectiveRole prefers user_type over its alias.
func (r RegisterRequest) EffectiveRole() domain.Role {
	if r.UserType != "" {
		return domain.Role(r.UserType)
	}
	return domain.Role(r.Role)
}

// LoginRequest is accepted as form data or JSON.
type LoginRequest struct {
	CollegeID string `json:"college_id" form:"college_id" validate:"required"`
	Password  string `json:"password" form:"password" validate:"required"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	UserType    domain.Role `json:"user_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// UserResponse is the public profile; the password hash never leaves the service.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	CollegeID string      `json:"college_id"`
	UserType  domain.Role `json:"user_type"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CollegeID: user.CollegeID,
		UserType:  user.Role,
		CreatedAt: user.CreatedAt,
	}
}
