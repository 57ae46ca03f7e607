package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role distinguishes students who raise issues from management who resolve them.
type Role string

const (
	RoleStudent    Role = "student"
	RoleManagement Role = "management"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleManagement:
		return true
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// User is the identity record for students and management staff.
type User struct {
	ID           string
	Name         string
	Email        string
	CollegeID    string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}
