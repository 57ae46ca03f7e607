package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-fix/internal/api/dto"
	"github.com/spec-kit/campus-fix/internal/service"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

// UsersHandler exposes registration and login.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindAndValidate(c, &req, req.Normalize); err != nil {
		return err
	}
	role := req.EffectiveRole()
	if role == "" {
		return apperrors.NewValidationError("invalid payload", map[string]any{"user_type": "required"})
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		CollegeID: req.CollegeID,
		Role:      role,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindAndValidate(c, &req, nil); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.CollegeID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: result.Token,
		TokenType:   result.TokenType,
		UserType:    result.Role,
		ExpiresAt:   result.ExpiresAt,
	}})
}
