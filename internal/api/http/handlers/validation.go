package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-fix/internal/domain"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire names rather than Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// bindAndValidate parses a form or JSON body into req and validates it.
func bindAndValidate(c *fiber.Ctx, req any, normalize func()) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if normalize != nil {
		normalize()
	}
	return validateStruct(req)
}

func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.ActualTag()
	}
	return apperrors.NewValidationError("invalid payload", details)
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

func optionalStatus(c *fiber.Ctx) (*domain.IssueStatus, error) {
	raw := optionalQuery(c, "status")
	if raw == nil {
		return nil, nil
	}
	status, err := domain.ParseIssueStatus(*raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid query", map[string]any{"status": "oneof"})
	}
	return &status, nil
}

func optionalServiceType(c *fiber.Ctx) (*domain.ServiceType, error) {
	raw := optionalQuery(c, "service_type")
	if raw == nil {
		return nil, nil
	}
	serviceType, err := domain.ParseServiceType(*raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid query", map[string]any{"service_type": "oneof"})
	}
	return &serviceType, nil
}
