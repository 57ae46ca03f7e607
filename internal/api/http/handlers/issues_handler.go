package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-fix/internal/api/dto"
	"github.com/spec-kit/campus-fix/internal/auth"
	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/service"
)

// IssuesHandler manages issue endpoints. Every handler authorizes the caller
// before calling into the service.
type IssuesHandler struct {
	issues     *service.IssueService
	authorizer *auth.Authorizer
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, authorizer *auth.Authorizer) *IssuesHandler {
	return &IssuesHandler{issues: issueService, authorizer: authorizer}
}

func (h *IssuesHandler) authorize(c *fiber.Ctx, roles ...domain.Role) (*domain.User, error) {
	return h.authorizer.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization), roles...)
}

// Raise POST /issues/raise.
func (h *IssuesHandler) Raise(c *fiber.Ctx) error {
	student, err := h.authorize(c, domain.RoleStudent)
	if err != nil {
		return err
	}
	var req dto.RaiseIssueRequest
	if err := bindAndValidate(c, &req, req.Normalize); err != nil {
		return err
	}

	issue, err := h.issues.Raise(c.UserContext(), student, service.RaiseInput{
		ServiceType: domain.ServiceType(req.ServiceType),
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// ListMine GET /issues/my.
func (h *IssuesHandler) ListMine(c *fiber.Ctx) error {
	student, err := h.authorize(c, domain.RoleStudent)
	if err != nil {
		return err
	}
	status, err := optionalStatus(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.ListMine(c.UserContext(), student, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueList(issues)})
}

// ListAll GET /issues/all.
func (h *IssuesHandler) ListAll(c *fiber.Ctx) error {
	manager, err := h.authorize(c, domain.RoleManagement)
	if err != nil {
		return err
	}
	query, err := issueQuery(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.ListAll(c.UserContext(), manager, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueList(issues)})
}

// Filter GET /issues/filter.
func (h *IssuesHandler) Filter(c *fiber.Ctx) error {
	manager, err := h.authorize(c, domain.RoleManagement)
	if err != nil {
		return err
	}
	query, err := issueQuery(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.Filter(c.UserContext(), manager, service.FilterInput{
		IssueQuery: query,
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueList(issues)})
}

// MarkComplete PUT /issues/mark-complete/:ticket_id.
func (h *IssuesHandler) MarkComplete(c *fiber.Ctx) error {
	manager, err := h.authorize(c, domain.RoleManagement)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bindAndValidate(c, &req, nil); err != nil {
		return err
	}

	issue, err := h.issues.UpdateStatus(c.UserContext(), manager, c.Params("ticket_id"), domain.IssueStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// GetByID GET /issues/:ticket_id.
func (h *IssuesHandler) GetByID(c *fiber.Ctx) error {
	caller, err := h.authorize(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.GetByID(c.UserContext(), caller, c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

func issueQuery(c *fiber.Ctx) (service.IssueQuery, error) {
	status, err := optionalStatus(c)
	if err != nil {
		return service.IssueQuery{}, err
	}
	serviceType, err := optionalServiceType(c)
	if err != nil {
		return service.IssueQuery{}, err
	}
	return service.IssueQuery{
		Status:      status,
		ServiceType: serviceType,
		Location:    optionalQuery(c, "location"),
	}, nil
}
