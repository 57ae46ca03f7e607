package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-fix/internal/auth"
	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/events"
	"github.com/spec-kit/campus-fix/internal/repository"
	apperrors "github.com/spec-kit/campus-fix/pkg/util/errorutil"
)

// TicketIDPrefix starts every public ticket identifier.
const TicketIDPrefix = "TKT-"

// IssueService coordinates the issue lifecycle.
type IssueService struct {
	issues      repository.IssueRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
	newTicketID func() string
}

// IssueDependencies bundles collaborators for the issue service. Clock and
// TicketIDs are optional overrides.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
	TicketIDs  func() string
}

// RaiseInput describes a new issue submitted by a student.
type RaiseInput struct {
	ServiceType domain.ServiceType
	Description string
	Location    string
	ImageURL    *string
}

// IssueQuery holds exact-match listing criteria. Nil fields match everything.
type IssueQuery struct {
	Status      *domain.IssueStatus
	ServiceType *domain.ServiceType
	Location    *string
}

// FilterInput extends IssueQuery with an inclusive creation-time window given
// as ISO-8601 strings. Empty strings leave the bound open.
type FilterInput struct {
	IssueQuery
	DateFrom string
	DateTo   string
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	svc := &IssueService{
		issues:      deps.IssueRepo,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		now:         deps.Clock,
		newTicketID: deps.TicketIDs,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newTicketID == nil {
		svc.newTicketID = GenerateTicketID
	}
	return svc
}

// GenerateTicketID returns "TKT-" followed by the first 8 hex digits of a
// random UUID, upper-cased.
func GenerateTicketID() string {
	id := uuid.New()
	return TicketIDPrefix + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// Raise records a new pending issue owned by the student.
func (s *IssueService) Raise(ctx context.Context, student *domain.User, input RaiseInput) (*domain.Issue, error) {
	if _, err := auth.RequireRole(student, domain.RoleStudent); err != nil {
		return nil, err
	}
	if !input.ServiceType.Valid() {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{"service_type": "oneof"})
	}

	imageURL := input.ImageURL
	if imageURL != nil && strings.TrimSpace(*imageURL) == "" {
		imageURL = nil
	}

	issue := &domain.Issue{
		TicketID:    s.newTicketID(),
		ServiceType: input.ServiceType,
		Description: input.Description,
		Location:    input.Location,
		ImageURL:    imageURL,
		StudentID:   student.ID,
		StudentName: student.Name,
		Timestamp:   s.now().UTC().Truncate(time.Microsecond),
		Status:      domain.IssueStatusPending,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		if errors.Is(err, repository.ErrDuplicateTicketID) {
			s.logger.Error("ticket id collision", zap.String("ticket_id", issue.TicketID))
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventIssueRaised,
		TicketID: issue.TicketID,
		Actor:    events.Actor{UserID: student.ID, Role: student.Role},
		Payload: events.IssueRaisedPayload{
			ServiceType: issue.ServiceType,
			Location:    issue.Location,
		},
	})
	return issue, nil
}

// ListMine returns the caller's issues in creation order.
func (s *IssueService) ListMine(ctx context.Context, student *domain.User, status *domain.IssueStatus) ([]domain.Issue, error) {
	if _, err := auth.RequireRole(student, domain.RoleStudent); err != nil {
		return nil, err
	}
	studentID := student.ID
	return s.list(ctx, repository.IssueFilter{StudentID: &studentID, Status: status})
}

// ListAll returns every issue matching the query.
func (s *IssueService) ListAll(ctx context.Context, manager *domain.User, query IssueQuery) ([]domain.Issue, error) {
	if _, err := auth.RequireRole(manager, domain.RoleManagement); err != nil {
		return nil, err
	}
	return s.list(ctx, query.repositoryFilter())
}

// Filter is ListAll plus an inclusive creation-time window.
func (s *IssueService) Filter(ctx context.Context, manager *domain.User, input FilterInput) ([]domain.Issue, error) {
	if _, err := auth.RequireRole(manager, domain.RoleManagement); err != nil {
		return nil, err
	}

	filter := input.repositoryFilter()
	from, err := ParseISOTime("date_from", input.DateFrom)
	if err != nil {
		return nil, err
	}
	to, err := ParseISOTime("date_to", input.DateTo)
	if err != nil {
		return nil, err
	}
	filter.CreatedFrom = from
	filter.CreatedTo = to
	return s.list(ctx, filter)
}

// GetByID returns an issue visible to the caller. Students only see their own.
func (s *IssueService) GetByID(ctx context.Context, caller *domain.User, ticketID string) (*domain.Issue, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthenticated("Not authenticated")
	}
	issue, err := s.issues.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Issue", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if caller.IsStudent() && !issue.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbidden("Not authorized to view this issue")
	}
	return issue, nil
}

// UpdateStatus sets the status of an issue without restricting transitions.
// Writing the status it already has is reported as a no-op.
func (s *IssueService) UpdateStatus(ctx context.Context, manager *domain.User, ticketID string, status domain.IssueStatus) (*domain.Issue, error) {
	if _, err := auth.RequireRole(manager, domain.RoleManagement); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{"status": "oneof"})
	}

	current, err := s.issues.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, apperrors.NewInternalError(err)
	}

	changed, err := s.issues.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !changed {
		return nil, apperrors.NewNoOpUpdate("Issue not updated")
	}

	updated, err := s.issues.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventIssueStatusChanged,
		TicketID: ticketID,
		Actor:    events.Actor{UserID: manager.ID, Role: manager.Role},
		Payload: events.IssueStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: updated.Status,
		},
	})
	return updated, nil
}

func (s *IssueService) list(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func (q IssueQuery) repositoryFilter() repository.IssueFilter {
	return repository.IssueFilter{
		Status:      q.Status,
		ServiceType: q.ServiceType,
		Location:    q.Location,
	}
}

func ticketNotFound(ticketID string) error {
	return apperrors.NewNotFound(fmt.Sprintf("Issue with ticket ID %s", ticketID), map[string]any{"ticket_id": ticketID})
}

// isoLayouts are tried in order; zone-less layouts parse as UTC.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseISOTime parses an ISO-8601 date or date-time. An empty value yields
// nil. Values without a zone are taken as UTC, and a date alone means
// midnight. A space may replace the "T" separator.
func ParseISOTime(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	normalized := value
	if len(normalized) > 10 && normalized[10] == ' ' {
		normalized = normalized[:10] + "T" + normalized[11:]
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperrors.NewInvalidDateFormat(field, value)
}
