package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/campus-fix/internal/domain"
)

// RaiseIssueRequest payload for POST /issues/raise.
type RaiseIssueRequest struct {
	ServiceType string  `json:"service_type" validate:"required,oneof=electrical plumbing furniture cleaning it_support others"`
	Description string  `json:"description" validate:"required,max=4000"`
	Location    string  `json:"location" validate:"required,max=200"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=2048"`
}

// Normalize trims free-text fields.
func (r *RaiseIssueRequest) Normalize() {
	r.ServiceType = strings.ToLower(strings.TrimSpace(r.ServiceType))
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
}

// UpdateStatusRequest payload for PUT /issues/mark-complete/:ticket_id.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed rejected"`
}

// IssueResponse is the wire form of an issue.
type IssueResponse struct {
	ID          string             `json:"id"`
	TicketID    string             `json:"ticket_id"`
	ServiceType domain.ServiceType `json:"service_type"`
	Description string             `json:"description"`
	Location    string             `json:"location"`
	ImageURL    *string            `json:"image_url"`
	StudentID   string             `json:"student_id"`
	StudentName string             `json:"student_name"`
	Timestamp   time.Time          `json:"timestamp"`
	Status      domain.IssueStatus `json:"status"`
}

// NewIssueResponse maps a domain issue.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:          issue.ID,
		TicketID:    issue.TicketID,
		ServiceType: issue.ServiceType,
		Description: issue.Description,
		Location:    issue.Location,
		ImageURL:    issue.ImageURL,
		StudentID:   issue.StudentID,
		StudentName: issue.StudentName,
		Timestamp:   issue.Timestamp,
		Status:      issue.Status,
	}
}

// NewIssueList maps a slice of issues, never returning nil.
func NewIssueList(issues []domain.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, NewIssueResponse(&issues[i]))
	}
	return out
}
