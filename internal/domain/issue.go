package domain

import (
	"fmt"
	"strings"
	"time"
)

// ServiceType enumerates the maintenance categories a student can pick.
type ServiceType string

const (
	ServiceTypeElectrical ServiceType = "electrical"
	ServiceTypePlumbing   ServiceType = "plumbing"
	ServiceTypeFurniture  ServiceType = "furniture"
	ServiceTypeCleaning   ServiceType = "cleaning"
	ServiceTypeITSupport  ServiceType = "it_support"
	ServiceTypeOthers     ServiceType = "others"
)

// ServiceTypes lists every accepted service type.
var ServiceTypes = []ServiceType{
	ServiceTypeElectrical,
	ServiceTypePlumbing,
	ServiceTypeFurniture,
	ServiceTypeCleaning,
	ServiceTypeITSupport,
	ServiceTypeOthers,
}

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	for _, candidate := range ServiceTypes {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(raw string) (ServiceType, error) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown service type %q", raw)
	}
	return st, nil
}

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusCompleted  IssueStatus = "completed"
	IssueStatusRejected   IssueStatus = "rejected"
)

// IssueStatuses lists every accepted status.
var IssueStatuses = []IssueStatus{
	IssueStatusPending,
	IssueStatusInProgress,
	IssueStatusCompleted,
	IssueStatusRejected,
}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	for _, candidate := range IssueStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseIssueStatus converts raw input into an IssueStatus.
func ParseIssueStatus(raw string) (IssueStatus, error) {
	status := IssueStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown issue status %q", raw)
	}
	return status, nil
}

// Issue is a facility maintenance ticket raised by a student.
type Issue struct {
	ID          string
	TicketID    string
	ServiceType ServiceType
	Description string
	Location    string
	ImageURL    *string
	StudentID   string
	StudentName string
	Timestamp   time.Time
	Status      IssueStatus
}

// OwnedBy reports whether the issue was raised by the given user.
func (i *Issue) OwnedBy(userID string) bool {
	return i != nil && i.StudentID == userID
}
