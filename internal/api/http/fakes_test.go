package http

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []domain.User
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CollegeID == user.CollegeID {
			return repository.ErrDuplicateCollegeID
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	m.users = append(m.users, *user)
	return nil
}

func (m *memoryUsers) lookup(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.lookup(func(u domain.User) bool { return u.ID == id })
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.lookup(func(u domain.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByCollegeID(_ context.Context, collegeID string) (*domain.User, error) {
	return m.lookup(func(u domain.User) bool { return u.CollegeID == collegeID })
}

type memoryIssues struct {
	mu     sync.Mutex
	issues []domain.Issue
}

func (m *memoryIssues) Create(_ context.Context, issue *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue.ID = uuid.NewString()
	m.issues = append(m.issues, *issue)
	return nil
}

func (m *memoryIssues) GetByTicketID(_ context.Context, ticketID string) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, issue := range m.issues {
		if issue.TicketID == ticketID {
			found := issue
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryIssues) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Issue
	for _, issue := range m.issues {
		if filter.StudentID != nil && issue.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && issue.Status != *filter.Status {
			continue
		}
		if filter.ServiceType != nil && issue.ServiceType != *filter.ServiceType {
			continue
		}
		if filter.Location != nil && issue.Location != *filter.Location {
			continue
		}
		if filter.CreatedFrom != nil && issue.Timestamp.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && issue.Timestamp.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, issue)
	}
	return out, nil
}

func (m *memoryIssues) UpdateStatus(_ context.Context, ticketID string, status domain.IssueStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].TicketID == ticketID {
			if m.issues[i].Status == status {
				return false, nil
			}
			m.issues[i].Status = status
			return true, nil
		}
	}
	return false, repository.ErrNotFound
}
