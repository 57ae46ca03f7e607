package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-fix/internal/auth"
	"github.com/spec-kit/campus-fix/internal/config"
	"github.com/spec-kit/campus-fix/internal/domain"
	"github.com/spec-kit/campus-fix/internal/repository"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     []*domain.User
	createErr error
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.CollegeID == user.CollegeID {
			return repository.ErrDuplicateCollegeID
		}
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	stored := *user
	r.users = append(r.users, &stored)
	return nil
}

func (r *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByCollegeID(_ context.Context, collegeID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.CollegeID == collegeID })
}

type fakeIssueRepo struct {
	mu        sync.Mutex
	issues    []*domain.Issue
	createErr error
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.issues {
		if existing.TicketID == issue.TicketID {
			return repository.ErrDuplicateTicketID
		}
	}
	issue.ID = uuid.NewString()
	stored := *issue
	r.issues = append(r.issues, &stored)
	return nil
}

func (r *fakeIssueRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range r.issues {
		if issue.TicketID == ticketID {
			copied := *issue
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeIssueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Issue
	for _, issue := range r.issues {
		switch {
		case filter.StudentID != nil && issue.StudentID != *filter.StudentID,
			filter.Status != nil && issue.Status != *filter.Status,
			filter.ServiceType != nil && issue.ServiceType != *filter.ServiceType,
			filter.Location != nil && issue.Location != *filter.Location,
			filter.CreatedFrom != nil && issue.Timestamp.Before(*filter.CreatedFrom),
			filter.CreatedTo != nil && issue.Timestamp.After(*filter.CreatedTo):
			continue
		}
		out = append(out, *issue)
	}
	return out, nil
}

func (r *fakeIssueRepo) UpdateStatus(_ context.Context, ticketID string, status domain.IssueStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range r.issues {
		if issue.TicketID == ticketID {
			if issue.Status == status {
				return false, nil
			}
			issue.Status = status
			return true, nil
		}
	}
	return false, repository.ErrNotFound
}

// fastHasher keeps argon2 cheap in tests.
func fastHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(config.AuthConfig{
		PasswordAlgorithm: config.PasswordAlgorithmArgon2id,
		Argon2Time:        1,
		Argon2MemoryKiB:   1024,
		Argon2Threads:     1,
	})
}
