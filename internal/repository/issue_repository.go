package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-fix/internal/domain"
)

// IssueFilter narrows issue listings. Nil fields match everything.
type IssueFilter struct {
	StudentID   *string
	Status      *domain.IssueStatus
	ServiceType *domain.ServiceType
	Location    *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	// UpdateStatus reports whether the stored status changed.
	UpdateStatus(ctx context.Context, ticketID string, status domain.IssueStatus) (bool, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, ticket_id, service_type, description, location, image_url,
               student_id, student_name, created_at, status`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	if !issue.ServiceType.Valid() {
		return fmt.Errorf("create issue: invalid service type %q", issue.ServiceType)
	}
	if !issue.Status.Valid() {
		return fmt.Errorf("create issue: invalid status %q", issue.Status)
	}

	const query = `
        INSERT INTO issues (ticket_id, service_type, description, location, image_url,
                            student_id, student_name, created_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		issue.TicketID,
		issue.ServiceType,
		issue.Description,
		issue.Location,
		issue.ImageURL,
		issue.StudentID,
		issue.StudentName,
		issue.Timestamp,
		issue.Status,
	).Scan(&issue.ID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *issueRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE ticket_id=$1`
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	query, args := buildIssueQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func (r *issueRepository) UpdateStatus(ctx context.Context, ticketID string, status domain.IssueStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("update issue: invalid status %q", status)
	}
	cmd, err := r.pool.Exec(ctx, updateStatusQuery, status, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// updateStatusQuery only matches rows whose status differs, so RowsAffected
// counts real modifications.
const updateStatusQuery = `UPDATE issues SET status=$1 WHERE ticket_id=$2 AND status <> $1`

func buildIssueQuery(filter IssueFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.ServiceType != nil {
		args = append(args, *filter.ServiceType)
		clauses = append(clauses, fmt.Sprintf("service_type=$%d", len(args)))
	}
	if filter.Location != nil {
		args = append(args, *filter.Location)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY seq ASC`,
		issueColumns, strings.Join(clauses, " AND "))
	return query, args
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var (
		issue       domain.Issue
		serviceType string
		status      string
	)
	if err := row.Scan(
		&issue.ID,
		&issue.TicketID,
		&serviceType,
		&issue.Description,
		&issue.Location,
		&issue.ImageURL,
		&issue.StudentID,
		&issue.StudentName,
		&issue.Timestamp,
		&status,
	); err != nil {
		return nil, err
	}

	var err error
	if issue.ServiceType, err = domain.ParseServiceType(serviceType); err != nil {
		return nil, fmt.Errorf("issue %s: %w", issue.TicketID, err)
	}
	if issue.Status, err = domain.ParseIssueStatus(status); err != nil {
		return nil, fmt.Errorf("issue %s: %w", issue.TicketID, err)
	}
	issue.Timestamp = issue.Timestamp.UTC()
	return &issue, nil
}
