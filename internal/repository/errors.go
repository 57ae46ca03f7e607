package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail reports a users.email unique violation.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateCollegeID reports a users.college_id unique violation.
	ErrDuplicateCollegeID = errors.New("college id already registered")
	// ErrDuplicateTicketID reports a generated ticket id that collided with an existing issue.
	ErrDuplicateTicketID = errors.New("ticket id already exists")
)

// Unique constraint names declared in the migrations.
const (
	constraintUsersEmail     = "users_email_key"
	constraintUsersCollegeID = "users_college_id_key"
	constraintIssuesTicketID = "issues_ticket_id_key"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// mapWriteError translates constraint violations into repository sentinels.
func mapWriteError(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case constraintUsersEmail:
		return ErrDuplicateEmail
	case constraintUsersCollegeID:
		return ErrDuplicateCollegeID
	case constraintIssuesTicketID:
		return ErrDuplicateTicketID
	}
	return err
}
