package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation, https://www.postgresql.org/docs/current/errcodes-appendix.html
const codeUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation. Repos use it to turn the raw driver error into their own
// duplicate sentinel.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
