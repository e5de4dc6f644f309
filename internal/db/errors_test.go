package db_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyroxlab/roxcoach/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "athlete_achievement_pkey",
	}
	assert.True(t, db.IsUniqueViolation(uniqueErr))
	assert.True(t, db.IsUniqueViolation(fmt.Errorf("award: %w", uniqueErr)))

	fkErr := &pgconn.PgError{Code: "23503"}
	assert.False(t, db.IsUniqueViolation(fkErr))

	assert.False(t, db.IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, db.IsUniqueViolation(nil))
}
