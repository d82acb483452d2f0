package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/phenrril/catering/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintFields maps unique constraints to the form field they guard.
var constraintFields = map[string]string{
	"uq_customers_customer_code": "CustomerCode",
	"idx_users_email":            "Email",
}

// mapError turns driver failures into domain errors. Anything it does not
// recognise is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &domain.ConflictError{Field: field}
	case pgForeignKeyViolation:
		return domain.ErrReferenced
	}
	return err
}
