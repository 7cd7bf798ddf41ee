package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"docstore/internal/domain"
)

// mapError wraps err for op, translating constraint violations to
// domain.ErrConflict.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation:
			return oops.In("postgres").
				With("constraint", pgErr.ConstraintName).
				With("table", pgErr.TableName).
				With("sqlstate", pgErr.Code).
				Wrapf(fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Message), "%s", op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
