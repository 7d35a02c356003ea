package database

import (
	"context"
	"errors"

	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes mapped to domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidTextRep      = "22P02"
)

// MapPostgresError translates driver errors into models sentinels. Unknown errors pass through.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.ErrDuplicateUsername
		case pgInvalidTextRep:
			// malformed uuid in a lookup
			return models.ErrNotFound
		case pgForeignKeyViolation, pgNotNullViolation:
			return models.ErrValidation
		case pgCheckViolation:
			if pgErr.ConstraintName == "reports_status_check" {
				return models.ErrInvalidStatus
			}
			return models.ErrValidation
		}
	}

	return err
}

// WithTransaction runs fn inside a transaction, committing on success and rolling back on error or panic
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}
