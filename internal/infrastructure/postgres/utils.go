package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
)

// Códigos SQLSTATE que el motor de stock traduce a la taxonomía de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classify traduce errores de PostgreSQL al dominio; el resto se envuelve con la operación.
// Una violación de unicidad se trata como carrera de creación entre escritores concurrentes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeUniqueViolation:
			return fmt.Errorf("%w: %s (%s)", domain.ErrConcurrentModification, op, pgErr.Code)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s (%s)", domain.ErrInsufficientStock, op, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, op, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// limitArg LIMIT NULL equivale a sin límite.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
