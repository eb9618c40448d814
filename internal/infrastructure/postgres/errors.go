package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/comic-store-api/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Restricciones con nombre fijo en schema.sql.
const (
	constraintOrderNumber    = "orders_number_key"
	constraintPurchaseNumber = "purchases_number_key"
)

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == codeUniqueViolation
}

// isDocumentNumberViolation detecta la colisión del número legible de pedido o compra.
func isDocumentNumberViolation(err error) bool {
	pgErr := pgError(err)
	if pgErr == nil || pgErr.Code != codeUniqueViolation {
		return false
	}
	return pgErr.ConstraintName == constraintOrderNumber || pgErr.ConstraintName == constraintPurchaseNumber
}

// writeError traduce las violaciones de integridad a errores de dominio; el resto se envuelve con op.
func writeError(op string, err error) error {
	if pgErr := pgError(err); pgErr != nil {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.ErrDuplicate
		case codeForeignKeyViolation:
			return domain.ErrNotFound
		case codeCheckViolation:
			return domain.ErrInvalidInput
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
