package inventory

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Tx) error) error
}

// ReportGenerator genera el PDF de auditoría del ledger de un registro.
type ReportGenerator interface {
	GenerateMovementReport(report dto.MovementReportDTO) ([]byte, error)
}
