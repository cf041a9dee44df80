package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
)

func TestGenerateMovementReport_GeneraPDF(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := dto.MovementReportDTO{
		ProductID:     "p-1",
		ProductName:   "Camiseta",
		SKU:           "CAM-001",
		WarehouseID:   "w-1",
		WarehouseName: "Principal",
		Quantity:      7,
		Reserved:      2,
		LedgerSum:     7,
		GeneratedAt:   now,
		Movements: []dto.MovementDTO{
			{Seq: 1, MovementType: "RESTOCK", QuantityDelta: 10, Note: "stock inicial", CreatedAt: now},
			{Seq: 2, MovementType: "SALE", QuantityDelta: -3, ReferenceID: "ord-1", CreatedAt: now},
		},
	}

	out, err := NewMarotoPDFGenerator().GenerateMovementReport(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateMovementReport_SinMovimientos(t *testing.T) {
	out, err := NewMarotoPDFGenerator().GenerateMovementReport(dto.MovementReportDTO{
		ProductID: "p-1", WarehouseID: "w-1", Quantity: 3, GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFormatQty(t *testing.T) {
	assert.Equal(t, "0", formatQty(0))
	assert.Equal(t, "999", formatQty(999))
	assert.Equal(t, "1.000", formatQty(1000))
	assert.Equal(t, "1.000.000", formatQty(1000000))
	assert.Equal(t, "-2.500", formatQty(-2500))
	assert.Equal(t, "+12", formatDelta(12))
	assert.Equal(t, "-3", formatDelta(-3))
}
