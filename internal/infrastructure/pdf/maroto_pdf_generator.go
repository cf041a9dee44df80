// Package pdf genera el reporte de movimientos de un registro de inventario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + SKU      │  Bodega + Fecha de corte     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Existencia / Reservado / Disponible / Ledger       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Seq | Fecha | Tipo | Delta | Referencia | Nota       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: estado de conciliación                              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 20, Blue: 20}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.ReportGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa inventory.ReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateMovementReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateMovementReport(report dto.MovementReportDTO) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Movimientos de inventario", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(movementRows(report.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: producto + SKU (izq) y bodega + fecha de corte (der).
func headerRow(r dto.MovementReportDTO) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(r.ProductName, r.ProductID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SKU: "+nonEmpty(r.SKU, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("MOVIMIENTOS DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(r.WarehouseName, r.WarehouseID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Corte: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cantidades actuales del registro.
func summaryRow(r dto.MovementReportDTO) core.Row {
	cell := func(label string, v int64) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1, Align: align.Center}),
			text.New(formatQty(v), props.Text{Size: 11, Top: 6, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("Existencia", r.Quantity),
		cell("Reservado", r.Reserved),
		cell("Disponible", r.Quantity-r.Reserved),
		cell("Suma ledger", r.LedgerSum),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Seq", 1, align.Center),
		h("Fecha", 2, align.Left),
		h("Tipo", 3, align.Left),
		h("Delta", 1, align.Right),
		h("Referencia", 2, align.Left),
		h("Nota", 3, align.Left),
	)
}

// movementRows: una fila por entrada del ledger, en orden de seq.
func movementRows(movements []dto.MovementDTO) []core.Row {
	if len(movements) == 0 {
		return []core.Row{row.New(7).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray}),
		))}
	}
	result := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(strconv.FormatInt(mv.Seq, 10),
				props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(mv.CreatedAt.Format("02/01/06 15:04"),
				props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(mv.MovementType,
				props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatDelta(mv.QuantityDelta),
				props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(nonEmpty(mv.ReferenceID, "-"),
				props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(mv.Note,
				props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return result
}

func footerRow(r dto.MovementReportDTO) core.Row {
	msg := "Ledger consistente con la existencia registrada."
	color := colorGray
	if r.LedgerSum != r.Quantity {
		msg = fmt.Sprintf("Diferencia de %s unidades entre ledger y existencia. Requiere conciliación.",
			formatDelta(r.Quantity-r.LedgerSum))
		color = colorAlert
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Style: fontstyle.Bold, Size: 8, Color: color, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDelta(v int64) string {
	if v > 0 {
		return "+" + formatQty(v)
	}
	return formatQty(v)
}

// formatQty inserta puntos de miles. Ej: 1000000 → "1.000.000", -2500 → "-2.500".
func formatQty(v int64) string {
	s := strconv.FormatInt(v, 10)
	sign := ""
	if v < 0 {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
