package inventory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/jhoicas/tienda-stock-api/inventory"

// stockMetrics contadores del motor de stock. Sin SDK instalado el meter global es no-op.
type stockMetrics struct {
	reservations metric.Int64Counter
	releases     metric.Int64Counter
	sales        metric.Int64Counter
	adjustments  metric.Int64Counter
	conflicts    metric.Int64Counter
	expired      metric.Int64Counter
}

func newStockMetrics() *stockMetrics {
	m := otel.Meter(meterName)
	return &stockMetrics{
		reservations: counter(m, "stock.reservations", "Intentos de reserva por resultado"),
		releases:     counter(m, "stock.releases", "Unidades liberadas de reservas"),
		sales:        counter(m, "stock.sales.confirmed", "Unidades vendidas confirmadas"),
		adjustments:  counter(m, "stock.adjustments", "Ajustes administrativos por tipo"),
		conflicts:    counter(m, "stock.conflict_retries", "Reintentos por modificación concurrente"),
		expired:      counter(m, "stock.reservations.expired_orders", "Órdenes vencidas por el barrido de reservas"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func (m *stockMetrics) add(c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if m == nil || n == 0 {
		return
	}
	c.Add(context.Background(), n, metric.WithAttributes(attrs...))
}
