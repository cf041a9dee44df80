package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// Motivos de una reserva fallida.
const (
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonNotStocked        = "NOT_STOCKED"
)

// ReservationResult resultado de ReserveStock. Un fallo de negocio no es un error.
type ReservationResult struct {
	Success bool
	Reason  string
}

// ReservationManager único componente que modifica reserved.
type ReservationManager struct {
	store *Store
}

// NewReservationManager construye el gestor de reservas sobre el store.
func NewReservationManager(store *Store) *ReservationManager {
	return &ReservationManager{store: store}
}

// ReserveStock retiene quantity unidades para orderID si el disponible alcanza.
// Repetir la misma reserva (misma orden, línea y cantidad) es idempotente.
// No se reintenta ante stock insuficiente: decide el llamador.
func (m *ReservationManager) ReserveStock(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) (ReservationResult, error) {
	if productID == "" || warehouseID == "" || orderID == "" || quantity <= 0 {
		return ReservationResult{}, domain.ErrInvalidInput
	}
	s := m.store
	result, err := retry(ctx, s, func() (ReservationResult, error) {
		var result ReservationResult
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			result = ReservationResult{}
			rec, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
			if err != nil {
				return err
			}
			if rec == nil || rec.Retired {
				result.Reason = ReasonNotStocked
				return nil
			}
			existing, err := tx.Reservations.GetForUpdate(ctx, orderID, productID, warehouseID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.Status == entity.ReservationHeld && existing.Quantity == quantity {
					result.Success = true
					return nil
				}
				return fmt.Errorf("%w: la línea ya tiene una reserva %s de %d unidades",
					domain.ErrInvalidInput, existing.Status, existing.Quantity)
			}
			if rec.Available() < quantity {
				result.Reason = ReasonInsufficientStock
				return nil
			}
			if _, err := s.applyLocked(ctx, tx, rec, Delta{
				ProductID:     productID,
				WarehouseID:   warehouseID,
				ReservedDelta: quantity,
				Type:          entity.MovementReservation,
				ReferenceID:   orderID,
				Note:          fmt.Sprintf("reservado: %d", quantity),
			}); err != nil {
				return err
			}
			now := s.opts.Now().UTC()
			result.Success = true
			return tx.Reservations.Create(ctx, &entity.Reservation{
				ID:          uuid.NewString(),
				OrderID:     orderID,
				ProductID:   productID,
				WarehouseID: warehouseID,
				Quantity:    quantity,
				Status:      entity.ReservationHeld,
				ExpiresAt:   now.Add(s.opts.ReservationTTL),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		})
		return result, err
	})
	if err != nil {
		return ReservationResult{}, err
	}

	outcome := "ok"
	if !result.Success {
		outcome = result.Reason
		s.log.Info().
			Str("order_id", orderID).
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Int64("quantity", quantity).
			Str("reason", result.Reason).
			Msg("reserva rechazada")
	}
	s.metrics.add(s.metrics.reservations, 1, attribute.String("result", outcome))
	return result, nil
}

// ReleaseReservation devuelve al disponible hasta quantity unidades retenidas por orderID.
// Nunca libera más de lo que la orden retiene: recorta y registra la anomalía en vez de fallar,
// porque se usa en compensaciones. Sin reserva de la orden, o con una ya confirmada o liberada,
// la llamada es un no-op.
func (m *ReservationManager) ReleaseReservation(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) error {
	if productID == "" || warehouseID == "" || orderID == "" || quantity <= 0 {
		return domain.ErrInvalidInput
	}
	s := m.store
	released, err := retry(ctx, s, func() (int64, error) {
		var released int64
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			var err error
			released, err = m.releaseLocked(ctx, tx, productID, warehouseID, quantity, orderID)
			return err
		})
		return released, err
	})
	if err != nil {
		return err
	}
	s.metrics.add(s.metrics.releases, released)
	return nil
}

// releaseLocked libera dentro de tx. Devuelve las unidades efectivamente liberadas.
func (m *ReservationManager) releaseLocked(ctx context.Context, tx repository.Tx, productID, warehouseID string, quantity int64, orderID string) (int64, error) {
	s := m.store
	lg := s.log.Zerolog().With().
		Str("order_id", orderID).
		Str("product_id", productID).
		Str("warehouse_id", warehouseID).
		Logger()

	rec, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		lg.Warn().Int64("requested", quantity).Msg("anomalía: liberación sobre un registro inexistente")
		return 0, nil
	}
	res, err := tx.Reservations.GetForUpdate(ctx, orderID, productID, warehouseID)
	if err != nil {
		return 0, err
	}

	// Sin fila la orden no retiene nada en este registro: lo reservado pertenece a otras órdenes.
	if res == nil {
		lg.Warn().Int64("requested", quantity).Int64("reserved", rec.Reserved).Msg("anomalía: liberación sin reserva de la orden, se ignora")
		return 0, nil
	}
	if res.Terminal() {
		lg.Info().Str("status", string(res.Status)).Msg("liberación ignorada: la reserva ya está en estado terminal")
		return 0, nil
	}
	held := quantity
	if held > res.Quantity {
		lg.Warn().Int64("requested", quantity).Int64("held", res.Quantity).Msg("anomalía: liberación mayor que la reserva, se recorta")
		held = res.Quantity
	}

	amount := held
	if amount > rec.Reserved {
		lg.Warn().Int64("requested", held).Int64("reserved", rec.Reserved).Msg("anomalía: liberación mayor que lo reservado en el registro, se recorta")
		amount = rec.Reserved
	}

	if amount > 0 {
		if _, err := s.applyLocked(ctx, tx, rec, Delta{
			ProductID:     productID,
			WarehouseID:   warehouseID,
			ReservedDelta: -amount,
			Type:          entity.MovementReservationRelease,
			ReferenceID:   orderID,
			Note:          fmt.Sprintf("liberado: %d", amount),
		}); err != nil {
			return 0, err
		}
	}

	if held >= res.Quantity {
		res.Status = entity.ReservationReleased
	} else {
		res.Quantity -= held
	}
	res.UpdatedAt = s.opts.Now().UTC()
	if err := tx.Reservations.Update(ctx, res); err != nil {
		return 0, err
	}
	return amount, nil
}

// ConfirmSale convierte la reserva de orderID en una baja permanente: quantity y reserved bajan
// en quantity unidades y se escribe un movimiento SALE. Confirmar dos veces es un no-op;
// confirmar sin reserva retenida devuelve domain.ErrNoActiveReservation.
func (m *ReservationManager) ConfirmSale(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) error {
	if productID == "" || warehouseID == "" || orderID == "" || quantity <= 0 {
		return domain.ErrInvalidInput
	}
	s := m.store
	confirmed, err := retry(ctx, s, func() (bool, error) {
		var confirmed bool
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			confirmed = false
			rec, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.ErrNotFound
			}
			res, err := tx.Reservations.GetForUpdate(ctx, orderID, productID, warehouseID)
			if err != nil {
				return err
			}
			switch {
			case res == nil, res.Status == entity.ReservationReleased:
				return domain.ErrNoActiveReservation
			case res.Status == entity.ReservationConfirmed:
				return nil
			case res.Quantity != quantity:
				return fmt.Errorf("%w: la reserva retiene %d unidades, se pidió confirmar %d",
					domain.ErrInvalidInput, res.Quantity, quantity)
			}
			if _, err := s.applyLocked(ctx, tx, rec, Delta{
				ProductID:     productID,
				WarehouseID:   warehouseID,
				QuantityDelta: -quantity,
				ReservedDelta: -quantity,
				Type:          entity.MovementSale,
				ReferenceID:   orderID,
				Note:          "venta confirmada",
			}); err != nil {
				return err
			}
			res.Status = entity.ReservationConfirmed
			res.UpdatedAt = s.opts.Now().UTC()
			confirmed = true
			return tx.Reservations.Update(ctx, res)
		})
		return confirmed, err
	})
	if err != nil {
		return err
	}
	if confirmed {
		s.metrics.add(s.metrics.sales, quantity)
	}
	return nil
}
