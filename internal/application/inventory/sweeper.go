package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// Sweeper libera las reservas vencidas de órdenes abandonadas antes del pago
// y marca esas órdenes CANCELLED/EXPIRED.
type Sweeper struct {
	manager      *ReservationManager
	reservations repository.ReservationRepository
	interval     time.Duration
	batch        int
	log          *logger.Logger
}

// NewSweeper construye el barrido. reservations se usa fuera de transacción para listar vencidas.
func NewSweeper(manager *ReservationManager, reservations repository.ReservationRepository, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{
		manager:      manager,
		reservations: reservations,
		interval:     interval,
		batch:        batch,
		log:          manager.store.log.Component("reservation-sweeper"),
	}
}

// Run ejecuta SweepOnce en cada tick hasta que se cancele ctx.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info().Dur("interval", s.interval).Int("batch", s.batch).Msg("barrido de reservas iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("error en el barrido de reservas")
			}
		}
	}
}

// SweepOnce procesa un lote de órdenes con reservas vencidas, una transacción por orden.
// Un fallo en una orden no detiene el lote.
func (s *Sweeper) SweepOnce(ctx context.Context) (dto.SweepResultDTO, error) {
	var result dto.SweepResultDTO
	store := s.manager.store
	now := store.opts.Now().UTC()
	orderIDs, err := s.reservations.ListExpiredOrderIDs(ctx, now, s.batch)
	if err != nil {
		return result, err
	}
	for _, orderID := range orderIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		released, expired, err := s.expireOrder(ctx, orderID)
		if err != nil {
			result.Failures++
			s.log.Error().Err(err).Str("order_id", orderID).Msg("no se pudo vencer la orden")
			continue
		}
		result.ReservationsReleased += released
		if expired {
			result.OrdersExpired++
		}
	}
	store.metrics.add(store.metrics.expired, int64(result.OrdersExpired))
	if len(orderIDs) > 0 {
		s.log.Info().
			Int("orders_expired", result.OrdersExpired).
			Int("reservations_released", result.ReservationsReleased).
			Int("failures", result.Failures).
			Msg("barrido de reservas completado")
	}
	return result, nil
}

type expireOutcome struct {
	released int
	expired  bool
}

// expireOrder bloquea la orden (orden -> registro -> reserva, igual que el resto del motor),
// libera sus reservas HELD y la marca vencida. Si la orden ya se pagó no toca nada.
func (s *Sweeper) expireOrder(ctx context.Context, orderID string) (int, bool, error) {
	store := s.manager.store
	out, err := retry(ctx, store, func() (expireOutcome, error) {
		var out expireOutcome
		err := store.tx.Run(ctx, func(tx repository.Tx) error {
			out = expireOutcome{}
			order, err := tx.Orders.GetForUpdate(ctx, orderID)
			if err != nil {
				return err
			}
			if order != nil && !order.AwaitingPayment() {
				return nil
			}
			list, err := tx.Reservations.ListByOrder(ctx, orderID)
			if err != nil {
				return err
			}
			sort.Slice(list, func(i, j int) bool {
				if list[i].ProductID != list[j].ProductID {
					return list[i].ProductID < list[j].ProductID
				}
				return list[i].WarehouseID < list[j].WarehouseID
			})
			for _, r := range list {
				if r.Status != entity.ReservationHeld {
					continue
				}
				if _, err := s.manager.releaseLocked(ctx, tx, r.ProductID, r.WarehouseID, r.Quantity, orderID); err != nil {
					return err
				}
				out.released++
			}
			if order == nil {
				return nil
			}
			order.Status = entity.OrderStatusCancelled
			order.PaymentStatus = entity.PaymentStatusExpired
			order.UpdatedAt = store.opts.Now().UTC()
			out.expired = true
			return tx.Orders.Update(ctx, order)
		})
		return out, err
	})
	if err != nil {
		return 0, false, err
	}
	if out.expired || out.released > 0 {
		s.log.Info().Str("order_id", orderID).Int("released", out.released).Bool("order_expired", out.expired).Msg("orden vencida por falta de pago")
	}
	return out.released, out.expired, nil
}
