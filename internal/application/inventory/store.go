package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// Políticas de disponibilidad (ver STOCK_AVAILABILITY_POLICY).
const (
	PolicyAllWarehouses    = "all_warehouses"
	PolicyDefaultWarehouse = "default_warehouse"
)

// Options reglas del motor de stock.
type Options struct {
	MaxConflictRetries int
	AvailabilityPolicy string
	DefaultWarehouseID string
	ReservationTTL     time.Duration
	// Now reloj inyectable (tests); por defecto time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxConflictRetries < 0 {
		o.MaxConflictRetries = 0
	}
	if o.AvailabilityPolicy == "" {
		o.AvailabilityPolicy = PolicyAllWarehouses
	}
	if o.ReservationTTL <= 0 {
		o.ReservationTTL = 30 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Delta cambio atómico sobre un registro y el movimiento del ledger que lo acompaña.
// El delta del ledger siempre es QuantityDelta: reservas y liberaciones quedan en 0.
type Delta struct {
	ProductID     string
	WarehouseID   string
	QuantityDelta int64
	ReservedDelta int64
	Type          entity.MovementType
	ReferenceID   string
	Note          string
}

// Store almacenamiento y mutación atómica de quantity/reserved por (producto, bodega).
type Store struct {
	tx      TxRunner
	records repository.InventoryRecordRepository
	opts    Options
	log     *logger.Logger
	metrics *stockMetrics
}

// NewStore construye el store. records se usa solo para lecturas fuera de transacción.
func NewStore(tx TxRunner, records repository.InventoryRecordRepository, opts Options, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		tx:      tx,
		records: records,
		opts:    opts.withDefaults(),
		log:     log.Component("inventory"),
		metrics: newStockMetrics(),
	}
}

// Options devuelve la configuración efectiva.
func (s *Store) Options() Options {
	return s.opts
}

// Get devuelve el registro o domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := s.records.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ApplyDelta bloquea el registro, aplica ambos deltas y escribe su movimiento en una sola transacción.
// Si quantity o reserved quedarían negativos devuelve domain.ErrInsufficientStock sin efecto alguno.
func (s *Store) ApplyDelta(ctx context.Context, d Delta) (*entity.InventoryRecord, error) {
	if d.ProductID == "" || d.WarehouseID == "" || !d.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return retry(ctx, s, func() (*entity.InventoryRecord, error) {
		var out *entity.InventoryRecord
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			rec, err := tx.Records.GetForUpdate(ctx, d.ProductID, d.WarehouseID)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.ErrNotFound
			}
			out, err = s.applyLocked(ctx, tx, rec, d)
			return err
		})
		return out, err
	})
}

// applyLocked aplica d sobre un registro ya bloqueado en tx y agrega exactamente un movimiento.
func (s *Store) applyLocked(ctx context.Context, tx repository.Tx, rec *entity.InventoryRecord, d Delta) (*entity.InventoryRecord, error) {
	now := s.opts.Now().UTC()
	next, err := rec.WithDelta(d.QuantityDelta, d.ReservedDelta, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Records.Update(ctx, &next); err != nil {
		return nil, err
	}
	entry := &entity.MovementLedgerEntry{
		ID:            newLedgerID(),
		ProductID:     d.ProductID,
		WarehouseID:   d.WarehouseID,
		Type:          d.Type,
		QuantityDelta: d.QuantityDelta,
		ReferenceID:   d.ReferenceID,
		Note:          d.Note,
		CreatedAt:     now,
	}
	if err := tx.Movements.Create(ctx, entry); err != nil {
		return nil, err
	}
	*rec = next
	return &next, nil
}

// newLedgerID UUIDv7: ordenable por tiempo de creación.
func newLedgerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// retry reintenta op solo ante domain.ErrConcurrentModification, hasta MaxConflictRetries veces
// con backoff exponencial. Cualquier otro error corta en el primer intento.
func retry[T any](ctx context.Context, s *Store, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, domain.ErrConcurrentModification) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.opts.MaxConflictRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.metrics.add(s.metrics.conflicts, 1)
			s.log.Debug().Err(err).Dur("next", next).Msg("conflicto de concurrencia, reintentando")
		}),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return res, err
}
