package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// State estado del checkout de una orden.
type State string

const (
	StateValidating        State = "VALIDATING"
	StateStockChecked      State = "STOCK_CHECKED"
	StateOrderCreated      State = "ORDER_CREATED"
	StateReserved          State = "RESERVED"
	StatePaid              State = "PAID"
	StateConfirmed         State = "CONFIRMED"
	StateRejected          State = "REJECTED"
	StateReservationFailed State = "RESERVATION_FAILED"
	StatePaymentFailed     State = "PAYMENT_FAILED"
)

// Tags de caché invalidados tras un checkout exitoso.
const (
	TagOrders   = "orders"
	TagProducts = "products"
)

// Options tiempos del checkout.
type Options struct {
	PaymentTimeout      time.Duration
	CompensationTimeout time.Duration
	CacheTimeout        time.Duration
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PaymentTimeout <= 0 {
		o.PaymentTimeout = 15 * time.Second
	}
	if o.CompensationTimeout <= 0 {
		o.CompensationTimeout = 10 * time.Second
	}
	if o.CacheTimeout <= 0 {
		o.CacheTimeout = 2 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Orchestrator secuencia disponibilidad -> orden -> reservas -> pago -> confirmación o compensación.
type Orchestrator struct {
	tx        TxRunner
	stock     StockService
	products  repository.ProductRepository
	validator Validator
	payments  PaymentGateway
	cache     CacheInvalidator
	opts      Options
	log       *logger.Logger
	outcomes  metric.Int64Counter
}

// NewOrchestrator construye el orquestador de checkout.
func NewOrchestrator(
	tx TxRunner,
	stock StockService,
	products repository.ProductRepository,
	validator Validator,
	payments PaymentGateway,
	cache CacheInvalidator,
	opts Options,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	outcomes, err := otel.Meter("github.com/jhoicas/tienda-stock-api/checkout").
		Int64Counter("checkout.outcomes", metric.WithDescription("Checkouts por estado final"))
	if err != nil {
		outcomes = noop.Int64Counter{}
	}
	return &Orchestrator{
		tx:        tx,
		stock:     stock,
		products:  products,
		validator: validator,
		payments:  payments,
		cache:     cache,
		opts:      opts.withDefaults(),
		log:       log.Component("checkout"),
		outcomes:  outcomes,
	}
}

// run estado de un checkout en curso.
type run struct {
	orderID string
	state   State
	log     zerolog.Logger
}

func (r *run) to(s State) {
	r.log.Debug().Str("from", string(r.state)).Str("to", string(s)).Msg("transición de checkout")
	r.state = s
}

// Checkout ejecuta el flujo completo. Cualquier fallo antes del pago deja el sistema como estaba:
// sin orden PENDING huérfana y sin reservas retenidas.
func (o *Orchestrator) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	orderID := uuid.NewString()
	r := &run{
		orderID: orderID,
		state:   StateValidating,
		log:     o.log.Zerolog().With().Str("order_id", orderID).Logger(),
	}
	resp, err := o.checkout(ctx, r, req)
	o.outcomes.Add(context.Background(), 1, metric.WithAttributes(attribute.String("state", string(r.state))))
	if err != nil {
		r.log.Info().Err(err).Str("state", string(r.state)).Msg("checkout terminado sin éxito")
		return nil, err
	}
	r.log.Info().Str("payment_id", resp.PaymentID).Str("total", resp.Total.String()).Msg("checkout confirmado")
	return resp, nil
}

func (o *Orchestrator) checkout(ctx context.Context, r *run, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	// 1. Validación de forma y catálogo
	if err := o.validator.Validate(req); err != nil {
		r.to(StateRejected)
		return nil, err
	}
	lines := mergeItems(req.Items)
	order, err := o.buildOrder(ctx, r.orderID, req, lines)
	if err != nil {
		r.to(StateRejected)
		return nil, err
	}

	// 2. Pre-chequeo de disponibilidad
	avail, err := o.stock.CheckStockAvailability(ctx, lines)
	if err != nil {
		r.to(StateRejected)
		return nil, err
	}
	if !avail.Available {
		r.to(StateRejected)
		return nil, &domain.InsufficientStockError{ProductIDs: avail.OutOfStock}
	}
	r.to(StateStockChecked)

	allocs, err := o.stock.AllocateLines(ctx, lines)
	if err != nil {
		r.to(StateRejected)
		return nil, err
	}

	// 3. Orden PENDING/PENDING
	if err := o.tx.Run(ctx, func(tx repository.Tx) error {
		return tx.Orders.Create(ctx, order)
	}); err != nil {
		r.to(StateRejected)
		return nil, err
	}
	r.to(StateOrderCreated)

	// 4. Reserva por línea y bodega; ante el primer fallo se liberan las ya reservadas
	reserved := make([]inventory.Allocation, 0, len(allocs))
	for _, a := range allocs {
		res, err := o.stock.ReserveStock(ctx, a.ProductID, a.WarehouseID, a.Quantity, order.ID)
		if err == nil && !res.Success {
			err = &domain.InsufficientStockError{ProductIDs: []string{a.ProductID}}
		}
		if err != nil {
			r.log.Info().Err(err).Str("product_id", a.ProductID).Str("warehouse_id", a.WarehouseID).Msg("reserva fallida, compensando")
			o.compensate(ctx, r, reserved)
			r.to(StateReservationFailed)
			return nil, err
		}
		reserved = append(reserved, a)
	}
	r.to(StateReserved)

	// 5. Pago con timeout: cancelación o timeout equivalen a un rechazo
	payCtx, cancel := context.WithTimeout(ctx, o.opts.PaymentTimeout)
	payment, err := o.payments.ProcessPayment(payCtx, PaymentRequest{
		Amount:     order.Total,
		OrderID:    order.ID,
		CardNumber: req.Payment.CardNumber,
	})
	cancel()
	if err == nil && !payment.Success {
		err = errors.New("pago rechazado por la pasarela")
	}
	if err != nil {
		// 6. Compensación completa
		r.log.Info().Err(err).Msg("pago fallido, compensando")
		o.compensate(ctx, r, reserved)
		r.to(StatePaymentFailed)
		return nil, domain.ErrPaymentFailed
	}

	// 7. El pago ya está capturado: de aquí en adelante no se revierte, se concilia.
	// La confirmación no depende de que el cliente siga conectado.
	confirmCtx := context.WithoutCancel(ctx)
	paidAt := o.opts.Now().UTC()
	if err := o.markPaid(confirmCtx, order, payment.PaymentID, paidAt); err != nil {
		return nil, o.partialConfirmation(confirmCtx, r, 0, len(allocs), err)
	}
	r.to(StatePaid)

	for i, a := range allocs {
		if err := o.stock.ConfirmSale(confirmCtx, a.ProductID, a.WarehouseID, a.Quantity, order.ID); err != nil {
			r.log.Error().Err(err).Str("product_id", a.ProductID).Str("warehouse_id", a.WarehouseID).Msg("confirmación de línea fallida")
			return nil, o.partialConfirmation(confirmCtx, r, i, len(allocs)-i, err)
		}
	}
	r.to(StateConfirmed)

	// 8. Invalidación de caché, de mejor esfuerzo
	o.invalidate(confirmCtx, r)

	return &dto.CheckoutResponse{
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentID:     order.PaymentID,
		Total:         order.Total,
		Items:         toItemDTOs(order.Items),
	}, nil
}

// buildOrder arma la orden con precios del catálogo. Productos inexistentes o inactivos son error de validación.
func (o *Orchestrator) buildOrder(ctx context.Context, orderID string, req dto.CheckoutRequest, lines []inventory.Line) (*entity.Order, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := o.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var fields []domain.FieldError
	for i, it := range req.Items {
		if p := products[it.ProductID]; p == nil || !p.Active {
			fields = append(fields, domain.FieldError{
				Path:    fmt.Sprintf("items[%d].product_id", i),
				Message: "el producto no existe o no está disponible",
			})
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	now := o.opts.Now().UTC()
	order := &entity.Order{
		ID:              orderID,
		CustomerEmail:   req.Customer.Email,
		CustomerName:    req.Customer.Name,
		ShippingAddress: req.Customer.Address,
		Status:          entity.OrderStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
		Total:           decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range lines {
		price := products[l.ProductID].Price
		subtotal := price.Mul(decimal.NewFromInt(l.Quantity))
		order.Items = append(order.Items, entity.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
		order.Total = order.Total.Add(subtotal)
	}
	return order, nil
}

// compensate libera cada reserva hecha, una sola vez, y borra la orden.
// Un fallo aquí es alertable: la reserva queda retenida hasta que el barrido la venza.
func (o *Orchestrator) compensate(ctx context.Context, r *run, reserved []inventory.Allocation) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CompensationTimeout)
	defer cancel()

	for _, a := range reserved {
		if err := o.stock.ReleaseReservation(cctx, a.ProductID, a.WarehouseID, a.Quantity, r.orderID); err != nil {
			r.log.Error().Err(err).
				Bool("alert", true).
				Str("product_id", a.ProductID).
				Str("warehouse_id", a.WarehouseID).
				Int64("quantity", a.Quantity).
				Msg("compensación fallida: no se pudo liberar la reserva")
		}
	}
	if err := o.tx.Run(cctx, func(tx repository.Tx) error {
		return tx.Orders.Delete(cctx, r.orderID)
	}); err != nil {
		r.log.Error().Err(err).Bool("alert", true).Msg("compensación fallida: no se pudo borrar la orden pendiente")
	}
}

// markPaid pasa la orden a PROCESSING/PAID, solo si sigue pendiente.
func (o *Orchestrator) markPaid(ctx context.Context, order *entity.Order, paymentID string, paidAt time.Time) error {
	return o.tx.Run(ctx, func(tx repository.Tx) error {
		current, err := tx.Orders.GetForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !current.AwaitingPayment() {
			return fmt.Errorf("%w: la orden está %s/%s", domain.ErrConflict, current.Status, current.PaymentStatus)
		}
		current.Status = entity.OrderStatusProcessing
		current.PaymentStatus = entity.PaymentStatusPaid
		current.PaymentID = paymentID
		current.PaidAt = &paidAt
		current.UpdatedAt = paidAt
		if err := tx.Orders.Update(ctx, current); err != nil {
			return err
		}
		order.Status = current.Status
		order.PaymentStatus = current.PaymentStatus
		order.PaymentID = paymentID
		order.PaidAt = current.PaidAt
		order.UpdatedAt = paidAt
		return nil
	})
}

// partialConfirmation marca la orden para conciliación manual. Nunca revierte el pago.
func (o *Orchestrator) partialConfirmation(ctx context.Context, r *run, confirmed, pending int, cause error) error {
	perr := &domain.PartialConfirmationError{
		OrderID:   r.orderID,
		Confirmed: confirmed,
		Pending:   pending,
		Cause:     cause,
	}
	r.log.Error().Err(cause).
		Bool("reconciliation", true).
		Int("confirmed", confirmed).
		Int("pending", pending).
		Str("state", string(r.state)).
		Msg("pago capturado con confirmación incompleta")

	err := o.tx.Run(ctx, func(tx repository.Tx) error {
		current, err := tx.Orders.GetForUpdate(ctx, r.orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		current.NeedsReconciliation = true
		current.ReconciliationNote = perr.Error()
		current.UpdatedAt = o.opts.Now().UTC()
		return tx.Orders.Update(ctx, current)
	})
	if err != nil {
		r.log.Error().Err(err).Bool("alert", true).Bool("reconciliation", true).Msg("no se pudo marcar la orden para conciliación")
	}
	return perr
}

func (o *Orchestrator) invalidate(ctx context.Context, r *run) {
	if o.cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, o.opts.CacheTimeout)
	defer cancel()
	if err := o.cache.InvalidateTags(cctx, TagOrders, TagProducts); err != nil {
		r.log.Warn().Err(err).Msg("no se pudo invalidar la caché")
	}
}

// mergeItems suma líneas del mismo producto conservando el orden del carrito.
func mergeItems(items []dto.CartItemInput) []inventory.Line {
	idx := make(map[string]int, len(items))
	lines := make([]inventory.Line, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(lines)
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
