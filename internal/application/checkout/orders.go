package checkout

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// OrderQuery lectura de órdenes para el storefront.
type OrderQuery struct {
	orders repository.OrderRepository
}

// NewOrderQuery construye la consulta de órdenes.
func NewOrderQuery(orders repository.OrderRepository) *OrderQuery {
	return &OrderQuery{orders: orders}
}

// GetOrder devuelve la orden completa o domain.ErrNotFound. Solo back-office.
func (q *OrderQuery) GetOrder(ctx context.Context, id string) (*dto.OrderDTO, error) {
	o, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toOrderDTO(o)
	return &out, nil
}

// GetOrderStatus vista pública: estado, total e ítems, sin datos del cliente.
func (q *OrderQuery) GetOrderStatus(ctx context.Context, id string) (*dto.OrderStatusDTO, error) {
	o, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.OrderStatusDTO{
		ID:                  o.ID,
		Status:              string(o.Status),
		PaymentStatus:       string(o.PaymentStatus),
		Total:               o.Total,
		NeedsReconciliation: o.NeedsReconciliation,
		Items:               toItemDTOs(o.Items),
		CreatedAt:           o.CreatedAt,
	}, nil
}

func (q *OrderQuery) load(ctx context.Context, id string) (*entity.Order, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	o, err := q.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func toOrderDTO(o *entity.Order) dto.OrderDTO {
	return dto.OrderDTO{
		ID:                  o.ID,
		CustomerEmail:       o.CustomerEmail,
		CustomerName:        o.CustomerName,
		Status:              string(o.Status),
		PaymentStatus:       string(o.PaymentStatus),
		PaymentID:           o.PaymentID,
		PaidAt:              o.PaidAt,
		Total:               o.Total,
		NeedsReconciliation: o.NeedsReconciliation,
		Items:               toItemDTOs(o.Items),
		CreatedAt:           o.CreatedAt,
	}
}

func toItemDTOs(items []entity.OrderItem) []dto.OrderItemDTO {
	out := make([]dto.OrderItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.OrderItemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}
