package dto

import "github.com/shopspring/decimal"

// CustomerInput datos del comprador.
type CustomerInput struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Address string `json:"address" validate:"required,min=5,max=300"`
}

// CartItemInput línea del carrito.
type CartItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// PaymentInput instrumento de pago. Nunca se registra ni se devuelve.
type PaymentInput struct {
	CardNumber string `json:"card_number" validate:"required,numeric,min=12,max=19"`
}

// CheckoutRequest body para POST /api/checkout.
type CheckoutRequest struct {
	Customer CustomerInput   `json:"customer"`
	Items    []CartItemInput `json:"items" validate:"required,min=1,dive"`
	Payment  PaymentInput    `json:"payment"`
}

// CheckoutResponse resultado de un checkout exitoso.
type CheckoutResponse struct {
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentID     string          `json:"payment_id"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItemDTO  `json:"items"`
}
