package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo (solo lectura desde el núcleo de stock).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
