package entity

import "time"

// ReservationStatus estado de una reserva. CONFIRMED y RELEASED son terminales.
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "HELD"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
)

// Reservation retención de stock de una línea de orden, clave (OrderID, ProductID, WarehouseID).
type Reservation struct {
	ID          string
	OrderID     string
	ProductID   string
	WarehouseID string
	Quantity    int64
	Status      ReservationStatus
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal true si la reserva ya fue confirmada o liberada.
func (r *Reservation) Terminal() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationReleased
}

// Expired true si sigue retenida y venció su plazo.
func (r *Reservation) Expired(now time.Time) bool {
	return r.Status == ReservationHeld && now.After(r.ExpiresAt)
}
