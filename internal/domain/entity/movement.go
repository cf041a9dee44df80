package entity

import "time"

// MovementType tipo de movimiento del ledger de stock.
type MovementType string

const (
	MovementAdjustment         MovementType = "ADJUSTMENT"
	MovementRestock            MovementType = "RESTOCK"
	MovementDamaged            MovementType = "DAMAGED"
	MovementReturn             MovementType = "RETURN"
	MovementSale               MovementType = "SALE"
	MovementReservation        MovementType = "RESERVATION"
	MovementReservationRelease MovementType = "RESERVATION_RELEASE"
)

// Valid true si el tipo pertenece al enum.
func (t MovementType) Valid() bool {
	switch t {
	case MovementAdjustment, MovementRestock, MovementDamaged, MovementReturn,
		MovementSale, MovementReservation, MovementReservationRelease:
		return true
	}
	return false
}

// Manual true para los tipos que acepta el ajuste administrativo de stock.
func (t MovementType) Manual() bool {
	switch t {
	case MovementAdjustment, MovementRestock, MovementDamaged, MovementReturn, MovementSale:
		return true
	}
	return false
}

// AcceptsDelta valida el signo del delta según el tipo:
// RESTOCK y RETURN suman, DAMAGED y SALE restan, ADJUSTMENT admite ambos (nunca cero).
func (t MovementType) AcceptsDelta(delta int64) bool {
	switch t {
	case MovementRestock, MovementReturn:
		return delta > 0
	case MovementDamaged, MovementSale:
		return delta < 0
	case MovementAdjustment:
		return delta != 0
	}
	return false
}

// MovementLedgerEntry registro inmutable del ledger. QuantityDelta > 0 aumenta stock, < 0 lo reduce.
// Las reservas y sus liberaciones llevan delta 0: retienen stock sin moverlo.
type MovementLedgerEntry struct {
	ID            string
	Seq           int64 // orden monotónico de creación
	ProductID     string
	WarehouseID   string
	Type          MovementType
	QuantityDelta int64
	ReferenceID   string // orden, OC, nota de ajuste...
	Note          string
	CreatedAt     time.Time
}
