package repository

// Tx repositorios atados a una misma transacción. Toda mutación de un InventoryRecord
// y su movimiento del ledger se hacen con el mismo Tx.
type Tx struct {
	Records      InventoryRecordRepository
	Movements    MovementRepository
	Reservations ReservationRepository
	Orders       OrderRepository
}
