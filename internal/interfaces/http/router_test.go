package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-stock-api/internal/application/checkout"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	infracache "github.com/jhoicas/tienda-stock-api/internal/infrastructure/cache"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/payment"
	infrapdf "github.com/jhoicas/tienda-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/validation"
	apphttp "github.com/jhoicas/tienda-stock-api/internal/interfaces/http"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

func newTestAPI(t *testing.T, limiter *apphttp.IPRateLimiter) (*fiber.App, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	mem.SeedProduct(entity.Product{ID: "camiseta", SKU: "CAM-1", Name: "Camiseta", Price: decimal.NewFromInt(39900), Active: true})
	mem.SeedWarehouse(entity.Warehouse{ID: "central", Name: "Central", Active: true})
	rp := int64(2)
	mem.SeedRecord(entity.InventoryRecord{ProductID: "camiseta", WarehouseID: "central", Quantity: 3, ReorderPoint: &rp})

	log := logger.Nop()
	store := inventory.NewStore(mem, mem.Records(), inventory.Options{MaxConflictRetries: 2}, log)
	reservations := inventory.NewReservationManager(store)
	adjustments := inventory.NewAdjustmentService(store, mem.Products(), mem.Warehouses())
	queries := inventory.NewQueryService(store, mem.Movements(), mem.Products(), mem.Warehouses(), infrapdf.NewMarotoPDFGenerator())
	sweeper := inventory.NewSweeper(reservations, mem.Reservations(), time.Minute, 10)
	validator := validation.New()
	orchestrator := checkout.NewOrchestrator(
		mem, reservations, mem.Products(), validator,
		payment.NewSimulatedGateway("0002", 0, log), infracache.NopInvalidator{},
		checkout.Options{PaymentTimeout: time.Second}, log,
	)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Checkout:        apphttp.NewCheckoutHandler(orchestrator, checkout.NewOrderQuery(mem.Orders()), log),
		Inventory:       apphttp.NewInventoryHandler(reservations, adjustments, queries, sweeper, validator, log),
		Products:        apphttp.NewProductHandler(queries, log),
		Warehouses:      apphttp.NewWarehouseHandler(queries, log),
		CheckoutLimiter: limiter,
		JWTSecret:       testJWTSecret,
	})
	return app, mem
}

func call(t *testing.T, app *fiber.App, method, path string, body any, auth string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	var out map[string]any
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "application/pdf" {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func checkoutBody(card string, qty int) map[string]any {
	return map[string]any{
		"customer": map[string]any{"email": "ana@example.com", "name": "Ana", "address": "Cra 7 # 12-40"},
		"items":    []map[string]any{{"product_id": "camiseta", "quantity": qty}},
		"payment":  map[string]any{"card_number": card},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Storefront
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Health(t *testing.T) {
	app, _ := newTestAPI(t, nil)
	resp, body := call(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_CheckoutYConsultaDeOrden(t *testing.T) {
	app, _ := newTestAPI(t, nil)

	resp, body := call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4242424242424242", 2), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	assert.Equal(t, "PAID", body["payment_status"])
	orderID, _ := body["order_id"].(string)
	require.NotEmpty(t, orderID)
	assert.NotContains(t, body, "card_number")

	resp, body = call(t, app, http.MethodGet, "/api/orders/"+orderID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PROCESSING", body["status"])
	for _, k := range []string{"customer_email", "customer_name", "email", "address", "shipping_address", "payment_id", "paid_at"} {
		assert.NotContains(t, body, k, "la vista pública no expone %s", k)
	}
	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "ana@example.com")
	assert.NotContains(t, string(raw), "Cra 7")

	resp, _ = call(t, app, http.MethodGet, "/api/admin/orders/"+orderID, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, body = call(t, app, http.MethodGet, "/api/admin/orders/"+orderID, nil, tokenForRole(t, apphttp.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["customer_email"])

	resp, body = call(t, app, http.MethodGet, "/api/orders/no-existe", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_CheckoutErrores(t *testing.T) {
	app, _ := newTestAPI(t, nil)

	resp, body := call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4000000000000002", 1), "")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "PAYMENT_FAILED", body["code"])

	resp, body = call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4242424242424242", 9), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, []any{"camiseta"}, body["product_ids"])

	resp, body = call(t, app, http.MethodPost, "/api/checkout", map[string]any{"items": []any{}}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.NotEmpty(t, body["fields"])

	resp, body = call(t, app, http.MethodPost, "/api/checkout", "{no es json", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body["code"])
}

func TestRouter_Disponibilidad(t *testing.T) {
	app, _ := newTestAPI(t, nil)

	resp, body := call(t, app, http.MethodPost, "/api/inventory/availability",
		map[string]any{"lines": []map[string]any{{"product_id": "camiseta", "quantity": 4}}}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, []any{"camiseta"}, body["out_of_stock"])

	resp, _ = call(t, app, http.MethodPost, "/api/inventory/availability", map[string]any{"lines": []any{}}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_CatalogoPublico(t *testing.T) {
	app, _ := newTestAPI(t, nil)

	resp, body := call(t, app, http.MethodGet, "/api/products/camiseta/stock", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["available"])
	whs, ok := body["warehouses"].([]any)
	require.True(t, ok)
	require.Len(t, whs, 1)
	assert.Equal(t, "central", whs[0].(map[string]any)["warehouse_id"])

	resp, body = call(t, app, http.MethodGet, "/api/products/no-existe/stock", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = call(t, app, http.MethodGet, "/api/warehouses", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Central", items[0].(map[string]any)["name"])
}

func TestRouter_LimiteDeCheckout(t *testing.T) {
	app, _ := newTestAPI(t, apphttp.NewIPRateLimiter(0.01, 1))

	resp, _ := call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4242424242424242", 1), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4242424242424242", 1), "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, "100", resp.Header.Get("Retry-After"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Back-office
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_AdminRequiereRolAdmin(t *testing.T) {
	app, _ := newTestAPI(t, nil)

	resp, _ := call(t, app, http.MethodGet, "/api/admin/inventory", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/admin/inventory", nil, tokenForRole(t, "vendedor"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/api/admin/inventory", nil, tokenForRole(t, apphttp.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["inventory"], 1)
}

func TestRouter_AjustesYMapeoDeErrores(t *testing.T) {
	app, _ := newTestAPI(t, nil)
	admin := tokenForRole(t, apphttp.RoleAdmin)

	// Una venta previa deja quantity=2 y su SALE en el ledger.
	resp, _ := call(t, app, http.MethodPost, "/api/checkout", checkoutBody("4242424242424242", 1), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	adjust := func(delta int, typ string) (*http.Response, map[string]any) {
		return call(t, app, http.MethodPost, "/api/admin/inventory/adjustments", map[string]any{
			"product_id": "camiseta", "warehouse_id": "central", "quantity": delta, "movement_type": typ,
		}, admin)
	}

	resp, body := adjust(5, "RESTOCK")
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, float64(7), body["quantity"])

	resp, body = adjust(-1, "RESTOCK")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])

	resp, body = call(t, app, http.MethodPost, "/api/admin/inventory/adjustments", map[string]any{
		"product_id": "camiseta", "warehouse_id": "norte", "quantity": -1, "movement_type": "DAMAGED",
	}, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = call(t, app, http.MethodPost, "/api/admin/inventory/records", map[string]any{
		"product_id": "camiseta", "warehouse_id": "central",
	}, admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, body = call(t, app, http.MethodGet, "/api/admin/inventory/reconcile?product_id=camiseta&warehouse_id=central", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["consistent"])
}

func TestRouter_AjusteRechazadoPorReservas(t *testing.T) {
	app, mem := newTestAPI(t, nil)
	admin := tokenForRole(t, apphttp.RoleAdmin)
	mem.SeedRecord(entity.InventoryRecord{ProductID: "camiseta", WarehouseID: "central", Quantity: 3, Reserved: 1})

	resp, body := call(t, app, http.MethodPost, "/api/admin/inventory/adjustments", map[string]any{
		"product_id": "camiseta", "warehouse_id": "central", "quantity": -3, "movement_type": "ADJUSTMENT",
	}, admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ADJUSTMENT_REJECTED", body["code"])
}

func TestRouter_MovimientosYReporte(t *testing.T) {
	app, _ := newTestAPI(t, nil)
	admin := tokenForRole(t, apphttp.RoleAdmin)

	resp, body := call(t, app, http.MethodGet, "/api/admin/inventory/movements", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sin filtro")
	assert.Equal(t, "VALIDATION", body["code"])

	resp, _ = call(t, app, http.MethodGet, "/api/admin/inventory/movements?product_id=camiseta&from=ayer", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = call(t, app, http.MethodGet, "/api/admin/inventory/movements?product_id=camiseta", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	resp, _ = call(t, app, http.MethodGet, "/api/admin/inventory/movements/report.pdf?product_id=camiseta&warehouse_id=central", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp, body = call(t, app, http.MethodGet, "/api/admin/inventory/low-stock", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["total"], "disponible 3 supera el punto de reorden 2")

	resp, body = call(t, app, http.MethodPost, "/api/admin/inventory/reservations/sweep", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["orders_expired"])
}

func TestRouter_RetiroYPuntoDeReorden(t *testing.T) {
	app, _ := newTestAPI(t, nil)
	admin := tokenForRole(t, apphttp.RoleAdmin)

	resp, body := call(t, app, http.MethodPut, "/api/admin/inventory/records/reorder-point", map[string]any{
		"product_id": "camiseta", "warehouse_id": "central", "reorder_point": 5,
	}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["low_stock"])

	resp, _ = call(t, app, http.MethodDelete, "/api/admin/inventory/records?product_id=camiseta", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = call(t, app, http.MethodDelete, "/api/admin/inventory/records?product_id=camiseta&warehouse_id=central", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["retired"])
}
