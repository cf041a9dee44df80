package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Checkout        *CheckoutHandler
	Inventory       *InventoryHandler
	Products        *ProductHandler
	Warehouses      *WarehouseHandler
	CheckoutLimiter *IPRateLimiter
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Storefront (público)
	checkoutMw := []fiber.Handler{}
	if deps.CheckoutLimiter != nil {
		checkoutMw = append(checkoutMw, deps.CheckoutLimiter.Middleware())
	}
	api.Post("/checkout", append(checkoutMw, deps.Checkout.Checkout)...)
	api.Get("/orders/:id", deps.Checkout.GetOrder)
	api.Post("/inventory/availability", deps.Inventory.Availability)
	if deps.Products != nil {
		api.Get("/products/:id/stock", deps.Products.GetStock)
	}
	if deps.Warehouses != nil {
		api.Get("/warehouses", deps.Warehouses.List)
	}

	// Back-office (Bearer Token con rol admin)
	admin := api.Group("/admin", AuthMiddleware(deps.JWTSecret), RequireRole(RoleAdmin))

	admin.Get("/orders/:id", deps.Checkout.AdminGetOrder)

	inv := admin.Group("/inventory")
	inv.Get("/", deps.Inventory.List)
	inv.Get("/low-stock", deps.Inventory.LowStock)
	inv.Post("/adjustments", deps.Inventory.Adjust)
	inv.Post("/records", deps.Inventory.Provision)
	inv.Put("/records/reorder-point", deps.Inventory.SetReorderPoint)
	inv.Delete("/records", deps.Inventory.Retire)
	inv.Get("/movements", deps.Inventory.Movements)
	inv.Get("/movements/report.pdf", deps.Inventory.MovementReport)
	inv.Get("/reconcile", deps.Inventory.Reconcile)
	inv.Post("/reservations/sweep", deps.Inventory.Sweep)
}
