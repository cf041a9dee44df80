package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/tienda-stock-api/internal/application/checkout"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
	infracache "github.com/jhoicas/tienda-stock-api/internal/infrastructure/cache"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/payment"
	infrapdf "github.com/jhoicas/tienda-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/validation"
	httpRouter "github.com/jhoicas/tienda-stock-api/internal/interfaces/http"
	"github.com/jhoicas/tienda-stock-api/pkg/config"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios y transacciones del driver elegido.
type storage struct {
	tx           inventory.TxRunner
	records      repository.InventoryRecordRepository
	movements    repository.MovementRepository
	reservations repository.ReservationRepository
	orders       repository.OrderRepository
	products     repository.ProductRepository
	warehouses   repository.WarehouseRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Str("availability_policy", cfg.Inventory.AvailabilityPolicy).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("inicializar almacenamiento")
	}
	defer st.close()

	var invalidator checkout.CacheInvalidator = infracache.NopInvalidator{}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// La invalidación es de mejor esfuerzo: se sigue sin caché.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, invalidación desactivada")
		} else {
			invalidator = infracache.NewRedisInvalidator(client)
		}
	}

	store := inventory.NewStore(st.tx, st.records, inventory.Options{
		MaxConflictRetries: cfg.Inventory.MaxConflictRetries,
		AvailabilityPolicy: cfg.Inventory.AvailabilityPolicy,
		DefaultWarehouseID: cfg.Inventory.DefaultWarehouseID,
		ReservationTTL:     cfg.Reservation.TTL,
	}, log)
	reservations := inventory.NewReservationManager(store)
	adjustments := inventory.NewAdjustmentService(store, st.products, st.warehouses)
	queries := inventory.NewQueryService(store, st.movements, st.products, st.warehouses, infrapdf.NewMarotoPDFGenerator())
	sweeper := inventory.NewSweeper(reservations, st.reservations, cfg.Reservation.SweepInterval, cfg.Reservation.SweepBatch)

	validator := validation.New()
	gateway := payment.NewSimulatedGateway(cfg.Payment.DeclineSuffix, 150*time.Millisecond, log)
	orchestrator := checkout.NewOrchestrator(
		st.tx, reservations, st.products, validator, gateway, invalidator,
		checkout.Options{PaymentTimeout: cfg.Payment.Timeout},
		log,
	)
	orders := checkout.NewOrderQuery(st.orders)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Tienda Stock API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Checkout:        httpRouter.NewCheckoutHandler(orchestrator, orders, log),
		Inventory:       httpRouter.NewInventoryHandler(reservations, adjustments, queries, sweeper, validator, log),
		Products:        httpRouter.NewProductHandler(queries, log),
		Warehouses:      httpRouter.NewWarehouseHandler(queries, log),
		CheckoutLimiter: httpRouter.NewIPRateLimiter(cfg.HTTP.CheckoutRateLimit, cfg.HTTP.CheckoutRateBurst),
		JWTSecret:       cfg.JWT.Secret,
	})

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(sweepCtx)
	}()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	cancelSweep()
	<-sweepDone

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.StorageMemory {
		mem := memory.NewStore()
		if cfg.App.Env == "development" {
			seedDemo(mem)
			log.Info().Msg("store en memoria con catálogo de demostración")
		}
		return &storage{
			tx:           mem,
			records:      mem.Records(),
			movements:    mem.Movements(),
			reservations: mem.Reservations(),
			orders:       mem.Orders(),
			products:     mem.Products(),
			warehouses:   mem.Warehouses(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		tx:           postgres.NewTxRunner(pool, cfg.Inventory.LockTimeout),
		records:      postgres.NewInventoryRecordRepository(pool),
		movements:    postgres.NewMovementRepository(pool),
		reservations: postgres.NewReservationRepository(pool),
		orders:       postgres.NewOrderRepository(pool),
		products:     postgres.NewProductRepository(pool),
		warehouses:   postgres.NewWarehouseRepository(pool),
		close:        pool.Close,
	}, nil
}
