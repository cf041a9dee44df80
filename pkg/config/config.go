package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Políticas de cálculo del stock disponible en checkStockAvailability.
const (
	// PolicyAllWarehouses suma el disponible de todas las bodegas activas que tienen el producto.
	PolicyAllWarehouses = "all_warehouses"
	// PolicyDefaultWarehouse solo considera la bodega por defecto.
	PolicyDefaultWarehouse = "default_warehouse"
)

// Drivers de almacenamiento.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	HTTP        HTTPConfig
	Inventory   InventoryConfig
	Reservation ReservationConfig
	Payment     PaymentConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// RedisConfig caché de catálogo/órdenes invalidada por tags.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig configuración de JWT (rutas de back-office).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host              string
	Port              int
	CheckoutRateLimit float64 // peticiones/segundo por IP
	CheckoutRateBurst int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// InventoryConfig reglas del motor de stock.
type InventoryConfig struct {
	AvailabilityPolicy string
	DefaultWarehouseID string
	MaxConflictRetries int
	LockTimeout        time.Duration
}

// ReservationConfig vencimiento y barrido de reservas abandonadas.
type ReservationConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	SweepBatch    int
}

// PaymentConfig pasarela de pago simulada.
type PaymentConfig struct {
	Timeout       time.Duration
	DeclineSuffix string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, STOCK_AVAILABILITY_POLICY, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper construye la configuración desde una instancia de Viper ya cargada.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "tienda-stock-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "STORAGE_DRIVER", StoragePostgres),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "tienda"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBool(v, "CACHE_ENABLED", false),
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "tienda-stock-api"),
		},
		HTTP: HTTPConfig{
			Host:              getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:              getInt(v, "HTTP_PORT", 8080),
			CheckoutRateLimit: getFloat(v, "CHECKOUT_RATE_LIMIT_RPS", 5),
			CheckoutRateBurst: getInt(v, "CHECKOUT_RATE_LIMIT_BURST", 10),
		},
		Inventory: InventoryConfig{
			AvailabilityPolicy: getString(v, "STOCK_AVAILABILITY_POLICY", PolicyAllWarehouses),
			DefaultWarehouseID: getString(v, "STOCK_DEFAULT_WAREHOUSE_ID", ""),
			MaxConflictRetries: getInt(v, "STOCK_MAX_CONFLICT_RETRIES", 3),
			LockTimeout:        time.Duration(getInt(v, "STOCK_LOCK_TIMEOUT_MS", 2000)) * time.Millisecond,
		},
		Reservation: ReservationConfig{
			TTL:           time.Duration(getInt(v, "RESERVATION_TTL_MINUTES", 30)) * time.Minute,
			SweepInterval: time.Duration(getInt(v, "RESERVATION_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			SweepBatch:    getInt(v, "RESERVATION_SWEEP_BATCH", 100),
		},
		Payment: PaymentConfig{
			Timeout:       time.Duration(getInt(v, "PAYMENT_TIMEOUT_SECONDS", 15)) * time.Second,
			DeclineSuffix: getString(v, "PAYMENT_DECLINE_SUFFIX", "0002"),
		},
	}
}

// Validate verifica combinaciones que romperían las garantías del motor de stock.
func (c *Config) Validate() error {
	var errs []error
	switch c.Inventory.AvailabilityPolicy {
	case PolicyAllWarehouses:
	case PolicyDefaultWarehouse:
		if c.Inventory.DefaultWarehouseID == "" {
			errs = append(errs, errors.New("STOCK_DEFAULT_WAREHOUSE_ID requerido con la política default_warehouse"))
		}
	default:
		errs = append(errs, fmt.Errorf("STOCK_AVAILABILITY_POLICY desconocida: %q", c.Inventory.AvailabilityPolicy))
	}
	switch c.DB.Driver {
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER desconocido: %q", c.DB.Driver))
	}
	if c.Inventory.MaxConflictRetries < 0 {
		errs = append(errs, errors.New("STOCK_MAX_CONFLICT_RETRIES no puede ser negativo"))
	}
	if c.Payment.Timeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT_SECONDS debe ser positivo"))
	}
	// Una reserva nunca debe vencer mientras su checkout puede seguir esperando al pago.
	if c.Reservation.TTL <= 2*c.Payment.Timeout {
		errs = append(errs, fmt.Errorf("RESERVATION_TTL (%s) debe superar el doble de PAYMENT_TIMEOUT (%s)",
			c.Reservation.TTL, c.Payment.Timeout))
	}
	if c.Reservation.SweepInterval <= 0 || c.Reservation.SweepBatch <= 0 {
		errs = append(errs, errors.New("RESERVATION_SWEEP_INTERVAL_SECONDS y RESERVATION_SWEEP_BATCH deben ser positivos"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuración inválida: %w", errors.Join(errs...))
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
