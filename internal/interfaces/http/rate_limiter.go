package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
)

const visitorTTL = 3 * time.Minute

// IPRateLimiter limitador por IP para rutas públicas costosas (checkout).
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter rps <= 0 desactiva el límite.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      limit,
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *IPRateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// Limpieza perezosa de visitantes inactivos.
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware responde 429 con Retry-After cuando la IP agota su cupo.
func (rl *IPRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lim := rl.limiter(c.IP())
		if lim.Allow() {
			return c.Next()
		}
		retry := 1
		if rl.rps > 0 && rl.rps != rate.Inf {
			retry = int(math.Ceil(1 / float64(rl.rps)))
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde",
		})
	}
}
