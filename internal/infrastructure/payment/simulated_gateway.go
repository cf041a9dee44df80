package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/tienda-stock-api/internal/application/checkout"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// SimulatedGateway pasarela simulada: rechaza tarjetas que no pasan Luhn o que terminan en el
// sufijo de rechazo, y respeta la cancelación del contexto durante la latencia simulada.
type SimulatedGateway struct {
	declineSuffix string
	latency       time.Duration
	log           *logger.Logger
}

// NewSimulatedGateway construye la pasarela. latency 0 responde de inmediato.
func NewSimulatedGateway(declineSuffix string, latency time.Duration, log *logger.Logger) *SimulatedGateway {
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatedGateway{
		declineSuffix: declineSuffix,
		latency:       latency,
		log:           log.Component("payment"),
	}
}

// ProcessPayment cobra el monto de la orden.
func (g *SimulatedGateway) ProcessPayment(ctx context.Context, req checkout.PaymentRequest) (checkout.PaymentResult, error) {
	if g.latency > 0 {
		t := time.NewTimer(g.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return checkout.PaymentResult{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return checkout.PaymentResult{}, err
	}

	card := strings.TrimSpace(req.CardNumber)
	lg := g.log.Info().Str("order_id", req.OrderID).Str("amount", req.Amount.String()).Str("card_last4", last4(card))
	if !req.Amount.IsPositive() || !luhn(card) || (g.declineSuffix != "" && strings.HasSuffix(card, g.declineSuffix)) {
		lg.Bool("approved", false).Msg("pago rechazado")
		return checkout.PaymentResult{Success: false}, nil
	}
	id := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	lg.Bool("approved", true).Str("payment_id", id).Msg("pago aprobado")
	return checkout.PaymentResult{Success: true, PaymentID: id}, nil
}

func last4(card string) string {
	if len(card) < 4 {
		return ""
	}
	return card[len(card)-4:]
}

// luhn verifica el dígito de control de la tarjeta.
func luhn(card string) bool {
	if len(card) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(card) - 1; i >= 0; i-- {
		c := card[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
