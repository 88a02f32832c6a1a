package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cart-totals/internal/obs"
	"github.com/noah-isme/cart-totals/internal/pricing"
)

// Operation labels used for metrics and spans.
const (
	OpTotals   = "totals"
	OpDiscount = "discount"
	OpTax      = "tax"
)

// Quote is a priced cart identified for correlation in logs and responses.
type Quote struct {
	ID string
	pricing.Breakdown
}

// Service encapsulates cart pricing operations with logging, metrics and tracing.
// Pricing errors are returned unchanged so callers can match them.
type Service struct {
	Logger  zerolog.Logger
	Metrics *obs.CartMetrics
	NewID   func() string
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) tracer() trace.Tracer {
	return otel.Tracer("cart")
}

// Totals prices a cart and returns its totals with a per-line breakdown.
func (s *Service) Totals(ctx context.Context, items []pricing.CartItem, discountPercent, taxRate float64) (Quote, error) {
	_, span := s.tracer().Start(ctx, "cart.totals", trace.WithAttributes(
		attribute.Int("cart.items", len(items)),
		attribute.Float64("cart.discount_percent", discountPercent),
		attribute.Float64("cart.tax_rate", taxRate),
	))
	defer span.End()

	s.Metrics.ObserveItems(len(items))
	breakdown, err := pricing.CalculateBreakdown(items, discountPercent, taxRate)
	if err != nil {
		s.reject(span, OpTotals, err)
		return Quote{}, err
	}
	quote := Quote{ID: s.newID(), Breakdown: breakdown}
	s.Metrics.Observe(OpTotals, obs.OutcomeOK)
	span.SetAttributes(attribute.String("cart.quote_id", quote.ID))
	s.Logger.Debug().
		Str("quote_id", quote.ID).
		Int("items", len(items)).
		Float64("subtotal", quote.Subtotal).
		Float64("discount", quote.Discount).
		Float64("tax", quote.Tax).
		Float64("total", quote.Total).
		Msg("cart priced")
	return quote, nil
}

// Discount applies discountPercent to price.
func (s *Service) Discount(ctx context.Context, price, discountPercent float64) (float64, error) {
	_, span := s.tracer().Start(ctx, "cart.discount")
	defer span.End()

	discounted, err := pricing.ApplyDiscount(price, discountPercent)
	if err != nil {
		s.reject(span, OpDiscount, err)
		return 0, err
	}
	s.Metrics.Observe(OpDiscount, obs.OutcomeOK)
	return discounted, nil
}

// Tax computes the tax owed on price.
func (s *Service) Tax(ctx context.Context, price, taxRate float64, isTaxExempt bool) (float64, error) {
	_, span := s.tracer().Start(ctx, "cart.tax")
	defer span.End()

	tax, err := pricing.CalculateTax(price, taxRate, isTaxExempt)
	if err != nil {
		s.reject(span, OpTax, err)
		return 0, err
	}
	s.Metrics.Observe(OpTax, obs.OutcomeOK)
	return tax, nil
}

func (s *Service) reject(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.Metrics.Observe(op, obs.OutcomeInvalid)

	evt := s.Logger.Warn().Err(err).Str("operation", op)
	if kind, ok := pricing.KindOf(err); ok {
		evt = evt.Str("kind", string(kind))
	}
	evt.Msg("pricing input rejected")
}
