package health

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/noah-isme/cart-totals/internal/common"
	"github.com/noah-isme/cart-totals/internal/pricing"
)

var ready atomic.Bool

var errCanaryMismatch = errors.New("pricing canary mismatch")

func init() {
	ready.Store(true)
}

// SetReady toggles readiness, typically to false once shutdown begins.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker probes a dependency the service needs to answer requests.
type Checker func() error

// PricingCanary prices a fixed cart and fails when the result drifts from the
// known answer.
func PricingCanary() error {
	totals, err := pricing.CalculateTotal([]pricing.CartItem{{Price: 4, Quantity: 1}}, 50, 50)
	if err != nil {
		return err
	}
	want := pricing.CartTotals{Subtotal: 4, Discount: 2, Tax: 1, Total: 3}
	if totals != want {
		return errCanaryMismatch
	}
	return nil
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Pricing Checker
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown flag and the pricing probe.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	check := h.Pricing
	if check == nil {
		check = PricingCanary
	}
	status := map[string]string{"pricing": "ok"}
	if err := check(); err != nil {
		status["pricing"] = err.Error()
		common.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	common.JSON(w, http.StatusOK, status)
}
