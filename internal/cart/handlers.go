package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/cart-totals/internal/common"
	"github.com/noah-isme/cart-totals/internal/pricing"
)

// DefaultMaxItems bounds the number of lines accepted per cart.
const DefaultMaxItems = 500

// Handler wires cart pricing to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	MaxItems int
}

// NewHandler constructs a Handler with a validator that reports JSON field names.
func NewHandler(svc *Service, maxItems int) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Handler{Svc: svc, Validate: v, MaxItems: maxItems}
}

// Register mounts the pricing routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cart/totals", h.Totals)
	r.Post("/pricing/discount", h.Discount)
	r.Post("/pricing/tax", h.Tax)
}

type itemPayload struct {
	Price       *float64 `json:"price" validate:"required"`
	Quantity    *float64 `json:"quantity" validate:"required"`
	IsTaxExempt bool     `json:"isTaxExempt"`
}

type totalsPayload struct {
	Items           []itemPayload `json:"items" validate:"dive"`
	DiscountPercent float64       `json:"discountPercent"`
	TaxRate         float64       `json:"taxRate"`
}

type discountPayload struct {
	Price           *float64 `json:"price" validate:"required"`
	DiscountPercent float64  `json:"discountPercent"`
}

type taxPayload struct {
	Price       *float64 `json:"price" validate:"required"`
	TaxRate     float64  `json:"taxRate"`
	IsTaxExempt bool     `json:"isTaxExempt"`
}

// LineResponse is the JSON view of a priced line.
type LineResponse struct {
	Index      int     `json:"index"`
	Gross      float64 `json:"gross"`
	Discount   float64 `json:"discount"`
	Discounted float64 `json:"discounted"`
	Tax        float64 `json:"tax"`
	TaxExempt  bool    `json:"taxExempt"`
}

// TotalsResponse is the JSON view of a priced cart.
type TotalsResponse struct {
	QuoteID  string         `json:"quoteId"`
	Subtotal float64        `json:"subtotal"`
	Discount float64        `json:"discount"`
	Tax      float64        `json:"tax"`
	Total    float64        `json:"total"`
	Lines    []LineResponse `json:"lines"`
}

// Totals prices a cart.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload totalsPayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(payload.Items) > h.maxItems() {
		common.WriteError(w, common.ValidationFailed(map[string]string{
			"items": fmt.Sprintf("at most %d items allowed", h.maxItems()),
		}))
		return
	}

	items := make([]pricing.CartItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, pricing.CartItem{
			Price:       *it.Price,
			Quantity:    *it.Quantity,
			IsTaxExempt: it.IsTaxExempt,
		})
	}
	quote, err := h.Svc.Totals(r.Context(), items, payload.DiscountPercent, payload.TaxRate)
	if err != nil {
		common.WriteError(w, pricingError(err))
		return
	}

	lines := make([]LineResponse, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		lines = append(lines, LineResponse{
			Index:      l.Index,
			Gross:      l.Gross,
			Discount:   l.Discount,
			Discounted: l.Discounted,
			Tax:        l.Tax,
			TaxExempt:  l.TaxExempt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": TotalsResponse{
		QuoteID:  quote.ID,
		Subtotal: quote.Subtotal,
		Discount: quote.Discount,
		Tax:      quote.Tax,
		Total:    quote.Total,
		Lines:    lines,
	}})
}

// Discount applies a percentage discount to a single price.
func (h *Handler) Discount(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload discountPayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	discounted, err := h.Svc.Discount(r.Context(), *payload.Price, payload.DiscountPercent)
	if err != nil {
		common.WriteError(w, pricingError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"price":           *payload.Price,
		"discountPercent": payload.DiscountPercent,
		"discountedPrice": discounted,
	}})
}

// Tax computes the tax owed on a single price.
func (h *Handler) Tax(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload taxPayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	tax, err := h.Svc.Tax(r.Context(), *payload.Price, payload.TaxRate, payload.IsTaxExempt)
	if err != nil {
		common.WriteError(w, pricingError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"price":       *payload.Price,
		"taxRate":     payload.TaxRate,
		"isTaxExempt": payload.IsTaxExempt,
		"tax":         tax,
	}})
}

func (h *Handler) maxItems() int {
	if h.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return h.MaxItems
}

// decode reads a JSON body into dst and validates it. The pointer fields the
// handlers dereference are only safe once validation has run.
func (h *Handler) decode(r *http.Request, dst any) error {
	if h.Validate == nil {
		return common.NewAppError("INTERNAL", "request validator not configured", http.StatusInternalServerError, nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.NewAppError("PAYLOAD_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, err)
		}
		return common.BadRequest("invalid payload", err)
	}
	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fieldPath(fe.Namespace())] = fe.Tag()
			}
			return common.ValidationFailed(fields)
		}
		return common.BadRequest("invalid payload", err)
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// pricingError maps pricing input errors to 422 responses carrying the exact message.
func pricingError(err error) error {
	kind, ok := pricing.KindOf(err)
	if !ok {
		return err
	}
	return common.NewAppError(string(kind), err.Error(), http.StatusUnprocessableEntity, err)
}
