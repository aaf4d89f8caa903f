package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/cart"
	"github.com/papercart/storefront/internal/catalog"
	"github.com/papercart/storefront/internal/pricing"
)

// maxRequestBytes bounds request bodies read into memory.
const maxRequestBytes = 1 << 20

// GetCart returns the cart with derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	state, rev := h.cart.Snapshot()
	h.writeCartView(w, http.StatusOK, state, rev)
}

// AddCartItem adds a product variant to the cart. Metadata and price are
// snapshotted from the catalog at this moment and never re-fetched.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		variant   string
		quantity  = 1
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			s, err := decodeFlexibleStr(d)
			if err != nil {
				return err
			}
			productID = s
		case "variant":
			s, err := d.Str()
			if err != nil {
				return err
			}
			variant = s
		case "quantity":
			n, err := d.Num()
			if err != nil {
				return err
			}
			if q, err := n.Int64(); err == nil && q > 0 {
				quantity = int(q)
			}
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if productID == "" || variant == "" {
		writeError(w, http.StatusBadRequest, "productId and variant are required")
		return
	}

	product, v, err := h.catalog.Find(r.Context(), productID, variant)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrVariantNotFound):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			zctx.From(r.Context()).Warn("Catalog fetch failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "Network error. Please try again.")
		}
		return
	}

	state, rev := h.cart.Dispatch(r.Context(), cart.AddItem{
		Product: cart.ProductInfo{
			ID:            product.ID,
			Name:          product.Name,
			Image:         product.Image,
			Category:      product.Category,
			OriginalPrice: product.OriginalPrice,
		},
		Variant:  cart.VariantInfo{Key: v.Key, Price: v.Price},
		Quantity: quantity,
	})
	h.writeCartView(w, http.StatusOK, state, rev)
}

// UpdateCartItem sets a line's quantity. Zero or below removes the line.
// Non-numeric or fractional input is coerced to the last-known-valid
// quantity instead of being surfaced as an error.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	lineID := r.PathValue("id")

	current, _ := h.cart.Snapshot()
	quantity := current.Quantity(lineID)
	provided := false

	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		if d.Next() != jx.Number {
			// Coercion rule: non-numeric input keeps the previous quantity.
			return d.Skip()
		}
		n, err := d.Num()
		if err != nil {
			return err
		}
		if !n.IsInt() {
			// Fractional input also falls back to the previous quantity.
			return nil
		}
		q, err := n.Int64()
		if err != nil {
			return err
		}
		quantity = int(q)
		provided = true
		return nil
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !provided && current.Quantity(lineID) == 0 {
		// Unknown line and nothing to coerce from: treat as removal no-op.
		state, rev := h.cart.Snapshot()
		h.writeCartView(w, http.StatusOK, state, rev)
		return
	}

	state, rev := h.cart.Dispatch(r.Context(), cart.UpdateQuantity{LineID: lineID, Quantity: quantity})
	h.writeCartView(w, http.StatusOK, state, rev)
}

// RemoveCartItem deletes a line. Removing an absent line is a no-op.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	state, rev := h.cart.Dispatch(r.Context(), cart.RemoveItem{LineID: r.PathValue("id")})
	h.writeCartView(w, http.StatusOK, state, rev)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	state, rev := h.cart.Dispatch(r.Context(), cart.Clear{})
	h.writeCartView(w, http.StatusOK, state, rev)
}

// writeCartView renders the cart plus derived pricing. Amounts are rounded
// to display precision here and nowhere earlier.
func (h *Handler) writeCartView(w http.ResponseWriter, status int, state cart.State, rev uint64) {
	subtotal := pricing.Subtotal(state.Items)
	discount := h.coupons.Discount(rev)
	total := pricing.Total(subtotal, discount)

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range state.Items {
						item := it
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(item.ID) })
							e.Field("productId", func(e *jx.Encoder) { e.Str(item.ProductID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
							e.Field("image", func(e *jx.Encoder) { e.Str(item.Image) })
							e.Field("category", func(e *jx.Encoder) { e.Str(item.Category) })
							e.Field("variant", func(e *jx.Encoder) { e.Str(item.Variant) })
							e.Field("price", func(e *jx.Encoder) { e.Str(pricing.Format(item.Price)) })
							e.Field("originalPrice", func(e *jx.Encoder) { e.Str(pricing.Format(item.OriginalPrice)) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
							e.Field("lineTotal", func(e *jx.Encoder) {
								e.Str(pricing.Format(item.Price.Mul(decimalFromInt(item.Quantity))))
							})
						})
					}
				})
			})
			e.Field("count", func(e *jx.Encoder) { e.Int(state.Count()) })
			e.Field("subtotal", func(e *jx.Encoder) { e.Str(pricing.Format(subtotal)) })
			e.Field("discount", func(e *jx.Encoder) { e.Str(pricing.Format(discount)) })
			e.Field("total", func(e *jx.Encoder) { e.Str(pricing.Format(total)) })
		})
	})
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// decodeBody decodes a JSON object body field-by-field.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(raw).Obj(fn)
}

// decodeFlexibleStr accepts a JSON string or number and returns it as a
// string; product IDs arrive either way.
func decodeFlexibleStr(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.New("expected string or number")
	}
}
