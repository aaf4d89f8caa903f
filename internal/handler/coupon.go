package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/papercart/storefront/internal/coupon"
	"github.com/papercart/storefront/internal/pricing"
)

// ApplyCoupon validates a code against the current subtotal and applies the
// resulting discount. The response carries both the user feedback and the
// recomputed totals.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		code = s
		return nil
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, rev := h.cart.Snapshot()
	subtotal := pricing.Subtotal(state.Items)

	fb := h.applier.Apply(r.Context(), code, rev, subtotal)

	status := http.StatusOK
	switch fb.Kind {
	case coupon.FeedbackRejected:
		status = http.StatusUnprocessableEntity
	case coupon.FeedbackNetworkError:
		status = http.StatusBadGateway
	case coupon.FeedbackSuperseded:
		status = http.StatusConflict
	}

	discount := h.coupons.Discount(rev)
	total := pricing.Total(subtotal, discount)

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("result", func(e *jx.Encoder) { e.Str(string(fb.Kind)) })
			e.Field("message", func(e *jx.Encoder) { e.Str(fb.Message) })
			e.Field("subtotal", func(e *jx.Encoder) { e.Str(pricing.Format(subtotal)) })
			e.Field("discount", func(e *jx.Encoder) { e.Str(pricing.Format(discount)) })
			e.Field("total", func(e *jx.Encoder) { e.Str(pricing.Format(total)) })
		})
	})
}
