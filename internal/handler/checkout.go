package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/papercart/storefront/internal/checkout"
)

// ProceedToCheckout reports whether the UI may navigate to the checkout
// view. The decision itself is not an error, so the response is always 200.
func (h *Handler) ProceedToCheckout(w http.ResponseWriter, r *http.Request) {
	decision := h.gate.ProceedToCheckout(r.Context())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("allowed", func(e *jx.Encoder) { e.Bool(decision.Allowed) })
			e.Field("redirectTo", func(e *jx.Encoder) { e.Str(decision.RedirectTo) })
			e.Field("reason", func(e *jx.Encoder) { e.Str(decision.Reason) })
		})
	})
}

// PlaceOrder submits the order. Failures surface as a single user-visible
// message; the cart is only cleared by the gate on confirmed success.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var (
		addr          checkout.Address
		paymentMethod string
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "address":
			return d.Obj(func(d *jx.Decoder, key string) error {
				dst, ok := addressField(&addr, key)
				if !ok {
					return d.Skip()
				}
				s, err := d.Str()
				if err != nil {
					return err
				}
				*dst = s
				return nil
			})
		case "paymentMethod":
			s, err := d.Str()
			if err != nil {
				return err
			}
			paymentMethod = s
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := h.gate.PlaceOrder(r.Context(), addr, paymentMethod)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(orderID) })
		})
	})
}

func (h *Handler) writeOrderError(w http.ResponseWriter, err error) {
	var rejected *checkout.RejectedError
	switch {
	case errors.Is(err, checkout.ErrLoginRequired):
		writeJSON(w, http.StatusUnauthorized, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("error", func(e *jx.Encoder) { e.Str("Please login to proceed to checkout.") })
				e.Field("redirectTo", func(e *jx.Encoder) { e.Str(checkout.LoginRedirectPath) })
			})
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Your cart is empty.")
	case errors.Is(err, checkout.ErrOrderInFlight):
		writeError(w, http.StatusConflict, "An order is already being placed.")
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, rejected.Message)
	case errors.Is(err, checkout.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "Network error. Please try again.")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to place order")
	}
}

// addressField maps a wire key to its Address field.
func addressField(a *checkout.Address, key string) (*string, bool) {
	switch key {
	case "fullName":
		return &a.FullName, true
	case "phone":
		return &a.Phone, true
	case "house":
		return &a.House, true
	case "landmark":
		return &a.Landmark, true
	case "street":
		return &a.Street, true
	case "city":
		return &a.City, true
	case "state":
		return &a.State, true
	case "pincode":
		return &a.Pincode, true
	default:
		return nil, false
	}
}
