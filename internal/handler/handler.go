// Package handler exposes the gateway's local HTTP surface: cart
// operations, coupon application, checkout, and the auth pass-through. It
// is a thin mapping layer; all invariants live in the domain packages.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/papercart/storefront/internal/cart"
	"github.com/papercart/storefront/internal/catalog"
	"github.com/papercart/storefront/internal/checkout"
	"github.com/papercart/storefront/internal/coupon"
	"github.com/papercart/storefront/internal/session"
)

// AuthClient is the gateway's view of the remote auth service.
type AuthClient interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SendLoginOTP(ctx context.Context, identifier string) error
	VerifyLoginOTP(ctx context.Context, identifier, otp string) (string, error)
}

// Handler serves the local API.
type Handler struct {
	cart     *cart.Store
	catalog  *catalog.Catalog
	coupons  *coupon.State
	applier  *coupon.Applier
	gate     *checkout.Gate
	sessions *session.Manager
	auth     AuthClient
}

// New constructs a Handler with its domain dependencies.
func New(
	cartStore *cart.Store,
	cat *catalog.Catalog,
	coupons *coupon.State,
	applier *coupon.Applier,
	gate *checkout.Gate,
	sessions *session.Manager,
	auth AuthClient,
) *Handler {
	return &Handler{
		cart:     cartStore,
		catalog:  cat,
		coupons:  coupons,
		applier:  applier,
		gate:     gate,
		sessions: sessions,
		auth:     auth,
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /cart", h.GetCart)
	mux.HandleFunc("POST /cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /cart/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /cart", h.ClearCart)

	mux.HandleFunc("POST /coupon", h.ApplyCoupon)

	mux.HandleFunc("POST /checkout/proceed", h.ProceedToCheckout)
	mux.HandleFunc("POST /checkout/order", h.PlaceOrder)

	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/otp/send", h.SendOTP)
	mux.HandleFunc("POST /auth/otp/verify", h.VerifyOTP)
	mux.HandleFunc("POST /auth/logout", h.Logout)

	mux.HandleFunc("GET /products", h.ListProducts)
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
