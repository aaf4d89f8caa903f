package checkout

import (
	"context"
	"sync/atomic"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/cart"
	"github.com/papercart/storefront/internal/coupon"
	"github.com/papercart/storefront/internal/session"
)

// Paths the UI is directed to by gate decisions.
const (
	// CheckoutPath is the checkout view.
	CheckoutPath = "/checkout"
	// LoginRedirectPath is the login flow with the intended destination
	// captured, so the UI can resume checkout after authentication.
	LoginRedirectPath = "/cart?login=1&redirect=/checkout"
)

// Decision is the outcome of a checkout navigation attempt.
type Decision struct {
	Allowed bool
	// RedirectTo is where the UI should go: the checkout view when allowed,
	// the login flow (capturing the intended destination) when a session is
	// missing.
	RedirectTo string
	Reason     string
}

// Gate mediates the transition from cart to placed order. Session presence
// is checked both at navigation and again at submission time, so a
// credential that vanished in between can never produce an unauthenticated
// order.
type Gate struct {
	cart     *cart.Store
	coupons  *coupon.State
	sessions *session.Manager
	orders   OrderPlacer
	lg       *zap.Logger

	placing atomic.Bool
}

// NewGate wires a Gate.
func NewGate(
	cartStore *cart.Store,
	coupons *coupon.State,
	sessions *session.Manager,
	orders OrderPlacer,
	lg *zap.Logger,
) *Gate {
	return &Gate{
		cart:     cartStore,
		coupons:  coupons,
		sessions: sessions,
		orders:   orders,
		lg:       lg,
	}
}

// ProceedToCheckout decides whether navigation to the checkout view is
// allowed. An empty cart is denied regardless of session; a missing session
// redirects to login with the intended destination captured.
func (g *Gate) ProceedToCheckout(ctx context.Context) Decision {
	state, _ := g.cart.Snapshot()
	if state.Empty() {
		return Decision{Allowed: false, Reason: "cart is empty"}
	}
	if _, ok := g.sessions.Token(ctx); !ok {
		return Decision{Allowed: false, RedirectTo: LoginRedirectPath, Reason: "login required"}
	}
	return Decision{Allowed: true, RedirectTo: CheckoutPath}
}

// PlaceOrder re-validates session presence, assembles the draft from the
// current cart, and submits it. On a confirmed success the cart is cleared
// exactly once and the applied coupon is discarded. On any failure the cart
// is left untouched so the user can retry without re-entering items; the
// gate never retries on its own.
func (g *Gate) PlaceOrder(ctx context.Context, addr Address, paymentMethod string) (string, error) {
	if !g.placing.CompareAndSwap(false, true) {
		return "", ErrOrderInFlight
	}
	defer g.placing.Store(false)

	token, ok := g.sessions.Token(ctx)
	if !ok {
		return "", ErrLoginRequired
	}

	state, _ := g.cart.Snapshot()
	if state.Empty() {
		return "", ErrEmptyCart
	}

	draft := NewDraft(state.Items, addr, paymentMethod)

	orderID, err := g.orders.PlaceOrder(ctx, token, draft)
	if err != nil {
		if errors.Is(err, ErrLoginRequired) {
			// The service refused the credential: it is stale, drop it so the
			// next attempt goes through the login flow.
			if clearErr := g.sessions.Clear(ctx); clearErr != nil {
				g.lg.Warn("Failed to clear rejected session token", zap.Error(clearErr))
			}
		}
		return "", err
	}

	g.cart.Dispatch(ctx, cart.Clear{})
	g.coupons.Reset()
	g.lg.Info("Order placed", zap.String("order_id", orderID), zap.Int("items", len(draft.Items)))
	return orderID, nil
}
