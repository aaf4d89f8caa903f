// Package checkout decides when an order may be submitted and assembles the
// submission payload. Orders go to the remote order service; the cart is
// cleared once, and only after a confirmed success.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/papercart/storefront/internal/cart"
)

// Errors surfaced by the gate. Every failure leaves cart, coupon, and
// session state exactly as they were before the attempt.
var (
	// ErrLoginRequired means no session credential is present, or the order
	// service rejected the one we sent. The caller redirects to authentication.
	ErrLoginRequired = errors.New("login required")
	// ErrEmptyCart means proceeding or submitting with no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderInFlight means a submission is already outstanding. The gate
	// never allows overlapping order requests from one cart.
	ErrOrderInFlight = errors.New("order submission already in progress")
	// ErrServiceUnavailable means the order service could not be reached.
	ErrServiceUnavailable = errors.New("order service unavailable")
)

// RejectedError carries a business error reported by the order service.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Address holds the free-form delivery fields. The gateway passes them
// through; the remote service owns any domain validation.
type Address struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	House    string `json:"house"`
	Landmark string `json:"landmark"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// DraftItem is one order line built from a cart line item at submission time.
type DraftItem struct {
	ProductID string
	Name      string
	Image     string
	Variant   string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Draft is the order-submission payload. It is derived, never stored: built
// from the current cart plus address and payment selections only when the
// order is placed.
type Draft struct {
	Items         []DraftItem
	Address       Address
	PaymentMethod string
}

// NewDraft assembles a Draft from the given cart lines.
func NewDraft(items []cart.LineItem, addr Address, paymentMethod string) Draft {
	draftItems := make([]DraftItem, len(items))
	for i, it := range items {
		draftItems[i] = DraftItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Variant:   it.Variant,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		}
	}
	return Draft{
		Items:         draftItems,
		Address:       addr,
		PaymentMethod: paymentMethod,
	}
}

// OrderPlacer submits a draft to the remote order service, authenticated by
// the session token. Implementations return ErrLoginRequired when the
// service rejects the credential, *RejectedError for business refusals, and
// wrap ErrServiceUnavailable for transport failures.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, token string, draft Draft) (orderID string, err error)
}
