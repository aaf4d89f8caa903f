// Package coupon implements the client half of coupon validation: sending
// codes to the remote validation service, interpreting the outcome, and
// holding the applied discount so it can be invalidated when the cart
// changes underneath it.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned by a Validator when the validation service
// could not be reached at all. The state machine treats it like a rejection
// (discount resets to zero) but the user message is distinct.
var ErrUnavailable = errors.New("coupon service unavailable")

// RejectedError carries the service-reported reason a coupon was refused:
// unknown code, below minimum order value, expired.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Result is one successful validation outcome. It is transient: never
// persisted, replaced by the next attempt, and discarded whenever the cart
// it was computed against changes.
type Result struct {
	Valid          bool
	Code           string
	DiscountAmount decimal.Decimal
	DiscountType   string
	Message        string
}

// Validator validates a coupon code against the current cart value and
// returns the computed discount. Implementations return *RejectedError for
// service-side refusals and wrap ErrUnavailable for transport failures.
type Validator interface {
	Validate(ctx context.Context, code string, cartValue decimal.Decimal) (*Result, error)
}
