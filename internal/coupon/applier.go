package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeedbackKind classifies the outcome of an apply attempt for the UI.
type FeedbackKind string

const (
	// FeedbackAccepted means the coupon was applied and a discount is active.
	FeedbackAccepted FeedbackKind = "accepted"
	// FeedbackRejected means the service refused the code; discount is zero.
	FeedbackRejected FeedbackKind = "rejected"
	// FeedbackNetworkError means the service was unreachable; discount is
	// zero, but the user message invites a retry rather than blaming the code.
	FeedbackNetworkError FeedbackKind = "network_error"
	// FeedbackSuperseded means a newer apply attempt started before this one
	// resolved; the outcome was discarded.
	FeedbackSuperseded FeedbackKind = "superseded"
)

// Feedback is the user-facing outcome of one apply attempt.
type Feedback struct {
	Kind           FeedbackKind
	Message        string
	DiscountAmount decimal.Decimal
	DiscountType   string
}

const (
	msgCodeRequired = "Please enter a coupon code"
	msgInvalidCode  = "Invalid coupon code"
	msgNetworkError = "Network error. Please try again."
)

// Applier runs the full apply flow: normalize, pre-screen, validate
// remotely, and commit the result into the coupon State unless a newer
// attempt superseded it.
type Applier struct {
	validator Validator
	state     *State
	prescreen *Prescreen // optional
	lg        *zap.Logger
}

// NewApplier wires an Applier. The pre-screen may be nil, in which case
// every code goes to the remote validator.
func NewApplier(validator Validator, state *State, prescreen *Prescreen, lg *zap.Logger) *Applier {
	return &Applier{
		validator: validator,
		state:     state,
		prescreen: prescreen,
		lg:        lg,
	}
}

// Apply validates the code against the given subtotal and records the
// outcome for the given cart revision. Reapplying the same valid code with
// an unchanged subtotal yields the same discount.
func (a *Applier) Apply(ctx context.Context, code string, cartRev uint64, subtotal decimal.Decimal) Feedback {
	code = normalize(code)
	if code == "" {
		a.state.Reset()
		return Feedback{Kind: FeedbackRejected, Message: msgCodeRequired}
	}

	if a.prescreen != nil && !a.prescreen.MayExist(code) {
		// Definitive miss: no round trip needed.
		a.state.Reset()
		return Feedback{Kind: FeedbackRejected, Message: msgInvalidCode}
	}

	gen := a.state.Begin()

	res, err := a.validator.Validate(ctx, code, subtotal)
	if err != nil {
		var rejected *RejectedError
		switch {
		case errors.As(err, &rejected):
			if !a.state.Commit(gen, cartRev, nil) {
				return Feedback{Kind: FeedbackSuperseded}
			}
			return Feedback{Kind: FeedbackRejected, Message: rejected.Message}
		case errors.Is(err, ErrUnavailable):
			a.lg.Warn("Coupon service unreachable", zap.String("code", code), zap.Error(err))
			if !a.state.Commit(gen, cartRev, nil) {
				return Feedback{Kind: FeedbackSuperseded}
			}
			return Feedback{Kind: FeedbackNetworkError, Message: msgNetworkError}
		default:
			a.lg.Error("Coupon validation failed", zap.String("code", code), zap.Error(err))
			if !a.state.Commit(gen, cartRev, nil) {
				return Feedback{Kind: FeedbackSuperseded}
			}
			return Feedback{Kind: FeedbackNetworkError, Message: msgNetworkError}
		}
	}

	if !a.state.Commit(gen, cartRev, res) {
		return Feedback{Kind: FeedbackSuperseded}
	}

	return Feedback{
		Kind:           FeedbackAccepted,
		Message:        res.Message,
		DiscountAmount: res.DiscountAmount,
		DiscountType:   res.DiscountType,
	}
}
