package coupon

import (
	"sync"

	"github.com/shopspring/decimal"
)

// State holds the currently applied coupon result, tagged with the cart
// revision it was validated against. Reading the discount against any other
// revision yields zero: a cart mutation implicitly invalidates the applied
// coupon, and re-validation is required (the discount is never silently
// recomputed against the new subtotal).
//
// A generation counter suppresses stale in-flight validations: each attempt
// takes a generation before issuing its request, and only the attempt
// holding the latest generation may commit. A response that arrives after a
// newer attempt began is discarded, so the last request issued always wins.
type State struct {
	mu         sync.Mutex
	gen        uint64
	applied    *Result
	appliedRev uint64
}

// NewState returns an empty coupon state: no coupon applied, zero discount.
func NewState() *State {
	return &State{}
}

// Begin starts a validation attempt, invalidating any earlier in-flight
// attempt. The returned generation must be passed to Commit.
func (s *State) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Commit records the result of the attempt identified by gen against the
// given cart revision. It reports whether the result was accepted; a stale
// generation is dropped without touching the state.
func (s *State) Commit(gen, cartRev uint64, res *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.applied = res
	s.appliedRev = cartRev
	return true
}

// Reset discards the applied coupon. It also advances the generation so
// any validation still in flight resolves as superseded instead of
// resurrecting a discount over the reset.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.applied = nil
	s.appliedRev = 0
}

// Discount returns the applied discount amount for the given cart revision.
// A revision mismatch means the cart changed after validation; the discount
// then reads as zero.
func (s *State) Discount(cartRev uint64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil || !s.applied.Valid || s.appliedRev != cartRev {
		return decimal.Zero
	}
	return s.applied.DiscountAmount
}

// Applied returns the applied result when it is still current for the given
// cart revision.
func (s *State) Applied(cartRev uint64) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil || !s.applied.Valid || s.appliedRev != cartRev {
		return nil, false
	}
	return s.applied, true
}
