package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/storage"
)

// StorageKey is the durable-storage key the serialized cart lives under.
const StorageKey = "papercart_cart"

// Store wraps the pure reducer with durable persistence and a revision
// counter. Every successful mutation is written through to storage; the
// revision increments on every state change, letting downstream consumers
// (coupon state in particular) detect that their derived values are stale.
//
// All methods are safe for concurrent use. Mutations are atomic with respect
// to each other; persistence failures are logged and never surfaced to the
// caller.
type Store struct {
	mu    sync.Mutex
	state State
	rev   uint64

	kv storage.KV
	lg *zap.Logger
}

// NewStore creates a Store and restores any previously persisted cart.
// Malformed or unreadable persisted state falls back to an empty cart.
func NewStore(ctx context.Context, kv storage.KV, lg *zap.Logger) *Store {
	s := &Store{kv: kv, lg: lg}

	raw, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			lg.Warn("Cart restore failed, starting empty", zap.Error(err))
		}
		return s
	}

	var persisted State
	if err := json.Unmarshal(raw, &persisted); err != nil {
		lg.Warn("Persisted cart is malformed, starting empty", zap.Error(err))
		return s
	}

	s.state = Apply(State{}, Load{Items: persisted.Items})
	return s
}

// Dispatch applies the command, persists the result, and returns the new
// state with its revision. The revision is unchanged when the command did
// not change the state.
func (s *Store) Dispatch(ctx context.Context, cmd Command) (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Apply(s.state, cmd)
	if !changed(s.state, next) {
		return s.state, s.rev
	}

	s.state = next
	s.rev++
	s.persistLocked(ctx)
	return s.state, s.rev
}

// Snapshot returns the current state and revision.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.rev
}

// persistLocked writes the full state to storage. Failures are non-fatal:
// the in-memory cart stays authoritative for this session. The write is
// detached from the caller's cancellation: the mutation has already
// committed in memory, so a client disconnect must not skip the write.
func (s *Store) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(s.state)
	if err != nil {
		s.lg.Error("Cart serialization failed", zap.Error(err))
		return
	}
	if err := s.kv.Set(context.WithoutCancel(ctx), StorageKey, raw); err != nil {
		s.lg.Warn("Cart persistence failed", zap.Error(err))
	}
}

// changed reports whether two states differ. Line items compare by value,
// including decimal prices.
func changed(a, b State) bool {
	if len(a.Items) != len(b.Items) {
		return true
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.ID != y.ID || x.Quantity != y.Quantity ||
			x.ProductID != y.ProductID || x.Variant != y.Variant ||
			x.Name != y.Name || x.Image != y.Image || x.Category != y.Category ||
			!x.Price.Equal(y.Price) || !x.OriginalPrice.Equal(y.OriginalPrice) {
			return true
		}
	}
	return false
}
