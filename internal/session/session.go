// Package session owns the opaque session credential. The token is an
// external collaborator's artifact: its presence gates checkout navigation,
// but only the remote order service can confirm its validity.
//
// Components that need the credential take a *Manager explicitly; nothing
// reads the token out of shared storage on its own.
package session

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/papercart/storefront/internal/storage"
)

// StorageKey is the durable-storage key the credential lives under.
const StorageKey = "session_token"

// AuthError carries the auth service's reason for refusing a credential
// exchange (unknown user, wrong password, expired OTP).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Manager is the explicit session-context object: a defined read/write
// contract over the credential store.
type Manager struct {
	kv storage.KV
}

// NewManager returns a Manager over the given store.
func NewManager(kv storage.KV) *Manager {
	return &Manager{kv: kv}
}

// Token returns the stored credential and whether one is present. Storage
// errors read as "no session": an unreadable credential must never let an
// order through.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	raw, err := m.kv.Get(ctx, StorageKey)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// SetToken stores a credential obtained from the auth service.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := m.kv.Set(ctx, StorageKey, []byte(token)); err != nil {
		return errors.Wrap(err, "store session token")
	}
	return nil
}

// Clear removes the credential (logout, or server-side rejection of a
// stale token).
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.kv.Delete(ctx, StorageKey); err != nil {
		return errors.Wrap(err, "clear session token")
	}
	return nil
}
