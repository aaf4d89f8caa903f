package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/session"
)

// Login exchanges credentials for a session token and stores it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var identifier, password string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "identifier":
			return assignField(d, &identifier)
		case "password":
			return assignField(d, &password)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if identifier == "" || password == "" {
		writeError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), identifier, password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.storeSession(w, r, token)
}

// SendOTP asks the auth service to deliver a one-time password.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var identifier string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "identifier" {
			return d.Skip()
		}
		return assignField(d, &identifier)
	})
	if err != nil || identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	if err := h.auth.SendLoginOTP(r.Context(), identifier); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("OTP sent") })
		})
	})
}

// VerifyOTP exchanges a delivered OTP for a session token and stores it.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var identifier, otp string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "identifier":
			return assignField(d, &identifier)
		case "otp":
			return assignField(d, &otp)
		default:
			return d.Skip()
		}
	})
	if err != nil || identifier == "" || otp == "" {
		writeError(w, http.StatusBadRequest, "identifier and otp are required")
		return
	}

	token, err := h.auth.VerifyLoginOTP(r.Context(), identifier, otp)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.storeSession(w, r, token)
}

// Logout drops the stored credential.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Logged out") })
		})
	})
}

func (h *Handler) storeSession(w http.ResponseWriter, r *http.Request, token string) {
	if err := h.sessions.SetToken(r.Context(), token); err != nil {
		zctx.From(r.Context()).Error("Failed to store session token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store session")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Login successful") })
		})
	})
}

func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		writeError(w, http.StatusUnauthorized, authErr.Message)
		return
	}
	zctx.From(r.Context()).Warn("Auth service unreachable", zap.Error(err))
	writeError(w, http.StatusBadGateway, "Network error. Please try again.")
}

func assignField(d *jx.Decoder, dst *string) error {
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}
