package upstream

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/papercart/storefront/internal/session"
)

// Login exchanges an identifier (email or phone) and password for a session
// token. Credential checking is entirely remote.
func (c *Client) Login(ctx context.Context, identifier, password string) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("identifier", func(e *jx.Encoder) { e.Str(identifier) })
		e.Field("password", func(e *jx.Encoder) { e.Str(password) })
	})
	return c.sessionExchange(ctx, "/api/login", e.Bytes())
}

// SendLoginOTP asks the auth service to send a one-time password to the
// user's phone or email.
func (c *Client) SendLoginOTP(ctx context.Context, identifier string) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("identifier", func(e *jx.Encoder) { e.Str(identifier) })
	})

	resp, err := c.postJSON(ctx, "/api/send-login-otp", e.Bytes(), nil)
	if err != nil {
		return errors.Wrap(err, "send login otp")
	}
	raw, err := readBody(resp)
	if err != nil {
		return errors.Wrap(err, "send login otp")
	}
	if resp.StatusCode != http.StatusOK {
		return &session.AuthError{Message: errorMessage(raw, "Failed to send OTP")}
	}
	return nil
}

// VerifyLoginOTP exchanges a delivered OTP for a session token.
func (c *Client) VerifyLoginOTP(ctx context.Context, identifier, otp string) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("identifier", func(e *jx.Encoder) { e.Str(identifier) })
		e.Field("otp", func(e *jx.Encoder) { e.Str(otp) })
	})
	return c.sessionExchange(ctx, "/api/verify-login-otp", e.Bytes())
}

// sessionExchange posts a credential payload and extracts the returned
// session_token.
func (c *Client) sessionExchange(ctx context.Context, path string, body []byte) (string, error) {
	resp, err := c.postJSON(ctx, path, body, nil)
	if err != nil {
		return "", errors.Wrapf(err, "post %s", path)
	}
	raw, err := readBody(resp)
	if err != nil {
		return "", errors.Wrapf(err, "post %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &session.AuthError{Message: errorMessage(raw, "Authentication failed")}
	}

	var token string
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "session_token" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		token = s
		return nil
	}); err != nil {
		return "", errors.Wrap(err, "decode auth response")
	}
	if token == "" {
		return "", errors.New("auth service returned no session token")
	}
	return token, nil
}
