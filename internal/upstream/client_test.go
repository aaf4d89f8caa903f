package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papercart/storefront/internal/checkout"
	"github.com/papercart/storefront/internal/coupon"
	"github.com/papercart/storefront/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client())
}

// unreachableClient points at a closed listener so every request fails at
// the transport level.
func unreachableClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return NewClient(url, nil)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Health(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	require.Error(t, c.Health(context.Background()))
}

func TestValidate_Accepted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/validate-coupon", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "FIRST100", body["coupon_code"])
		assert.EqualValues(t, 500, body["cart_value"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"valid": true,
			"coupon_code": "FIRST100",
			"discount_amount": 100,
			"discount_type": "flat",
			"message": "Coupon applied successfully"
		}`)
	})

	res, err := c.Validate(context.Background(), "FIRST100", decimal.RequireFromString("500"))

	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "FIRST100", res.Code)
	assert.True(t, decimal.RequireFromString("100").Equal(res.DiscountAmount))
	assert.Equal(t, "flat", res.DiscountType)
}

func TestValidate_RejectedWithServiceMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": "Minimum order value is Rs. 999"}`)
	})

	_, err := c.Validate(context.Background(), "FIRST100", decimal.RequireFromString("100"))

	var rejected *coupon.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Minimum order value is Rs. 999", rejected.Message)
}

func TestValidate_InvalidFlagInBodyIsRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"valid": false, "error": "Coupon expired"}`)
	})

	_, err := c.Validate(context.Background(), "OLD50", decimal.RequireFromString("500"))

	var rejected *coupon.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Coupon expired", rejected.Message)
}

func TestValidate_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Validate(context.Background(), "FIRST100", decimal.RequireFromString("500"))
	require.ErrorIs(t, err, coupon.ErrUnavailable)
}

func TestValidate_TransportFailureIsUnavailable(t *testing.T) {
	c := unreachableClient(t)

	_, err := c.Validate(context.Background(), "FIRST100", decimal.RequireFromString("500"))
	require.ErrorIs(t, err, coupon.ErrUnavailable)
}

func testDraft() checkout.Draft {
	return checkout.Draft{
		Items: []checkout.DraftItem{
			{
				ProductID: "p1",
				Name:      "Classic Notebook",
				Image:     "notebook.jpg",
				Variant:   "A5",
				UnitPrice: decimal.RequireFromString("10.00"),
				Quantity:  2,
			},
		},
		Address: checkout.Address{
			FullName: "Asha Rao",
			Phone:    "9900112233",
			City:     "Bengaluru",
			State:    "Karnataka",
			Pincode:  "560001",
		},
		PaymentMethod: "cod",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "tok-abc", r.Header.Get("X-Session-Token"))

		var body struct {
			Items []struct {
				ProductID string          `json:"productId"`
				Variant   string          `json:"variant"`
				UnitPrice decimal.Decimal `json:"unitPrice"`
				Quantity  int             `json:"quantity"`
			} `json:"items"`
			Address struct {
				City string `json:"city"`
			} `json:"address"`
			PaymentMethod string `json:"paymentMethod"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "p1", body.Items[0].ProductID)
		assert.Equal(t, 2, body.Items[0].Quantity)
		assert.Equal(t, "Bengaluru", body.Address.City)
		assert.Equal(t, "cod", body.PaymentMethod)

		io.WriteString(w, `{"orderId": "ord-1001"}`)
	})

	orderID, err := c.PlaceOrder(context.Background(), "tok-abc", testDraft())

	require.NoError(t, err)
	assert.Equal(t, "ord-1001", orderID)
}

func TestPlaceOrder_UnauthorizedIsLoginRequired(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := c.PlaceOrder(context.Background(), "tok-stale", testDraft())
		require.ErrorIs(t, err, checkout.ErrLoginRequired, "status %d", status)
	}
}

func TestPlaceOrder_BusinessRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error": "Pincode not serviceable"}`)
	})

	_, err := c.PlaceOrder(context.Background(), "tok", testDraft())

	var rejected *checkout.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Pincode not serviceable", rejected.Message)
}

func TestPlaceOrder_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PlaceOrder(context.Background(), "tok", testDraft())
	require.ErrorIs(t, err, checkout.ErrServiceUnavailable)
}

func TestPlaceOrder_TransportFailureIsUnavailable(t *testing.T) {
	c := unreachableClient(t)

	_, err := c.PlaceOrder(context.Background(), "tok", testDraft())
	require.ErrorIs(t, err, checkout.ErrServiceUnavailable)
}

func TestPlaceOrder_MissingOrderID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "ok"}`)
	})

	_, err := c.PlaceOrder(context.Background(), "tok", testDraft())
	require.Error(t, err)
}

func TestListProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		io.WriteString(w, `[
			{
				"id": 1,
				"name": "Classic Notebook",
				"description": "Ruled, 200 pages",
				"image": "notebook.jpg",
				"category": "notebooks",
				"price": 149,
				"original_price": 199,
				"variants": [
					{"weight": "A5", "price": 149},
					{"weight": "A4", "price": 199.5}
				]
			},
			{
				"id": "sketch-01",
				"name": "Sketch Pad",
				"price": 220,
				"variants": [{"weight": "200gsm", "price": 220}]
			}
		]`)
	})

	products, err := c.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)

	// Numeric IDs normalize to strings.
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "Classic Notebook", products[0].Name)
	assert.True(t, decimal.RequireFromString("199").Equal(products[0].OriginalPrice))
	require.Len(t, products[0].Variants, 2)
	assert.Equal(t, "A4", products[0].Variants[1].Key)
	assert.True(t, decimal.RequireFromString("199.5").Equal(products[0].Variants[1].Price))

	assert.Equal(t, "sketch-01", products[1].ID)
}

func TestListProducts_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListProducts(context.Background())
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@example.com", body["identifier"])
		assert.Equal(t, "hunter2", body["password"])

		io.WriteString(w, `{"session_token": "tok-abc"}`)
	})

	token, err := c.Login(context.Background(), "asha@example.com", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "Invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), "asha@example.com", "wrong")

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
}

func TestOTPFlow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/send-login-otp":
			io.WriteString(w, `{"status": "sent"}`)
		case "/api/verify-login-otp":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "424242", body["otp"])
			io.WriteString(w, `{"session_token": "tok-otp"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	require.NoError(t, c.SendLoginOTP(ctx, "9900112233"))

	token, err := c.VerifyLoginOTP(ctx, "9900112233", "424242")
	require.NoError(t, err)
	assert.Equal(t, "tok-otp", token)
}

func TestErrorMessage_FallsBackOnGarbage(t *testing.T) {
	assert.Equal(t, "fallback", errorMessage([]byte("<html>"), "fallback"))
	assert.Equal(t, "fallback", errorMessage([]byte(`{"error": ""}`), "fallback"))
	assert.Equal(t, "boom", errorMessage([]byte(`{"error": "boom"}`), "fallback"))
}
