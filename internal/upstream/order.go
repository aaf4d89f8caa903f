package upstream

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/papercart/storefront/internal/checkout"
)

// sessionTokenHeader carries the opaque session credential on order calls.
const sessionTokenHeader = "X-Session-Token"

var _ checkout.OrderPlacer = (*Client)(nil)

// PlaceOrder submits the draft to the order service. The session token's
// validity is confirmed here and nowhere else: a 401 or 403 means the
// credential is stale and surfaces as checkout.ErrLoginRequired. Any other
// non-2xx carries the service's own message.
func (c *Client) PlaceOrder(ctx context.Context, token string, draft checkout.Draft) (string, error) {
	body := encodeDraft(draft)

	resp, err := c.postJSON(ctx, "/api/orders", body, map[string]string{
		sessionTokenHeader: token,
	})
	if err != nil {
		return "", errors.Wrapf(checkout.ErrServiceUnavailable, "place order: %s", err)
	}

	raw, err := readBody(resp)
	if err != nil {
		return "", errors.Wrapf(checkout.ErrServiceUnavailable, "place order: %s", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", errors.Wrap(checkout.ErrLoginRequired, "order service rejected session")
	case resp.StatusCode >= 500:
		return "", errors.Wrapf(checkout.ErrServiceUnavailable, "order service returned %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &checkout.RejectedError{Message: errorMessage(raw, "Failed to place order")}
	}

	orderID, err := decodeOrderID(raw)
	if err != nil {
		return "", errors.Wrap(err, "decode order response")
	}
	if orderID == "" {
		return "", errors.New("order service returned no orderId")
	}
	return orderID, nil
}

func encodeDraft(draft checkout.Draft) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range draft.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
						e.Field("variant", func(e *jx.Encoder) { e.Str(it.Variant) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Num(jx.Num(it.UnitPrice.String())) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					})
				}
			})
		})
		e.Field("address", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("fullName", func(e *jx.Encoder) { e.Str(draft.Address.FullName) })
				e.Field("phone", func(e *jx.Encoder) { e.Str(draft.Address.Phone) })
				e.Field("house", func(e *jx.Encoder) { e.Str(draft.Address.House) })
				e.Field("landmark", func(e *jx.Encoder) { e.Str(draft.Address.Landmark) })
				e.Field("street", func(e *jx.Encoder) { e.Str(draft.Address.Street) })
				e.Field("city", func(e *jx.Encoder) { e.Str(draft.Address.City) })
				e.Field("state", func(e *jx.Encoder) { e.Str(draft.Address.State) })
				e.Field("pincode", func(e *jx.Encoder) { e.Str(draft.Address.Pincode) })
			})
		})
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(draft.PaymentMethod) })
	})
	return e.Bytes()
}

func decodeOrderID(raw []byte) (string, error) {
	var orderID string
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "orderId" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		orderID = s
		return nil
	})
	return orderID, err
}
