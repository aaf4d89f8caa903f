package upstream

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/papercart/storefront/internal/coupon"
)

var _ coupon.Validator = (*Client)(nil)

// Validate sends the code and current cart value to the coupon service.
//
// Outcomes map onto the domain taxonomy: a 2xx with valid=true yields a
// Result; a 4xx (unknown code, below minimum order, expired) yields
// *coupon.RejectedError with the service message; transport failures and
// 5xx responses wrap coupon.ErrUnavailable.
func (c *Client) Validate(ctx context.Context, code string, cartValue decimal.Decimal) (*coupon.Result, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("coupon_code", func(e *jx.Encoder) { e.Str(code) })
		e.Field("cart_value", func(e *jx.Encoder) { e.Num(jx.Num(cartValue.String())) })
	})

	resp, err := c.postJSON(ctx, "/api/validate-coupon", e.Bytes(), nil)
	if err != nil {
		return nil, errors.Wrapf(coupon.ErrUnavailable, "validate coupon: %s", err)
	}

	raw, err := readBody(resp)
	if err != nil {
		return nil, errors.Wrapf(coupon.ErrUnavailable, "validate coupon: %s", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, errors.Wrapf(coupon.ErrUnavailable, "coupon service returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, &coupon.RejectedError{Message: errorMessage(raw, "Invalid coupon")}
	}

	res, err := decodeCouponResult(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode coupon response")
	}
	if !res.Valid {
		return nil, &coupon.RejectedError{Message: errorMessage(raw, "Invalid coupon")}
	}
	return res, nil
}

func decodeCouponResult(raw []byte) (*coupon.Result, error) {
	var res coupon.Result
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "valid":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			res.Valid = v
		case "discount_amount":
			n, err := d.Num()
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "parse discount_amount")
			}
			res.DiscountAmount = amount
		case "discount_type":
			s, err := d.Str()
			if err != nil {
				return err
			}
			res.DiscountType = s
		case "coupon_code":
			s, err := d.Str()
			if err != nil {
				return err
			}
			res.Code = s
		case "message":
			s, err := d.Str()
			if err != nil {
				return err
			}
			res.Message = s
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
