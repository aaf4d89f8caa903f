package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/papercart/storefront/internal/catalog"
)

var _ catalog.Source = (*Client)(nil)

// ListProducts fetches the product catalog. Product IDs arrive as JSON
// numbers or strings depending on service version; both normalize to
// strings here.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	resp, err := c.get(ctx, "/api/products")
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	raw, err := readBody(resp)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var products []catalog.Product
	d := jx.DecodeBytes(raw)
	err = d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			id, err := decodeFlexibleID(d)
			if err != nil {
				return err
			}
			p.ID = id
		case "name":
			return assignStr(d, &p.Name)
		case "description":
			return assignStr(d, &p.Description)
		case "image":
			return assignStr(d, &p.Image)
		case "category":
			return assignStr(d, &p.Category)
		case "price":
			return assignDecimal(d, &p.Price)
		case "original_price":
			return assignDecimal(d, &p.OriginalPrice)
		case "variants":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVariant(d)
				if err != nil {
					return err
				}
				p.Variants = append(p.Variants, v)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	return p, err
}

func decodeVariant(d *jx.Decoder) (catalog.Variant, error) {
	var v catalog.Variant
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "weight":
			return assignStr(d, &v.Key)
		case "price":
			return assignDecimal(d, &v.Price)
		default:
			return d.Skip()
		}
	})
	return v, err
}

func decodeFlexibleID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		i, err := n.Int64()
		if err != nil {
			return n.String(), nil
		}
		return strconv.FormatInt(i, 10), nil
	default:
		return "", errors.New("product id must be a string or number")
	}
}

func assignStr(d *jx.Decoder, dst *string) error {
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func assignDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return errors.Wrap(err, "parse decimal")
	}
	*dst = v
	return nil
}
