// Package catalog fetches and caches the remote product catalog. The cart
// snapshots product metadata at add time, so the catalog is only consulted
// when a line item is created.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrProductNotFound is returned when the catalog has no such product.
	ErrProductNotFound = errors.New("product not found")
	// ErrVariantNotFound is returned when the product exists but the
	// requested variant does not.
	ErrVariantNotFound = errors.New("variant not found")
)

// Variant is a product sub-selection (a weight or grade label) with its own
// unit price.
type Variant struct {
	Key   string
	Price decimal.Decimal
}

// Product is one catalog entry.
type Product struct {
	ID            string
	Name          string
	Description   string
	Image         string
	Category      string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Variants      []Variant
}

// Source lists products from the remote catalog service.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Catalog caches the product list for a short TTL. Concurrent cache misses
// collapse into a single upstream fetch.
type Catalog struct {
	source Source
	ttl    time.Duration

	sf singleflight.Group

	mu        sync.Mutex
	cached    []Product
	fetchedAt time.Time
}

// New returns a Catalog over the given source. A zero ttl disables caching.
func New(source Source, ttl time.Duration) *Catalog {
	return &Catalog{source: source, ttl: ttl}
}

// Products returns the product list, fetching from the source when the
// cache is cold or expired.
func (c *Catalog) Products(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		cached := c.cached
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("products", func() (interface{}, error) {
		products, err := c.source.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = products
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// Find locates a product and one of its variants. Variant keys compare
// exactly; they are display labels, not normalized values.
func (c *Catalog) Find(ctx context.Context, productID, variantKey string) (Product, Variant, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return Product{}, Variant{}, err
	}
	for _, p := range products {
		if p.ID != productID {
			continue
		}
		for _, v := range p.Variants {
			if v.Key == variantKey {
				return p, v, nil
			}
		}
		return Product{}, Variant{}, errors.Wrapf(ErrVariantNotFound, "product %s variant %q", productID, variantKey)
	}
	return Product{}, Variant{}, errors.Wrapf(ErrProductNotFound, "product %s", productID)
}
