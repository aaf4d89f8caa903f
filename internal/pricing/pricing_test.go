package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/papercart/storefront/internal/cart"
)

func item(price string, qty int) cart.LineItem {
	return cart.LineItem{Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []cart.LineItem
		want  string
	}{
		{name: "empty cart", items: nil, want: "0"},
		{name: "single line", items: []cart.LineItem{item("10.00", 3)}, want: "30.00"},
		{
			name:  "multiple lines",
			items: []cart.LineItem{item("10.00", 2), item("3.25", 4)},
			want:  "33.00",
		},
		{
			name:  "sub-cent precision survives addition",
			items: []cart.LineItem{item("0.105", 2), item("0.105", 1)},
			want:  "0.315",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtotal(tt.items)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		discount string
		want     string
	}{
		{name: "no discount", subtotal: "500.00", discount: "0", want: "500.00"},
		{name: "flat discount", subtotal: "500.00", discount: "100.00", want: "400.00"},
		{name: "discount equals subtotal", subtotal: "100.00", discount: "100.00", want: "0"},
		{name: "discount exceeds subtotal floors at zero", subtotal: "50.00", discount: "100.00", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(decimal.RequireFromString(tt.subtotal), decimal.RequireFromString(tt.discount))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "400.00", Format(decimal.RequireFromString("400")))
	assert.Equal(t, "0.32", Format(decimal.RequireFromString("0.315")))
	assert.Equal(t, "0.00", Format(decimal.Zero))
}
