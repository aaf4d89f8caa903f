// Package cart implements the shopping cart state machine: a pure command
// reducer over an ordered list of line items, plus a Store that adds
// persistence and revision tracking on top of it.
package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one cart row, keyed by product+variant. Display metadata and
// the unit price are snapshots taken at add time; they are never re-fetched
// from the catalog.
type LineItem struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Variant       string          `json:"variant"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity      int             `json:"quantity"`
}

// State is the full cart state. Items keep insertion order; updates never
// reorder them.
type State struct {
	Items []LineItem `json:"items"`
}

// LineID derives the line item identity from a product ID and variant key.
// Two adds with the same pair always coalesce into a single line.
func LineID(productID, variantKey string) string {
	return productID + "-" + variantKey
}

// ProductInfo is the product metadata captured into a line item snapshot.
type ProductInfo struct {
	ID            string
	Name          string
	Image         string
	Category      string
	OriginalPrice decimal.Decimal
}

// VariantInfo is the selected variant: its discriminator key (e.g. a weight
// or grade label) and the unit price for that variant.
type VariantInfo struct {
	Key   string
	Price decimal.Decimal
}

// Command is the tagged-variant command set processed by Apply.
type Command interface {
	isCommand()
}

// AddItem appends a new line item snapshot, or increments the quantity of
// the existing line with the same product+variant identity.
type AddItem struct {
	Product  ProductInfo
	Variant  VariantInfo
	Quantity int
}

// RemoveItem deletes the line with the given ID. Removing an absent line is
// a no-op, not an error.
type RemoveItem struct {
	LineID string
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or below removes the line.
type UpdateQuantity struct {
	LineID   string
	Quantity int
}

// Clear empties the cart.
type Clear struct{}

// Load replaces the cart contents wholesale, used when restoring persisted
// state.
type Load struct {
	Items []LineItem
}

func (AddItem) isCommand()        {}
func (RemoveItem) isCommand()     {}
func (UpdateQuantity) isCommand() {}
func (Clear) isCommand()          {}
func (Load) isCommand()           {}

// Apply is the pure cart transition function. It never mutates the input
// state; the returned state shares no item slice with it.
func Apply(s State, cmd Command) State {
	switch c := cmd.(type) {
	case AddItem:
		return applyAdd(s, c)
	case RemoveItem:
		return applyRemove(s, c.LineID)
	case UpdateQuantity:
		if c.Quantity <= 0 {
			return applyRemove(s, c.LineID)
		}
		items := cloneItems(s.Items)
		for i := range items {
			if items[i].ID == c.LineID {
				items[i].Quantity = c.Quantity
			}
		}
		return State{Items: items}
	case Clear:
		return State{}
	case Load:
		return State{Items: cloneItems(c.Items)}
	default:
		return s
	}
}

func applyAdd(s State, c AddItem) State {
	qty := c.Quantity
	if qty < 1 {
		qty = 1
	}
	id := LineID(c.Product.ID, c.Variant.Key)

	items := cloneItems(s.Items)
	for i := range items {
		if items[i].ID == id {
			// Merge semantics: quantities accumulate, the original price
			// snapshot is kept.
			items[i].Quantity += qty
			return State{Items: items}
		}
	}

	items = append(items, LineItem{
		ID:            id,
		ProductID:     c.Product.ID,
		Name:          c.Product.Name,
		Image:         c.Product.Image,
		Category:      c.Product.Category,
		Variant:       c.Variant.Key,
		Price:         c.Variant.Price,
		OriginalPrice: c.Product.OriginalPrice,
		Quantity:      qty,
	})
	return State{Items: items}
}

func applyRemove(s State, lineID string) State {
	items := make([]LineItem, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ID != lineID {
			items = append(items, it)
		}
	}
	return State{Items: items}
}

// Quantity returns the quantity of the line with the given ID, or zero when
// no such line exists.
func (s State) Quantity(lineID string) int {
	for _, it := range s.Items {
		if it.ID == lineID {
			return it.Quantity
		}
	}
	return 0
}

// Empty reports whether the cart holds no line items.
func (s State) Empty() bool {
	return len(s.Items) == 0
}

// Count returns the total quantity across all lines.
func (s State) Count() int {
	total := 0
	for _, it := range s.Items {
		total += it.Quantity
	}
	return total
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
