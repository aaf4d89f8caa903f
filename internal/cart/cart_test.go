package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(id string) ProductInfo {
	return ProductInfo{
		ID:            id,
		Name:          "Classic Notebook",
		Image:         "notebook.jpg",
		Category:      "notebooks",
		OriginalPrice: decimal.RequireFromString("12.00"),
	}
}

func addCmd(productID, variantKey string, price string, qty int) AddItem {
	return AddItem{
		Product:  newTestProduct(productID),
		Variant:  VariantInfo{Key: variantKey, Price: decimal.RequireFromString(price)},
		Quantity: qty,
	}
}

func TestLineID(t *testing.T) {
	assert.Equal(t, "p1-A5", LineID("p1", "A5"))
	assert.Equal(t, "p1-200gsm", LineID("p1", "200gsm"))
}

func TestApply_AddNewItem(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))

	require.Len(t, s.Items, 1)
	it := s.Items[0]
	assert.Equal(t, "p1-A5", it.ID)
	assert.Equal(t, "p1", it.ProductID)
	assert.Equal(t, "A5", it.Variant)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(it.Price))
	assert.True(t, decimal.RequireFromString("12.00").Equal(it.OriginalPrice))
}

func TestApply_AddMergesQuantities(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, addCmd("p1", "A5", "10.00", 3))

	require.Len(t, s.Items, 1)
	assert.Equal(t, 5, s.Items[0].Quantity)
}

func TestApply_AddDistinctVariantsAreSeparateLines(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 1))
	s = Apply(s, addCmd("p1", "A4", "14.00", 1))

	require.Len(t, s.Items, 2)
	assert.Equal(t, "p1-A5", s.Items[0].ID)
	assert.Equal(t, "p1-A4", s.Items[1].ID)
}

func TestApply_AddCoercesNonPositiveQuantityToOne(t *testing.T) {
	s := Apply(State{}, AddItem{
		Product: newTestProduct("p1"),
		Variant: VariantInfo{Key: "A5", Price: decimal.RequireFromString("10.00")},
	})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestApply_MergeKeepsFirstSnapshot(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 1))
	// Same identity added again with a different price snapshot; the line
	// keeps the price it was created with.
	s = Apply(s, addCmd("p1", "A5", "11.50", 1))

	require.Len(t, s.Items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(s.Items[0].Price))
	assert.Equal(t, 2, s.Items[0].Quantity)
}

func TestApply_UpdateQuantity(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, UpdateQuantity{LineID: "p1-A5", Quantity: 7})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 7, s.Items[0].Quantity)
}

func TestApply_UpdateQuantityZeroRemovesLine(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, addCmd("p2", "A5", "8.00", 1))

	zeroed := Apply(s, UpdateQuantity{LineID: "p1-A5", Quantity: 0})
	removed := Apply(s, RemoveItem{LineID: "p1-A5"})

	assert.Equal(t, removed, zeroed)
	require.Len(t, zeroed.Items, 1)
	assert.Equal(t, "p2-A5", zeroed.Items[0].ID)
}

func TestApply_UpdateQuantityNegativeRemovesLine(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, UpdateQuantity{LineID: "p1-A5", Quantity: -3})

	assert.True(t, s.Empty())
}

func TestApply_RemoveAbsentLineIsNoOp(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	next := Apply(s, RemoveItem{LineID: "nope"})

	assert.Equal(t, s.Items, next.Items)
}

func TestApply_RemoveIsIdempotent(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	once := Apply(s, RemoveItem{LineID: "p1-A5"})
	twice := Apply(once, RemoveItem{LineID: "p1-A5"})

	assert.True(t, once.Empty())
	assert.Equal(t, once, twice)
}

func TestApply_PreservesInsertionOrder(t *testing.T) {
	s := State{}
	s = Apply(s, addCmd("p1", "A5", "10.00", 1))
	s = Apply(s, addCmd("p2", "A5", "8.00", 1))
	s = Apply(s, addCmd("p3", "A5", "6.00", 1))

	// Updating the middle line must not reorder anything.
	s = Apply(s, UpdateQuantity{LineID: "p2-A5", Quantity: 9})
	// Re-adding the first line merges in place.
	s = Apply(s, addCmd("p1", "A5", "10.00", 1))

	require.Len(t, s.Items, 3)
	assert.Equal(t, "p1-A5", s.Items[0].ID)
	assert.Equal(t, "p2-A5", s.Items[1].ID)
	assert.Equal(t, "p3-A5", s.Items[2].ID)
}

func TestApply_Clear(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, Clear{})

	assert.True(t, s.Empty())
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := Apply(State{}, addCmd("p1", "A5", "10.00", 2))
	_ = Apply(s, UpdateQuantity{LineID: "p1-A5", Quantity: 99})
	_ = Apply(s, addCmd("p1", "A5", "10.00", 5))

	assert.Equal(t, 2, s.Items[0].Quantity)
}

func TestApply_Load(t *testing.T) {
	items := []LineItem{
		{ID: "p1-A5", ProductID: "p1", Variant: "A5", Quantity: 3, Price: decimal.RequireFromString("10.00")},
	}
	s := Apply(State{}, Load{Items: items})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)

	// Loaded state must not alias the input slice.
	items[0].Quantity = 100
	assert.Equal(t, 3, s.Items[0].Quantity)
}

func TestState_Helpers(t *testing.T) {
	s := State{}
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.Quantity("p1-A5"))

	s = Apply(s, addCmd("p1", "A5", "10.00", 2))
	s = Apply(s, addCmd("p2", "A5", "8.00", 3))

	assert.False(t, s.Empty())
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 2, s.Quantity("p1-A5"))
	assert.Equal(t, 3, s.Quantity("p2-A5"))
	assert.Equal(t, 0, s.Quantity("p9-A5"))
}
