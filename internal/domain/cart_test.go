package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesByProductID(t *testing.T) {
	cart := &Cart{}
	p := Product{ID: "p1", Name: "Quantum Pro Headphones", Price: 299.99}

	cart.Add(p)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	cart.Add(p)
	require.Len(t, cart.Lines, 1, "adding an existing product must not create a duplicate line")
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestCartAddNewProductAppendsLine(t *testing.T) {
	cart := &Cart{}
	cart.Add(Product{ID: "p1", Price: 10})
	cart.Add(Product{ID: "p2", Price: 20})

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 1, cart.Lines[1].Quantity)
}

func TestCartRemove(t *testing.T) {
	cart := &Cart{}
	cart.Add(Product{ID: "p1", Price: 10})
	cart.Add(Product{ID: "p2", Price: 20})

	cart.Remove("p1")
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p2", cart.Lines[0].Product.ID)

	// Removing an absent product is a no-op.
	cart.Remove("p1")
	assert.Len(t, cart.Lines, 1)
}

func TestCartTotal(t *testing.T) {
	cart := &Cart{}
	assert.Equal(t, 0.0, cart.Total())

	keyboard := Product{ID: "p1", Price: 125.50}
	monitor := Product{ID: "p2", Price: 549.99}

	cart.Add(keyboard)
	cart.Add(keyboard)
	cart.Add(monitor)
	assert.InDelta(t, 125.50*2+549.99, cart.Total(), 1e-9)

	cart.Remove("p1")
	cart.Remove("p2")
	assert.Equal(t, 0.0, cart.Total(), "empty cart totals zero")
}

func TestCatalogFilterByCategory(t *testing.T) {
	catalog := &Catalog{
		Products: []Product{
			{ID: "p1", CategoryID: "audio"},
			{ID: "p2", CategoryID: "wearables"},
			{ID: "p3", CategoryID: "audio"},
		},
	}

	audio := catalog.FilterByCategory("audio")
	require.Len(t, audio, 2)
	assert.Equal(t, "p1", audio[0].ID)
	assert.Equal(t, "p3", audio[1].ID)

	// No category is the identity filter.
	assert.Equal(t, catalog.Products, catalog.FilterByCategory(""))
}
