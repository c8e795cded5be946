package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `
shop: Acme
categories:
  - id: 1
    name: Widgets
  - id: 2
    name: Gadgets
goods:
  - name: Gizmo
    category: 1
    price: 10.50
    price_rrc: 12.00
    quantity: 5
    parameters:
      color: red
      waterproof: true
      weight: 200
`

func TestParseFeed(t *testing.T) {
	feed, err := ParseFeed([]byte(sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, "Acme", feed.Shop)
	require.Len(t, feed.Categories, 2)
	assert.Equal(t, 1, feed.Categories[0].ID)
	assert.Equal(t, "Widgets", feed.Categories[0].Name)

	require.Len(t, feed.Goods, 1)
	good := feed.Goods[0]
	assert.Equal(t, "Gizmo", good.Name)
	assert.Equal(t, 1, good.Category)
	assert.Equal(t, 10.50, good.Price)
	assert.Equal(t, 12.00, good.PriceRRC)
	assert.Equal(t, 5, good.Quantity)
	assert.Equal(t, "red", good.Parameters["color"])
	assert.Equal(t, true, good.Parameters["waterproof"])
}

func TestParseFeedMissingShop(t *testing.T) {
	_, err := ParseFeed([]byte("categories: []\ngoods: []\n"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseFeedInvalidYAML(t *testing.T) {
	_, err := ParseFeed([]byte("shop: [unclosed"))
	assert.Error(t, err)
}

func TestParameterString(t *testing.T) {
	assert.Equal(t, "yes", parameterString(true))
	assert.Equal(t, "no", parameterString(false))
	assert.Equal(t, "red", parameterString("red"))
	assert.Equal(t, "200", parameterString(200))
	assert.Equal(t, "1.5", parameterString(1.5))
}
