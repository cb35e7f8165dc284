package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/domain"
)

func TestCents_Format(t *testing.T) {
	assert.Equal(t, "0.00", domain.Cents(0).String())
	assert.Equal(t, "150.50", domain.Cents(15050).String())

	b, err := json.Marshal(struct {
		Total domain.Cents `json:"total"`
	}{Total: 5000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":50.00}`, string(b))
}

func TestCents_Parse(t *testing.T) {
	c, err := domain.ParseCents("10.5")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(1050), c)

	for _, bad := range []string{"-1", "1.005", "abc"} {
		_, err := domain.ParseCents(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}

	var body struct {
		Amount domain.Cents `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":25.1}`), &body))
	assert.Equal(t, domain.Cents(2510), body.Amount)
	assert.Error(t, json.Unmarshal([]byte(`{"amount":-3}`), &body))
}

func TestFromFloat_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := domain.FromFloat(f)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	c, err := domain.FromFloat(19.99)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(1999), c)
}

func TestMinCents(t *testing.T) {
	assert.Equal(t, domain.Cents(3), domain.MinCents(10, 3, 7))
	assert.True(t, domain.Cents(100).Decimal().Equal(decimal.NewFromInt(1)))
}

func TestOrderItem_Subtotal(t *testing.T) {
	it := domain.OrderItem{Quantity: 3, UnitPrice: 2550}
	assert.Equal(t, domain.Cents(7650), it.Subtotal())
}
