package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/domain"
	"pixcards/internal/validate"
)

func TestVoucherCode(t *testing.T) {
	got, ok := validate.VoucherCode(" abcd-efgh jkmn-pqrs ")
	require.True(t, ok)
	assert.Equal(t, "ABCD-EFGH-JKMN-PQRS", got)

	for _, bad := range []string{"", "ABCD-EFGH-JKMN-PQR", "ABCD-EFGH-JKMN-PQRO", "ABCD-EFGH-JKMN-PQR1", "ABCD-EFGH-JKMN-PQRS-T"} {
		_, ok := validate.VoucherCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestBIN(t *testing.T) {
	_, ok := validate.BIN("123456")
	assert.True(t, ok)
	for _, bad := range []string{"12345", "1234567", "12a456", ""} {
		_, ok := validate.BIN(bad)
		assert.False(t, ok, bad)
	}
}

type lineReq struct {
	ProductID string `validate:"required,resid"`
	Quantity  int    `validate:"gte=1"`
}

func TestStruct_WrapsValidation(t *testing.T) {
	require.NoError(t, validate.Struct(lineReq{ProductID: "p1", Quantity: 1}))

	err := validate.Struct(lineReq{ProductID: "bad id!", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "productid is invalid")
	assert.Contains(t, err.Error(), "quantity must be greater than or equal to 1")
}
