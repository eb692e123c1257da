package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(700_00, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.Equal(t, int64(700_00), m.Amount)

	_, err = New(100, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddSameCurrency(t *testing.T) {
	a := Must(600_00, "USD")
	b := Must(100_00, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, Must(700_00, "USD"), sum)
}

func TestAddRejectsMismatch(t *testing.T) {
	a := Must(100, "USD")
	b := Must(100, "EUR")

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Add(Money{Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestMultiply(t *testing.T) {
	rate := Must(200_00, "USD")
	assert.Equal(t, Must(600_00, "USD"), rate.Multiply(3))
}
