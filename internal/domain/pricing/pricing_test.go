package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayloop/internal/domain/shared/money"
)

func TestComputeBreakdown(t *testing.T) {
	// 150.00/night x 3 nights with a 25.00 cleaning fee.
	quote, err := Compute(money.Must(15000, "USD"), 3, money.Must(2500, "USD"))
	require.NoError(t, err)

	assert.Equal(t, int64(45000), quote.Subtotal.Amount)
	assert.Equal(t, int64(2500), quote.CleaningFee.Amount)
	assert.Equal(t, int64(6300), quote.ServiceFee.Amount)
	assert.Equal(t, int64(3600), quote.Taxes.Amount)
	assert.Equal(t, int64(57400), quote.Total.Amount)
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, "USD", quote.Total.Currency)
}

func TestComputeWithoutCleaningFee(t *testing.T) {
	quote, err := Compute(money.Must(10000, "USD"), 2, money.Money{})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), quote.Subtotal.Amount)
	assert.Equal(t, int64(2800), quote.ServiceFee.Amount)
	assert.Equal(t, int64(1600), quote.Taxes.Amount)
	assert.Equal(t, int64(24400), quote.Total.Amount)
	// Zero fee inherits the base currency so arithmetic still lines up.
	assert.Equal(t, "USD", quote.CleaningFee.Currency)
}

func TestComputePercentagesRoundToNearestCent(t *testing.T) {
	// 99.99 x 1 night: 14% of 9999 is 1399.86, 8% is 799.92.
	quote, err := Compute(money.Must(9999, "USD"), 1, money.Money{})
	require.NoError(t, err)

	assert.Equal(t, int64(1400), quote.ServiceFee.Amount)
	assert.Equal(t, int64(800), quote.Taxes.Amount)
	assert.Equal(t, int64(12199), quote.Total.Amount)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	_, err := Compute(money.Must(15000, "USD"), 0, money.Money{})
	assert.ErrorIs(t, err, ErrInvalidNights)

	_, err = Compute(money.Must(15000, "USD"), -2, money.Money{})
	assert.ErrorIs(t, err, ErrInvalidNights)

	_, err = Compute(money.Money{Amount: 0, Currency: "USD"}, 3, money.Money{})
	assert.ErrorIs(t, err, ErrInvalidBaseRate)

	_, err = Compute(money.Money{Amount: -100, Currency: "USD"}, 3, money.Money{})
	assert.ErrorIs(t, err, ErrInvalidBaseRate)
}

func TestComputeRejectsMixedCurrencies(t *testing.T) {
	_, err := Compute(money.Must(15000, "USD"), 3, money.Must(2500, "EUR"))
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}
