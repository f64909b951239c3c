package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		price, duration      int
		total, fee, finalSum int
	}{
		{price: 150, duration: 2, total: 300, fee: 15, finalSum: 315},
		{price: 120, duration: 1, total: 120, fee: 6, finalSum: 126},
		// 0.05*250 = 12.5 四舍五入为 13
		{price: 125, duration: 2, total: 250, fee: 13, finalSum: 263},
		{price: 99, duration: 3, total: 297, fee: 15, finalSum: 312},
		{price: 200, duration: 8, total: 1600, fee: 80, finalSum: 1680},
	}

	for _, tt := range tests {
		b := Calculate(tt.price, tt.duration)
		assert.Equal(t, tt.total, b.Total)
		assert.Equal(t, tt.fee, b.PlatformFee)
		assert.Equal(t, tt.finalSum, b.FinalTotal)
		assert.Equal(t, b.Total+b.PlatformFee, b.FinalTotal)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Calculate(175, 3), Calculate(175, 3))
	}
}

func TestQuote_Validation(t *testing.T) {
	_, err := Quote(150, 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Quote(150, 9)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Quote(0, 2)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	b, err := Quote(150, 8)
	require.NoError(t, err)
	assert.Equal(t, 1260, b.FinalTotal)
	assert.Equal(t, 126000, b.AmountInPaise())
}
