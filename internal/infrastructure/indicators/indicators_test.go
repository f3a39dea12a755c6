package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculateEMA(t *testing.T) {
	t.Run("seeded with first value", func(t *testing.T) {
		// period 3 -> k = 0.5
		ema := CalculateEMA([]float64{1, 2, 3, 4}, 3)

		_, ok := ema.At(1)
		assert.False(t, ok, "index before period-1 must be undefined")

		v, ok := ema.At(2)
		require.True(t, ok)
		assert.InDelta(t, 2.25, v, 1e-12)

		v, ok = ema.Last()
		require.True(t, ok)
		assert.InDelta(t, 3.125, v, 1e-12)
	})

	t.Run("short input is undefined", func(t *testing.T) {
		ema := CalculateEMA(ramp(19), 20)
		_, ok := ema.Last()
		assert.False(t, ok)
		assert.Zero(t, ema.Defined())
	})

	t.Run("exact lookback is defined", func(t *testing.T) {
		ema := CalculateEMA(ramp(20), 20)
		_, ok := ema.Last()
		assert.True(t, ok)
		assert.Equal(t, 1, ema.Defined())
	})

	t.Run("empty input", func(t *testing.T) {
		ema := CalculateEMA(nil, 20)
		_, ok := ema.Last()
		assert.False(t, ok)
	})

	t.Run("prefix values do not depend on later bars", func(t *testing.T) {
		full := CalculateEMA(ramp(40), 10)
		prefix := CalculateEMA(ramp(25), 10)
		for i := 9; i < 25; i++ {
			assert.Equal(t, prefix.Values[i], full.Values[i], "index %d", i)
		}
	})
}

func TestCalculateRSI(t *testing.T) {
	t.Run("hand computed period 2", func(t *testing.T) {
		// deltas +1, -1, +1
		rsi := CalculateRSI([]float64{1, 2, 1, 2}, 2)

		v, ok := rsi.At(2)
		require.True(t, ok)
		assert.InDelta(t, 50.0, v, 1e-9)

		// avgGain = (0.5+1)/2 = 0.75, avgLoss = 0.5/2 = 0.25, RS = 3
		v, ok = rsi.Last()
		require.True(t, ok)
		assert.InDelta(t, 75.0, v, 1e-9)
	})

	t.Run("needs period+1 closes", func(t *testing.T) {
		_, ok := CalculateRSI(ramp(14), 14).Last()
		assert.False(t, ok)
		_, ok = CalculateRSI(ramp(15), 14).Last()
		assert.True(t, ok)
	})

	t.Run("only gains is 100", func(t *testing.T) {
		v, ok := CalculateRSI(ramp(30), 14).Last()
		require.True(t, ok)
		assert.Equal(t, 100.0, v)
	})

	t.Run("only losses is 0", func(t *testing.T) {
		closes := ramp(30)
		for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
			closes[i], closes[j] = closes[j], closes[i]
		}
		v, ok := CalculateRSI(closes, 14).Last()
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("flat series resolves to FlatRSI", func(t *testing.T) {
		v, ok := CalculateRSI(flat(60, 100), 14).Last()
		require.True(t, ok)
		assert.Equal(t, FlatRSI, v)
	})

	t.Run("bounded", func(t *testing.T) {
		closes := []float64{10, 12, 9, 15, 14, 14, 20, 3, 8, 8, 11, 30, 29, 1, 2, 50, 49, 48, 60, 10}
		rsi := CalculateRSI(closes, 5)
		for i := rsi.Start; i < len(closes); i++ {
			v, ok := rsi.At(i)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	})
}

func TestCalculateATR(t *testing.T) {
	t.Run("hand computed period 2", func(t *testing.T) {
		highs := []float64{10, 12, 11}
		lows := []float64{8, 9, 10}
		closes := []float64{9, 11, 10.5}
		// TR = 2, 3, 1
		atr := CalculateATR(highs, lows, closes, 2)

		v, ok := atr.At(1)
		require.True(t, ok)
		assert.InDelta(t, 2.5, v, 1e-12)

		v, ok = atr.Last()
		require.True(t, ok)
		assert.InDelta(t, 1.75, v, 1e-12)
	})

	t.Run("needs period bars", func(t *testing.T) {
		c := flat(13, 100)
		_, ok := CalculateATR(c, c, c, 14).Last()
		assert.False(t, ok)

		c = flat(14, 100)
		v, ok := CalculateATR(c, c, c, 14).Last()
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		_, ok := CalculateATR(flat(20, 2), flat(19, 1), flat(20, 1.5), 14).Last()
		assert.False(t, ok)
	})
}

func TestCalculateMACD(t *testing.T) {
	t.Run("histogram needs 34 bars", func(t *testing.T) {
		_, ok := CalculateMACD(ramp(33), 12, 26, 9).Histogram.Last()
		assert.False(t, ok)

		_, ok = CalculateMACD(ramp(34), 12, 26, 9).Histogram.Last()
		assert.True(t, ok)
	})

	t.Run("line defined from slow period", func(t *testing.T) {
		m := CalculateMACD(ramp(26), 12, 26, 9)
		_, ok := m.Line.Last()
		assert.True(t, ok)
		_, ok = m.Signal.Last()
		assert.False(t, ok)
	})

	t.Run("flat series is zero", func(t *testing.T) {
		v, ok := CalculateMACD(flat(60, 100), 12, 26, 9).Histogram.Last()
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("histogram is line minus signal", func(t *testing.T) {
		m := CalculateMACD(ramp(60), 12, 26, 9)
		line, _ := m.Line.Last()
		sig, _ := m.Signal.Last()
		hist, ok := m.Histogram.Last()
		require.True(t, ok)
		assert.InDelta(t, line-sig, hist, 1e-12)
	})
}
