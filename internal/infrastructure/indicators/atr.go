package indicators

import "math"

// CalculateATR computes the Average True Range.
// The first value is the mean of the first period true ranges (index period-1),
// later values use Wilder smoothing.
func CalculateATR(highs, lows, closes []float64, period int) Series {
	length := len(closes)
	if period < 1 || length < period || len(highs) != length || len(lows) != length {
		return notReady(length)
	}

	trs := make([]float64, length)
	trs[0] = highs[0] - lows[0]
	for i := 1; i < length; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}

	atr := make([]float64, length)
	sumTR := 0.0
	for i := 0; i < period; i++ {
		sumTR += trs[i]
	}
	atr[period-1] = sumTR / float64(period)

	for i := period; i < length; i++ {
		atr[i] = (atr[i-1]*float64(period-1) + trs[i]) / float64(period)
	}

	return Series{Values: atr, Start: period - 1}
}
