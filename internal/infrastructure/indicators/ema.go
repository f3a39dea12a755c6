package indicators

// CalculateEMA computes the Exponential Moving Average.
//
// The recurrence is seeded with the first value (ema[0] = data[0]) and runs
// over the whole input, but values are only reported once period bars exist.
// The update is written as ema += k*(x-ema) so a flat input stays exactly flat.
func CalculateEMA(data []float64, period int) Series {
	if period < 1 || len(data) == 0 {
		return notReady(len(data))
	}

	ema := make([]float64, len(data))
	k := 2.0 / (float64(period) + 1.0)

	ema[0] = data[0]
	for i := 1; i < len(data); i++ {
		ema[i] = ema[i-1] + k*(data[i]-ema[i-1])
	}

	return Series{Values: ema, Start: period - 1}
}
