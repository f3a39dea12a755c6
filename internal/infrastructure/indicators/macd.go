package indicators

// MACD holds the three MACD lines, aligned with the input closes.
type MACD struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// CalculateMACD computes MACD(fast, slow, signal).
// The signal EMA starts at the first defined MACD value, so the histogram
// needs slow+signal-1 bars.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	n := len(closes)
	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)

	start := emaSlow.Start
	if emaFast.Start > start {
		start = emaFast.Start
	}
	if n == 0 || start >= n {
		return MACD{Line: notReady(n), Signal: notReady(n), Histogram: notReady(n)}
	}

	line := make([]float64, n)
	for i := start; i < n; i++ {
		line[i] = emaFast.Values[i] - emaSlow.Values[i]
	}

	sig := CalculateEMA(line[start:], signal)
	signalValues := make([]float64, n)
	copy(signalValues[start:], sig.Values)
	signalStart := start + sig.Start
	if sig.Start >= len(sig.Values) {
		signalStart = n
	}

	hist := make([]float64, n)
	for i := signalStart; i < n; i++ {
		hist[i] = line[i] - signalValues[i]
	}

	return MACD{
		Line:      Series{Values: line, Start: start},
		Signal:    Series{Values: signalValues, Start: signalStart},
		Histogram: Series{Values: hist, Start: signalStart},
	}
}
