package indicators

// FlatRSI is reported when a window has neither gains nor losses.
const FlatRSI = 50.0

// CalculateRSI computes the Relative Strength Index with Wilder smoothing.
// The first value needs period price changes, so it lands on index period.
func CalculateRSI(closes []float64, period int) Series {
	if period < 1 || len(closes) < period+1 {
		return notReady(len(closes))
	}

	rsi := make([]float64, len(closes))

	// gains[i-1] and losses[i-1] hold the change from closes[i-1] to closes[i]
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	sumGain := 0.0
	sumLoss := 0.0
	for i := 0; i < period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*(p-1) + gains[i-1]) / p
		avgLoss = (avgLoss*(p-1) + losses[i-1]) / p
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return Series{Values: rsi, Start: period}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return FlatRSI
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
