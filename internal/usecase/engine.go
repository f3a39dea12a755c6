package usecase

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/indicators"
)

// Indicator lookbacks.
const (
	EMAFastPeriod = 20
	EMASlowPeriod = 50
	RSIPeriod     = 14
	ATRPeriod     = 14

	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// OutputPrecision is the number of decimals reported for indicator values.
const OutputPrecision = 2

// Evaluate computes the indicator snapshot and score for the last bar of series.
//
// It holds no state and does not modify series, so it is safe to call from
// any number of goroutines. Indicators without enough history are reported
// as nil; only structural problems with the series return an error, which
// wraps domain.ErrInvalidSeries.
func Evaluate(series domain.CandleSeries) (*domain.ScoreResult, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	macd := indicators.CalculateMACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)

	raw := domain.IndicatorSnapshot{
		EMAFast:       last(indicators.CalculateEMA(closes, EMAFastPeriod)),
		EMASlow:       last(indicators.CalculateEMA(closes, EMASlowPeriod)),
		RSI:           last(indicators.CalculateRSI(closes, RSIPeriod)),
		MACDHistogram: last(macd.Histogram),
		ATR:           last(indicators.CalculateATR(series.Highs(), series.Lows(), closes, ATRPeriod)),
	}

	// rules see full precision, rounding is presentation only
	score, breakdown := CalculateScore(raw)

	return &domain.ScoreResult{
		IndicatorSnapshot: roundSnapshot(raw),
		Score:             score,
		Breakdown:         breakdown,
	}, nil
}

// ValidateSeries rejects empty series, non-increasing timestamps and non-finite values.
func ValidateSeries(series domain.CandleSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: empty series", domain.ErrInvalidSeries)
	}

	for i, c := range series {
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at bar %d", domain.ErrInvalidSeries, i)
			}
		}
		if i > 0 && !c.Timestamp.After(series[i-1].Timestamp) {
			return fmt.Errorf("%w: timestamp at bar %d is not after bar %d", domain.ErrInvalidSeries, i, i-1)
		}
	}
	return nil
}

func last(s indicators.Series) *float64 {
	v, ok := s.Last()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func roundSnapshot(s domain.IndicatorSnapshot) domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		EMAFast:       roundValue(s.EMAFast),
		EMASlow:       roundValue(s.EMASlow),
		RSI:           roundValue(s.RSI),
		MACDHistogram: roundValue(s.MACDHistogram),
		ATR:           roundValue(s.ATR),
	}
}

// roundValue rounds half away from zero on the shortest decimal form of v,
// so 123.456 becomes 123.46 rather than inheriting binary representation error.
func roundValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r, _ := decimal.NewFromFloat(*v).Round(OutputPrecision).Float64()
	return &r
}
