package usecase

import "github.com/arun-ammasai/crypto-trading-setup/internal/domain"

// Rule weights.
const (
	ScoreEMATrend     = 3
	ScoreRSINeutral   = 2
	ScoreMACDPositive = 2

	MaxScore = ScoreEMATrend + ScoreRSINeutral + ScoreMACDPositive
)

// RSI band for the neutral rule, both bounds exclusive.
const (
	RSINeutralLow  = 35.0
	RSINeutralHigh = 65.0
)

// CalculateScore applies the scoring rules to an indicator snapshot.
// Each rule is evaluated on its own; a nil indicator never fires.
func CalculateScore(s domain.IndicatorSnapshot) (int, domain.ScoreBreakdown) {
	var b domain.ScoreBreakdown

	if s.EMAFast != nil && s.EMASlow != nil && *s.EMAFast > *s.EMASlow {
		b.EMATrend = true
	}
	if s.RSI != nil && *s.RSI > RSINeutralLow && *s.RSI < RSINeutralHigh {
		b.RSINeutral = true
	}
	if s.MACDHistogram != nil && *s.MACDHistogram > 0 {
		b.MACDPositive = true
	}

	return breakdownScore(b), b
}

func breakdownScore(b domain.ScoreBreakdown) int {
	score := 0
	if b.EMATrend {
		score += ScoreEMATrend
	}
	if b.RSINeutral {
		score += ScoreRSINeutral
	}
	if b.MACDPositive {
		score += ScoreMACDPositive
	}
	return score
}
