package repository

import (
	"errors"
	"math"
)

var errNilAnalysis = errors.New("nil analysis")

// historyLimit maps a non-positive limit to "no limit".
func historyLimit(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}
