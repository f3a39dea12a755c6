package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// DefaultHistoryCap bounds how many analyses per symbol the in-memory
// repository keeps.
const DefaultHistoryCap = 500

// InMemoryAnalysisRepository keeps analyses in process memory, newest last.
type InMemoryAnalysisRepository struct {
	bySymbol map[string][]domain.CoinAnalysis
	cap      int
	mu       sync.RWMutex
}

func NewInMemoryAnalysisRepository(historyCap int) *InMemoryAnalysisRepository {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &InMemoryAnalysisRepository{
		bySymbol: make(map[string][]domain.CoinAnalysis),
		cap:      historyCap,
	}
}

func (r *InMemoryAnalysisRepository) Save(_ context.Context, a *domain.CoinAnalysis) error {
	if a == nil {
		return errNilAnalysis
	}
	symbol := strings.ToUpper(a.Symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	// CoinAnalysis holds pointers, so store a deep copy.
	list := append(r.bySymbol[symbol], cloneAnalysis(*a))
	if len(list) > r.cap {
		list = list[len(list)-r.cap:]
	}
	r.bySymbol[symbol] = list
	return nil
}

func (r *InMemoryAnalysisRepository) Latest(_ context.Context) ([]domain.CoinAnalysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.CoinAnalysis, 0, len(r.bySymbol))
	for _, list := range r.bySymbol {
		result = append(result, cloneAnalysis(newest(list)))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}

func (r *InMemoryAnalysisRepository) History(_ context.Context, symbol string, limit int) ([]domain.CoinAnalysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.bySymbol[strings.ToUpper(symbol)]
	ordered := make([]domain.CoinAnalysis, len(list))
	for i, a := range list {
		ordered[len(list)-1-i] = cloneAnalysis(a)
	}
	// stable keeps newer saves first among equal timestamps
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At.After(ordered[j].At) })

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

// newest picks the entry with the latest timestamp, later saves winning ties.
func newest(list []domain.CoinAnalysis) domain.CoinAnalysis {
	best := list[0]
	for _, a := range list[1:] {
		if !a.At.Before(best.At) {
			best = a
		}
	}
	return best
}

func cloneAnalysis(a domain.CoinAnalysis) domain.CoinAnalysis {
	a.EMAFast = cloneFloat(a.EMAFast)
	a.EMASlow = cloneFloat(a.EMASlow)
	a.RSI = cloneFloat(a.RSI)
	a.MACDHistogram = cloneFloat(a.MACDHistogram)
	a.ATR = cloneFloat(a.ATR)
	return a
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ domain.AnalysisRepository = (*InMemoryAnalysisRepository)(nil)
