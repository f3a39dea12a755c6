package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// fakeSource serves a fixed series per pair and counts calls.
type fakeSource struct {
	name   string
	series map[string]domain.CandleSeries
	errs   map[string]error

	mu    sync.Mutex
	calls []string
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{
		name:   name,
		series: make(map[string]domain.CandleSeries),
		errs:   make(map[string]error),
	}
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) FetchCandles(_ context.Context, pair, timeframe string, limit int) (domain.CandleSeries, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pair)
	s.mu.Unlock()

	if err, ok := s.errs[pair]; ok {
		return nil, err
	}
	series, ok := s.series[pair]
	if !ok {
		return nil, errors.New("unknown pair " + pair)
	}
	if len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeCache struct {
	data   map[string]domain.CandleSeries
	getErr error
	setErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]domain.CandleSeries)}
}

func (c *fakeCache) Get(_ context.Context, key string) (domain.CandleSeries, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	s, ok := c.data[key]
	return s, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, series domain.CandleSeries, _ time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = series
	return nil
}

type fakeRepo struct {
	mu    sync.Mutex
	saved []domain.CoinAnalysis
	err   error
}

func (r *fakeRepo) Save(_ context.Context, a *domain.CoinAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, *a)
	return nil
}

func (r *fakeRepo) Latest(_ context.Context) ([]domain.CoinAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CoinAnalysis(nil), r.saved...), nil
}

func (r *fakeRepo) History(_ context.Context, symbol string, limit int) ([]domain.CoinAnalysis, error) {
	return nil, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) PublishAnalysis(_ context.Context, a *domain.CoinAnalysis) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a.Symbol)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type pushCall struct {
	tokens []string
	title  string
	data   map[string]string
}

type fakePush struct {
	mu      sync.Mutex
	calls   []pushCall
	invalid []string
	err     error
}

func (p *fakePush) SendMulticast(_ context.Context, tokens []string, title, _ string, data map[string]string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{tokens: tokens, title: title, data: data})
	if p.err != nil {
		return nil, p.err
	}
	return p.invalid, nil
}

func (p *fakePush) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
