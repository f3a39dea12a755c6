package domain

import "context"

// AnalysisRepository persists analyses produced by the service.
// Implementations: in-memory (dev), Postgres and SQLite.
type AnalysisRepository interface {
	Save(ctx context.Context, a *CoinAnalysis) error
	// Latest returns the newest analysis of every symbol, ordered by symbol.
	Latest(ctx context.Context) ([]CoinAnalysis, error)
	// History returns up to limit analyses of symbol, newest first.
	History(ctx context.Context, symbol string, limit int) ([]CoinAnalysis, error)
}

// TokenRepository stores device tokens for push alerts.
type TokenRepository interface {
	RegisterToken(ctx context.Context, token, platform string) error
	UnregisterToken(ctx context.Context, token string) error
	AllTokens(ctx context.Context) ([]string, error)
	TokenCount(ctx context.Context) (int, error)
}

// AnalysisPublisher forwards completed analyses to an event stream.
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, a *CoinAnalysis) error
}

// PushSender delivers a notification to a set of device tokens and returns
// the tokens the push service rejected as no longer valid.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (invalid []string, err error)
}
