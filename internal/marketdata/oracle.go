package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paper-trading-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Oracle resolves quotes through an ordered chain of providers. The first
// provider is the preferred live tier; everything after it (later providers,
// the persisted quote cache, the terminal fallback) produces degraded quotes.
type Oracle struct {
	logger    *zap.Logger
	db        *gorm.DB
	providers []Provider
	fallback  Provider
}

// NewOracle creates a new price oracle. Providers are tried in the given
// order; fallback may be nil, in which case a symbol with no live quote and
// no cache entry yields ErrUnavailable.
func NewOracle(logger *zap.Logger, db *gorm.DB, providers []Provider, fallback Provider) *Oracle {
	return &Oracle{
		logger:    logger,
		db:        db,
		providers: providers,
		fallback:  fallback,
	}
}

// GetQuote returns the current quote for a symbol. Live-provider failure is
// a degraded-data condition, not a hard failure: the oracle falls back to
// the last cached quote, then to the deterministic fallback provider, and
// only returns ErrUnavailable when every tier is exhausted.
func (o *Oracle) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	for i, p := range o.providers {
		if err := ctx.Err(); err != nil {
			return Quote{}, err
		}

		quote, err := p.Quote(ctx, symbol)
		if err != nil {
			o.logger.Warn("Provider failed to quote, trying next tier",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		quote.Degraded = i > 0
		o.refreshCache(quote)
		return quote, nil
	}

	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	if cached, ok := o.cachedQuote(symbol); ok {
		o.logger.Debug("Serving cached quote",
			zap.String("symbol", symbol),
			zap.Time("as_of", cached.UpdatedAt),
		)
		return Quote{
			Symbol:      cached.Symbol,
			DisplayName: cached.DisplayName,
			Price:       cached.Price,
			ChangePct:   cached.ChangePct,
			Degraded:    true,
			Source:      "cache",
		}, nil
	}

	if o.fallback != nil {
		quote, err := o.fallback.Quote(ctx, symbol)
		if err == nil {
			quote.Degraded = true
			return quote, nil
		}
		o.logger.Warn("Fallback provider failed",
			zap.String("symbol", symbol), zap.Error(err))
	}

	return Quote{}, fmt.Errorf("%w: %s", ErrUnavailable, symbol)
}

// Health reports the status of every configured provider.
func (o *Oracle) Health(ctx context.Context) map[string]error {
	status := make(map[string]error, len(o.providers)+1)
	for _, p := range o.providers {
		status[p.Name()] = p.Healthy(ctx)
	}
	if o.fallback != nil {
		status[o.fallback.Name()] = o.fallback.Healthy(ctx)
	}
	return status
}

// refreshCache stores the latest live quote so it can serve as a fallback
// tier later. Cache write failures are logged and otherwise ignored; the
// caller already has its quote.
func (o *Oracle) refreshCache(quote Quote) {
	entry := models.QuoteCache{
		Symbol:      quote.Symbol,
		DisplayName: quote.DisplayName,
		Price:       quote.Price,
		ChangePct:   quote.ChangePct,
		UpdatedAt:   time.Now(),
	}

	err := o.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		o.logger.Warn("Failed to refresh quote cache",
			zap.String("symbol", quote.Symbol), zap.Error(err))
	}
}

func (o *Oracle) cachedQuote(symbol string) (*models.QuoteCache, bool) {
	var cached models.QuoteCache
	err := o.db.First(&cached, "symbol = ?", symbol).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			o.logger.Warn("Failed to read quote cache",
				zap.String("symbol", symbol), zap.Error(err))
		}
		return nil, false
	}
	return &cached, true
}
