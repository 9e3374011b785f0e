package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when no price could be produced for a symbol
// from any tier, including fallbacks.
var ErrUnavailable = errors.New("quote unavailable")

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ChangePct   decimal.Decimal `json:"change_pct"`
	// Degraded marks a quote built from stale or synthetic data instead of
	// the preferred live source.
	Degraded bool   `json:"degraded"`
	Source   string `json:"source"`
}

// Provider is a single source of market prices. Providers are tried in
// order by the Oracle; the first success wins.
type Provider interface {
	// Name returns the unique name of the provider.
	Name() string

	// Quote fetches the current price and display name for a symbol.
	Quote(ctx context.Context, symbol string) (Quote, error)

	// Healthy reports whether the provider can currently serve quotes.
	Healthy(ctx context.Context) error
}
