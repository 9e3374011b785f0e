package marketdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// basePrices are deterministic reference prices used when no live or cached
// quote exists. Fallback fills must be reproducible, so there is no
// randomness here.
var basePrices = map[string]string{
	"000001.SZ": "11.40",   // Ping An Bank
	"000002.SZ": "18.20",   // Vanke
	"600036.SH": "35.80",   // China Merchants Bank
	"600519.SH": "1680.00", // Kweichow Moutai
	"000858.SZ": "128.50",  // Wuliangye
	"002415.SZ": "32.15",   // Hikvision
}

var defaultBasePrice = decimal.RequireFromString("10.00")

var displayNames = map[string]string{
	"000001.SZ": "Ping An Bank",
	"000002.SZ": "Vanke A",
	"600036.SH": "China Merchants Bank",
	"600519.SH": "Kweichow Moutai",
	"000858.SZ": "Wuliangye",
	"002415.SZ": "Hikvision",
}

// SyntheticProvider serves deterministic reference prices. It never fails,
// which makes it the terminal tier of the oracle's provider chain.
type SyntheticProvider struct{}

var _ Provider = (*SyntheticProvider)(nil)

// NewSyntheticProvider creates a new synthetic price provider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

// Name returns the unique name of the provider.
func (p *SyntheticProvider) Name() string { return "synthetic" }

// Quote returns the base reference price for a symbol.
func (p *SyntheticProvider) Quote(_ context.Context, symbol string) (Quote, error) {
	price := defaultBasePrice
	if s, ok := basePrices[symbol]; ok {
		price = decimal.RequireFromString(s)
	}

	name := displayNames[symbol]
	if name == "" {
		name = symbol
	}

	return Quote{
		Symbol:      symbol,
		DisplayName: name,
		Price:       price,
		ChangePct:   decimal.Zero,
		Source:      p.Name(),
	}, nil
}

// Healthy always succeeds; synthetic prices need no connectivity.
func (p *SyntheticProvider) Healthy(context.Context) error { return nil }
