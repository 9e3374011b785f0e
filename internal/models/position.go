package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents a current holding of a symbol in an account.
// At most one row exists per (account, symbol); a position whose quantity
// reaches zero is deleted rather than kept as a zero row.
//
// CurrentPrice, MarketValue, ProfitLoss and ProfitLossPct are display caches
// refreshed on each trade. Balance calculations never read them.
type Position struct {
	ID            string `gorm:"primaryKey"`
	AccountID     string `gorm:"uniqueIndex:idx_account_symbol;not null"`
	Symbol        string `gorm:"uniqueIndex:idx_account_symbol;not null"`
	SymbolName    string
	Quantity      int64           `gorm:"not null"`
	AvgCost       decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	CurrentPrice  decimal.Decimal `gorm:"type:decimal(10,4)"`
	MarketValue   decimal.Decimal `gorm:"type:decimal(15,4)"`
	ProfitLoss    decimal.Decimal `gorm:"type:decimal(15,4)"`
	ProfitLossPct decimal.Decimal `gorm:"type:decimal(8,4)"`
	UpdatedAt     time.Time
}
