package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TradeStatusCompleted is the only status this engine produces; pending and
// partial fills are not modeled.
const TradeStatusCompleted = "completed"

// Trade is an immutable record of an executed order. Rows are only ever
// inserted; positions are a rebuildable projection of this log.
type Trade struct {
	ID         string `gorm:"primaryKey"`
	AccountID  string `gorm:"index;not null"`
	Symbol     string `gorm:"not null"`
	SymbolName string
	Side       string          `gorm:"not null"`
	Quantity   int64           `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	Commission decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	Status     string          `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"index"`
}
