package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteCache stores the last quote seen for a symbol. It is the fallback
// tier when no live provider can be reached.
type QuoteCache struct {
	Symbol      string `gorm:"primaryKey"`
	DisplayName string
	Price       decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	ChangePct   decimal.Decimal `gorm:"type:decimal(8,4)"`
	UpdatedAt   time.Time
}
