package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the virtual cash balance for a user.
// Total assets are always derived from balance plus position market values,
// never stored, so the ledger has a single source of truth for cash.
type Account struct {
	ID        string          `gorm:"primaryKey"`
	UserID    string          `gorm:"uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	CreatedAt time.Time
}
