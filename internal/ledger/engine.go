package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/marketdata"
	"paper-trading-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Quoter provides fill prices for the trade engine.
type Quoter interface {
	GetQuote(ctx context.Context, symbol string) (marketdata.Quote, error)
}

// Engine validates and atomically applies buy/sell orders against the
// ledger. All mutations of one order (balance, position, trade record)
// commit or fail together.
type Engine struct {
	logger          *zap.Logger
	db              *gorm.DB
	quotes          Quoter
	commissionRate  decimal.Decimal
	conflictRetries int
	locks           *accountLocks
}

// NewEngine creates a new trade engine.
func NewEngine(logger *zap.Logger, cfg *config.Trading, db *gorm.DB, quotes Quoter) *Engine {
	retries := cfg.ConflictRetries
	if retries <= 0 {
		retries = 3
	}

	return &Engine{
		logger:          logger,
		db:              db,
		quotes:          quotes,
		commissionRate:  decimal.NewFromFloat(cfg.CommissionRate),
		conflictRetries: retries,
		locks:           newAccountLocks(),
	}
}

// TradeResult describes an executed order.
type TradeResult struct {
	TradeID    string          `json:"trade_id"`
	AccountID  string          `json:"account_id"`
	Symbol     string          `json:"symbol"`
	SymbolName string          `json:"symbol_name"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	// Total is the cash delta applied to the account: amount plus commission
	// for a buy, amount minus commission for a sell.
	Total    decimal.Decimal `json:"total"`
	Balance  decimal.Decimal `json:"balance"`
	Degraded bool            `json:"degraded"`
}

// ExecuteTrade executes a buy or sell order for an account.
//
// The fill price is fetched before the account lock is acquired, so a slow
// market-data call never serializes trades on other accounts. Once the
// mutation starts it runs to completion or rolls back fully; it is never
// cancelled midway.
func (e *Engine) ExecuteTrade(ctx context.Context, accountID, symbol, side string, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, quantity)
	}
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("%w: side must be %q or %q, got %q", ErrInvalidOrder, models.SideBuy, models.SideSell, side)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidOrder)
	}

	quote, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	qty := decimal.NewFromInt(quantity)
	amount := quote.Price.Mul(qty)
	commission := amount.Mul(e.commissionRate).Round(4)

	var total decimal.Decimal
	if side == models.SideBuy {
		total = amount.Add(commission)
	} else {
		total = amount.Sub(commission)
	}

	// Last cancellation point; the atomic unit starts after the lock.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := e.locks.get(accountID)
	lock.Lock()
	defer lock.Unlock()

	var result *TradeResult
	for attempt := 0; ; attempt++ {
		result, err = e.applyTrade(accountID, quote, side, quantity, amount, commission, total)
		if err == nil || !errors.Is(err, ErrStorageConflict) || attempt >= e.conflictRetries {
			break
		}
		e.logger.Warn("Storage conflict applying trade, retrying",
			zap.String("account_id", accountID),
			zap.Int("attempt", attempt+1),
		)
	}

	if err != nil {
		if Expected(err) {
			e.logger.Debug("Order rejected",
				zap.String("account_id", accountID),
				zap.String("symbol", symbol),
				zap.String("side", side),
				zap.Int64("quantity", quantity),
				zap.String("kind", string(KindOf(err))),
			)
		} else {
			e.logger.Error("Failed to apply trade",
				zap.String("account_id", accountID),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
		return nil, err
	}

	e.logger.Info("Trade executed",
		zap.String("trade_id", result.TradeID),
		zap.String("account_id", accountID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Int64("quantity", quantity),
		zap.String("price", result.Price.String()),
		zap.Bool("degraded", result.Degraded),
	)

	return result, nil
}

// applyTrade runs the atomic unit: balance mutation, position upsert/delete
// and trade insert in one transaction.
func (e *Engine) applyTrade(accountID string, quote marketdata.Quote, side string, quantity int64, amount, commission, total decimal.Decimal) (*TradeResult, error) {
	var result TradeResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
			}
			return classifyStorageErr(err)
		}

		var newBalance decimal.Decimal
		if side == models.SideBuy {
			if account.Balance.LessThan(total) {
				return fmt.Errorf("%w: balance %s, need %s", ErrInsufficientFunds, account.Balance, total)
			}
			newBalance = account.Balance.Sub(total)
			if err := e.applyBuy(tx, accountID, quote, quantity); err != nil {
				return err
			}
		} else {
			if err := e.applySell(tx, accountID, quote, quantity); err != nil {
				return err
			}
			newBalance = account.Balance.Add(total)
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("balance", newBalance).Error; err != nil {
			return classifyStorageErr(err)
		}

		trade := models.Trade{
			ID:         uuid.NewString(),
			AccountID:  accountID,
			Symbol:     quote.Symbol,
			SymbolName: quote.DisplayName,
			Side:       side,
			Quantity:   quantity,
			Price:      quote.Price,
			Amount:     amount,
			Commission: commission,
			Status:     models.TradeStatusCompleted,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&trade).Error; err != nil {
			return classifyStorageErr(err)
		}

		result = TradeResult{
			TradeID:    trade.ID,
			AccountID:  accountID,
			Symbol:     quote.Symbol,
			SymbolName: quote.DisplayName,
			Side:       side,
			Quantity:   quantity,
			Price:      quote.Price,
			Amount:     amount,
			Commission: commission,
			Total:      total,
			Balance:    newBalance,
			Degraded:   quote.Degraded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// applyBuy upserts the position with a quantity-weighted average cost.
func (e *Engine) applyBuy(tx *gorm.DB, accountID string, quote marketdata.Quote, quantity int64) error {
	var pos models.Position
	err := tx.First(&pos, "account_id = ? AND symbol = ?", accountID, quote.Symbol).Error

	switch {
	case err == nil:
		oldQty := decimal.NewFromInt(pos.Quantity)
		newQty := pos.Quantity + quantity
		addQty := decimal.NewFromInt(quantity)

		pos.AvgCost = pos.AvgCost.Mul(oldQty).
			Add(quote.Price.Mul(addQty)).
			Div(decimal.NewFromInt(newQty)).
			Round(4)
		pos.Quantity = newQty
		refreshDisplay(&pos, quote.Price)

		if err := tx.Save(&pos).Error; err != nil {
			return classifyStorageErr(err)
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		pos = models.Position{
			ID:         uuid.NewString(),
			AccountID:  accountID,
			Symbol:     quote.Symbol,
			SymbolName: quote.DisplayName,
			Quantity:   quantity,
			AvgCost:    quote.Price,
		}
		refreshDisplay(&pos, quote.Price)

		if err := tx.Create(&pos).Error; err != nil {
			return classifyStorageErr(err)
		}

	default:
		return classifyStorageErr(err)
	}

	return nil
}

// applySell decrements the position; average cost is unchanged by a sell.
// A position whose quantity reaches zero is deleted, never kept at zero.
func (e *Engine) applySell(tx *gorm.DB, accountID string, quote marketdata.Quote, quantity int64) error {
	var pos models.Position
	err := tx.First(&pos, "account_id = ? AND symbol = ?", accountID, quote.Symbol).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no position in %s", ErrInsufficientPosition, quote.Symbol)
		}
		return classifyStorageErr(err)
	}

	if pos.Quantity < quantity {
		return fmt.Errorf("%w: holding %d, selling %d", ErrInsufficientPosition, pos.Quantity, quantity)
	}

	newQty := pos.Quantity - quantity
	if newQty == 0 {
		if err := tx.Delete(&pos).Error; err != nil {
			return classifyStorageErr(err)
		}
		return nil
	}

	pos.Quantity = newQty
	refreshDisplay(&pos, quote.Price)
	if err := tx.Save(&pos).Error; err != nil {
		return classifyStorageErr(err)
	}

	return nil
}

// refreshDisplay recomputes the display caches of a position at a price.
// These fields never feed balance calculations.
func refreshDisplay(pos *models.Position, price decimal.Decimal) {
	qty := decimal.NewFromInt(pos.Quantity)
	pos.CurrentPrice = price
	pos.MarketValue = price.Mul(qty)
	pos.ProfitLoss = price.Sub(pos.AvgCost).Mul(qty)
	if pos.AvgCost.Sign() > 0 {
		pos.ProfitLossPct = price.Sub(pos.AvgCost).
			Div(pos.AvgCost).
			Mul(decimal.NewFromInt(100)).
			Round(4)
	} else {
		pos.ProfitLossPct = decimal.Zero
	}
}

// classifyStorageErr separates transient sqlite lock contention, which the
// engine retries, from fatal storage failures, which it does not.
func classifyStorageErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ErrStorageConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
