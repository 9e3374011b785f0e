package ledger

import (
	"context"
	"errors"
	"fmt"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService is the read side of the ledger: snapshots and trade
// history. It never mutates ledger state. It also owns registration.
type AccountService struct {
	logger         *zap.Logger
	db             *gorm.DB
	quotes         Quoter
	initialBalance decimal.Decimal
	historyLimit   int
}

// NewAccountService creates a new account service.
func NewAccountService(logger *zap.Logger, cfg *config.Trading, db *gorm.DB, quotes Quoter) *AccountService {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 50
	}

	return &AccountService{
		logger:         logger,
		db:             db,
		quotes:         quotes,
		initialBalance: decimal.NewFromFloat(cfg.InitialBalance),
		historyLimit:   limit,
	}
}

// PositionView is a position with market value and unrealized P&L computed
// at the latest known price.
type PositionView struct {
	Symbol        string          `json:"symbol"`
	SymbolName    string          `json:"symbol_name"`
	Quantity      int64           `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct"`
}

// AccountSnapshot aggregates balance and positions into total assets.
type AccountSnapshot struct {
	AccountID     string          `json:"account_id"`
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"balance"`
	MarketValue   decimal.Decimal `json:"market_value"`
	TotalAssets   decimal.Decimal `json:"total_assets"`
	Positions     []PositionView  `json:"positions"`
	PositionCount int             `json:"position_count"`
	// Degraded is set when any position was priced from stale or synthetic
	// data instead of a live quote.
	Degraded bool `json:"degraded"`
}

// GetAccountSnapshot returns balance, positions and derived total assets
// for an account. Market values are recomputed from the freshest price the
// oracle can produce; price staleness is tolerated, not fatal.
func (s *AccountService) GetAccountSnapshot(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return nil, classifyStorageErr(err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", account.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, classifyStorageErr(err)
	}

	var positions []models.Position
	if err := s.db.Where("account_id = ?", accountID).Order("symbol").Find(&positions).Error; err != nil {
		return nil, classifyStorageErr(err)
	}

	snapshot := &AccountSnapshot{
		AccountID:     accountID,
		Username:      user.Username,
		Balance:       account.Balance,
		MarketValue:   decimal.Zero,
		Positions:     make([]PositionView, 0, len(positions)),
		PositionCount: len(positions),
	}

	for _, pos := range positions {
		price := pos.CurrentPrice
		degraded := true

		quote, err := s.quotes.GetQuote(ctx, pos.Symbol)
		if err == nil {
			price = quote.Price
			degraded = quote.Degraded
		} else {
			s.logger.Debug("Using last cached position price",
				zap.String("symbol", pos.Symbol), zap.Error(err))
		}

		view := positionView(pos, price)
		snapshot.Positions = append(snapshot.Positions, view)
		snapshot.MarketValue = snapshot.MarketValue.Add(view.MarketValue)
		if degraded {
			snapshot.Degraded = true
		}
	}

	snapshot.TotalAssets = snapshot.Balance.Add(snapshot.MarketValue)
	return snapshot, nil
}

// GetTradeHistory returns the most recent trades for an account, newest
// first. The limit is clamped to the configured maximum.
func (s *AccountService) GetTradeHistory(ctx context.Context, accountID string, limit int) ([]models.Trade, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return nil, classifyStorageErr(err)
	}

	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, classifyStorageErr(err)
	}

	return trades, nil
}

func positionView(pos models.Position, price decimal.Decimal) PositionView {
	qty := decimal.NewFromInt(pos.Quantity)

	view := PositionView{
		Symbol:       pos.Symbol,
		SymbolName:   pos.SymbolName,
		Quantity:     pos.Quantity,
		AvgCost:      pos.AvgCost,
		CurrentPrice: price,
		MarketValue:  price.Mul(qty),
		ProfitLoss:   price.Sub(pos.AvgCost).Mul(qty),
	}
	if pos.AvgCost.Sign() > 0 {
		view.ProfitLossPct = price.Sub(pos.AvgCost).
			Div(pos.AvgCost).
			Mul(decimal.NewFromInt(100)).
			Round(4)
	}

	return view
}
