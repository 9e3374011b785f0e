package ledger

import (
	"context"
	"testing"
	"time"

	"paper-trading-go/internal/marketdata"
	"paper-trading-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetAccountSnapshot(t *testing.T) {
	_, mockQuoter, engine, accounts := setupTest(t)
	ctx := context.Background()

	reg, err := accounts.Register(ctx, "bob", "")
	assert.NoError(t, err)

	mockQuoter.On("GetQuote", "600036.SH").Return(quoteAt("600036.SH", "10.00"), nil).Once()
	_, err = engine.ExecuteTrade(ctx, reg.AccountID, "600036.SH", models.SideBuy, 100)
	assert.NoError(t, err)

	// Snapshot prices the position at the latest quote, not the fill price.
	mockQuoter.On("GetQuote", "600036.SH").Return(quoteAt("600036.SH", "12.00"), nil)

	snapshot, err := accounts.GetAccountSnapshot(ctx, reg.AccountID)
	assert.NoError(t, err)
	assert.Equal(t, "bob", snapshot.Username)
	assert.Equal(t, 1, snapshot.PositionCount)
	assert.False(t, snapshot.Degraded)

	assertDecimal(t, "998999.70", snapshot.Balance)
	assertDecimal(t, "1200.00", snapshot.MarketValue)
	assertDecimal(t, "1000199.70", snapshot.TotalAssets)

	pos := snapshot.Positions[0]
	assert.Equal(t, int64(100), pos.Quantity)
	assertDecimal(t, "10.00", pos.AvgCost)
	assertDecimal(t, "12.00", pos.CurrentPrice)
	assertDecimal(t, "200.00", pos.ProfitLoss)
	assertDecimal(t, "20.00", pos.ProfitLossPct)
}

func TestGetAccountSnapshot_Idempotent(t *testing.T) {
	_, mockQuoter, engine, accounts := setupTest(t)
	ctx := context.Background()

	reg, err := accounts.Register(ctx, "carol", "")
	assert.NoError(t, err)

	mockQuoter.On("GetQuote", "000001.SZ").Return(quoteAt("000001.SZ", "11.40"), nil)
	_, err = engine.ExecuteTrade(ctx, reg.AccountID, "000001.SZ", models.SideBuy, 10)
	assert.NoError(t, err)

	first, err := accounts.GetAccountSnapshot(ctx, reg.AccountID)
	assert.NoError(t, err)
	second, err := accounts.GetAccountSnapshot(ctx, reg.AccountID)
	assert.NoError(t, err)

	assert.True(t, first.Balance.Equal(second.Balance))
	assert.True(t, first.TotalAssets.Equal(second.TotalAssets))
	assert.Equal(t, first.Positions, second.Positions)
}

func TestGetAccountSnapshot_NotFound(t *testing.T) {
	_, _, _, accounts := setupTest(t)

	_, err := accounts.GetAccountSnapshot(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAccountSnapshot_StalePriceTolerated(t *testing.T) {
	_, mockQuoter, engine, accounts := setupTest(t)
	ctx := context.Background()

	reg, err := accounts.Register(ctx, "dave", "")
	assert.NoError(t, err)

	mockQuoter.On("GetQuote", "600519.SH").Return(quoteAt("600519.SH", "1680.00"), nil).Once()
	_, err = engine.ExecuteTrade(ctx, reg.AccountID, "600519.SH", models.SideBuy, 2)
	assert.NoError(t, err)

	// Oracle now fails entirely; the snapshot must fall back to the price
	// cached on the position and flag itself degraded.
	mockQuoter.On("GetQuote", "600519.SH").Return(marketdata.Quote{}, marketdata.ErrUnavailable)

	snapshot, err := accounts.GetAccountSnapshot(ctx, reg.AccountID)
	assert.NoError(t, err)
	assert.True(t, snapshot.Degraded)
	assertDecimal(t, "1680.00", snapshot.Positions[0].CurrentPrice)
	assertDecimal(t, "3360.00", snapshot.MarketValue)
}

func TestGetTradeHistory_OrderAndLimit(t *testing.T) {
	db, _, _, accounts := setupTest(t)
	ctx := context.Background()

	reg, err := accounts.Register(ctx, "erin", "")
	assert.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		trade := models.Trade{
			ID:         uuid.NewString(),
			AccountID:  reg.AccountID,
			Symbol:     "000001.SZ",
			Side:       models.SideBuy,
			Quantity:   int64(i + 1),
			Price:      decimal.RequireFromString("11.40"),
			Amount:     decimal.RequireFromString("11.40").Mul(decimal.NewFromInt(int64(i + 1))),
			Commission: decimal.Zero,
			Status:     models.TradeStatusCompleted,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		assert.NoError(t, db.Create(&trade).Error)
	}

	trades, err := accounts.GetTradeHistory(ctx, reg.AccountID, 3)
	assert.NoError(t, err)
	assert.Len(t, trades, 3)

	// Newest first.
	assert.Equal(t, int64(5), trades[0].Quantity)
	assert.Equal(t, int64(4), trades[1].Quantity)
	assert.Equal(t, int64(3), trades[2].Quantity)

	// A non-positive limit falls back to the configured default.
	all, err := accounts.GetTradeHistory(ctx, reg.AccountID, 0)
	assert.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGetTradeHistory_NotFound(t *testing.T) {
	_, _, _, accounts := setupTest(t)

	_, err := accounts.GetTradeHistory(context.Background(), uuid.NewString(), 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
