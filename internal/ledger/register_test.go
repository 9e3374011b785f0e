package ledger

import (
	"context"
	"testing"

	"paper-trading-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	db, _, _, accounts := setupTest(t)

	reg, err := accounts.Register(context.Background(), "frank", "frank@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, reg.UserID)
	assert.NotEmpty(t, reg.AccountID)
	assert.Equal(t, "frank", reg.Username)
	assertDecimal(t, "1000000.00", reg.InitialBalance)

	var account models.Account
	assert.NoError(t, db.First(&account, "id = ?", reg.AccountID).Error)
	assertDecimal(t, "1000000.00", account.Balance)
	assert.Equal(t, reg.UserID, account.UserID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db, _, _, accounts := setupTest(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, "grace", "")
	assert.NoError(t, err)

	_, err = accounts.Register(ctx, "grace", "other@example.com")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, KindDuplicateUsername, KindOf(err))

	// The failed registration must not leave a second user or a stray account.
	var userCount, accountCount int64
	assert.NoError(t, db.Model(&models.User{}).Where("username = ?", "grace").Count(&userCount).Error)
	assert.NoError(t, db.Model(&models.Account{}).Count(&accountCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), accountCount)
}

func TestRegister_EmptyUsername(t *testing.T) {
	_, _, _, accounts := setupTest(t)

	_, err := accounts.Register(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
