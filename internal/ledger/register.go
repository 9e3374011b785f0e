package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paper-trading-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registration is the result of creating a user with its trading account.
type Registration struct {
	UserID         string          `json:"user_id"`
	AccountID      string          `json:"account_id"`
	Username       string          `json:"username"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// Register creates a user and its account with the configured initial
// balance in a single transaction; no partial creation survives a failure.
func (s *AccountService) Register(ctx context.Context, username, email string) (*Registration, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidOrder)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now(),
	}
	account := models.Account{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Balance:   s.initialBalance,
		CreatedAt: time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		s.logger.Error("Failed to register user", zap.String("username", username), zap.Error(err))
		return nil, classifyStorageErr(err)
	}

	s.logger.Info("Account created",
		zap.String("user_id", user.ID),
		zap.String("account_id", account.ID),
		zap.String("username", username),
	)

	return &Registration{
		UserID:         user.ID,
		AccountID:      account.ID,
		Username:       username,
		InitialBalance: s.initialBalance,
	}, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
