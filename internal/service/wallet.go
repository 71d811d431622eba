package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yuchenlin/studyhub-server/internal/ledger"
	"github.com/yuchenlin/studyhub-server/internal/models"
	"go.uber.org/zap"
)

// EarnPoints tops up the user's wallet. Note this operation carries no
// idempotency key: a retry after an ambiguous timeout can double-credit.
// That matches the upstream contract; callers own the retry decision.
func (s *DefaultService) EarnPoints(
	ctx context.Context,
	userID int64,
	req models.WalletEarnRequest,
) (*models.WalletTransactionResponse, error) {
	if req.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	balance, record, err := s.repo.CreditPoints(ctx, userID, req.Amount, req.Message)
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, userID)

	s.logger.Info("points earned",
		zap.Int64("userId", userID),
		zap.Int("amount", req.Amount),
		zap.Int("balance", balance),
	)

	return &models.WalletTransactionResponse{
		Status:      "success",
		Points:      balance,
		Transaction: transactionViewPtr(record),
	}, nil
}

func (s *DefaultService) SpendPoints(
	ctx context.Context,
	userID int64,
	req models.WalletUseRequest,
) (*models.WalletTransactionResponse, error) {
	if req.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	balance, record, err := s.repo.DebitPoints(ctx, userID, req.Amount, req.Message)
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, userID)

	s.logger.Info("points spent",
		zap.Int64("userId", userID),
		zap.Int("amount", req.Amount),
		zap.Int("balance", balance),
	)

	return &models.WalletTransactionResponse{
		Status:      "success",
		Points:      balance,
		Transaction: transactionViewPtr(record),
	}, nil
}

func (s *DefaultService) GetWalletSummary(ctx context.Context, userID int64) (*models.WalletSummaryResponse, error) {
	balance, err := s.balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.TransactionHistory(ctx, userID, "", 0)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction history: %w", err)
	}

	earn := []models.TransactionView{}
	use := []models.TransactionView{}
	for i := range records {
		view := transactionView(&records[i])
		switch records[i].Kind {
		case ledger.KindEarn:
			earn = append(earn, view)
		case ledger.KindSpend:
			use = append(use, view)
		}
	}

	return &models.WalletSummaryResponse{
		Status:      "success",
		Points:      balance,
		EarnRecords: earn,
		UseRecords:  use,
	}, nil
}

// balance reads through the cache when one is configured.
func (s *DefaultService) balance(ctx context.Context, userID int64) (int, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetBalance(ctx, userID)
		if err != nil {
			s.logger.Warn("balance cache read failed",
				zap.Int64("userId", userID),
				zap.Error(err),
			)
		} else if ok {
			return cached, nil
		}
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, userID, balance); err != nil {
			s.logger.Warn("balance cache write failed",
				zap.Int64("userId", userID),
				zap.Error(err),
			)
		}
	}

	return balance, nil
}

func transactionView(record *models.PointTransaction) models.TransactionView {
	return models.TransactionView{
		ID:      record.ID,
		Kind:    string(record.Kind),
		Amount:  record.Amount,
		Message: record.Reason,
		DateISO: record.CreatedAt.Format(time.RFC3339),
	}
}

func transactionViewPtr(record *models.PointTransaction) *models.TransactionView {
	view := transactionView(record)
	return &view
}
