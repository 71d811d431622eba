package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuchenlin/studyhub-server/internal/models"
)

func (s *DefaultService) AddMemo(
	ctx context.Context,
	userID int64,
	req models.AddMemoRequest,
) (*models.MemoResponse, error) {
	dueDate, err := time.Parse(time.RFC3339, req.DateISO)
	if err != nil {
		// Also accept a plain calendar date.
		dueDate, err = time.Parse("2006-01-02", req.DateISO)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}

	memo := &models.Memo{
		UserID:  userID,
		Title:   strings.TrimSpace(req.Title),
		DueDate: dueDate.UTC(),
	}

	if err := s.repo.CreateMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("error creating memo: %w", err)
	}

	return &models.MemoResponse{
		Status: "success",
		Memo:   *memo,
	}, nil
}

func (s *DefaultService) GetMyMemos(ctx context.Context, userID int64) (*models.MemoListResponse, error) {
	memos, err := s.repo.GetUserMemos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting memos: %w", err)
	}

	return &models.MemoListResponse{
		Status: "success",
		Memos:  memos,
	}, nil
}

func (s *DefaultService) DeleteMemo(ctx context.Context, userID, memoID int64) error {
	deleted, err := s.repo.DeleteMemo(ctx, userID, memoID)
	if err != nil {
		return fmt.Errorf("error deleting memo: %w", err)
	}
	if !deleted {
		return ErrMemoNotFound
	}

	return nil
}
