package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuchenlin/studyhub-server/internal/ledger"
	"github.com/yuchenlin/studyhub-server/internal/models"
	"go.uber.org/zap"
)

const rewardReason = "reply rewarded by topic author"

func (s *DefaultService) GetTopics(ctx context.Context, courseID int64) (*models.TopicListResponse, error) {
	topics, err := s.repo.GetTopicsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting topics: %w", err)
	}

	summaries := make([]models.TopicSummary, 0, len(topics))
	for _, t := range topics {
		summary := models.TopicSummary{
			ID:         t.ID,
			Title:      t.Title,
			Content:    t.Content,
			AuthorName: t.AuthorName,
			CreatedAt:  t.CreatedAt.Format(time.RFC3339),
		}
		if t.LastMessage.Valid {
			text := t.LastMessage.String
			summary.LastMessage = &text
		}
		summaries = append(summaries, summary)
	}

	return &models.TopicListResponse{
		Status: "success",
		Topics: summaries,
	}, nil
}

func (s *DefaultService) CreateTopic(
	ctx context.Context,
	userID int64,
	req models.CreateTopicRequest,
) (*models.ChatTopic, error) {
	course, err := s.repo.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	topic := &models.ChatTopic{
		CourseID: req.CourseID,
		AuthorID: userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
	}

	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, fmt.Errorf("error creating topic: %w", err)
	}

	return topic, nil
}

func (s *DefaultService) GetTopicMessages(ctx context.Context, topicID int64) (*models.TopicMessagesResponse, error) {
	topic, err := s.repo.GetTopicWithAuthor(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("error getting topic: %w", err)
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}

	messages, err := s.repo.GetMessagesByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("error getting messages: %w", err)
	}

	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, models.MessageView{
			ID:               m.ID,
			Text:             m.Text,
			AuthorID:         m.AuthorID,
			AuthorName:       m.AuthorName,
			CreatedAt:        m.CreatedAt.Format(time.RFC3339),
			RewardedByAuthor: m.RewardedByAuthor,
		})
	}

	return &models.TopicMessagesResponse{
		Status: "success",
		Topic: models.TopicView{
			ID:         topic.ID,
			Title:      topic.Title,
			Content:    topic.Content,
			AuthorID:   topic.AuthorID,
			AuthorName: topic.AuthorName,
			CreatedAt:  topic.CreatedAt.Format(time.RFC3339),
		},
		Messages: views,
	}, nil
}

func (s *DefaultService) PostMessage(
	ctx context.Context,
	userID int64,
	req models.PostMessageRequest,
) (*models.MessageResponse, error) {
	topic, err := s.repo.GetTopicWithAuthor(ctx, req.TopicID)
	if err != nil {
		return nil, fmt.Errorf("error getting topic: %w", err)
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}

	message := &models.ChatMessage{
		TopicID:  req.TopicID,
		AuthorID: userID,
		Text:     strings.TrimSpace(req.Text),
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	view := models.MessageView{
		ID:               message.ID,
		Text:             message.Text,
		AuthorID:         message.AuthorID,
		CreatedAt:        message.CreatedAt.Format(time.RFC3339),
		RewardedByAuthor: message.RewardedByAuthor,
	}
	if user != nil {
		view.AuthorName = user.Name
	}

	return &models.MessageResponse{
		Status:  "success",
		Message: view,
	}, nil
}

// RewardMessage is the gate in front of the ledger for the one-time
// reply reward. Preconditions are checked in order - message exists and
// belongs to the topic, the actor is the topic's author, the message is
// not yet rewarded - and each failure is a distinct error. The flag
// flip and the credit happen in one repository transaction, so a
// concurrent attempt that loses the race gets ErrAlreadyRewarded from
// the conditional update rather than a duplicate payment.
func (s *DefaultService) RewardMessage(
	ctx context.Context,
	actorID, messageID, topicID int64,
) (*models.RewardResponse, error) {
	info, err := s.repo.GetMessageRewardInfo(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("error getting message: %w", err)
	}
	if info == nil || info.TopicID != topicID {
		return nil, ledger.ErrMessageNotFound
	}

	if info.TopicAuthorID != actorID {
		return nil, ledger.ErrNotAuthorized
	}

	if info.Rewarded {
		return nil, ledger.ErrAlreadyRewarded
	}

	balance, record, err := s.repo.RewardMessage(
		ctx, messageID, info.MessageAuthorID, ledger.RewardAmount, rewardReason)
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, info.MessageAuthorID)

	s.logger.Info("message rewarded",
		zap.Int64("messageId", messageID),
		zap.Int64("topicId", topicID),
		zap.Int64("recipientId", info.MessageAuthorID),
		zap.Int("amount", record.Amount),
	)

	return &models.RewardResponse{
		Status:          "success",
		MessageID:       messageID,
		Rewarded:        true,
		NewAuthorPoints: balance,
		Transaction:     transactionView(record),
	}, nil
}
