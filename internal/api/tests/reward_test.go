package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuchenlin/studyhub-server/internal/api/testutils"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

// rewardFixture is a topic by the default test user with one reply by a
// second user.
type rewardFixture struct {
	topicID    int64
	messageID  int64
	replierID  int64
	replierJWT string
}

func setupRewardFixture(t *testing.T, testCtx *testutils.TestContext) rewardFixture {
	t.Helper()
	ctx := context.Background()

	replierID, replierJWT := testCtx.CreateUser(t, "replier@example.com", "s1000002", "Reply Author")

	course := models.Course{Name: "Distributed Systems", Teacher: "Prof. Liu", Weekday: "Wed", TimeSlot: "3-4"}
	assert.NoError(t, testCtx.Repository.FindOrCreateCourse(ctx, &course))

	topic := models.ChatTopic{
		CourseID: course.ID,
		AuthorID: testCtx.TestUserID,
		Title:    "How does the midterm work?",
		Content:  "Anyone know the format?",
	}
	assert.NoError(t, testCtx.Repository.CreateTopic(ctx, &topic))

	message := models.ChatMessage{
		TopicID:  topic.ID,
		AuthorID: replierID,
		Text:     "Two parts, open book.",
	}
	assert.NoError(t, testCtx.Repository.CreateMessage(ctx, &message))

	return rewardFixture{
		topicID:    topic.ID,
		messageID:  message.ID,
		replierID:  replierID,
		replierJWT: replierJWT,
	}
}

func rewardPath(messageID int64) string {
	return fmt.Sprintf("/api/chat/messages/%d/reward", messageID)
}

func TestRewardMessage(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	fx := setupRewardFixture(t, testCtx)

	// Test case 1: Topic author rewards the reply
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		rewardPath(fx.messageID),
		models.RewardMessageRequest{TopicID: fx.topicID},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RewardResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.True(t, resp.Rewarded)
	assert.Equal(t, 5, resp.NewAuthorPoints, "the reply author earns exactly 5 points")
	assert.Equal(t, "EARN", resp.Transaction.Kind)
	assert.Equal(t, 5, resp.Transaction.Amount)

	// The message reads back as rewarded
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/chat/messages?topicId=%d", fx.topicID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var topicResp models.TopicMessagesResponse
	err = json.Unmarshal(w.Body.Bytes(), &topicResp)
	assert.NoError(t, err)
	assert.Len(t, topicResp.Messages, 1)
	assert.True(t, topicResp.Messages[0].RewardedByAuthor)

	// Test case 2: Rewarding the same message again is a distinct
	// failure, not a silent success
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		rewardPath(fx.messageID),
		models.RewardMessageRequest{TopicID: fx.topicID},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	err = json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "ALREADY_REWARDED", errResp.Code)

	// The reply author's balance and log hold exactly one reward
	balance, err := testCtx.Repository.GetBalance(context.Background(), fx.replierID)
	assert.NoError(t, err)
	assert.Equal(t, 5, balance)

	records, err := testCtx.Repository.TransactionHistory(context.Background(), fx.replierID, "", 0)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRewardAuthorization(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	fx := setupRewardFixture(t, testCtx)

	// Test case 1: A user who is not the topic author cannot reward
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		rewardPath(fx.messageID),
		models.RewardMessageRequest{TopicID: fx.topicID},
		testutils.AuthHeaders(fx.replierJWT),
	)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", errResp.Code)

	// No state change: flag unset, no points, no log entry
	balance, err := testCtx.Repository.GetBalance(context.Background(), fx.replierID)
	assert.NoError(t, err)
	assert.Equal(t, 0, balance)

	info, err := testCtx.Repository.GetMessageRewardInfo(context.Background(), fx.messageID)
	assert.NoError(t, err)
	assert.NotNil(t, info)
	assert.False(t, info.Rewarded)

	// Test case 2: Topic mismatch reads as message not found
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		rewardPath(fx.messageID),
		models.RewardMessageRequest{TopicID: fx.topicID + 999},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 3: Unknown message
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		rewardPath(fx.messageID+999),
		models.RewardMessageRequest{TopicID: fx.topicID},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConcurrentRewards(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	fx := setupRewardFixture(t, testCtx)

	const numGoroutines = 8
	var wg sync.WaitGroup
	codes := make(chan int, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodPost,
				rewardPath(fx.messageID),
				models.RewardMessageRequest{TopicID: fx.topicID},
				testutils.AuthHeaders(testCtx.TestUserJWT),
			)
			codes <- w.Code
		}()
	}

	wg.Wait()
	close(codes)

	successes, conflicts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			successes++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("unexpected status code %d", code)
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent reward may win")
	assert.Equal(t, numGoroutines-1, conflicts, "losers must observe ALREADY_REWARDED")

	// Exactly one payment of 5, not 5 per attempt
	balance, err := testCtx.Repository.GetBalance(context.Background(), fx.replierID)
	assert.NoError(t, err)
	assert.Equal(t, 5, balance)

	records, err := testCtx.Repository.TransactionHistory(context.Background(), fx.replierID, "", 0)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
