package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuchenlin/studyhub-server/internal/api/testutils"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

func TestSelectCourses(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Select two courses
	selectReq := models.SelectCoursesRequest{
		Courses: []models.IncomingCourse{
			{Name: "Algorithms", Teacher: "Prof. Wang", Weekday: "Tue", TimeSlot: "5-6"},
			{Name: "Networks", Teacher: "Prof. Zhao", Weekday: "Thu", TimeSlot: "7-8"},
		},
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/courses/select",
		selectReq,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var selectResp models.CourseListResponse
	err := json.Unmarshal(w.Body.Bytes(), &selectResp)
	assert.NoError(t, err)
	assert.Len(t, selectResp.Courses, 2)

	// Test case 2: Re-selecting the same course does not duplicate the
	// enrollment or the course row
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/courses/select",
		selectReq,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/courses/my",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var myResp models.CourseListResponse
	err = json.Unmarshal(w.Body.Bytes(), &myResp)
	assert.NoError(t, err)
	assert.Len(t, myResp.Courses, 2)

	// Test case 3: Empty course list is rejected
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/courses/select",
		models.SelectCoursesRequest{Courses: []models.IncomingCourse{}},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Drop a course
	courseID := myResp.Courses[0].ID

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/enrollments/%d", courseID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	// Dropping it again is not found
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/enrollments/%d", courseID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatTopicsAndMessages(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	course := createTestCourse(t, testCtx, "Compilers")

	// Test case 1: Create a topic
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/chat/topics",
		models.CreateTopicRequest{CourseID: course.ID, Title: "Parser questions", Content: "LL or LR?"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	// Test case 2: Topic under an unknown course
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/chat/topics",
		models.CreateTopicRequest{CourseID: course.ID + 999, Title: "Lost"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 3: List topics with the latest reply as preview
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/chat/topics?courseId=%d", course.ID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var topicsResp models.TopicListResponse
	err := json.Unmarshal(w.Body.Bytes(), &topicsResp)
	assert.NoError(t, err)
	assert.Len(t, topicsResp.Topics, 1)
	assert.Nil(t, topicsResp.Topics[0].LastMessage)
	topicID := topicsResp.Topics[0].ID

	// Test case 4: Post a reply and see it in the preview
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/chat/messages",
		models.PostMessageRequest{TopicID: topicID, Text: "LR, see week 6"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/chat/topics?courseId=%d", course.ID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)
	err = json.Unmarshal(w.Body.Bytes(), &topicsResp)
	assert.NoError(t, err)
	assert.NotNil(t, topicsResp.Topics[0].LastMessage)
	assert.Equal(t, "LR, see week 6", *topicsResp.Topics[0].LastMessage)

	// Test case 5: Message under an unknown topic
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/chat/messages",
		models.PostMessageRequest{TopicID: topicID + 999, Text: "void"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMemos(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Add a memo with a plain date
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/memos",
		models.AddMemoRequest{Title: "Hand in lab 3", DateISO: "2025-10-01"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	var memoResp models.MemoResponse
	err := json.Unmarshal(w.Body.Bytes(), &memoResp)
	assert.NoError(t, err)
	assert.NotZero(t, memoResp.Memo.ID)

	// Test case 2: Invalid date
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/memos",
		models.AddMemoRequest{Title: "Broken", DateISO: "next tuesday"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 3: List own memos
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/memos/my",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var listResp models.MemoListResponse
	err = json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.NoError(t, err)
	assert.Len(t, listResp.Memos, 1)

	// Test case 4: Delete, then delete again
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/memos/%d", memoResp.Memo.ID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/memos/%d", memoResp.Memo.ID),
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
