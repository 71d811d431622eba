package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuchenlin/studyhub-server/internal/api/testutils"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

func TestWalletEarn(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Top up an empty wallet
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/earn",
		models.WalletEarnRequest{Amount: 10, Message: "purchase points pack X10"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.WalletTransactionResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, 10, resp.Points)
	assert.NotNil(t, resp.Transaction)
	assert.Equal(t, "EARN", resp.Transaction.Kind)
	assert.Equal(t, 10, resp.Transaction.Amount)
	assert.Equal(t, "purchase points pack X10", resp.Transaction.Message)

	// Test case 2: Zero amount is rejected before any storage access
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/earn",
		models.WalletEarnRequest{Amount: 0},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	err = json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "INVALID_AMOUNT", errResp.Code)

	// Test case 3: Negative amount
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/earn",
		models.WalletEarnRequest{Amount: -5},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Rejected calls must not have left any trace
	summary := getWalletSummary(t, testCtx)
	assert.Equal(t, 10, summary.Points)
	assert.Len(t, summary.EarnRecords, 1)
	assert.Len(t, summary.UseRecords, 0)
}

func TestWalletSpend(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	testCtx.FundUser(t, testCtx.TestUserID, 10)

	// Test case 1: Spending more than the balance fails and changes nothing
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/use",
		models.WalletUseRequest{Amount: 15, Message: "buy note"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "INSUFFICIENT_POINTS", errResp.Code)

	summary := getWalletSummary(t, testCtx)
	assert.Equal(t, 10, summary.Points)
	assert.Len(t, summary.UseRecords, 0, "failed spend must not append a record")

	// Test case 2: Spending the exact balance drains it to zero
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/use",
		models.WalletUseRequest{Amount: 10, Message: "buy note"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.WalletTransactionResponse
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, 0, resp.Points)
	assert.Equal(t, "SPEND", resp.Transaction.Kind)

	// Test case 3: The wallet never goes negative, even from zero
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/wallet/use",
		models.WalletUseRequest{Amount: 1},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	summary = getWalletSummary(t, testCtx)
	assert.Equal(t, 0, summary.Points)
	assert.Len(t, summary.EarnRecords, 1)
	assert.Len(t, summary.UseRecords, 1)
}

func TestWalletSummary(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Build up a history: +20, -5, +3, -8
	steps := []struct {
		path   string
		amount int
	}{
		{"/api/wallet/earn", 20},
		{"/api/wallet/use", 5},
		{"/api/wallet/earn", 3},
		{"/api/wallet/use", 8},
	}

	for _, step := range steps {
		w := testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			step.path,
			models.WalletEarnRequest{Amount: step.amount, Message: "history step"},
			testutils.AuthHeaders(testCtx.TestUserJWT),
		)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	summary := getWalletSummary(t, testCtx)

	// Balance equals earned minus spent
	assert.Equal(t, 10, summary.Points)
	assert.Len(t, summary.EarnRecords, 2)
	assert.Len(t, summary.UseRecords, 2)

	// Most recent first within each list
	assert.Equal(t, 3, summary.EarnRecords[0].Amount)
	assert.Equal(t, 20, summary.EarnRecords[1].Amount)
	assert.Equal(t, 8, summary.UseRecords[0].Amount)
	assert.Equal(t, 5, summary.UseRecords[1].Amount)
}

func getWalletSummary(t *testing.T, testCtx *testutils.TestContext) models.WalletSummaryResponse {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/wallet/summary",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var summary models.WalletSummaryResponse
	err := json.Unmarshal(w.Body.Bytes(), &summary)
	assert.NoError(t, err)
	return summary
}
