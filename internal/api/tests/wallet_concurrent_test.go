package api_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuchenlin/studyhub-server/internal/api/testutils"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

func TestConcurrentWalletOperations(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Concurrent top-ups must all land: final balance is the exact sum
	// and the log holds one record per call.
	t.Run("TestConcurrentEarns", func(t *testing.T) {
		const numGoroutines = 10
		const amount = 7

		var wg sync.WaitGroup
		codes := make(chan int, numGoroutines)

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				w := testutils.PerformRequest(
					testCtx.Router,
					http.MethodPost,
					"/api/wallet/earn",
					models.WalletEarnRequest{Amount: amount, Message: "concurrent top-up"},
					testutils.AuthHeaders(testCtx.TestUserJWT),
				)
				codes <- w.Code
			}()
		}

		wg.Wait()
		close(codes)

		for code := range codes {
			assert.Equal(t, http.StatusOK, code)
		}

		summary := getWalletSummary(t, testCtx)
		assert.Equal(t, numGoroutines*amount, summary.Points)
		assert.Len(t, summary.EarnRecords, numGoroutines)
	})

	// Two spends racing for a balance only sufficient for one must
	// resolve to exactly one success; the balance never goes negative.
	t.Run("TestConcurrentSpendsSingleWinner", func(t *testing.T) {
		before := getWalletSummary(t, testCtx)

		// Drain down to exactly 10 points
		if before.Points > 10 {
			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodPost,
				"/api/wallet/use",
				models.WalletUseRequest{Amount: before.Points - 10, Message: "drain"},
				testutils.AuthHeaders(testCtx.TestUserJWT),
			)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		const numGoroutines = 5
		var wg sync.WaitGroup
		codes := make(chan int, numGoroutines)

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				w := testutils.PerformRequest(
					testCtx.Router,
					http.MethodPost,
					"/api/wallet/use",
					models.WalletUseRequest{Amount: 10, Message: "racing spend"},
					testutils.AuthHeaders(testCtx.TestUserJWT),
				)
				codes <- w.Code
			}()
		}

		wg.Wait()
		close(codes)

		successes, failures := 0, 0
		for code := range codes {
			switch code {
			case http.StatusOK:
				successes++
			case http.StatusBadRequest:
				failures++
			default:
				t.Errorf("unexpected status code %d", code)
			}
		}

		assert.Equal(t, 1, successes, "exactly one racing spend may win")
		assert.Equal(t, numGoroutines-1, failures)

		summary := getWalletSummary(t, testCtx)
		assert.Equal(t, 0, summary.Points)
	})

	// Under a mixed interleaving the balance must always equal the sum
	// of EARN amounts minus the sum of SPEND amounts in the log.
	t.Run("TestBalanceMatchesLog", func(t *testing.T) {
		const numGoroutines = 8
		var wg sync.WaitGroup

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				path := "/api/wallet/earn"
				amount := 4
				if i%2 == 1 {
					path = "/api/wallet/use"
					amount = 3
				}

				testutils.PerformRequest(
					testCtx.Router,
					http.MethodPost,
					path,
					models.WalletEarnRequest{Amount: amount, Message: "interleaved"},
					testutils.AuthHeaders(testCtx.TestUserJWT),
				)
			}(i)
		}

		wg.Wait()

		summary := getWalletSummary(t, testCtx)

		earned, spent := 0, 0
		for _, r := range summary.EarnRecords {
			earned += r.Amount
		}
		for _, r := range summary.UseRecords {
			spent += r.Amount
		}

		assert.Equal(t, earned-spent, summary.Points,
			"balance must equal the sum of the transaction log")
		assert.GreaterOrEqual(t, summary.Points, 0)
	})
}
