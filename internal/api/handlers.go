package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuchenlin/studyhub-server/internal/ledger"
	"github.com/yuchenlin/studyhub-server/internal/models"
	"github.com/yuchenlin/studyhub-server/internal/service"
	"go.uber.org/zap"
)

// Handler wires HTTP routes to the service layer
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// SetupRoutes registers all routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/login", h.Login)

	auth := api.Group("", AuthMiddleware())
	auth.GET("/user/me", h.GetProfile)

	auth.POST("/courses/select", h.SelectCourses)
	auth.GET("/courses/my", h.GetMyCourses)
	auth.DELETE("/enrollments/:courseId", h.DropCourse)

	auth.GET("/chat/topics", h.GetTopics)
	auth.POST("/chat/topics", h.CreateTopic)
	auth.GET("/chat/messages", h.GetTopicMessages)
	auth.POST("/chat/messages", h.PostMessage)
	auth.POST("/chat/messages/:messageId/reward", h.RewardMessage)

	auth.GET("/notes", h.ListNotes)
	auth.POST("/notes", h.AddNote)
	auth.POST("/notes/:noteId/purchase", h.PurchaseNote)

	auth.POST("/wallet/earn", h.EarnPoints)
	auth.POST("/wallet/use", h.SpendPoints)
	auth.GET("/wallet/summary", h.GetWalletSummary)

	auth.POST("/memos", h.AddMemo)
	auth.GET("/memos/my", h.GetMyMemos)
	auth.DELETE("/memos/:memoId", h.DeleteMemo)
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	resp, err := h.svc.GetProfile(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Course handlers
func (h *Handler) SelectCourses(c *gin.Context) {
	var req models.SelectCoursesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SelectCourses(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetMyCourses(c *gin.Context) {
	resp, err := h.svc.GetMyCourses(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DropCourse(c *gin.Context) {
	courseID, ok := h.pathID(c, "courseId")
	if !ok {
		return
	}

	if err := h.svc.DropCourse(c.Request.Context(), userID(c), courseID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Enrollment removed",
	})
}

// Chat handlers
func (h *Handler) GetTopics(c *gin.Context) {
	courseID, ok := h.queryID(c, "courseId")
	if !ok {
		return
	}

	resp, err := h.svc.GetTopics(c.Request.Context(), courseID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateTopic(c *gin.Context) {
	var req models.CreateTopicRequest
	if !h.bindJSON(c, &req) {
		return
	}

	topic, err := h.svc.CreateTopic(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "topic": topic})
}

func (h *Handler) GetTopicMessages(c *gin.Context) {
	topicID, ok := h.queryID(c, "topicId")
	if !ok {
		return
	}

	resp, err := h.svc.GetTopicMessages(c.Request.Context(), topicID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req models.PostMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.PostMessage(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) RewardMessage(c *gin.Context) {
	messageID, ok := h.pathID(c, "messageId")
	if !ok {
		return
	}

	var req models.RewardMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.RewardMessage(c.Request.Context(), userID(c), messageID, req.TopicID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Note handlers
func (h *Handler) ListNotes(c *gin.Context) {
	courseID, ok := h.queryID(c, "courseId")
	if !ok {
		return
	}

	resp, err := h.svc.ListNotes(c.Request.Context(), courseID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AddNote(c *gin.Context) {
	var req models.AddNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.AddNote(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) PurchaseNote(c *gin.Context) {
	noteID, ok := h.pathID(c, "noteId")
	if !ok {
		return
	}

	resp, err := h.svc.PurchaseNote(c.Request.Context(), userID(c), noteID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Wallet handlers
func (h *Handler) EarnPoints(c *gin.Context) {
	var req models.WalletEarnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.EarnPoints(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SpendPoints(c *gin.Context) {
	var req models.WalletUseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SpendPoints(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetWalletSummary(c *gin.Context) {
	resp, err := h.svc.GetWalletSummary(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Memo handlers
func (h *Handler) AddMemo(c *gin.Context) {
	var req models.AddMemoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.AddMemo(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetMyMemos(c *gin.Context) {
	resp, err := h.svc.GetMyMemos(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteMemo(c *gin.Context) {
	memoID, ok := h.pathID(c, "memoId")
	if !ok {
		return
	}

	if err := h.svc.DeleteMemo(c.Request.Context(), userID(c), memoID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Memo deleted",
	})
}

// Helpers
func userID(c *gin.Context) int64 {
	return c.MustGet("userId").(int64)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "BAD_REQUEST",
			Message: "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "BAD_REQUEST",
			Message: "Missing or invalid " + name,
		})
		return 0, false
	}
	return id, true
}

// writeError maps business errors onto HTTP statuses. Every expected
// outcome of the ledger's rules is surfaced verbatim with its own code;
// anything else is a server error.
func (h *Handler) writeError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status, code = http.StatusBadRequest, "INSUFFICIENT_POINTS"
	case errors.Is(err, ledger.ErrAccountNotFound):
		status, code = http.StatusNotFound, "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ledger.ErrMessageNotFound):
		status, code = http.StatusNotFound, "MESSAGE_NOT_FOUND"
	case errors.Is(err, ledger.ErrNotAuthorized):
		status, code = http.StatusForbidden, "NOT_AUTHORIZED"
	case errors.Is(err, ledger.ErrAlreadyRewarded):
		status, code = http.StatusConflict, "ALREADY_REWARDED"
	case errors.Is(err, service.ErrUserExists):
		status, code = http.StatusConflict, "USER_EXISTS"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrUserNotFound):
		status, code = http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, service.ErrCourseNotFound):
		status, code = http.StatusNotFound, "COURSE_NOT_FOUND"
	case errors.Is(err, service.ErrTopicNotFound):
		status, code = http.StatusNotFound, "TOPIC_NOT_FOUND"
	case errors.Is(err, service.ErrNoteNotFound):
		status, code = http.StatusNotFound, "NOTE_NOT_FOUND"
	case errors.Is(err, service.ErrMemoNotFound):
		status, code = http.StatusNotFound, "MEMO_NOT_FOUND"
	case errors.Is(err, service.ErrInvalidDate):
		status, code = http.StatusBadRequest, "INVALID_DATE"
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: err.Error(),
	})
}
