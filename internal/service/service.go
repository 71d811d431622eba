package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yuchenlin/studyhub-server/internal/models"
	"github.com/yuchenlin/studyhub-server/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Expected business errors outside the ledger taxonomy. Handlers match
// on these with errors.Is to pick the HTTP status.
var (
	ErrUserExists         = errors.New("student id or email already registered")
	ErrInvalidCredentials = errors.New("invalid account or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrNoteNotFound       = errors.New("note not found")
	ErrMemoNotFound       = errors.New("memo not found")
	ErrInvalidDate        = errors.New("invalid date format")
)

// BalanceCache is the subset of the cache the service needs. A nil
// cache disables caching.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID int64) (int, bool, error)
	SetBalance(ctx context.Context, userID int64, balance int) error
	InvalidateBalance(ctx context.Context, userID int64) error
}

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID int64) (*models.ProfileResponse, error)

	// Courses
	SelectCourses(ctx context.Context, userID int64, req models.SelectCoursesRequest) (*models.CourseListResponse, error)
	GetMyCourses(ctx context.Context, userID int64) (*models.CourseListResponse, error)
	DropCourse(ctx context.Context, userID, courseID int64) error

	// Chat
	GetTopics(ctx context.Context, courseID int64) (*models.TopicListResponse, error)
	CreateTopic(ctx context.Context, userID int64, req models.CreateTopicRequest) (*models.ChatTopic, error)
	GetTopicMessages(ctx context.Context, topicID int64) (*models.TopicMessagesResponse, error)
	PostMessage(ctx context.Context, userID int64, req models.PostMessageRequest) (*models.MessageResponse, error)
	RewardMessage(ctx context.Context, actorID, messageID, topicID int64) (*models.RewardResponse, error)

	// Notes
	ListNotes(ctx context.Context, courseID int64) (*models.NoteListResponse, error)
	AddNote(ctx context.Context, userID int64, req models.AddNoteRequest) (*models.NoteResponse, error)
	PurchaseNote(ctx context.Context, userID, noteID int64) (*models.WalletTransactionResponse, error)

	// Wallet
	EarnPoints(ctx context.Context, userID int64, req models.WalletEarnRequest) (*models.WalletTransactionResponse, error)
	SpendPoints(ctx context.Context, userID int64, req models.WalletUseRequest) (*models.WalletTransactionResponse, error)
	GetWalletSummary(ctx context.Context, userID int64) (*models.WalletSummaryResponse, error)

	// Memos
	AddMemo(ctx context.Context, userID int64, req models.AddMemoRequest) (*models.MemoResponse, error)
	GetMyMemos(ctx context.Context, userID int64) (*models.MemoListResponse, error)
	DeleteMemo(ctx context.Context, userID, memoID int64) error
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	cache         BalanceCache
	logger        *zap.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService. cache may be nil.
func NewDefaultService(repo repository.Repository, cache BalanceCache, logger *zap.Logger, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		cache:         cache,
		logger:        logger,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	exists, err := s.repo.UserExists(ctx, req.Email, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		StudentID:    req.StudentID,
		Email:        req.Email,
		Name:         req.Name,
		Department:   req.Department,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		StudentID: user.StudentID,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByAccount(ctx, req.Account)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		StudentID: user.StudentID,
		Points:    user.Points,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

func (s *DefaultService) GetProfile(ctx context.Context, userID int64) (*models.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &models.ProfileResponse{
		Status: "success",
		User:   *user,
	}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// invalidateBalance drops the cached balance after a committed ledger
// write. Cache problems are logged, never surfaced: the database has
// already committed.
func (s *DefaultService) invalidateBalance(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBalance(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate balance cache",
			zap.Int64("userId", userID),
			zap.Error(err),
		)
	}
}
