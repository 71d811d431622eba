package models

// Request models
type SignUpRequest struct {
	Name       string `json:"name" binding:"required"`
	StudentID  string `json:"studentId" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

// LoginRequest accepts either the email address or the student id as
// the account field.
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type IncomingCourse struct {
	Name     string `json:"name" binding:"required"`
	Teacher  string `json:"teacher"`
	Weekday  string `json:"weekday"`
	TimeSlot string `json:"timeSlot"`
}

type SelectCoursesRequest struct {
	Courses []IncomingCourse `json:"courses" binding:"required,min=1"`
}

type CreateTopicRequest struct {
	CourseID int64  `json:"courseId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
}

type PostMessageRequest struct {
	TopicID int64  `json:"topicId" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

type RewardMessageRequest struct {
	TopicID int64 `json:"topicId" binding:"required"`
}

type AddNoteRequest struct {
	CourseID int64  `json:"courseId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Price    int    `json:"price" binding:"gte=0"`
	FileName string `json:"fileName" binding:"required"`
}

// WalletEarnRequest tops up the authenticated user's wallet. Amount is
// validated in the service so a non-positive value maps to the ledger's
// InvalidAmount error rather than a generic binding failure.
type WalletEarnRequest struct {
	Amount  int    `json:"amount"`
	Message string `json:"message"`
}

type WalletUseRequest struct {
	Amount  int    `json:"amount"`
	Message string `json:"message"`
}

type AddMemoRequest struct {
	Title   string `json:"title" binding:"required"`
	DateISO string `json:"dateISO" binding:"required"`
}

// Response models
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type AuthResponse struct {
	Status    string `json:"status"`
	UserID    int64  `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	Points    int    `json:"points"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type ProfileResponse struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

type CourseListResponse struct {
	Status  string   `json:"status"`
	Courses []Course `json:"courses"`
}

type TopicSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	AuthorName  string  `json:"authorName"`
	CreatedAt   string  `json:"createdAt"`
	LastMessage *string `json:"lastMessage"`
}

type TopicListResponse struct {
	Status string         `json:"status"`
	Topics []TopicSummary `json:"topics"`
}

type TopicView struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   int64  `json:"authorId"`
	AuthorName string `json:"authorName"`
	CreatedAt  string `json:"createdAt"`
}

type MessageView struct {
	ID               int64  `json:"id"`
	Text             string `json:"text"`
	AuthorID         int64  `json:"authorId"`
	AuthorName       string `json:"authorName"`
	CreatedAt        string `json:"createdAt"`
	RewardedByAuthor bool   `json:"rewardedByAuthor"`
}

type TopicMessagesResponse struct {
	Status   string        `json:"status"`
	Topic    TopicView     `json:"topic"`
	Messages []MessageView `json:"messages"`
}

type MessageResponse struct {
	Status  string      `json:"status"`
	Message MessageView `json:"message"`
}

type TransactionView struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	Amount  int    `json:"amount"`
	Message string `json:"message"`
	DateISO string `json:"dateISO"`
}

type RewardResponse struct {
	Status          string          `json:"status"`
	MessageID       int64           `json:"messageId"`
	Rewarded        bool            `json:"rewarded"`
	NewAuthorPoints int             `json:"newAuthorPoints"`
	Transaction     TransactionView `json:"transaction"`
}

type NoteView struct {
	ID         int64  `json:"id"`
	AuthorName string `json:"authorName"`
	Title      string `json:"title"`
	Price      int    `json:"price"`
	FileURL    string `json:"fileUrl"`
	PreviewURL string `json:"previewUrl"`
	CreatedAt  string `json:"createdAt"`
}

type NoteListResponse struct {
	Status string     `json:"status"`
	Notes  []NoteView `json:"notes"`
}

type NoteResponse struct {
	Status string   `json:"status"`
	Note   NoteView `json:"note"`
}

type WalletTransactionResponse struct {
	Status      string           `json:"status"`
	Points      int              `json:"points"`
	Transaction *TransactionView `json:"transaction,omitempty"`
}

type WalletSummaryResponse struct {
	Status      string            `json:"status"`
	Points      int               `json:"points"`
	EarnRecords []TransactionView `json:"earnRecords"`
	UseRecords  []TransactionView `json:"useRecords"`
}

type MemoResponse struct {
	Status string `json:"status"`
	Memo   Memo   `json:"memo"`
}

type MemoListResponse struct {
	Status string `json:"status"`
	Memos  []Memo `json:"memos"`
}
