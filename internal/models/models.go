package models

import (
	"database/sql"
	"time"

	"github.com/yuchenlin/studyhub-server/internal/ledger"
)

// User represents a student account. Points is the ledger balance; it is
// mutated only through the repository's atomic credit/debit operations.
type User struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Department   string    `db:"department" json:"department"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Points       int       `db:"points" json:"points"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Course represents a course students can enrol in. Courses are
// deduplicated on the (name, teacher, weekday, time slot) quadruple.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Teacher   string    `db:"teacher" json:"teacher"`
	Weekday   string    `db:"weekday" json:"weekday"`
	TimeSlot  string    `db:"time_slot" json:"timeSlot"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	UserID    int64     `db:"user_id" json:"userId"`
	CourseID  int64     `db:"course_id" json:"courseId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ChatTopic is a discussion thread inside a course.
type ChatTopic struct {
	ID        int64     `db:"id" json:"id"`
	CourseID  int64     `db:"course_id" json:"courseId"`
	AuthorID  int64     `db:"author_id" json:"authorId"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ChatMessage is a reply inside a topic. RewardedByAuthor transitions
// false to true at most once, ever; the transition happens only inside
// the repository's reward transaction.
type ChatMessage struct {
	ID               int64     `db:"id" json:"id"`
	TopicID          int64     `db:"topic_id" json:"topicId"`
	AuthorID         int64     `db:"author_id" json:"authorId"`
	Text             string    `db:"text" json:"text"`
	RewardedByAuthor bool      `db:"rewarded_by_author" json:"rewardedByAuthor"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Note is a study note offered for sale in a course.
type Note struct {
	ID        int64     `db:"id" json:"id"`
	CourseID  int64     `db:"course_id" json:"courseId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Price     int       `db:"price" json:"price"`
	FileURL   string    `db:"file_url" json:"fileUrl"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Memo is a personal calendar memo.
type Memo struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	DueDate   time.Time `db:"due_date" json:"dueDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PointTransaction is one immutable entry of the transaction log. Rows
// are only ever inserted; id order is the per-account linearized order.
type PointTransaction struct {
	ID        int64       `db:"id" json:"id"`
	UserID    int64       `db:"user_id" json:"userId"`
	Kind      ledger.Kind `db:"kind" json:"kind"`
	Amount    int         `db:"amount" json:"amount"`
	Reason    string      `db:"reason" json:"reason"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// TopicWithAuthor is a topic row joined with its author's name and the
// text of the most recent reply, for topic listings.
type TopicWithAuthor struct {
	ChatTopic
	AuthorName  string         `db:"author_name"`
	LastMessage sql.NullString `db:"last_message"`
}

// MessageWithAuthor is a message row joined with its author's name.
type MessageWithAuthor struct {
	ChatMessage
	AuthorName string `db:"author_name"`
}

// NoteWithAuthor is a note row joined with its author's name.
type NoteWithAuthor struct {
	Note
	AuthorName string `db:"author_name"`
}

// MessageRewardInfo is the joined view the reward gate checks before
// committing: the message, its topic, and both authors.
type MessageRewardInfo struct {
	MessageID       int64 `db:"message_id"`
	TopicID         int64 `db:"topic_id"`
	MessageAuthorID int64 `db:"message_author_id"`
	TopicAuthorID   int64 `db:"topic_author_id"`
	Rewarded        bool  `db:"rewarded"`
}
