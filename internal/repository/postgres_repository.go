package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yuchenlin/studyhub-server/internal/ledger"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByAccount(ctx context.Context, account string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, email, studentID string) (bool, error)

	// Course operations
	FindOrCreateCourse(ctx context.Context, course *models.Course) error
	GetCourse(ctx context.Context, courseID int64) (*models.Course, error)
	EnrollUser(ctx context.Context, userID, courseID int64) error
	GetUserCourses(ctx context.Context, userID int64) ([]models.Course, error)
	DeleteEnrollment(ctx context.Context, userID, courseID int64) (bool, error)

	// Chat operations
	CreateTopic(ctx context.Context, topic *models.ChatTopic) error
	GetTopicsByCourse(ctx context.Context, courseID int64) ([]models.TopicWithAuthor, error)
	GetTopicWithAuthor(ctx context.Context, topicID int64) (*models.TopicWithAuthor, error)
	CreateMessage(ctx context.Context, message *models.ChatMessage) error
	GetMessagesByTopic(ctx context.Context, topicID int64) ([]models.MessageWithAuthor, error)
	GetMessageRewardInfo(ctx context.Context, messageID int64) (*models.MessageRewardInfo, error)

	// Note operations
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, noteID int64) (*models.Note, error)
	GetNotesByCourse(ctx context.Context, courseID int64) ([]models.NoteWithAuthor, error)

	// Memo operations
	CreateMemo(ctx context.Context, memo *models.Memo) error
	GetUserMemos(ctx context.Context, userID int64) ([]models.Memo, error)
	DeleteMemo(ctx context.Context, userID, memoID int64) (bool, error)

	// Ledger operations. These are the only paths that mutate a user's
	// points or append to the transaction log.
	CreditPoints(ctx context.Context, userID int64, amount int, reason string) (int, *models.PointTransaction, error)
	DebitPoints(ctx context.Context, userID int64, amount int, reason string) (int, *models.PointTransaction, error)
	RewardMessage(ctx context.Context, messageID, recipientID int64, amount int, reason string) (int, *models.PointTransaction, error)
	GetBalance(ctx context.Context, userID int64) (int, error)
	TransactionHistory(ctx context.Context, userID int64, kind ledger.Kind, limit uint64) ([]models.PointTransaction, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (student_id, email, name, department, password_hash, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		user.StudentID, user.Email, user.Name, user.Department,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
}

// GetUserByAccount looks a user up by email or student id.
func (r *PostgresRepository) GetUserByAccount(ctx context.Context, account string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1 OR student_id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) UserExists(ctx context.Context, email, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR student_id = $2)`,
		email, studentID).Scan(&exists)
	return exists, err
}

// Course repository methods

// FindOrCreateCourse resolves a course by its identifying quadruple,
// inserting it if no row exists yet. The ON CONFLICT clause makes
// concurrent first enrollments converge on a single row.
func (r *PostgresRepository) FindOrCreateCourse(ctx context.Context, course *models.Course) error {
	query := `SELECT * FROM courses WHERE name = $1 AND teacher = $2 AND weekday = $3 AND time_slot = $4`

	err := r.db.GetContext(ctx, course, query,
		course.Name, course.Teacher, course.Weekday, course.TimeSlot)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	course.CreatedAt = time.Now().UTC()
	insert := `
		INSERT INTO courses (name, teacher, weekday, time_slot, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, teacher, weekday, time_slot) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, insert,
		course.Name, course.Teacher, course.Weekday, course.TimeSlot, course.CreatedAt).Scan(&course.ID)
}

func (r *PostgresRepository) GetCourse(ctx context.Context, courseID int64) (*models.Course, error) {
	query := `SELECT * FROM courses WHERE id = $1`

	var course models.Course
	err := r.db.GetContext(ctx, &course, query, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Course not found
		}
		return nil, err
	}

	return &course, nil
}

func (r *PostgresRepository) EnrollUser(ctx context.Context, userID, courseID int64) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, userID, courseID, time.Now().UTC())
	return err
}

func (r *PostgresRepository) GetUserCourses(ctx context.Context, userID int64) ([]models.Course, error) {
	query := `
		SELECT c.* FROM courses c
		JOIN enrollments e ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY c.id
	`

	courses := []models.Course{}
	err := r.db.SelectContext(ctx, &courses, query, userID)
	if err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *PostgresRepository) DeleteEnrollment(ctx context.Context, userID, courseID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// Chat repository methods
func (r *PostgresRepository) CreateTopic(ctx context.Context, topic *models.ChatTopic) error {
	topic.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO chat_topics (course_id, author_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		topic.CourseID, topic.AuthorID, topic.Title, topic.Content, topic.CreatedAt).Scan(&topic.ID)
}

func (r *PostgresRepository) GetTopicsByCourse(ctx context.Context, courseID int64) ([]models.TopicWithAuthor, error) {
	query := `
		SELECT t.*, u.name AS author_name,
			(SELECT m.text FROM chat_messages m
			 WHERE m.topic_id = t.id
			 ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message
		FROM chat_topics t
		JOIN users u ON u.id = t.author_id
		WHERE t.course_id = $1
		ORDER BY t.created_at DESC, t.id DESC
	`

	topics := []models.TopicWithAuthor{}
	err := r.db.SelectContext(ctx, &topics, query, courseID)
	if err != nil {
		return nil, err
	}

	return topics, nil
}

func (r *PostgresRepository) GetTopicWithAuthor(ctx context.Context, topicID int64) (*models.TopicWithAuthor, error) {
	query := `
		SELECT t.*, u.name AS author_name, NULL AS last_message
		FROM chat_topics t
		JOIN users u ON u.id = t.author_id
		WHERE t.id = $1
	`

	var topic models.TopicWithAuthor
	err := r.db.GetContext(ctx, &topic, query, topicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Topic not found
		}
		return nil, err
	}

	return &topic, nil
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	message.CreatedAt = time.Now().UTC()
	message.RewardedByAuthor = false

	query := `
		INSERT INTO chat_messages (topic_id, author_id, text, rewarded_by_author, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		message.TopicID, message.AuthorID, message.Text, message.CreatedAt).Scan(&message.ID)
}

func (r *PostgresRepository) GetMessagesByTopic(ctx context.Context, topicID int64) ([]models.MessageWithAuthor, error) {
	query := `
		SELECT m.*, u.name AS author_name
		FROM chat_messages m
		JOIN users u ON u.id = m.author_id
		WHERE m.topic_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	messages := []models.MessageWithAuthor{}
	err := r.db.SelectContext(ctx, &messages, query, topicID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// GetMessageRewardInfo loads the message together with its topic's
// author for the reward gate's precondition checks.
func (r *PostgresRepository) GetMessageRewardInfo(ctx context.Context, messageID int64) (*models.MessageRewardInfo, error) {
	query := `
		SELECT m.id AS message_id, m.topic_id, m.author_id AS message_author_id,
			t.author_id AS topic_author_id, m.rewarded_by_author AS rewarded
		FROM chat_messages m
		JOIN chat_topics t ON t.id = m.topic_id
		WHERE m.id = $1
	`

	var info models.MessageRewardInfo
	err := r.db.GetContext(ctx, &info, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Message not found
		}
		return nil, err
	}

	return &info, nil
}

// Note repository methods
func (r *PostgresRepository) CreateNote(ctx context.Context, note *models.Note) error {
	note.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO notes (course_id, user_id, title, price, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		note.CourseID, note.UserID, note.Title, note.Price, note.FileURL, note.CreatedAt).Scan(&note.ID)
}

func (r *PostgresRepository) GetNote(ctx context.Context, noteID int64) (*models.Note, error) {
	query := `SELECT * FROM notes WHERE id = $1`

	var note models.Note
	err := r.db.GetContext(ctx, &note, query, noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Note not found
		}
		return nil, err
	}

	return &note, nil
}

func (r *PostgresRepository) GetNotesByCourse(ctx context.Context, courseID int64) ([]models.NoteWithAuthor, error) {
	query := `
		SELECT n.*, u.name AS author_name
		FROM notes n
		JOIN users u ON u.id = n.user_id
		WHERE n.course_id = $1
		ORDER BY n.created_at DESC, n.id DESC
	`

	notes := []models.NoteWithAuthor{}
	err := r.db.SelectContext(ctx, &notes, query, courseID)
	if err != nil {
		return nil, err
	}

	return notes, nil
}

// Memo repository methods
func (r *PostgresRepository) CreateMemo(ctx context.Context, memo *models.Memo) error {
	memo.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO memos (user_id, title, due_date, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		memo.UserID, memo.Title, memo.DueDate, memo.CreatedAt).Scan(&memo.ID)
}

func (r *PostgresRepository) GetUserMemos(ctx context.Context, userID int64) ([]models.Memo, error) {
	query := `SELECT * FROM memos WHERE user_id = $1 ORDER BY due_date ASC, id ASC`

	memos := []models.Memo{}
	err := r.db.SelectContext(ctx, &memos, query, userID)
	if err != nil {
		return nil, err
	}

	return memos, nil
}

func (r *PostgresRepository) DeleteMemo(ctx context.Context, userID, memoID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM memos WHERE id = $1 AND user_id = $2`, memoID, userID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

var _ Repository = (*PostgresRepository)(nil)
