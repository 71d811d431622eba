package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table. The CHECK on points backstops the conditional
	// debit: the balance can never be driven negative even by a bug in
	// application SQL.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			student_id VARCHAR(32) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			department VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			points INT NOT NULL DEFAULT 0 CHECK (points >= 0),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create point_transactions table (append-only; rows are never
	// updated or deleted).
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS point_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(8) NOT NULL CHECK (kind IN ('EARN', 'SPEND')),
			amount INT NOT NULL CHECK (amount > 0),
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create courses table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			teacher VARCHAR(255) NOT NULL DEFAULT '',
			weekday VARCHAR(16) NOT NULL DEFAULT '',
			time_slot VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE (name, teacher, weekday, time_slot)
		)
	`)
	if err != nil {
		return err
	}

	// Create enrollments table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS enrollments (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, course_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create chat_topics table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_topics (
			id BIGSERIAL PRIMARY KEY,
			course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create chat_messages table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			topic_id BIGINT NOT NULL REFERENCES chat_topics(id) ON DELETE CASCADE,
			author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			rewarded_by_author BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create notes table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id BIGSERIAL PRIMARY KEY,
			course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			price INT NOT NULL CHECK (price >= 0),
			file_url TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create memos table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memos (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			due_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_point_transactions_user ON point_transactions(user_id, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_chat_topics_course ON chat_topics(course_id)",
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_topic ON chat_messages(topic_id)",
		"CREATE INDEX IF NOT EXISTS idx_notes_course ON notes(course_id)",
		"CREATE INDEX IF NOT EXISTS idx_memos_user ON memos(user_id)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
