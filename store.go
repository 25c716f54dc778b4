package quizlic

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// or a wrong password; the two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUsernameTaken is returned by RegisterUser when the username exists.
var ErrUsernameTaken = errors.New("username is already taken")

// User is a registered account. GenerationCount feeds the leaderboard.
type User struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	GenerationCount int    `json:"generation_count"`
}

// LeaderboardEntry is one row of the generation-count ranking.
type LeaderboardEntry struct {
	Username        string `json:"username"`
	GenerationCount int    `json:"generation_count"`
}

// Store persists users and the quiz request history in sqlite.
type Store struct {
	db *sql.DB
}

// OpenStore opens the sqlite database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the necessary tables if they don't exist.
func (s *Store) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			hashed_password TEXT NOT NULL,
			generation_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_requests (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			input_type TEXT NOT NULL,
			topic TEXT NOT NULL,
			num_questions INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RegisterUser creates an account with a bcrypt-hashed password.
func (s *Store) RegisterUser(username, email, password string) (*User, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO users (username, email, hashed_password, generation_count) VALUES (?, ?, ?, 0)",
		username, email, string(hashed),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	return &User{ID: id, Username: username, Email: email}, nil
}

// Authenticate checks credentials and returns the matching user, or
// ErrInvalidCredentials.
func (s *Store) Authenticate(username, password string) (*User, error) {
	var (
		user   User
		hashed string
	)
	err := s.db.QueryRow(
		"SELECT id, username, email, hashed_password, generation_count FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &hashed, &user.GenerationCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, username, email, generation_count FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.GenerationCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// RecordQuizRequest appends one row to the quiz request history. The history
// is append-only; nothing ever updates or deletes these rows.
func (s *Store) RecordQuizRequest(record *QuizRequestRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		"INSERT INTO quiz_requests (id, user_id, input_type, topic, num_questions, difficulty, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		record.ID, record.UserID, record.InputType, record.Topic, record.NumQuestions, record.Difficulty, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record quiz request: %w", err)
	}
	return nil
}

// GetQuizRequests retrieves a user's request history, newest first.
func (s *Store) GetQuizRequests(userID int64) ([]QuizRequestRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, input_type, topic, num_questions, difficulty, created_at FROM quiz_requests WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz requests: %w", err)
	}
	defer rows.Close()

	var records []QuizRequestRecord
	for rows.Next() {
		var record QuizRequestRecord
		err := rows.Scan(&record.ID, &record.UserID, &record.InputType, &record.Topic, &record.NumQuestions, &record.Difficulty, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz request: %w", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quiz requests: %w", err)
	}
	return records, nil
}

// IncrementGenerationCount bumps a user's successful-generation counter.
func (s *Store) IncrementGenerationCount(userID int64) error {
	_, err := s.db.Exec("UPDATE users SET generation_count = generation_count + 1 WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to increment generation count: %w", err)
	}
	return nil
}

// Leaderboard returns users ranked by generation count, ties broken by
// username for a stable order.
func (s *Store) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	query := "SELECT username, generation_count FROM users ORDER BY generation_count DESC, username ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(&entry.Username, &entry.GenerationCount); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
