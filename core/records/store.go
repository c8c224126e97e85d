// Package records persists the results of finished dialogues.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dialogbot/core/logger"
)

// ErrNotRegistered is returned when expenses are saved for an unknown user.
var ErrNotRegistered = errors.New("records: user not registered")

// Student is one row of the students table.
type Student struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Age   int    `db:"age"`
	Grade string `db:"grade"`
}

// User is one row of the users table. Categories are nil until reported.
type User struct {
	ID         int64    `db:"id"`
	TelegramID int64    `db:"telegram_id"`
	Name       string   `db:"name"`
	Category1  *string  `db:"category1"`
	Category2  *string  `db:"category2"`
	Category3  *string  `db:"category3"`
	Expenses1  *float64 `db:"expenses1"`
	Expenses2  *float64 `db:"expenses2"`
	Expenses3  *float64 `db:"expenses3"`
}

// Expense is one category line of a finance report.
type Expense struct {
	Category *string
	Amount   float64
}

// Expenses returns the filled category lines in order.
func (u User) Expenses() []Expense {
	cats := []*string{u.Category1, u.Category2, u.Category3}
	amts := []*float64{u.Expenses1, u.Expenses2, u.Expenses3}
	var out []Expense
	for i, c := range cats {
		if c == nil {
			continue
		}
		e := Expense{Category: c}
		if amts[i] != nil {
			e.Amount = *amts[i]
		}
		out = append(out, e)
	}
	return out
}

// Store wraps the record tables.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertStudent stores a registration. A repeated sessionID is a no-op.
func (s *Store) InsertStudent(ctx context.Context, sessionID string, st Student) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO students (name, age, grade, session_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`),
		st.Name, st.Age, st.Grade, sessionID,
	)
	s.logWrite(ctx, "student.insert", start, err, slog.String("session_id", sessionID))
	if err != nil {
		return fmt.Errorf("records: insert student: %w", err)
	}
	return nil
}

// ListStudents returns every student ordered by insertion.
func (s *Store) ListStudents(ctx context.Context) ([]Student, error) {
	var out []Student
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, age, grade FROM students ORDER BY id`); err != nil {
		return nil, fmt.Errorf("records: list students: %w", err)
	}
	return out, nil
}

// RegisterUser creates the user row or renames an existing one.
func (s *Store) RegisterUser(ctx context.Context, telegramID int64, name string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (telegram_id, name) VALUES (?, ?)
		 ON CONFLICT (telegram_id) DO UPDATE SET name = excluded.name`),
		telegramID, name,
	)
	s.logWrite(ctx, "user.register", start, err, slog.Int64("telegram_id", telegramID))
	if err != nil {
		return fmt.Errorf("records: register user: %w", err)
	}
	return nil
}

// UserByTelegramID loads a user; ok is false when none is registered.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (User, bool, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT id, telegram_id, name, category1, category2, category3, expenses1, expenses2, expenses3
		 FROM users WHERE telegram_id = ?`), telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("records: get user: %w", err)
	}
	return u, true, nil
}

// ListUsers returns all registered users.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, telegram_id, name, category1, category2, category3, expenses1, expenses2, expenses3
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("records: list users: %w", err)
	}
	return out, nil
}

// SaveExpenses overwrites the three category slots of a registered user.
// Missing entries are stored as a NULL category with a zero amount.
func (s *Store) SaveExpenses(ctx context.Context, telegramID int64, lines [3]Expense) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE users SET
		   category1 = ?, expenses1 = ?,
		   category2 = ?, expenses2 = ?,
		   category3 = ?, expenses3 = ?
		 WHERE telegram_id = ?`),
		lines[0].Category, lines[0].Amount,
		lines[1].Category, lines[1].Amount,
		lines[2].Category, lines[2].Amount,
		telegramID,
	)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = ErrNotRegistered
		}
	}
	s.logWrite(ctx, "expenses.save", start, err, slog.Int64("telegram_id", telegramID))
	if errors.Is(err, ErrNotRegistered) {
		return err
	}
	if err != nil {
		return fmt.Errorf("records: save expenses: %w", err)
	}
	return nil
}

// SaveAssessment stores a conversation report. A repeated sessionID is a no-op.
func (s *Store) SaveAssessment(ctx context.Context, sessionID string, telegramID int64, report map[string]string) error {
	if report == nil {
		report = map[string]string{}
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("records: encode report: %w", err)
	}
	start := time.Now()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO assessments (telegram_id, session_id, report) VALUES (?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`),
		telegramID, sessionID, string(payload),
	)
	s.logWrite(ctx, "assessment.insert", start, err,
		slog.String("session_id", sessionID),
		slog.Int("report_keys", len(report)),
	)
	if err != nil {
		return fmt.Errorf("records: insert assessment: %w", err)
	}
	return nil
}

// Assessment is a stored report.
type Assessment struct {
	TelegramID int64
	SessionID  string
	Report     map[string]string
}

// ListAssessments returns the reports of one user, newest first.
func (s *Store) ListAssessments(ctx context.Context, telegramID int64) ([]Assessment, error) {
	var rows []struct {
		TelegramID int64  `db:"telegram_id"`
		SessionID  string `db:"session_id"`
		Report     string `db:"report"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT telegram_id, session_id, report FROM assessments WHERE telegram_id = ? ORDER BY id DESC`),
		telegramID)
	if err != nil {
		return nil, fmt.Errorf("records: list assessments: %w", err)
	}
	out := make([]Assessment, 0, len(rows))
	for _, r := range rows {
		a := Assessment{TelegramID: r.TelegramID, SessionID: r.SessionID}
		if err := json.Unmarshal([]byte(r.Report), &a.Report); err != nil {
			return nil, fmt.Errorf("records: decode report %s: %w", r.SessionID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) logWrite(ctx context.Context, event string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, logger.CompRecords, event, attrs...)
		return
	}
	logger.Info(ctx, logger.CompRecords, event, attrs...)
}
