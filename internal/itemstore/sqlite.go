package itemstore

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"rwb-go/internal/model"
	"rwb-go/internal/rwb"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

//go:embed schema.sql
var schema string

// SQLiteStore is the default reminders source, backed by its own SQLite
// database. The schema is applied on open.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the reminders database at path.
// path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open reminders database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init reminders schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List() ([]model.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, title, list_name, is_completed, due_date, notes, priority, recurrence
		FROM reminders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return reminders, nil
}

func (s *SQLiteStore) Get(id string) (*model.Reminder, error) {
	row := s.db.QueryRow(`
		SELECT id, title, list_name, is_completed, due_date, notes, priority, recurrence
		FROM reminders WHERE id = ?`, id)

	r, err := scanReminder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) Create(r model.Reminder) (*model.Reminder, error) {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, title, list_name, is_completed, due_date, notes, priority, recurrence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.ListName, r.IsCompleted, nullTime(r.DueDate),
		r.Notes, int(r.Priority), r.Recurrence, time.Now())
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) Update(r model.Reminder) (*model.Reminder, error) {
	res, err := s.db.Exec(`
		UPDATE reminders
		SET title = ?, list_name = ?, is_completed = ?, due_date = ?, notes = ?, priority = ?, recurrence = ?
		WHERE id = ?`,
		r.Title, r.ListName, r.IsCompleted, nullTime(r.DueDate),
		r.Notes, int(r.Priority), r.Recurrence, r.ID)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("reminder not found: %s", r.ID)
	}
	return &r, nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) Lists() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT list_name FROM reminders ORDER BY list_name")
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var lists []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning list name: %w", err)
		}
		lists = append(lists, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating list names: %w", err)
	}
	return lists, nil
}

func scanReminder(scan func(...any) error) (*model.Reminder, error) {
	var r model.Reminder
	var due sql.NullTime
	var priority int

	if err := scan(&r.ID, &r.Title, &r.ListName, &r.IsCompleted, &due, &r.Notes, &priority, &r.Recurrence); err != nil {
		return nil, fmt.Errorf("scanning reminder: %w", err)
	}

	if due.Valid {
		t := due.Time
		r.DueDate = &t
	}
	r.Priority = model.Priority(priority)
	return &r, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Compile-time check that SQLiteStore implements rwb.ItemStore
var _ rwb.ItemStore = (*SQLiteStore)(nil)
