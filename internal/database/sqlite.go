package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rwb-go/internal/database/migrations"
	"rwb-go/internal/model"
	"rwb-go/internal/rwb"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the snapshot and webhook stores using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Snapshot operations

func (s *SQLiteDatabase) ListSnapshots() ([]model.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT reminder_id, title, list_name, is_completed, due_date, checksum, last_seen
		FROM reminder_snapshots ORDER BY reminder_id`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var due, lastSeen sql.NullTime
		if err := rows.Scan(&snap.ReminderID, &snap.Title, &snap.ListName, &snap.IsCompleted, &due, &snap.Checksum, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if due.Valid {
			t := due.Time
			snap.DueDate = &t
		}
		if lastSeen.Valid {
			snap.LastSeen = lastSeen.Time
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (s *SQLiteDatabase) UpsertSnapshot(snap model.Snapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO reminder_snapshots (reminder_id, title, list_name, is_completed, due_date, checksum, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reminder_id) DO UPDATE SET
			title = excluded.title,
			list_name = excluded.list_name,
			is_completed = excluded.is_completed,
			due_date = excluded.due_date,
			checksum = excluded.checksum,
			last_seen = excluded.last_seen`,
		snap.ReminderID, snap.Title, snap.ListName, snap.IsCompleted,
		nullTime(snap.DueDate), snap.Checksum, snap.LastSeen)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteSnapshot(reminderID string) error {
	res, err := s.db.Exec("DELETE FROM reminder_snapshots WHERE reminder_id = ?", reminderID)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot not found: %s", reminderID)
	}
	return nil
}

// Webhook operations

func (s *SQLiteDatabase) ListWebhooks() ([]model.Webhook, error) {
	return s.queryWebhooks(`
		SELECT id, url, secret, reminder_id, list_name, events, active, created_at
		FROM webhooks ORDER BY created_at`)
}

func (s *SQLiteDatabase) ListActiveWebhooks() ([]model.Webhook, error) {
	return s.queryWebhooks(`
		SELECT id, url, secret, reminder_id, list_name, events, active, created_at
		FROM webhooks WHERE active = 1 ORDER BY created_at`)
}

func (s *SQLiteDatabase) queryWebhooks(query string) ([]model.Webhook, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []model.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows.Scan)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, *hook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhooks: %w", err)
	}
	return hooks, nil
}

func (s *SQLiteDatabase) GetWebhook(id string) (*model.Webhook, error) {
	row := s.db.QueryRow(`
		SELECT id, url, secret, reminder_id, list_name, events, active, created_at
		FROM webhooks WHERE id = ?`, id)

	hook, err := scanWebhook(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return hook, nil
}

func (s *SQLiteDatabase) CreateWebhook(hook model.Webhook) error {
	_, err := s.db.Exec(`
		INSERT INTO webhooks (id, url, secret, reminder_id, list_name, events, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		hook.ID, hook.URL, nullString(hook.Secret), nullString(hook.ReminderID),
		nullString(hook.ListName), strings.Join(hook.Events, ","), hook.Active, hook.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting webhook: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteWebhook(id string) error {
	res, err := s.db.Exec("DELETE FROM webhooks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("webhook not found: %s", id)
	}
	return nil
}

func (s *SQLiteDatabase) SetWebhookActive(id string, active bool) error {
	res, err := s.db.Exec("UPDATE webhooks SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("updating webhook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating webhook: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("webhook not found: %s", id)
	}
	return nil
}

// scanWebhook reads one webhook row through the given scan function.
func scanWebhook(scan func(...any) error) (*model.Webhook, error) {
	var hook model.Webhook
	var secret, reminderID, listName sql.NullString
	var events string
	var createdAt sql.NullTime

	if err := scan(&hook.ID, &hook.URL, &secret, &reminderID, &listName, &events, &hook.Active, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning webhook: %w", err)
	}

	hook.Secret = secret.String
	hook.ReminderID = reminderID.String
	hook.ListName = listName.String
	if events != "" {
		hook.Events = strings.Split(events, ",")
	}
	if createdAt.Valid {
		hook.CreatedAt = createdAt.Time
	}
	return &hook, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp brings the database schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time checks that SQLiteDatabase implements the store interfaces
var (
	_ rwb.SnapshotStore = (*SQLiteDatabase)(nil)
	_ rwb.WebhookStore  = (*SQLiteDatabase)(nil)
)
