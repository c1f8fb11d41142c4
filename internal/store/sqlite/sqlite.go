package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/linechat/internal/store"
)

// Schema creates the session journal table.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL,
	remote_addr TEXT NOT NULL DEFAULT '',
	transport   TEXT NOT NULL DEFAULT 'tcp',
	joined_at   DATETIME NOT NULL,
	left_at     DATETIME,
	reason      TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_joined ON sessions(joined_at DESC);
`

// ErrSessionNotFound is returned when closing an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// OpenSession inserts a new session row.
func (s *SQLiteStore) OpenSession(ctx context.Context, sess *store.Session) error {
	if sess.JoinedAt.IsZero() {
		sess.JoinedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO sessions (id, username, remote_addr, transport, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.Username, sess.RemoteAddr, string(sess.Transport), sess.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CloseSession stamps left_at and reason once.
func (s *SQLiteStore) CloseSession(ctx context.Context, id string, reason store.LeaveReason, at time.Time) error {
	query := `
		UPDATE sessions
		SET left_at = ?, reason = ?
		WHERE id = ? AND left_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, at.UTC(), string(reason), id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("query session: %w", err)
	}
	return nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]store.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, username, remote_addr, transport, joined_at, left_at, COALESCE(reason, '')
		FROM sessions
		ORDER BY joined_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []store.Session{}
	for rows.Next() {
		var (
			sess      store.Session
			transport string
			reason    string
			leftAt    sql.NullTime
		)
		if err := rows.Scan(
			&sess.ID,
			&sess.Username,
			&sess.RemoteAddr,
			&transport,
			&sess.JoinedAt,
			&leftAt,
			&reason,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Transport = store.Transport(transport)
		sess.Reason = store.LeaveReason(reason)
		if leftAt.Valid {
			t := leftAt.Time
			sess.LeftAt = &t
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
