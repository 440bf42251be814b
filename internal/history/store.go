package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrSessionNotFound is returned by Clear when the session does not exist
// (or has already expired).
var ErrSessionNotFound = errors.New("session not found")

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message within a session. Turns are immutable once appended
// and are returned by Load in append order.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a TTL-bounded, append-only conversation log keyed by session id,
// backed by SQLite. Each append resets the session's TTL; expired sessions
// are purged on access, so the orchestrator never sees stale turns.
//
// Concurrent appends to the same session id are not serialized against each
// other: interleaved exchanges produce an ordered merge by sequence number.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// New opens (creating if needed) the history database at dataSourceName.
func New(dataSourceName string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{db: db, ttl: ttl}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY,
        created_at DATETIME NOT NULL,
        expires_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS turns (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (session_id) REFERENCES sessions (id)
    );

    CREATE INDEX IF NOT EXISTS idx_turns_session ON turns (session_id, seq);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a turn to the session, creating the session on first append
// and resetting its TTL on every append.
func (s *Store) Append(sessionID string, turn Turn) error {
	if turn.Role != RoleUser && turn.Role != RoleAssistant {
		return fmt.Errorf("invalid turn role %q", turn.Role)
	}

	now := time.Now().UTC()
	expires := now.Add(s.ttl)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, created_at, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET expires_at = excluded.expires_at`,
		sessionID, now, expires,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	ts := turn.CreatedAt
	if ts.IsZero() {
		ts = now
	}
	_, err = tx.Exec(
		"INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, turn.Role, turn.Content, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return tx.Commit()
}

// Load returns the session's turns in the order they were appended. An
// absent or expired session yields an empty slice, not an error.
func (s *Store) Load(sessionID string) ([]Turn, error) {
	if err := s.purgeExpired(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT role, content, created_at FROM turns WHERE session_id = ? ORDER BY seq ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Clear removes a session and all of its turns. Clearing a session that does
// not exist (or has expired) returns ErrSessionNotFound.
func (s *Store) Clear(sessionID string) error {
	if err := s.purgeExpired(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrSessionNotFound
	}

	if _, err := tx.Exec("DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}

	return tx.Commit()
}

// purgeExpired enforces the TTL: sessions whose expiry has passed are
// removed together with their turns.
func (s *Store) purgeExpired() error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		"DELETE FROM turns WHERE session_id IN (SELECT id FROM sessions WHERE expires_at <= ?)", now,
	)
	if err != nil {
		return fmt.Errorf("failed to purge expired turns: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", now); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return nil
}
