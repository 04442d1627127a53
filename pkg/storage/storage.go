package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/versemark/versemark/pkg/index"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql  *sql.DB
	path string
}

var _ ProgressStore = (*DB)(nil)

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  provider      TEXT NOT NULL,
  subject       TEXT NOT NULL,
  display_name  TEXT,
  created_at    INTEGER NOT NULL,
  last_login_at INTEGER NOT NULL,
  UNIQUE(provider, subject)
);
CREATE TABLE IF NOT EXISTS sessions (
  token      TEXT PRIMARY KEY,
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at INTEGER NOT NULL,
  expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE TABLE IF NOT EXISTS progress (
  user_id   TEXT NOT NULL,
  entry_key TEXT NOT NULL,
  read_at   INTEGER NOT NULL,
  PRIMARY KEY (user_id, entry_key)
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Path returns the database file the DB was opened from.
func (d *DB) Path() string {
	return d.path
}

// UpsertUser creates the user for (provider, subject) or refreshes its
// display name and last login.
func (d *DB) UpsertUser(ctx context.Context, provider, subject, displayName string) (User, error) {
	if provider == "" || subject == "" {
		return User{}, errors.New("invalid user identity")
	}
	now := time.Now().UTC().Unix()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO users(id, provider, subject, display_name, created_at, last_login_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(provider, subject) DO UPDATE SET
  display_name = COALESCE(excluded.display_name, users.display_name),
  last_login_at = excluded.last_login_at`,
		uuid.NewString(), provider, subject, nullIfEmpty(displayName), now, now)
	if err != nil {
		return User{}, err
	}
	return d.scanUser(d.sql.QueryRowContext(ctx, "SELECT id, provider, subject, display_name, created_at, last_login_at FROM users WHERE provider = ? AND subject = ?", provider, subject))
}

// GetUser returns the user with the given id.
func (d *DB) GetUser(ctx context.Context, id string) (User, error) {
	return d.scanUser(d.sql.QueryRowContext(ctx, "SELECT id, provider, subject, display_name, created_at, last_login_at FROM users WHERE id = ?", id))
}

func (d *DB) scanUser(row *sql.Row) (User, error) {
	var (
		u                  User
		name               sql.NullString
		created, lastLogin int64
	)
	if err := row.Scan(&u.ID, &u.Provider, &u.Subject, &name, &created, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.DisplayName = name.String
	u.CreatedAt = time.Unix(created, 0).UTC()
	u.LastLoginAt = time.Unix(lastLogin, 0).UTC()
	return u, nil
}

// CreateSession issues a new random token for userID valid for ttl.
func (d *DB) CreateSession(ctx context.Context, userID string, ttl time.Duration) (Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Session{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	s := Session{
		Token:     hex.EncodeToString(buf),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := d.sql.ExecContext(ctx, "INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?,?,?,?)", s.Token, s.UserID, s.CreatedAt.Unix(), s.ExpiresAt.Unix())
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// LookupSession returns the live session for token. Expired sessions are
// removed and reported as ErrSessionNotFound.
func (d *DB) LookupSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	var (
		s                Session
		created, expires int64
	)
	err := d.sql.QueryRowContext(ctx, "SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?", token).
		Scan(&s.Token, &s.UserID, &created, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	if !time.Now().Before(s.ExpiresAt) {
		_ = d.DeleteSession(ctx, token)
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// DeleteSession removes token. Deleting an unknown token is not an error.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// PurgeExpiredSessions deletes every session past its expiry.
func (d *DB) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReadProgress returns every key userID has marked read.
func (d *DB) ReadProgress(ctx context.Context, userID string) (index.Progress, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT entry_key FROM progress WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p := index.Progress{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		p[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyPatch merges patch into the stored progress of userID in a single
// transaction. Busy errors from concurrent writers are retried.
func (d *DB) ApplyPatch(ctx context.Context, userID string, patch index.Patch) error {
	if len(patch) == 0 {
		return nil
	}
	return retry.Do(
		func() error { return d.applyPatch(ctx, userID, patch) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
	)
}

func (d *DB) applyPatch(ctx context.Context, userID string, patch index.Patch) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Unix()
	for key, read := range patch {
		if read {
			_, err = tx.ExecContext(ctx, `INSERT INTO progress(user_id, entry_key, read_at) VALUES(?,?,?) ON CONFLICT(user_id, entry_key) DO NOTHING`, userID, key, now)
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM progress WHERE user_id = ? AND entry_key = ?`, userID, key)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (d *DB) GetStats(ctx context.Context) ([]ProviderStats, error) {
	query := `
		SELECT
			u.provider,
			COUNT(DISTINCT u.id),
			(SELECT COUNT(*) FROM sessions s JOIN users su ON su.id = s.user_id WHERE su.provider = u.provider),
			(SELECT COUNT(*) FROM progress p JOIN users pu ON pu.id = p.user_id WHERE pu.provider = u.provider)
		FROM
			users u
		GROUP BY
			u.provider
		ORDER BY
			u.provider;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ProviderStats
	for rows.Next() {
		var s ProviderStats
		if err := rows.Scan(&s.Provider, &s.UserCount, &s.SessionCount, &s.MarkCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	return stats, nil
}

// GetStatsFrom is GetStats with read marks counted in store, for when
// progress lives outside the SQLite file.
func (d *DB) GetStatsFrom(ctx context.Context, store ProgressStore) ([]ProviderStats, error) {
	stats, err := d.GetStats(ctx)
	if err != nil || store == nil || store == ProgressStore(d) {
		return stats, err
	}

	rows, err := d.sql.QueryContext(ctx, `SELECT id, provider FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	marks := make(map[string]int)
	for rows.Next() {
		var id, provider string
		if err := rows.Scan(&id, &provider); err != nil {
			return nil, err
		}
		p, err := store.ReadProgress(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading progress of %s: %w", id, err)
		}
		marks[provider] += len(p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}

	for i := range stats {
		stats[i].MarkCount = marks[stats[i].Provider]
	}
	return stats, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
