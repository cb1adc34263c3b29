// Package db keeps browser sessions in a SQL table (sqlite3 or postgres).
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"smartlocker-web/internal/models"
)

type DB struct {
	*sql.DB
	driver string
}

func Init(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if driver == "sqlite3" {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{DB: db, driver: driver}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			user_data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// rebind rewrites ? placeholders as $1, $2... for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SessionStore is a keyed session backend over the sessions table.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Get returns nil for unknown keys and for rows whose user data no longer
// decodes.
func (s *SessionStore) Get(ctx context.Context, key string) (*models.Session, error) {
	query := s.db.rebind("SELECT access_token, refresh_token, user_data FROM sessions WHERE id = ?")
	var access, refresh, userData string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&access, &refresh, &userData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var u models.User
	if err := json.Unmarshal([]byte(userData), &u); err != nil {
		return nil, nil
	}
	sess := &models.Session{AccessToken: access, RefreshToken: refresh, User: &u}
	if sess.Validate() != nil {
		return nil, nil
	}
	return sess, nil
}

func (s *SessionStore) Put(ctx context.Context, key string, sess *models.Session) error {
	userData, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	query := s.db.rebind(`INSERT INTO sessions (id, access_token, refresh_token, user_data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			user_data = excluded.user_data,
			updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, sess.AccessToken, sess.RefreshToken, string(userData), time.Now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	query := s.db.rebind("DELETE FROM sessions WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Prune removes sessions not written since before. It returns the number of
// rows removed.
func (s *SessionStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := s.db.rebind("DELETE FROM sessions WHERE updated_at < ?")
	res, err := s.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}
