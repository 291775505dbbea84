package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore talks to the videos table directly, for deployments that
// expose a database connection string instead of (or next to) the REST API.
type PostgresStore struct {
	db    *sql.DB
	dsn   string
	table string
}

// NewPostgresStore constructs a store; call Connect before use.
func NewPostgresStore(dsn, table string) *PostgresStore {
	return &PostgresStore{dsn: dsn, table: table}
}

// NewPostgresStoreFromDB wraps an already opened handle
func NewPostgresStoreFromDB(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

// Connect opens the pool and verifies connectivity
func (s *PostgresStore) Connect(ctx context.Context) error {
	if s.dsn == "" {
		return fmt.Errorf("database_url is required for the postgres store")
	}

	// Pooled Supabase connections reject named prepared statements.
	dsn := addConnectionParam(s.dsn, "statement_cache_capacity", "0")
	dsn = addConnectionParam(dsn, "default_query_exec_mode", "simple_protocol")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying handle
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) tableIdent() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// Transcript implements TranscriptStore
func (s *PostgresStore) Transcript(ctx context.Context, videoID string) (string, error) {
	var transcript sql.NullString
	query := fmt.Sprintf("SELECT transcript FROM %s WHERE id = $1", s.tableIdent())
	err := s.db.QueryRowContext(ctx, query, videoID).Scan(&transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	if err != nil {
		return "", fmt.Errorf("selecting transcript: %w", err)
	}
	return strings.TrimSpace(transcript.String), nil
}

// SaveTranscript implements TranscriptStore. The update only applies while the
// row has no transcript, so concurrent writers from other processes cannot
// overwrite an existing one. Losing that race is not an error: the row holds
// an authoritative transcript either way.
func (s *PostgresStore) SaveTranscript(ctx context.Context, videoID, transcript string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET transcript = $1 WHERE id = $2 AND (transcript IS NULL OR btrim(transcript) = '')",
		s.tableIdent())
	res, err := s.db.ExecContext(ctx, query, transcript, videoID)
	if err != nil {
		return fmt.Errorf("updating transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	existing, err := s.Transcript(ctx, videoID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if existing == "" {
		return fmt.Errorf("%w: no row updated for %s", ErrPersistence, videoID)
	}
	return nil
}

// Video implements VideoCatalog
func (s *PostgresStore) Video(ctx context.Context, videoID string) (*Video, error) {
	query := fmt.Sprintf(
		"SELECT id::text, video_url, coalesce(title, ''), coalesce(description, ''), transcript FROM %s WHERE id = $1",
		s.tableIdent())

	var (
		v          Video
		transcript sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, videoID).Scan(&v.ID, &v.VideoURL, &v.Title, &v.Description, &transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting video: %w", err)
	}
	if transcript.Valid {
		v.Transcript = &transcript.String
	}
	return &v, nil
}

// addConnectionParam adds a query parameter to the connection string if not already present
func addConnectionParam(connStr, key, value string) string {
	if strings.Contains(connStr, key+"=") {
		return connStr
	}
	separator := "?"
	if strings.Contains(connStr, "?") {
		separator = "&"
	}
	return connStr + separator + key + "=" + value
}
