// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the metadata cache, citation analyses, and
// citation edges in a SQLite database.
//
// The metadata cache is the only state shared between analyses of
// different citing papers. Analyses are keyed by citing paper and replaced
// wholesale on every save.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const dbFile = "citations.db"

// ErrNotFound is returned when no analysis exists for a paper.
var ErrNotFound = errors.New("not found")

// Store manages the citation SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// NewStore opens or creates dataDir/citations.db and its schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS paper_metadata (
			arxiv_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			categories TEXT,
			published_date TEXT,
			updated_date TEXT,
			doi TEXT,
			journal_ref TEXT,
			comment TEXT,
			fetched_at TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS citation_analysis (
			arxiv_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			total_citations_found INTEGER NOT NULL,
			resolved_citations INTEGER NOT NULL,
			influence_score REAL NOT NULL,
			most_influential TEXT,
			most_relevant TEXT,
			most_cited_locally TEXT,
			relevance_metrics TEXT,
			computed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS citation_edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			citing_paper_id TEXT NOT NULL REFERENCES citation_analysis(arxiv_id) ON DELETE CASCADE,
			cited_paper_id TEXT NOT NULL,
			citation_key TEXT NOT NULL,
			citation_context TEXT,
			citation_command TEXT,
			raw_reference TEXT,
			confidence_score REAL,
			file_name TEXT,
			line_number INTEGER,
			resolved_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_citing ON citation_edges(citing_paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_cited ON citation_edges(cited_paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- metadata cache ---

// Get returns the cached metadata for id. ok is false on a miss. Staleness
// is the caller's decision; see types.PaperMetadata.Fresh.
func (s *Store) Get(ctx context.Context, id string) (*types.PaperMetadata, bool, error) {
	var (
		m                             types.PaperMetadata
		authors, categories           sql.NullString
		published, updated, fetchedAt string
		abstract, doi, jref, comment  sql.NullString
		active                        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT arxiv_id, title, authors, abstract, categories, published_date,
			updated_date, doi, journal_ref, comment, fetched_at, is_active
		FROM paper_metadata WHERE arxiv_id = ?`, id,
	).Scan(&m.ID, &m.Title, &authors, &abstract, &categories, &published,
		&updated, &doi, &jref, &comment, &fetchedAt, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached metadata for %s: %w", id, err)
	}

	m.Abstract = abstract.String
	m.DOI = doi.String
	m.JournalRef = jref.String
	m.Comment = comment.String
	m.Active = active != 0
	m.Authors = decodeStrings(authors.String)
	m.Categories = decodeStrings(categories.String)
	m.Published = parseTime(published)
	m.Updated = parseTime(updated)
	m.FetchedAt = parseTime(fetchedAt)
	return &m, true, nil
}

// Put inserts or replaces the cached metadata for meta.ID.
func (s *Store) Put(ctx context.Context, meta types.PaperMetadata) error {
	if meta.ID == "" {
		return fmt.Errorf("caching metadata: empty identifier")
	}
	fetched := meta.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paper_metadata (arxiv_id, title, authors, abstract, categories,
			published_date, updated_date, doi, journal_ref, comment, fetched_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(arxiv_id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
			categories=excluded.categories, published_date=excluded.published_date,
			updated_date=excluded.updated_date, doi=excluded.doi,
			journal_ref=excluded.journal_ref, comment=excluded.comment,
			fetched_at=excluded.fetched_at, is_active=excluded.is_active`,
		meta.ID, meta.Title, encodeStrings(meta.Authors), meta.Abstract,
		encodeStrings(meta.Categories), formatTime(meta.Published), formatTime(meta.Updated),
		meta.DOI, meta.JournalRef, meta.Comment, formatTime(fetched), boolInt(meta.Active),
	)
	if err != nil {
		return fmt.Errorf("caching metadata for %s: %w", meta.ID, err)
	}
	return nil
}

// CacheStats summarizes the metadata cache relative to now and ttl.
type CacheStats struct {
	Total  int       `json:"total" yaml:"total"`
	Fresh  int       `json:"fresh" yaml:"fresh"`
	Stale  int       `json:"stale" yaml:"stale"`
	Oldest time.Time `json:"oldest" yaml:"oldest"`
	Newest time.Time `json:"newest" yaml:"newest"`
}

// CacheStats counts fresh and stale cache entries.
func (s *Store) CacheStats(ctx context.Context, now time.Time, ttl time.Duration) (CacheStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fetched_at FROM paper_metadata`)
	if err != nil {
		return CacheStats{}, fmt.Errorf("reading cache: %w", err)
	}
	defer rows.Close()

	var st CacheStats
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return CacheStats{}, fmt.Errorf("scanning cache row: %w", err)
		}
		t := parseTime(raw)
		st.Total++
		if (types.PaperMetadata{FetchedAt: t}).Fresh(now, ttl) {
			st.Fresh++
		} else {
			st.Stale++
		}
		if st.Oldest.IsZero() || t.Before(st.Oldest) {
			st.Oldest = t
		}
		if t.After(st.Newest) {
			st.Newest = t
		}
	}
	return st, rows.Err()
}

// PurgeStale deletes cache entries fetched more than ttl before now and
// returns how many were removed.
func (s *Store) PurgeStale(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	cutoff := formatTime(now.Add(-ttl))
	res, err := s.db.ExecContext(ctx, `DELETE FROM paper_metadata WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging stale metadata: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- helpers ---

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func decodeStrings(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

// Times are stored as fixed-width UTC RFC 3339 strings so they compare
// lexically in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
