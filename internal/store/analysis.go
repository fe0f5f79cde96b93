// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// RankedList names one of the stored ranked lists.
type RankedList string

const (
	ListInfluential RankedList = "influential"
	ListRelevant    RankedList = "relevant"
	ListCited       RankedList = "cited"
)

// SaveAnalysis replaces the analysis record and citation edges for
// rec.PaperID in one transaction. Concurrent saves for the same paper race;
// the last commit wins.
func (s *Store) SaveAnalysis(ctx context.Context, rec types.AnalysisRecord, edges []types.CitationEdge) error {
	influential, err := json.Marshal(nonNil(rec.MostInfluential))
	if err != nil {
		return fmt.Errorf("encoding influential list: %w", err)
	}
	relevant, err := json.Marshal(nonNil(rec.MostRelevant))
	if err != nil {
		return fmt.Errorf("encoding relevant list: %w", err)
	}
	cited, err := json.Marshal(nonNil(rec.MostCitedLocally))
	if err != nil {
		return fmt.Errorf("encoding cited list: %w", err)
	}
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO citation_analysis (arxiv_id, run_id, total_citations_found,
			resolved_citations, influence_score, most_influential, most_relevant,
			most_cited_locally, relevance_metrics, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(arxiv_id) DO UPDATE SET
			run_id=excluded.run_id, total_citations_found=excluded.total_citations_found,
			resolved_citations=excluded.resolved_citations, influence_score=excluded.influence_score,
			most_influential=excluded.most_influential, most_relevant=excluded.most_relevant,
			most_cited_locally=excluded.most_cited_locally,
			relevance_metrics=excluded.relevance_metrics, computed_at=excluded.computed_at`,
		rec.PaperID, rec.RunID, rec.TotalCitations, rec.ResolvedCitations, rec.InfluenceScore,
		string(influential), string(relevant), string(cited), string(summary),
		formatTime(rec.ComputedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting analysis: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM citation_edges WHERE citing_paper_id = ?`, rec.PaperID); err != nil {
		return fmt.Errorf("deleting old edges: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citation_edges (citing_paper_id, cited_paper_id, citation_key,
			citation_context, citation_command, raw_reference, confidence_score,
			file_name, line_number, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		_, err := stmt.ExecContext(ctx,
			rec.PaperID, e.CitedPaperID, e.CitationKey, e.Context, e.Command,
			e.RawReference, e.ConfidenceScore, e.FileName, e.LineNumber,
			formatTime(e.ResolvedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s → %s: %w", e.CitationKey, e.CitedPaperID, err)
		}
	}

	return tx.Commit()
}

// LoadAnalysis returns the stored record for paperID, or ErrNotFound.
func (s *Store) LoadAnalysis(ctx context.Context, paperID string) (*types.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT arxiv_id, run_id, total_citations_found, resolved_citations,
			influence_score, most_influential, most_relevant, most_cited_locally,
			relevance_metrics, computed_at
		FROM citation_analysis WHERE arxiv_id = ?`, paperID)
	rec, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis for %s: %w", paperID, ErrNotFound)
	}
	return rec, err
}

// ListAnalyses returns every stored record ordered by paper ID.
func (s *Store) ListAnalyses(ctx context.Context) ([]types.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT arxiv_id, run_id, total_citations_found, resolved_citations,
			influence_score, most_influential, most_relevant, most_cited_locally,
			relevance_metrics, computed_at
		FROM citation_analysis ORDER BY arxiv_id`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []types.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// TopPapers returns the first limit entries of a stored ranked list. A
// non-positive limit returns the whole list.
func (s *Store) TopPapers(ctx context.Context, paperID string, list RankedList, limit int) ([]types.RankedPaper, error) {
	rec, err := s.LoadAnalysis(ctx, paperID)
	if err != nil {
		return nil, err
	}
	var papers []types.RankedPaper
	switch list {
	case ListInfluential, "":
		papers = rec.MostInfluential
	case ListRelevant:
		papers = rec.MostRelevant
	case ListCited:
		papers = rec.MostCitedLocally
	default:
		return nil, fmt.Errorf("unknown ranked list %q: use influential, relevant, or cited", list)
	}
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// Edges returns the stored citation edges of a citing paper in insertion order.
func (s *Store) Edges(ctx context.Context, paperID string) ([]types.CitationEdge, error) {
	return s.queryEdges(ctx, `WHERE citing_paper_id = ? ORDER BY id`, paperID)
}

// CitedBy returns the edges from any analyzed paper to citedID.
func (s *Store) CitedBy(ctx context.Context, citedID string) ([]types.CitationEdge, error) {
	return s.queryEdges(ctx, `WHERE cited_paper_id = ? ORDER BY citing_paper_id, id`, citedID)
}

func (s *Store) queryEdges(ctx context.Context, where string, arg any) ([]types.CitationEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT citing_paper_id, cited_paper_id, citation_key, citation_context,
			citation_command, raw_reference, confidence_score, file_name,
			line_number, resolved_at
		FROM citation_edges `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var out []types.CitationEdge
	for rows.Next() {
		var (
			e        types.CitationEdge
			resolved string
		)
		if err := rows.Scan(&e.CitingPaperID, &e.CitedPaperID, &e.CitationKey, &e.Context,
			&e.Command, &e.RawReference, &e.ConfidenceScore, &e.FileName,
			&e.LineNumber, &resolved); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.ResolvedAt = parseTime(resolved)
		out = append(out, e)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*types.AnalysisRecord, error) {
	var (
		rec                                   types.AnalysisRecord
		influential, relevant, cited, summary sql.NullString
		computed                              string
	)
	err := row.Scan(&rec.PaperID, &rec.RunID, &rec.TotalCitations, &rec.ResolvedCitations,
		&rec.InfluenceScore, &influential, &relevant, &cited, &summary, &computed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning analysis: %w", err)
	}

	decode := func(name, data string, dst any) error {
		if data == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return fmt.Errorf("decoding %s for %s: %w", name, rec.PaperID, err)
		}
		return nil
	}
	if err := decode("influential list", influential.String, &rec.MostInfluential); err != nil {
		return nil, err
	}
	if err := decode("relevant list", relevant.String, &rec.MostRelevant); err != nil {
		return nil, err
	}
	if err := decode("cited list", cited.String, &rec.MostCitedLocally); err != nil {
		return nil, err
	}
	if err := decode("summary", summary.String, &rec.Summary); err != nil {
		return nil, err
	}
	rec.ComputedAt = parseTime(computed)
	return &rec, nil
}

func nonNil(p []types.RankedPaper) []types.RankedPaper {
	if p == nil {
		return []types.RankedPaper{}
	}
	return p
}
