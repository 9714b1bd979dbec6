// Package survey reshapes a raw survey dataset (answer matrix + question
// metadata) into a star schema inside an embedded DuckDB session and exposes
// read-only analytical operations over it.
//
// The pipeline runs once, at construction:
//
//	raw CSVs -> staging tables (survey_data, survey_schema)
//	         -> dimensions (dim_questions, dim_respondents)
//	         -> facts (fact_responses_sc, fact_responses_mc)
//
// After construction the schema is immutable; every exported query operation
// is a pure read. An Analyzer owns exactly one database session and is not
// safe for concurrent use — callers needing concurrency serialize access or
// construct one Analyzer per thread of control.
package survey

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/marcboeker/go-duckdb"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
)

// DefaultIDColumn is the respondent-identifier column assumed when Options
// does not name one. It matches the bundled Stack Overflow sample data.
const DefaultIDColumn = "ResponseId"

// Options configures an Analyzer. Zero values fall back to the bundled
// sample dataset and the default identifier column.
type Options struct {
	// DataFile is the path to the answer-matrix CSV (header row + one row
	// per respondent). Empty means "use bundled sample data".
	DataFile string
	// SchemaFile is the path to the question-metadata CSV with columns
	// "column", "question_text" and "type". Empty means "use bundled
	// sample data".
	SchemaFile string
	// IDColumn names the respondent-identifier column in the answer
	// matrix. Defaults to DefaultIDColumn.
	IDColumn string
}

// Analyzer owns a single in-memory DuckDB session holding the star schema.
type Analyzer struct {
	opts Options
	db   *sql.DB

	// columns resolved once during normalization; never re-inferred.
	questions    map[string]questionInfo
	demographics []string

	// tmpDir holds CSVs materialized from the embedded sample data.
	tmpDir string
	closed bool
}

type questionInfo struct {
	id    int
	qtype QuestionType
}

// Open constructs an Analyzer: it opens the database session, stages both
// inputs and materializes the star schema. On any failure the session is
// released before returning.
func Open(opts Options) (*Analyzer, error) {
	if opts.IDColumn == "" {
		opts.IDColumn = DefaultIDColumn
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("%w: opening duckdb session: %v", apperrors.ErrLoad, err)
	}

	a := &Analyzer{
		opts:      opts,
		db:        db,
		questions: make(map[string]questionInfo),
	}

	if err := a.stage(); err != nil {
		a.teardown()
		return nil, err
	}
	if err := a.normalize(); err != nil {
		a.teardown()
		return nil, err
	}

	slog.Debug("analyzer ready",
		"questions", len(a.questions),
		"demographics", len(a.demographics))
	return a, nil
}

// Close releases the database session. It is safe to call more than once;
// only the first call has an effect. Any operation after Close returns
// ErrClosed.
func (a *Analyzer) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.teardown()
}

func (a *Analyzer) teardown() error {
	if a.tmpDir != "" {
		if err := os.RemoveAll(a.tmpDir); err != nil {
			slog.Warn("failed to remove sample data dir", "dir", a.tmpDir, "error", err)
		}
		a.tmpDir = ""
	}
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ensureOpen guards every operation against use after teardown.
func (a *Analyzer) ensureOpen() error {
	if a.closed {
		return apperrors.ErrClosed
	}
	return nil
}
