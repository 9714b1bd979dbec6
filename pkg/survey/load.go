package survey

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
)

//go:embed so_data/so_2024_sample.csv so_data/so_2024_raw_schema.csv
var sampleFS embed.FS

const (
	sampleDataFile   = "so_data/so_2024_sample.csv"
	sampleSchemaFile = "so_data/so_2024_raw_schema.csv"
)

// Required columns of the question-metadata table.
const (
	metaColumnName   = "column"
	metaQuestionText = "question_text"
	metaType         = "type"
)

// stage loads both raw inputs into staging tables without transformation.
// DuckDB's read_csv_auto does the parsing, exactly one table per source.
func (a *Analyzer) stage() error {
	dataFile, schemaFile := a.opts.DataFile, a.opts.SchemaFile
	if dataFile == "" || schemaFile == "" {
		var err error
		dataFile, schemaFile, err = a.materializeSample(dataFile, schemaFile)
		if err != nil {
			return err
		}
	}

	if err := a.stageCSV("survey_schema", schemaFile); err != nil {
		return err
	}
	if err := a.stageCSV("survey_data", dataFile); err != nil {
		return err
	}

	return a.validateStaging()
}

func (a *Analyzer) stageCSV(table, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: source %q is unreadable: %v", apperrors.ErrLoad, path, err)
	}
	stmt := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s)`,
		quoteIdent(table), quoteLiteral(path))
	if _, err := a.db.Exec(stmt); err != nil {
		return fmt.Errorf("%w: staging %s from %q: %v", apperrors.ErrLoad, table, path, err)
	}
	return nil
}

// validateStaging checks the required columns of both staging tables:
// the identifier column in the answer matrix, and the name/text/type
// triple in the metadata table.
func (a *Analyzer) validateStaging() error {
	schemaCols, err := a.tableColumns("survey_schema")
	if err != nil {
		return err
	}
	for _, required := range []string{metaColumnName, metaQuestionText, metaType} {
		if !contains(schemaCols, required) {
			return fmt.Errorf("%w: metadata table is missing required column %q", apperrors.ErrLoad, required)
		}
	}

	dataCols, err := a.tableColumns("survey_data")
	if err != nil {
		return err
	}
	if !contains(dataCols, a.opts.IDColumn) {
		return fmt.Errorf("%w: answer matrix is missing identifier column %q", apperrors.ErrLoad, a.opts.IDColumn)
	}
	return nil
}

// materializeSample writes the embedded sample CSVs to a temp dir so that
// read_csv_auto can reach them. The dir lives until Close.
func (a *Analyzer) materializeSample(dataFile, schemaFile string) (string, string, error) {
	dir, err := os.MkdirTemp("", "airdata-sample")
	if err != nil {
		return "", "", fmt.Errorf("%w: creating sample data dir: %v", apperrors.ErrLoad, err)
	}
	a.tmpDir = dir

	write := func(name string) (string, error) {
		content, err := sampleFS.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("%w: reading bundled %s: %v", apperrors.ErrLoad, name, err)
		}
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return "", fmt.Errorf("%w: writing %s: %v", apperrors.ErrLoad, path, err)
		}
		return path, nil
	}

	if dataFile == "" {
		if dataFile, err = write(sampleDataFile); err != nil {
			return "", "", err
		}
	}
	if schemaFile == "" {
		if schemaFile, err = write(sampleSchemaFile); err != nil {
			return "", "", err
		}
	}
	return dataFile, schemaFile, nil
}

// tableColumns returns the column names of a staged table in ordinal order.
func (a *Analyzer) tableColumns(table string) ([]string, error) {
	rows, err := a.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		table)
	if err != nil {
		return nil, fmt.Errorf("%w: describing %s: %v", apperrors.ErrLoad, table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: describing %s: %v", apperrors.ErrLoad, table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: describing %s: %v", apperrors.ErrLoad, table, err)
	}
	return cols, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// quoteIdent double-quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes an SQL string literal.
func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
