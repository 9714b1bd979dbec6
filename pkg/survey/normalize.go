package survey

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
)

// metaRow is one question declaration from the metadata staging table.
type metaRow struct {
	column string
	text   string
	qtype  QuestionType
}

// normalize materializes the star schema from the two staging tables:
//
//  1. dim_questions: one row per metadata column, surrogate keys in
//     first-seen metadata order, type taken from the explicit marker.
//  2. dim_respondents: one row per input row, surrogate keys in input row
//     order, carrying the data columns no metadata row claims.
//  3. fact_responses_sc: one row per non-empty single-choice cell.
//  4. fact_responses_mc: one row per trimmed non-empty piece of each
//     multi-choice cell, split on the ";" delimiter.
//
// Absence of a fact row — not a null — represents "no answer".
func (a *Analyzer) normalize() error {
	meta, err := a.readMetadata()
	if err != nil {
		return err
	}

	dataCols, err := a.tableColumns("survey_data")
	if err != nil {
		return err
	}
	colIndex := make(map[string]int, len(dataCols))
	for i, c := range dataCols {
		colIndex[c] = i
	}

	// Metadata rows without a matching data column are dropped with a
	// diagnostic; they never reach dim_questions.
	questions := make([]metaRow, 0, len(meta))
	claimed := make(map[string]bool, len(meta))
	for _, m := range meta {
		if _, ok := colIndex[m.column]; !ok {
			slog.Warn("metadata question has no matching data column, dropping",
				"column", m.column)
			continue
		}
		questions = append(questions, m)
		claimed[m.column] = true
	}

	// Unclaimed data columns ride along on dim_respondents.
	var demographics []string
	for _, c := range dataCols {
		if c == a.opts.IDColumn || claimed[c] {
			continue
		}
		demographics = append(demographics, c)
	}
	a.demographics = demographics

	if err := a.createStarSchema(demographics); err != nil {
		return err
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning normalization transaction: %v", apperrors.ErrSchema, err)
	}
	defer tx.Rollback()

	if err := a.insertQuestions(tx, questions); err != nil {
		return err
	}
	if err := a.insertRespondentsAndFacts(tx, questions, demographics, colIndex); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing star schema: %v", apperrors.ErrSchema, err)
	}
	return nil
}

// readMetadata scans the metadata staging table in its natural (first-seen)
// order, validating the type markers and rejecting duplicate column names.
func (a *Analyzer) readMetadata() ([]metaRow, error) {
	rows, err := a.db.Query(fmt.Sprintf(`SELECT %s, %s, %s FROM survey_schema`,
		quoteIdent(metaColumnName), quoteIdent(metaQuestionText), quoteIdent(metaType)))
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %v", apperrors.ErrSchema, err)
	}
	defer rows.Close()

	var meta []metaRow
	seen := make(map[string]bool)
	for rows.Next() {
		var column, text, marker sql.NullString
		if err := rows.Scan(&column, &text, &marker); err != nil {
			return nil, fmt.Errorf("%w: reading metadata: %v", apperrors.ErrSchema, err)
		}
		name := strings.TrimSpace(column.String)
		if name == "" {
			return nil, fmt.Errorf("%w: metadata row with empty column name", apperrors.ErrSchema)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column name %q in metadata", apperrors.ErrSchema, name)
		}
		seen[name] = true

		qtype, err := classify(marker)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", apperrors.ErrSchema, name, err)
		}
		meta = append(meta, metaRow{column: name, text: text.String, qtype: qtype})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %v", apperrors.ErrSchema, err)
	}
	return meta, nil
}

// classify resolves the explicit metadata type marker. The type is never
// inferred from the answer data.
func classify(marker sql.NullString) (QuestionType, error) {
	if !marker.Valid {
		return "", fmt.Errorf("missing type classification marker")
	}
	switch strings.ToUpper(strings.TrimSpace(marker.String)) {
	case string(SingleChoice):
		return SingleChoice, nil
	case string(MultiChoice):
		return MultiChoice, nil
	default:
		return "", fmt.Errorf("unrecognized type marker %q", marker.String)
	}
}

func (a *Analyzer) createStarSchema(demographics []string) error {
	respondentCols := make([]string, 0, len(demographics)+1)
	respondentCols = append(respondentCols, "respondent_id INTEGER PRIMARY KEY")
	for _, c := range demographics {
		respondentCols = append(respondentCols, quoteIdent(c)+" VARCHAR")
	}

	ddl := []string{
		`CREATE TABLE dim_questions (
			question_id INTEGER PRIMARY KEY,
			column_name VARCHAR NOT NULL UNIQUE,
			question_text VARCHAR,
			type VARCHAR NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE dim_respondents (%s)`, strings.Join(respondentCols, ", ")),
		`CREATE TABLE fact_responses_sc (
			respondent_id INTEGER NOT NULL,
			question_id INTEGER NOT NULL,
			response VARCHAR NOT NULL
		)`,
		`CREATE TABLE fact_responses_mc (
			respondent_id INTEGER NOT NULL,
			question_id INTEGER NOT NULL,
			response VARCHAR NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating star schema: %v", apperrors.ErrSchema, err)
		}
	}
	return nil
}

func (a *Analyzer) insertQuestions(tx *sql.Tx, questions []metaRow) error {
	stmt, err := tx.Prepare(`INSERT INTO dim_questions (question_id, column_name, question_text, type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing dim_questions insert: %v", apperrors.ErrSchema, err)
	}
	defer stmt.Close()

	for i, q := range questions {
		id := i + 1
		if _, err := stmt.Exec(id, q.column, q.text, string(q.qtype)); err != nil {
			return fmt.Errorf("%w: inserting question %q: %v", apperrors.ErrSchema, q.column, err)
		}
		a.questions[q.column] = questionInfo{id: id, qtype: q.qtype}
	}
	return nil
}

// insertRespondentsAndFacts walks the answer matrix once. Each input row
// becomes one dim_respondents row; each answered question cell becomes one
// fact_responses_sc row or several fact_responses_mc rows.
func (a *Analyzer) insertRespondentsAndFacts(tx *sql.Tx, questions []metaRow, demographics []string, colIndex map[string]int) error {
	matrix, err := a.readMatrix()
	if err != nil {
		return err
	}

	placeholders := make([]string, len(demographics)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	respStmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO dim_respondents VALUES (%s)`,
		strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("%w: preparing dim_respondents insert: %v", apperrors.ErrSchema, err)
	}
	defer respStmt.Close()

	scStmt, err := tx.Prepare(`INSERT INTO fact_responses_sc (respondent_id, question_id, response) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing fact_responses_sc insert: %v", apperrors.ErrSchema, err)
	}
	defer scStmt.Close()

	mcStmt, err := tx.Prepare(`INSERT INTO fact_responses_mc (respondent_id, question_id, response) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing fact_responses_mc insert: %v", apperrors.ErrSchema, err)
	}
	defer mcStmt.Close()

	for rowNum, row := range matrix {
		// Surrogate keys follow input row order, starting at 1.
		respondentID := rowNum + 1

		args := make([]any, 0, len(demographics)+1)
		args = append(args, respondentID)
		for _, col := range demographics {
			value, ok := cellString(row[colIndex[col]])
			if !ok {
				args = append(args, nil)
			} else {
				args = append(args, value)
			}
		}
		if _, err := respStmt.Exec(args...); err != nil {
			return fmt.Errorf("%w: inserting respondent %d: %v", apperrors.ErrSchema, respondentID, err)
		}

		for _, q := range questions {
			raw, ok := cellString(row[colIndex[q.column]])
			if !ok {
				continue
			}
			info := a.questions[q.column]
			switch q.qtype {
			case SingleChoice:
				response := strings.TrimSpace(raw)
				if response == "" {
					continue
				}
				if strings.Contains(response, MultiChoiceDelimiter) {
					// Malformed single-choice data: keep the value
					// verbatim, never split it.
					slog.Warn("single-choice cell contains the multi-choice delimiter",
						"column", q.column, "respondent_id", respondentID)
				}
				if _, err := scStmt.Exec(respondentID, info.id, response); err != nil {
					return fmt.Errorf("%w: inserting single-choice response: %v", apperrors.ErrSchema, err)
				}
			case MultiChoice:
				for _, piece := range strings.Split(raw, MultiChoiceDelimiter) {
					option := strings.TrimSpace(piece)
					if option == "" {
						continue
					}
					if _, err := mcStmt.Exec(respondentID, info.id, option); err != nil {
						return fmt.Errorf("%w: inserting multi-choice response: %v", apperrors.ErrSchema, err)
					}
				}
			}
		}
	}
	return nil
}

// readMatrix loads the staged answer matrix into memory in its natural row
// order, so that fact inserts do not interleave with an open cursor.
func (a *Analyzer) readMatrix() ([][]any, error) {
	rows, err := a.db.Query(`SELECT * FROM survey_data`)
	if err != nil {
		return nil, fmt.Errorf("%w: reading answer matrix: %v", apperrors.ErrSchema, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: reading answer matrix: %v", apperrors.ErrSchema, err)
	}

	var matrix [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: reading answer matrix: %v", apperrors.ErrSchema, err)
		}
		matrix = append(matrix, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading answer matrix: %v", apperrors.ErrSchema, err)
	}
	return matrix, nil
}

// cellString renders a raw cell as text. read_csv_auto may have typed the
// column as something other than VARCHAR.
func cellString(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, true
	case []byte:
		return string(value), true
	default:
		return fmt.Sprintf("%v", value), true
	}
}
