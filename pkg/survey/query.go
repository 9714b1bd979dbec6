package survey

import (
	"fmt"
	"strings"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
)

// structureSortFields whitelists the sort keys SurveyStructure accepts.
var structureSortFields = map[string]bool{
	"question_id":        true,
	"column_name":        true,
	"question_text":      true,
	"type":               true,
	"num_answer_options": true,
}

// SurveyStructure lists one row per question with its answer-option count
// (distinct responses in the matching fact table). The listing is ordered by
// opts.SortBy when given, else by question_id ascending.
func (a *Analyzer) SurveyStructure(opts StructureOptions) (*Table, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "question_id"
	}
	if !structureSortFields[sortBy] {
		return nil, fmt.Errorf("%w: %q is not a question attribute", apperrors.ErrInvalidSortField, opts.SortBy)
	}

	// question_id breaks ties so ordering stays total for any sort key.
	query := fmt.Sprintf(`
		WITH option_counts AS (
			SELECT question_id, COUNT(DISTINCT response) AS n FROM fact_responses_sc GROUP BY question_id
			UNION ALL
			SELECT question_id, COUNT(DISTINCT response) AS n FROM fact_responses_mc GROUP BY question_id
		)
		SELECT q.question_id, q.column_name, q.question_text, q.type,
		       COALESCE(c.n, 0) AS num_answer_options
		FROM dim_questions q
		LEFT JOIN option_counts c ON c.question_id = q.question_id
		ORDER BY %s, q.question_id`, quoteIdent(sortBy))

	rows, err := a.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing survey structure: %w", err)
	}
	return scanTable(rows)
}

// SearchQuestions matches the term case-insensitively as a substring of
// column_name and question_text. An empty term matches every question.
func (a *Analyzer) SearchQuestions(opts SearchOptions) (*Table, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(opts.Term) + "%"
	rows, err := a.db.Query(`
		SELECT question_id, column_name, question_text, type
		FROM dim_questions
		WHERE lower(column_name) LIKE ? OR lower(COALESCE(question_text, '')) LIKE ?
		ORDER BY question_id`,
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching questions: %w", err)
	}
	return scanTable(rows)
}

// RespondentSubset returns the dim_respondents rows of everyone who gave
// exactly opts.Option for the question named by opts.Column. For a
// multi-choice question any one of the selected options may match.
func (a *Analyzer) RespondentSubset(opts SubsetOptions) (*Table, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}

	info, err := a.resolveQuestion(opts.Column)
	if err != nil {
		return nil, err
	}

	factTable := "fact_responses_sc"
	if info.qtype == MultiChoice {
		factTable = "fact_responses_mc"
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT r.*
		FROM dim_respondents r
		JOIN %s f ON f.respondent_id = r.respondent_id
		WHERE f.question_id = ? AND f.response = ?
		ORDER BY r.respondent_id`, factTable)

	rows, err := a.db.Query(query, info.id, opts.Option)
	if err != nil {
		return nil, fmt.Errorf("selecting respondent subset: %w", err)
	}
	return scanTable(rows)
}

// AnswerDistribution groups the fact rows of one question by response and
// returns (answer_value, response_count, percentage, type) ordered by count
// descending, ties by answer_value ascending. Percentages are computed over
// the respondents who answered, so a multi-choice distribution need not sum
// to 100.
func (a *Analyzer) AnswerDistribution(opts DistributionOptions) (*Table, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}

	info, err := a.resolveQuestion(opts.Column)
	if err != nil {
		return nil, err
	}

	factTable := "fact_responses_sc"
	if info.qtype == MultiChoice {
		factTable = "fact_responses_mc"
	}

	query := fmt.Sprintf(`
		SELECT f.response AS answer_value,
		       COUNT(*) AS response_count,
		       COUNT(*) * 100.0 / (
		           SELECT COUNT(DISTINCT respondent_id) FROM %[1]s WHERE question_id = ?
		       ) AS percentage,
		       %[2]s AS type
		FROM %[1]s f
		WHERE f.question_id = ?
		GROUP BY f.response
		ORDER BY response_count DESC, answer_value ASC`, factTable, quoteLiteral(string(info.qtype)))

	rows, err := a.db.Query(query, info.id, info.id)
	if err != nil {
		return nil, fmt.Errorf("computing answer distribution: %w", err)
	}
	return scanTable(rows)
}

// resolveQuestion maps a column name to its question. Unknown names carry
// nearest-column suggestions to keep interactive use forgiving.
func (a *Analyzer) resolveQuestion(column string) (questionInfo, error) {
	if info, ok := a.questions[column]; ok {
		return info, nil
	}

	candidates := make([]string, 0, len(a.questions))
	for name := range a.questions {
		candidates = append(candidates, name)
	}
	if suggestions := suggestColumns(column, candidates); len(suggestions) > 0 {
		return questionInfo{}, fmt.Errorf("%w: %q (did you mean: %s?)",
			apperrors.ErrUnknownColumn, column, strings.Join(suggestions, ", "))
	}
	return questionInfo{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownColumn, column)
}
