package survey

// QuestionType classifies how a question's answers are shaped in the raw
// matrix. It is resolved once from the metadata's type marker during
// normalization and stored on dim_questions.
type QuestionType string

const (
	// SingleChoice questions carry one value per respondent.
	SingleChoice QuestionType = "SC"
	// MultiChoice questions carry several values per respondent, joined
	// with the ";" delimiter.
	MultiChoice QuestionType = "MC"
)

// MultiChoiceDelimiter separates the selected options inside a multi-choice
// cell. Whitespace around each piece is trimmed after splitting.
const MultiChoiceDelimiter = ";"

// StructureOptions parameterizes SurveyStructure.
type StructureOptions struct {
	// SortBy orders the listing by one of: question_id, column_name,
	// question_text, type, num_answer_options. Empty means question_id.
	SortBy string
}

// SearchOptions parameterizes SearchQuestions.
type SearchOptions struct {
	// Term is matched case-insensitively as a substring of column_name
	// and question_text. An empty term matches all questions.
	Term string
}

// SubsetOptions parameterizes RespondentSubset.
type SubsetOptions struct {
	// Column names the question to filter on.
	Column string
	// Option is the exact answer value a respondent must have given.
	Option string
}

// DistributionOptions parameterizes AnswerDistribution.
type DistributionOptions struct {
	// Column names the question whose answers are counted.
	Column string
}
