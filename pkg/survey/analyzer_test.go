package survey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
)

// writeFixture writes a CSV into a temp dir and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// openFixture builds an analyzer over inline CSV content.
func openFixture(t *testing.T, data, schema, idColumn string) *Analyzer {
	t.Helper()
	a, err := Open(Options{
		DataFile:   writeFixture(t, "data.csv", data),
		SchemaFile: writeFixture(t, "schema.csv", schema),
		IDColumn:   idColumn,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// scalarInt runs a single-value query against the analyzer's session.
func scalarInt(t *testing.T, a *Analyzer, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, a.db.QueryRow(query, args...).Scan(&n))
	return n
}

const scenarioData = `RespondentId,Age,Languages
1,25-34,Python;Go
`

const scenarioSchema = `column,question_text,type
Age,What is your age?,SC
Languages,Which languages do you use?,MC
`

func TestOpenBundledSample(t *testing.T) {
	a, err := Open(Options{})
	require.NoError(t, err)
	defer a.Close()

	structure, err := a.SurveyStructure(StructureOptions{})
	require.NoError(t, err)
	assert.Equal(t, 10, structure.Len())

	respondents := scalarInt(t, a, `SELECT COUNT(*) FROM dim_respondents`)
	assert.Equal(t, 30, respondents)
}

func TestOpenUnreadableSource(t *testing.T) {
	_, err := Open(Options{
		DataFile:   "/nonexistent/data.csv",
		SchemaFile: writeFixture(t, "schema.csv", scenarioSchema),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLoad)
}

func TestOpenMissingIDColumn(t *testing.T) {
	data := "Age,Languages\n25-34,Go\n"
	_, err := Open(Options{
		DataFile:   writeFixture(t, "data.csv", data),
		SchemaFile: writeFixture(t, "schema.csv", scenarioSchema),
		IDColumn:   "RespondentId",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLoad)
}

func TestOpenMissingMetadataColumns(t *testing.T) {
	schema := "column,label\nAge,age\n"
	_, err := Open(Options{
		DataFile:   writeFixture(t, "data.csv", scenarioData),
		SchemaFile: writeFixture(t, "schema.csv", schema),
		IDColumn:   "RespondentId",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLoad)
}

func TestCloseIsIdempotent(t *testing.T) {
	a := openFixture(t, scenarioData, scenarioSchema, "RespondentId")

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestOperationsAfterCloseFail(t *testing.T) {
	a := openFixture(t, scenarioData, scenarioSchema, "RespondentId")
	require.NoError(t, a.Close())

	_, err := a.SurveyStructure(StructureOptions{})
	assert.ErrorIs(t, err, apperrors.ErrClosed)

	_, err = a.SearchQuestions(SearchOptions{Term: "age"})
	assert.ErrorIs(t, err, apperrors.ErrClosed)

	_, err = a.RespondentSubset(SubsetOptions{Column: "Age", Option: "25-34"})
	assert.ErrorIs(t, err, apperrors.ErrClosed)

	_, err = a.AnswerDistribution(DistributionOptions{Column: "Age"})
	assert.ErrorIs(t, err, apperrors.ErrClosed)
}
