package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/airdata/internal/manager"
)

const testData = `ResponseId,Age,Languages
1,25-34,Go;Python
2,25-34,Go
3,35-44,Rust
`

const testSchema = `column,question_text,type
Age,What is your age?,SC
Languages,Which languages do you use?,MC
`

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	baseDir := t.TempDir()
	datasetDir := filepath.Join(baseDir, "so2024")
	require.NoError(t, os.MkdirAll(datasetDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, manager.DefaultDataFile), []byte(testData), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, manager.DefaultSchemaFile), []byte(testSchema), 0o644))

	mgr := manager.NewManager(baseDir)
	t.Cleanup(mgr.CloseAll)

	return NewServer(mgr)
}

func do(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	srv.router.ServeHTTP(w, req)
	return w
}

type tableResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func decodeTable(t *testing.T, w *httptest.ResponseRecorder) tableResponse {
	t.Helper()
	var table tableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	return table
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListDatasets(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets")
	require.Equal(t, http.StatusOK, w.Code)

	var datasets []manager.DatasetMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &datasets))
	require.Len(t, datasets, 1)
	assert.Equal(t, "so2024", datasets[0].ID)
}

func TestStructureEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/structure")
	require.Equal(t, http.StatusOK, w.Code)

	table := decodeTable(t, w)
	assert.Len(t, table.Rows, 2)
	assert.Contains(t, table.Columns, "num_answer_options")
}

func TestStructureInvalidSortField(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/structure?sort_by=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/search?q=language")
	require.Equal(t, http.StatusOK, w.Code)

	table := decodeTable(t, w)
	assert.Len(t, table.Rows, 1)
}

func TestSubsetEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/subset?column=Languages&option=Go")
	require.Equal(t, http.StatusOK, w.Code)

	table := decodeTable(t, w)
	assert.Len(t, table.Rows, 2)
}

func TestSubsetMissingColumnParam(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/subset?option=Go")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDistributionEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/distribution?column=Age")
	require.Equal(t, http.StatusOK, w.Code)

	table := decodeTable(t, w)
	require.Len(t, table.Rows, 2)
	// JSON numbers decode as float64; 25-34 leads with two responses.
	assert.Equal(t, "25-34", table.Rows[0][0])
	assert.EqualValues(t, 2, table.Rows[0][1])
}

func TestDistributionUnknownColumn(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/so2024/distribution?column=DoesNotExist")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingDataset(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "/v1/datasets/nope/structure")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
