// Package manager opens and caches survey analyzers for the server mode.
// One analyzer per dataset directory, at most MaxOpenAnalyzers at a time.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	apperrors "github.com/duynguyendang/airdata/pkg/common/errors"
	"github.com/duynguyendang/airdata/pkg/survey"
)

// DatasetMetadata represents the dataset information exposed by the API.
type DatasetMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Manifest is the optional dataset.yaml inside a dataset directory. It names
// the two CSVs and the respondent-identifier column; missing fields fall
// back to the conventional defaults.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DataFile    string `yaml:"data_file"`
	SchemaFile  string `yaml:"schema_file"`
	IDColumn    string `yaml:"id_column"`
}

const (
	ManifestFile      = "dataset.yaml"
	DefaultDataFile   = "data.csv"
	DefaultSchemaFile = "schema.csv"

	MaxOpenAnalyzers = 10
	DatasetListTTL   = 1 * time.Minute
)

// Manager caches open survey.Analyzer instances per dataset directory.
// Evicted analyzers are closed; queries against them after eviction fail
// with the analyzer's own closed error, so callers re-fetch from the
// manager per request.
type Manager struct {
	baseDir       string
	analyzers     *lru.Cache[string, *survey.Analyzer]
	mu            sync.RWMutex
	cachedList    []DatasetMetadata
	lastListBuild time.Time
}

// NewManager creates a Manager rooted at baseDir. Each child directory is a
// dataset.
func NewManager(baseDir string) *Manager {
	cache, _ := lru.NewWithEvict[string, *survey.Analyzer](MaxOpenAnalyzers, func(key string, value *survey.Analyzer) {
		_ = value.Close()
	})
	return &Manager{
		baseDir:   baseDir,
		analyzers: cache,
	}
}

// Get retrieves the analyzer for a dataset, opening it if necessary.
func (m *Manager) Get(datasetID string) (*survey.Analyzer, error) {
	// Fast path: lru.Get updates recency.
	if a, ok := m.analyzers.Get(datasetID); ok {
		return a, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check under lock
	if a, ok := m.analyzers.Get(datasetID); ok {
		return a, nil
	}

	datasetDir := filepath.Join(m.baseDir, datasetID)
	if _, err := os.Stat(datasetDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: dataset %q", apperrors.ErrNotFound, datasetID)
	}

	manifest := readManifest(datasetDir)
	opts := survey.Options{
		DataFile:   filepath.Join(datasetDir, manifest.DataFile),
		SchemaFile: filepath.Join(datasetDir, manifest.SchemaFile),
		IDColumn:   manifest.IDColumn,
	}

	a, err := survey.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", datasetID, err)
	}

	m.analyzers.Add(datasetID, a)
	return a, nil
}

// List returns the available datasets. The listing is rebuilt at most once
// per DatasetListTTL.
func (m *Manager) List() ([]DatasetMetadata, error) {
	m.mu.RLock()
	if time.Since(m.lastListBuild) < DatasetListTTL && m.cachedList != nil {
		list := make([]DatasetMetadata, len(m.cachedList))
		copy(list, m.cachedList)
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check
	if time.Since(m.lastListBuild) < DatasetListTTL && m.cachedList != nil {
		list := make([]DatasetMetadata, len(m.cachedList))
		copy(list, m.cachedList)
		return list, nil
	}

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, err
	}

	var datasets []DatasetMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		manifest := readManifest(filepath.Join(m.baseDir, id))
		meta := DatasetMetadata{
			ID:          id,
			Name:        manifest.Name,
			Description: manifest.Description,
		}
		if meta.Name == "" {
			meta.Name = id
		}
		datasets = append(datasets, meta)
	}

	m.cachedList = datasets
	m.lastListBuild = time.Now()

	return datasets, nil
}

// CloseAll closes every open analyzer.
func (m *Manager) CloseAll() {
	m.analyzers.Purge()
}

// readManifest loads dataset.yaml from a dataset directory, filling in the
// conventional defaults for anything missing or unreadable.
func readManifest(datasetDir string) Manifest {
	var manifest Manifest
	if data, err := os.ReadFile(filepath.Join(datasetDir, ManifestFile)); err == nil {
		_ = yaml.Unmarshal(data, &manifest)
	}
	if manifest.DataFile == "" {
		manifest.DataFile = DefaultDataFile
	}
	if manifest.SchemaFile == "" {
		manifest.SchemaFile = DefaultSchemaFile
	}
	return manifest
}
