package manager

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testData = `ResponseId,Age,Languages
1,25-34,Go;Python
2,35-44,Go
`

const testSchema = `column,question_text,type
Age,What is your age?,SC
Languages,Which languages do you use?,MC
`

func writeDataset(t *testing.T, baseDir, id string, manifest string) {
	t.Helper()
	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create dataset dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultDataFile), []byte(testData), 0o644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultSchemaFile), []byte(testSchema), 0o644); err != nil {
		t.Fatalf("Failed to write schema file: %v", err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
			t.Fatalf("Failed to write manifest: %v", err)
		}
	}
}

func TestManager_GetCachesAnalyzers(t *testing.T) {
	tmpDir := t.TempDir()
	for _, id := range []string{"d1", "d2"} {
		writeDataset(t, tmpDir, id, "")
	}

	m := NewManager(tmpDir)
	defer m.CloseAll()

	a1, err := m.Get("d1")
	if err != nil {
		t.Fatalf("Failed to get d1: %v", err)
	}
	if a1 == nil {
		t.Fatal("a1 is nil")
	}

	// Same dataset, same instance
	a1Again, err := m.Get("d1")
	if err != nil {
		t.Fatalf("Failed to get d1 again: %v", err)
	}
	if a1 != a1Again {
		t.Errorf("Expected same instance for d1, got different")
	}

	a2, err := m.Get("d2")
	if err != nil {
		t.Fatalf("Failed to get d2: %v", err)
	}
	if a1 == a2 {
		t.Errorf("Expected distinct analyzers per dataset")
	}
}

func TestManager_GetMissingDataset(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.CloseAll()

	if _, err := m.Get("nope"); err == nil {
		t.Fatal("Expected error for missing dataset")
	}
}

func TestManager_ManifestOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "custom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Files named by the manifest, not the defaults.
	if err := os.WriteFile(filepath.Join(dir, "answers.csv"), []byte(testData), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "questions.csv"), []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := "name: Custom Survey\ndata_file: answers.csv\nschema_file: questions.csv\nid_column: ResponseId\n"
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(tmpDir)
	defer m.CloseAll()

	if _, err := m.Get("custom"); err != nil {
		t.Fatalf("Failed to open manifest-described dataset: %v", err)
	}

	datasets, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(datasets) != 1 || datasets[0].Name != "Custom Survey" {
		t.Errorf("Expected manifest name to surface in listing, got %v", datasets)
	}
}

func TestManager_ListCaching(t *testing.T) {
	tmpDir := t.TempDir()
	writeDataset(t, tmpDir, "d1", "")

	m := NewManager(tmpDir)
	defer m.CloseAll()

	datasets, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(datasets) != 1 || datasets[0].ID != "d1" {
		t.Errorf("Expected 1 dataset d1, got %v", datasets)
	}

	// Add d2; the cached listing should not see it yet.
	writeDataset(t, tmpDir, "d2", "")

	datasets, err = m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(datasets) != 1 {
		t.Errorf("Expected cached listing (1), got %d", len(datasets))
	}

	// Expire the cache instead of sleeping out the TTL.
	m.mu.Lock()
	m.lastListBuild = time.Now().Add(-2 * DatasetListTTL)
	m.mu.Unlock()

	datasets, err = m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(datasets) != 2 {
		t.Errorf("Expected refreshed listing (2), got %d", len(datasets))
	}
}
