package tips

import (
	"os"
	"path/filepath"
	"testing"
)

const catalogYAML = `tips:
  - id: t1
    text: Break large tasks into small ones.
    category: planning
  - id: t2
    text: Review your week every Monday.
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tips.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestCatalogLoad(t *testing.T) {
	c := NewCatalog(writeCatalog(t, catalogYAML))
	if err := c.Load(); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 tips, got %d", c.Len())
	}

	tip, err := c.Random()
	if err != nil {
		t.Fatalf("failed to pick a tip: %v", err)
	}
	if tip.ID != "t1" && tip.ID != "t2" {
		t.Errorf("unexpected tip: %+v", tip)
	}
}

func TestCatalogMissingFile(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if err := c.Load(); err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty catalog, got %d", c.Len())
	}
	if _, err := c.Random(); err == nil {
		t.Error("expected error from empty catalog")
	}
}

func TestCatalogReload(t *testing.T) {
	path := writeCatalog(t, catalogYAML)
	c := NewCatalog(path)
	if err := c.Load(); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	extra := catalogYAML + `  - id: t3
    text: Say no to meetings without agendas.
`
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatalf("failed to rewrite catalog: %v", err)
	}
	if err := c.Load(); err != nil {
		t.Fatalf("failed to reload catalog: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 tips after reload, got %d", c.Len())
	}
}

func TestCatalogMalformedYAML(t *testing.T) {
	path := writeCatalog(t, catalogYAML)
	c := NewCatalog(path)
	if err := c.Load(); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	if err := os.WriteFile(path, []byte("tips: ["), 0o644); err != nil {
		t.Fatalf("failed to corrupt catalog: %v", err)
	}
	if err := c.Load(); err == nil {
		t.Fatal("expected error from malformed catalog")
	}
	// The previous catalog stays in service after a failed reload.
	if c.Len() != 2 {
		t.Errorf("expected previous tips to survive, got %d", c.Len())
	}
}
