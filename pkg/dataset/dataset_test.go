package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/versemark/versemark/pkg/index"
)

const sampleJSON = `[
  {"reference": "Luke 1:26–38", "text": "And in the sixth month..."},
  {"reference": "Alma 32:21", "text": "And now as I said concerning faith..."}
]`

const sampleYAML = `
- reference: "Luke 1:26–38"
  text: "And in the sixth month..."
- reference: "Alma 32:21"
  text: "And now as I said concerning faith..."
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadJSONAndYAMLAgree(t *testing.T) {
	dir := t.TempDir()
	fromJSON, err := Load(writeFile(t, dir, "data.json", sampleJSON))
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	fromYAML, err := Load(writeFile(t, dir, "data.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if len(fromJSON) != 2 || len(fromYAML) != 2 {
		t.Fatalf("expected 2 records each, got %d and %d", len(fromJSON), len(fromYAML))
	}
	if Fingerprint(fromJSON) != Fingerprint(fromYAML) {
		t.Fatalf("json and yaml datasets should fingerprint the same")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, dir, "bad.json", "{not json")); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := Load(writeFile(t, dir, "bad.yml", "- [unclosed")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := []index.Record{{Reference: "D&C 59:8", Text: "Thou shalt offer..."}}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	a := []index.Record{{Reference: "Luke 1:5", Text: "x"}, {Reference: "Luke 1:6", Text: "y"}}
	b := []index.Record{{Reference: "Luke 1:6", Text: "y"}, {Reference: "Luke 1:5", Text: "x"}}
	c := []index.Record{{Reference: "Luke 1:5x", Text: ""}, {Reference: "Luke 1:6", Text: "y"}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("order should change the fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("field boundaries should change the fingerprint")
	}
	if Fingerprint(a) != Fingerprint(append([]index.Record{}, a...)) {
		t.Error("fingerprint should be deterministic")
	}
}

func TestCatalogReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.json", sampleJSON)

	c, err := NewCatalog(path, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	first := c.Current()
	if first.Index.Total() != 2 {
		t.Fatalf("Total = %d, want 2", first.Index.Total())
	}

	var calls int32
	c.OnReload(func(*Snapshot) { atomic.AddInt32(&calls, 1) })

	writeFile(t, dir, "data.json", "[broken")
	if err := c.Reload(); err == nil {
		t.Fatal("expected reload of broken dataset to fail")
	}
	if c.Current() != first {
		t.Fatal("failed reload must keep the previous snapshot")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("callbacks must not run on failed reload")
	}

	writeFile(t, dir, "data.json", `[{"reference": "Moro. 10", "text": "Now I, Moroni..."}]`)
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c.Current().Index.Total() != 1 || !c.Current().Index.HasKey("Moro._Chapter 10_10") {
		t.Fatalf("unexpected index after reload: %v", c.Current().Index.Entries())
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one callback, got %d", calls)
	}
}

func TestNewCatalogMissingFile(t *testing.T) {
	if _, err := NewCatalog(filepath.Join(t.TempDir(), "nope.json"), nil); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestStaticCatalog(t *testing.T) {
	c := NewStaticCatalog([]index.Record{{Reference: "Luke 1:5", Text: "x"}})
	if c.Current().Index.Total() != 1 {
		t.Fatalf("Total = %d", c.Current().Index.Total())
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("static Reload should be a no-op: %v", err)
	}
	if c.Path() != "" {
		t.Fatalf("Path = %q", c.Path())
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.json", sampleJSON)
	c, err := NewCatalog(path, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	reloaded := make(chan *Snapshot, 4)
	c.OnReload(func(s *Snapshot) { reloaded <- s })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := Save(path, []index.Record{{Reference: "Alma 32:21", Text: "faith"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-reloaded:
			if s.Index.Total() == 1 {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not reload the dataset")
		}
	}
}
