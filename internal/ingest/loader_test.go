package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDir_FiltersAndRelativeNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "anatomy.md"), "# Aortic arch")
	writeFile(t, filepath.Join(root, "notes", "cardio.txt"), "Coronary circulation")
	writeFile(t, filepath.Join(root, "diagram.png"), "binary")
	writeFile(t, filepath.Join(root, "script.py"), "print('x')")

	docs, err := LoadDir(root)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	if docs[0].Name != "anatomy.md" || docs[0].Text != "# Aortic arch" {
		t.Fatalf("unexpected document: %+v", docs[0])
	}
	if docs[1].Name != filepath.Join("notes", "cardio.txt") {
		t.Fatalf("expected relative nested name, got %s", docs[1].Name)
	}
}

func TestLoad_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "anatomy.md")
	writeFile(t, path, "content")

	docs, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "anatomy.md" || docs[0].Text != "content" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestLoad_Directory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "b.md"), "b")

	docs, err := Load(context.Background(), root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	_, err := Load(context.Background(), "not a source at all", "")
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestIsTextDocument(t *testing.T) {
	cases := map[string]bool{
		"a.md":          true,
		"a.MD":          true,
		"a.markdown":    true,
		"a.txt":         true,
		"a.png":         false,
		"a.go":          false,
		"README":        false,
		"dir/notes.txt": true,
	}
	for path, want := range cases {
		if got := isTextDocument(path); got != want {
			t.Errorf("isTextDocument(%q) = %v, want %v", path, got, want)
		}
	}
}
