// Package ingest loads knowledge-base documents from local directories, git
// repositories and GitHub repositories. Documents are plain text; chunking
// and embedding happen downstream.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrUnknownSource = errors.New("unrecognized document source")

// Document is a raw source document identified by name.
type Document struct {
	Name string
	Text string
}

var githubShorthand = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

// Load dispatches on the source format: an existing file or directory loads
// from disk, an https:// or git@ URL clones the repository, and an
// owner/repo shorthand uses the GitHub contents API.
func Load(ctx context.Context, source, githubToken string) ([]Document, error) {
	if info, err := os.Stat(source); err == nil {
		if info.IsDir() {
			return LoadDir(source)
		}
		return loadFile(source)
	}

	if strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "git@") {
		return LoadGitRepository(source)
	}

	if githubShorthand.MatchString(source) {
		parts := strings.SplitN(source, "/", 2)
		return LoadGitHubRepository(ctx, githubToken, parts[0], parts[1], "")
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

// LoadDir walks a directory and loads every text document in it.
// Names are paths relative to the root.
func LoadDir(root string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isTextDocument(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		docs = append(docs, Document{Name: relPath, Text: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func loadFile(path string) ([]Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return []Document{{Name: filepath.Base(path), Text: string(content)}}, nil
}

// isTextDocument reports whether the path looks like indexable text.
func isTextDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}
