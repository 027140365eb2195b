package ingest

import (
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
)

// LoadGitRepository clones a repository into memory and loads every text
// document reachable from HEAD. Nothing touches the local filesystem.
func LoadGitRepository(url string) ([]Document, error) {
	repo, err := git.Clone(memory.NewStorage(), nil, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read commit tree: %w", err)
	}

	var docs []Document
	err = tree.Files().ForEach(func(f *object.File) error {
		if !isTextDocument(f.Name) {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name, err)
		}
		docs = append(docs, Document{Name: f.Name, Text: content})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
