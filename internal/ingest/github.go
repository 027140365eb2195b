package ingest

import (
	"context"
	"fmt"

	"github.com/google/go-github/v77/github"
)

// NewGitHubClient creates a GitHub API client. An empty token yields an
// unauthenticated client, subject to the anonymous rate limit.
func NewGitHubClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	return github.NewClient(nil).WithAuthToken(token)
}

// LoadGitHubRepository loads text documents from a repository path via the
// GitHub contents API, recursing into subdirectories.
func LoadGitHubRepository(ctx context.Context, token, owner, repo, path string) ([]Document, error) {
	client := NewGitHubClient(token)
	return fetchContents(ctx, client, owner, repo, path)
}

func fetchContents(ctx context.Context, client *github.Client, owner, repo, path string) ([]Document, error) {
	fileContent, dirContent, _, err := client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s/%s: %w", owner, repo, path, err)
	}

	if fileContent != nil {
		if !isTextDocument(fileContent.GetPath()) {
			return nil, nil
		}
		content, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", fileContent.GetPath(), err)
		}
		return []Document{{Name: fileContent.GetPath(), Text: content}}, nil
	}

	var docs []Document
	for _, entry := range dirContent {
		switch entry.GetType() {
		case "dir":
			sub, err := fetchContents(ctx, client, owner, repo, entry.GetPath())
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
		case "file":
			if !isTextDocument(entry.GetPath()) {
				continue
			}
			sub, err := fetchContents(ctx, client, owner, repo, entry.GetPath())
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
		}
	}

	return docs, nil
}
