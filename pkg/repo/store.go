package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/pkg/client"
	"github.com/huanfeng/mia-cli/pkg/models"
)

// IndexFileName is the name of the index published by every repository
const IndexFileName = "index.xml"

// Store loads repository indexes, caching them in a resources directory
type Store struct {
	ResourcesDir string
	Fetcher      client.Fetcher
	Out          io.Writer

	indexes map[string]*Index
}

// NewStore creates a store caching indexes in resourcesDir
func NewStore(resourcesDir string, fetcher client.Fetcher, out io.Writer) *Store {
	if out == nil {
		out = io.Discard
	}
	return &Store{
		ResourcesDir: resourcesDir,
		Fetcher:      fetcher,
		Out:          out,
		indexes:      make(map[string]*Index),
	}
}

// IndexURL returns the index location of a repository
func IndexURL(repo *models.Repository) string {
	return strings.TrimRight(repo.URL, "/") + "/" + IndexFileName
}

// CachePath returns the cached index file of a repository id
func (s *Store) CachePath(id string) string {
	return filepath.Join(s.ResourcesDir, id+"."+IndexFileName)
}

// Index returns the parsed index of repo, fetching it when it is not cached
func (s *Store) Index(ctx context.Context, repo *models.Repository) (*Index, error) {
	if index, ok := s.indexes[repo.ID]; ok {
		return index, nil
	}

	cachePath := s.CachePath(repo.ID)
	if _, err := os.Stat(cachePath); errors.Is(err, os.ErrNotExist) {
		if err := s.fetch(ctx, repo, cachePath); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		clog.FromContext(ctx).Debug("using cached index", "repository", repo.ID, "path", cachePath)
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	index, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cachePath, err)
	}

	s.indexes[repo.ID] = index
	return index, nil
}

// Refresh drops the cached index of a repository id
func (s *Store) Refresh(id string) error {
	delete(s.indexes, id)
	if err := os.Remove(s.CachePath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// fetch downloads the index verbatim to cachePath
func (s *Store) fetch(ctx context.Context, repo *models.Repository, cachePath string) error {
	indexURL := IndexURL(repo)
	fmt.Fprintf(s.Out, "Downloading the %s repository information from:\n - %s\n", repo.DisplayName(), indexURL)

	if err := os.MkdirAll(s.ResourcesDir, 0755); err != nil {
		return fmt.Errorf("failed to create resources directory: %w", err)
	}

	body, _, err := s.Fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return fmt.Errorf("fetch %s index: %w", repo.ID, err)
	}
	defer body.Close()

	tempPath := cachePath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("fetch %s index: %w", repo.ID, err)
	}

	return os.Rename(tempPath, cachePath)
}
