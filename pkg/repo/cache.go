package repo

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"
)

// CacheEntry describes one cached repository index
type CacheEntry struct {
	RepositoryID string
	Path         string
	Size         int64
	ModTime      time.Time
}

// Cached lists the indexes cached in the resources directory, sorted by
// repository id. A missing resources directory holds no indexes.
func (s *Store) Cached() ([]CacheEntry, error) {
	files, err := os.ReadDir(s.ResourcesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []CacheEntry
	for _, file := range files {
		id, ok := strings.CutSuffix(file.Name(), "."+IndexFileName)
		if !ok || id == "" || file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			return nil, err
		}
		entries = append(entries, CacheEntry{
			RepositoryID: id,
			Path:         s.CachePath(id),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RepositoryID < entries[j].RepositoryID
	})
	return entries, nil
}

// Clear removes the cached indexes of the given repository ids, or every
// cached index when none are given. It returns the ids it removed.
func (s *Store) Clear(ids ...string) ([]string, error) {
	if len(ids) == 0 {
		entries, err := s.Cached()
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			ids = append(ids, entry.RepositoryID)
		}
	}

	var removed []string
	for _, id := range ids {
		if _, err := os.Stat(s.CachePath(id)); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := s.Refresh(id); err != nil {
			return removed, err
		}
		removed = append(removed, id)
	}
	return removed, nil
}
