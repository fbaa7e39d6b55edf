package lock

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huanfeng/mia-cli/pkg/models"
	"gopkg.in/yaml.v3"
)

// FileName is the lock file of a definition
const FileName = "apps_lock.yaml"

var (
	// ErrLockFileMissing is returned when a definition has not been locked yet
	ErrLockFileMissing = errors.New("apps lock file is missing")

	// ErrInvalidLockFile is returned when the lock file cannot be parsed
	ErrInvalidLockFile = errors.New("invalid apps lock file")
)

// WriteFile saves the lock file, preserving group and entry order
func WriteFile(path string, lock *models.LockFile) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(lock); err != nil {
		return fmt.Errorf("failed to marshal lock file: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to marshal lock file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create lock file directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// ReadFile loads a lock file
func ReadFile(path string) (*models.LockFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrLockFileMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	lock := &models.LockFile{}
	if err := yaml.Unmarshal(data, lock); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLockFile, path, err)
	}
	return lock, nil
}

// Save writes apps to the default group of the lock file at path. Groups
// added to an existing lock file by hand are kept.
func Save(path string, apps []models.ResolvedApp) error {
	lock, err := ReadFile(path)
	switch {
	case errors.Is(err, ErrLockFileMissing):
		lock = &models.LockFile{}
	case err != nil:
		return err
	}

	lock.SetGroup(models.DefaultLockGroup, apps)
	return WriteFile(path, lock)
}
