// Package workspace resolves the paths a command works on.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huanfeng/mia-cli/pkg/lock"
	"github.com/huanfeng/mia-cli/pkg/settings"
)

const (
	definitionsDir = "definitions"
	resourcesDir   = "resources"
)

// Workspace is the directory tree holding definitions and shared resources
type Workspace struct {
	Root         string
	TemplatesDir string
	Definition   string
}

// New returns a workspace rooted at root
func New(root, templatesDir string) *Workspace {
	if root == "" {
		root = "."
	}
	return &Workspace{Root: root, TemplatesDir: templatesDir}
}

// WithDefinition returns a copy of the workspace bound to a definition
func (w *Workspace) WithDefinition(name string) *Workspace {
	ws := *w
	ws.Definition = name
	return &ws
}

// DefinitionsDir is where all definitions live
func (w *Workspace) DefinitionsDir() string {
	return filepath.Join(w.Root, definitionsDir)
}

// DefinitionPath is the directory of the bound definition
func (w *Workspace) DefinitionPath() string {
	return filepath.Join(w.DefinitionsDir(), w.Definition)
}

// ResourcesDir holds index caches and OS images shared by all definitions
func (w *Workspace) ResourcesDir() string {
	return filepath.Join(w.Root, resourcesDir)
}

func (w *Workspace) SettingsFile() string {
	return filepath.Join(w.DefinitionPath(), settings.FileName)
}

func (w *Workspace) SettingsBackupFile() string {
	return filepath.Join(w.DefinitionPath(), settings.BackupFileName)
}

func (w *Workspace) LockFile() string {
	return filepath.Join(w.DefinitionPath(), lock.FileName)
}

// EnsureResources creates the resources directory
func (w *Workspace) EnsureResources() error {
	if err := os.MkdirAll(w.ResourcesDir(), 0755); err != nil {
		return fmt.Errorf("failed to create resources directory: %w", err)
	}
	return nil
}

// DefinitionExists reports whether the bound definition has been created
func (w *Workspace) DefinitionExists() bool {
	info, err := os.Stat(w.DefinitionPath())
	return err == nil && info.IsDir()
}
