// Package definition creates and maintains device definitions: a settings
// file, an application lock and the files downloaded for them.
package definition

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/huanfeng/mia-cli/internal/workspace"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/settings"
)

// DefaultTemplate is the template shipped with the binary
const DefaultTemplate = "mia-default"

var (
	ErrInvalidName        = errors.New("invalid definition name")
	ErrDefinitionExists   = errors.New("definition already exists")
	ErrDefinitionNotFound = errors.New("definition does not exist")
	ErrTemplateNotFound   = errors.New("template does not exist")
)

var nameRegexp = regexp.MustCompile(`^[a-z][a-z0-9-]+$`)

//go:embed all:templates/mia-default
var embedded embed.FS

// ValidateName checks a definition name: a lowercase letter followed by
// lowercase letters, digits or dashes.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q (use lowercase letters, digits and dashes)", ErrInvalidName, name)
	}
	return nil
}

// Options control how a definition is scaffolded
type Options struct {
	Template string
	CPU      string
	Force    bool
}

// Scaffold creates the workspace's definition from a template. It returns
// where the template was taken from.
func Scaffold(ws *workspace.Workspace, opts Options) (string, error) {
	if err := ValidateName(ws.Definition); err != nil {
		return "", err
	}
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}

	source, location, err := templateFS(ws.TemplatesDir, opts.Template)
	if err != nil {
		return "", err
	}

	dest := ws.DefinitionPath()
	if _, err := os.Stat(dest); err == nil {
		if !opts.Force {
			return location, fmt.Errorf("%w: %s", ErrDefinitionExists, ws.Definition)
		}
		if err := os.RemoveAll(dest); err != nil {
			return location, fmt.Errorf("failed to remove old definition: %w", err)
		}
	}

	if err := os.MkdirAll(ws.DefinitionsDir(), 0755); err != nil {
		return location, fmt.Errorf("failed to create definitions directory: %w", err)
	}
	if err := copyTree(source, dest); err != nil {
		return location, fmt.Errorf("failed to copy template: %w", err)
	}

	if opts.CPU != "" {
		err := settings.Update(ws.SettingsFile(), map[string]settings.Change{
			"general": {Update: map[string]interface{}{"cpu": opts.CPU}},
		})
		if err != nil && !errors.Is(err, settings.ErrSettingsNotFound) {
			return location, err
		}
	}

	return location, nil
}

// templateFS finds a template in the templates directory, then among the
// embedded ones
func templateFS(dir, name string) (fs.FS, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return os.DirFS(path), path, nil
		}
	}

	if name == DefaultTemplate {
		sub, err := fs.Sub(embedded, "templates/"+name)
		if err != nil {
			return nil, "", err
		}
		return sub, "(built-in) " + name, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

func copyTree(source fs.FS, dest string) error {
	return fs.WalkDir(source, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		src, err := source.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// Load reads the settings of an existing definition
func Load(ws *workspace.Workspace) (*models.Settings, error) {
	if err := ValidateName(ws.Definition); err != nil {
		return nil, err
	}
	if !ws.DefinitionExists() {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, ws.Definition)
	}
	return settings.Load(ws.SettingsFile())
}
