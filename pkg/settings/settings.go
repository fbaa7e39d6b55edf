// Package settings reads and updates a definition's settings.yaml.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/huanfeng/mia-cli/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the settings file of a definition
	FileName = "settings.yaml"
	// BackupFileName holds the settings as they were before configure
	BackupFileName = "settings.orig.yaml"
)

var (
	// ErrSettingsNotFound is returned when a definition has no settings file
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrInvalidSettings is returned when the settings file cannot be parsed
	ErrInvalidSettings = errors.New("could not read settings file")
)

// sectionOrder lists the sections written first; the rest keep their order
var sectionOrder = []string{"general", "apps"}

// Change updates and removes keys of one settings section
type Change struct {
	Update map[string]interface{}
	Remove []string
}

// Load reads a settings file
func Load(path string) (*models.Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	var settings models.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	return &settings, nil
}

// Backup copies the settings file to settings.orig.yaml next to it
func Backup(path string) error {
	dst := filepath.Join(filepath.Dir(path), BackupFileName)

	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return out.Close()
}

// Update applies changes to the settings file. Comments are kept, the
// general and apps sections are moved to the top.
func Update(path string, changes map[string]Change) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
	}
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s: top level must be a mapping", ErrInvalidSettings, path)
	}

	for _, section := range sortedKeys(changes) {
		if err := applyChange(root, section, changes[section]); err != nil {
			return fmt.Errorf("%s: section %s: %w", path, section, err)
		}
	}
	orderSections(root)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// applyChange updates one section of the root mapping
func applyChange(root *yaml.Node, section string, change Change) error {
	node := mappingValue(root, section)
	if node == nil {
		if len(change.Update) == 0 {
			return nil
		}
		node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: section}, node)
	}

	// An empty section ("general:") parses as null
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		node.Kind = yaml.MappingNode
		node.Tag = "!!map"
		node.Value = ""
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: not a mapping", ErrInvalidSettings)
	}

	for _, key := range sortedKeys(change.Update) {
		value := &yaml.Node{}
		if err := value.Encode(change.Update[key]); err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		setMappingValue(node, key, value)
	}

	for _, key := range change.Remove {
		removeMappingKey(node, key)
	}
	return nil
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			old := mapping.Content[i+1]
			value.LineComment = old.LineComment
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}

func removeMappingKey(mapping *yaml.Node, key string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return
		}
	}
}

// orderSections moves the sectionOrder keys to the front of the mapping
func orderSections(root *yaml.Node) {
	var ordered []*yaml.Node
	taken := make(map[int]bool)

	for _, section := range sectionOrder {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == section {
				ordered = append(ordered, root.Content[i], root.Content[i+1])
				taken[i] = true
				break
			}
		}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if !taken[i] {
			ordered = append(ordered, root.Content[i], root.Content[i+1])
		}
	}
	root.Content = ordered
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
