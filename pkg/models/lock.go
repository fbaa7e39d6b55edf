package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultLockGroup is the group the lock command writes resolved apps to
const DefaultLockGroup = "apps"

// ResolvedApp is a fully determined, downloadable package reference
type ResolvedApp struct {
	Name         string `yaml:"name"`
	RepositoryID string `yaml:"repository_id,omitempty"`
	PackageName  string `yaml:"package_name"`
	PackageCode  *int   `yaml:"package_code,omitempty"` // nil for direct downloads
	PackageURL   string `yaml:"package_url"`
	PackageHash  string `yaml:"package_hash,omitempty"` // sha256, when the index publishes one
	Path         string `yaml:"path,omitempty"`
}

// VersionCode returns code as a PackageCode value
func VersionCode(code int) *int {
	return &code
}

// Code returns the locked version code, if the entry has one
func (a ResolvedApp) Code() (int, bool) {
	if a.PackageCode == nil {
		return 0, false
	}
	return *a.PackageCode, true
}

// LockFile represents apps_lock.yaml: ordered groups of resolved apps
type LockFile struct {
	Groups []LockGroup
}

// LockGroup is one top-level key of the lock file
type LockGroup struct {
	Key  string
	Apps []ResolvedApp
}

// NewLockFile creates a lock file holding apps in the default group
func NewLockFile(apps []ResolvedApp) *LockFile {
	return &LockFile{Groups: []LockGroup{{Key: DefaultLockGroup, Apps: apps}}}
}

// Count returns the number of apps across all groups
func (l *LockFile) Count() int {
	total := 0
	for _, group := range l.Groups {
		total += len(group.Apps)
	}
	return total
}

// MarshalYAML keeps the group order
func (l LockFile) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, group := range l.Groups {
		value := &yaml.Node{}
		apps := group.Apps
		if apps == nil {
			apps = []ResolvedApp{}
		}
		if err := value.Encode(apps); err != nil {
			return nil, fmt.Errorf("failed to encode group %s: %w", group.Key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: group.Key},
			value,
		)
	}
	return root, nil
}

// UnmarshalYAML reads groups in document order
func (l *LockFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: lock file must be a mapping of groups", node.Line)
	}

	l.Groups = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var apps []ResolvedApp
		if err := value.Decode(&apps); err != nil {
			return fmt.Errorf("group %s: %w", key.Value, err)
		}
		l.Groups = append(l.Groups, LockGroup{Key: key.Value, Apps: apps})
	}
	return nil
}

// SetGroup replaces the apps of a group, appending the group when absent
func (l *LockFile) SetGroup(key string, apps []ResolvedApp) {
	for i := range l.Groups {
		if l.Groups[i].Key == key {
			l.Groups[i].Apps = apps
			return
		}
	}
	l.Groups = append(l.Groups, LockGroup{Key: key, Apps: apps})
}
