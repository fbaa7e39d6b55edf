package models

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LatestVersion is the symbolic version code that selects the newest package
const LatestVersion = "latest"

// Settings represents a definition's settings.yaml
type Settings struct {
	General      General       `yaml:"general"`
	Defaults     Defaults      `yaml:"defaults"`
	Repositories []*Repository `yaml:"repositories"`
	Apps         []DesiredApp  `yaml:"apps"`
}

// General contains the device and OS release information of a definition
type General struct {
	CMDeviceCodename string `yaml:"cm_device_codename"`
	CMReleaseType    string `yaml:"cm_release_type"`
	CMReleaseVersion string `yaml:"cm_release_version"`
	CPU              string `yaml:"cpu,omitempty"`
}

// Defaults contains definition-wide fallbacks
type Defaults struct {
	RepositoryID string `yaml:"repository_id"`
}

// Repository describes a source of an index.xml and its packages
type Repository struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Fallback string `yaml:"fallback,omitempty"`
}

// DisplayName returns the repository name, or its id when unnamed
func (r *Repository) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// RepositoryMap indexes the configured repositories by id
func (s *Settings) RepositoryMap() map[string]*Repository {
	repos := make(map[string]*Repository, len(s.Repositories))
	for _, repo := range s.Repositories {
		if repo == nil {
			continue
		}
		repos[repo.ID] = repo
	}
	return repos
}

// DesiredApp is an application entry declared in settings.yaml. It either
// carries a direct URL or is looked up by name in a repository index.
type DesiredApp struct {
	URL  string      `yaml:"url,omitempty"`
	Name string      `yaml:"name,omitempty"`
	Code *VersionRef `yaml:"code,omitempty"`
	Repo string      `yaml:"repo,omitempty"`
	Path string      `yaml:"path,omitempty"` // download directory inside the definition
}

// IsDirect reports whether the entry names its package by URL
func (a DesiredApp) IsDirect() bool {
	return a.URL != ""
}

// PackageName returns the file name of a direct URL entry
func (a DesiredApp) PackageName() string {
	u := a.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(u)
}

// VersionRef is either a pinned integer version code or the latest sentinel
type VersionRef struct {
	Code   int
	Latest bool
}

// Pinned returns a reference to an explicit version code
func Pinned(code int) *VersionRef {
	return &VersionRef{Code: code}
}

// Latest returns a reference to the newest package
func Latest() *VersionRef {
	return &VersionRef{Latest: true}
}

// UnmarshalYAML accepts an integer, an integer string or "latest"
func (v *VersionRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: version code must be a scalar", node.Line)
	}

	value := strings.TrimSpace(node.Value)
	if value == "" || strings.EqualFold(value, LatestVersion) {
		*v = VersionRef{Latest: true}
		return nil
	}

	code, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("line %d: invalid version code %q", node.Line, node.Value)
	}
	*v = VersionRef{Code: code}
	return nil
}

// MarshalYAML writes the reference back in its declared form
func (v VersionRef) MarshalYAML() (interface{}, error) {
	if v.Latest {
		return LatestVersion, nil
	}
	return v.Code, nil
}

func (v VersionRef) String() string {
	if v.Latest {
		return LatestVersion
	}
	return strconv.Itoa(v.Code)
}
