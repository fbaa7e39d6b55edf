package repo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIndex is returned when an index.xml cannot be parsed
var ErrInvalidIndex = errors.New("invalid repository index")

// Index is a repository's index.xml
type Index struct {
	XMLName      xml.Name
	Repo         RepoInfo       `xml:"repo"`
	Applications []*Application `xml:"application"`
}

// RepoInfo is the <repo> header of an index
type RepoInfo struct {
	Name        string `xml:"name,attr"`
	URL         string `xml:"url,attr"`
	Timestamp   string `xml:"timestamp,attr"`
	Description string `xml:"description"`
}

// Application is an <application> entry of an index
type Application struct {
	ID       string     `xml:"id,attr"`
	Name     string     `xml:"name"`
	Summary  string     `xml:"summary"`
	Packages []*Package `xml:"package"`
}

// Package is one published version of an application
type Package struct {
	Version     string `xml:"version"`
	VersionCode string `xml:"versioncode"`
	APKName     string `xml:"apkname"`
	Hash        Hash   `xml:"hash"`
	Size        string `xml:"size"`
}

// Hash is a package checksum
type Hash struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// ParseIndex parses index.xml data
func ParseIndex(data []byte) (*Index, error) {
	var index Index
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	return &index, nil
}

// Find returns the application with the given id, or nil. When an index
// repeats an id the last entry wins.
func (i *Index) Find(id string) *Application {
	if id == "" {
		return nil
	}
	for j := len(i.Applications) - 1; j >= 0; j-- {
		if app := i.Applications[j]; app.ID == id {
			return app
		}
	}
	return nil
}

// Latest returns the first package in document order, or nil
func (a *Application) Latest() *Package {
	if len(a.Packages) == 0 {
		return nil
	}
	return a.Packages[0]
}

// FindCode returns the package whose version code equals code, or nil
func (a *Application) FindCode(code int) (*Package, error) {
	for _, pkg := range a.Packages {
		pkgCode, err := pkg.Code()
		if err != nil {
			return nil, err
		}
		if pkgCode == code {
			return pkg, nil
		}
	}
	return nil, nil
}

// Code returns the integer version code
func (p *Package) Code() (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(p.VersionCode))
	if err != nil {
		return 0, fmt.Errorf("%w: package %s has version code %q", ErrInvalidIndex, p.APKName, p.VersionCode)
	}
	return code, nil
}

// SHA256 returns the package checksum when the index publishes a sha256
func (p *Package) SHA256() string {
	if p.Hash.Type != "" && !strings.EqualFold(p.Hash.Type, "sha256") {
		return ""
	}
	return strings.TrimSpace(p.Hash.Value)
}
