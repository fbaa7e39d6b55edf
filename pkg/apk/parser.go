// Package apk inspects downloaded application packages.
package apk

import (
	"archive/zip"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shogo82148/androidbinary/apk"
)

// ErrVersionMismatch is returned when a downloaded package does not carry
// the version code recorded in the lock file
var ErrVersionMismatch = errors.New("package version code mismatch")

// Info is what a downloaded package says about itself
type Info struct {
	PackageID   string
	VersionName string
	VersionCode int
	ABIs        []string
}

// Inspect reads the manifest of an APK file
func Inspect(path string) (*Info, error) {
	pkg, err := apk.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK %s: %w", path, err)
	}
	defer pkg.Close()

	manifest := pkg.Manifest()
	code, err := manifest.VersionCode.Int32()
	if err != nil {
		return nil, fmt.Errorf("failed to read version code of %s: %w", path, err)
	}

	return &Info{
		PackageID:   manifest.Package.MustString(),
		VersionName: manifest.VersionName.MustString(),
		VersionCode: int(code),
		ABIs:        extractABIs(path),
	}, nil
}

// Verify checks that the APK at path has the expected version code
func Verify(path string, expectedCode int) (*Info, error) {
	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if err := info.CheckCode(expectedCode); err != nil {
		return info, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return info, nil
}

// CheckCode compares the version code with the expected one
func (i *Info) CheckCode(expected int) error {
	if i.VersionCode != expected {
		return fmt.Errorf("%w: %s has %d, expected %d", ErrVersionMismatch, i.PackageID, i.VersionCode, expected)
	}
	return nil
}

// SupportsABI reports whether the package runs on the given cpu. Packages
// without native code run everywhere.
func (i *Info) SupportsABI(cpu string) bool {
	if len(i.ABIs) == 0 || cpu == "" {
		return true
	}
	for _, abi := range i.ABIs {
		if abi == cpu {
			return true
		}
	}
	return false
}

// extractABIs lists the native library directories of the package
func extractABIs(path string) []string {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer reader.Close()

	seen := make(map[string]bool)
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, "lib/") {
			continue
		}
		parts := strings.Split(file.Name, "/")
		if len(parts) >= 3 && parts[1] != "" {
			seen[parts[1]] = true
		}
	}

	abis := make([]string, 0, len(seen))
	for abi := range seen {
		abis = append(abis, abi)
	}
	sort.Strings(abis)
	return abis
}

// IsAPKFile checks the file extension
func IsAPKFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".apk")
}
