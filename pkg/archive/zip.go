// Package archive copies single members out of zip files.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrNotZip is returned when the file is missing or is not a zip archive
	ErrNotZip = errors.New("not a zip file")

	// ErrMemberNotFound is returned when the archive lacks the requested member
	ErrMemberNotFound = errors.New("member not found in archive")
)

// ExtractMember copies member of the zip at zipPath to dest byte for byte.
// The directory of dest is created as needed.
func ExtractMember(zipPath, member, dest string) (int64, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNotZip, zipPath, err)
	}
	defer reader.Close()

	var file *zip.File
	for _, f := range reader.File {
		if f.Name == member {
			file = f
			break
		}
	}
	if file == nil {
		return 0, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, filepath.Base(zipPath))
	}

	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", member, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode().Perm()|0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	written, err := io.Copy(out, src)
	if err != nil {
		out.Close()
		return written, fmt.Errorf("failed to extract %s: %w", member, err)
	}
	return written, out.Close()
}
