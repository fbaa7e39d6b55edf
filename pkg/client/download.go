package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/utils"
	"github.com/schollz/progressbar/v3"
)

// ErrChecksumMismatch is returned when a download does not match package_hash
var ErrChecksumMismatch = errors.New("checksum mismatch")

// DefaultDownloadDir is where apps without a path are saved, relative to the definition
const DefaultDownloadDir = "user-apps"

// Verifier checks a downloaded package against its lock entry
type Verifier func(path string, app models.ResolvedApp) error

// DownloadRunner downloads every application of a lock file
type DownloadRunner struct {
	Fetcher      Fetcher
	Out          io.Writer
	DefaultDir   string
	ShowProgress bool
	Verify       Verifier // optional
}

// NewDownloadRunner creates a runner printing to out
func NewDownloadRunner(fetcher Fetcher, out io.Writer) *DownloadRunner {
	return &DownloadRunner{
		Fetcher:      fetcher,
		Out:          out,
		DefaultDir:   DefaultDownloadDir,
		ShowProgress: true,
	}
}

// Run downloads the lock file groups in order into definitionPath
func (d *DownloadRunner) Run(ctx context.Context, lock *models.LockFile, definitionPath string) (*utils.TransferStats, error) {
	stats := utils.NewTransferStats()

	for _, group := range lock.Groups {
		fmt.Fprintf(d.Out, "Downloading %s...\n", group.Key)

		for _, app := range group.Apps {
			targetPath, err := d.TargetPath(definitionPath, app)
			if err != nil {
				return stats, err
			}

			fmt.Fprintf(d.Out, " - downloading: %s\n", app.PackageURL)
			written, err := d.download(ctx, app, targetPath)
			if err != nil {
				return stats, fmt.Errorf("download %s: %w", app.PackageName, err)
			}
			stats.AddFile(written)
			fmt.Fprintf(d.Out, "   - downloaded %s\n", utils.FormatFileSize(written))

			if d.Verify != nil {
				if err := d.Verify(targetPath, app); err != nil {
					return stats, err
				}
				stats.AddVerified()
			}
		}
	}

	return stats, nil
}

// TargetPath returns where app is saved inside definitionPath
func (d *DownloadRunner) TargetPath(definitionPath string, app models.ResolvedApp) (string, error) {
	dir := app.Path
	if dir == "" {
		dir = d.DefaultDir
	}
	if dir == "" {
		dir = DefaultDownloadDir
	}

	name := filepath.Base(app.PackageName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid package name %q", app.PackageName)
	}

	return filepath.Join(definitionPath, dir, name), nil
}

// download fetches app into targetPath through a temp file
func (d *DownloadRunner) download(ctx context.Context, app models.ResolvedApp, targetPath string) (int64, error) {
	// Ensure download directory exists
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	body, size, err := d.Fetcher.Fetch(ctx, app.PackageURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tempPath := targetPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return 0, err
	}

	hash := sha256.New()
	writers := []io.Writer{out, hash}
	if d.ShowProgress {
		writers = append(writers, d.progressBar(size, app.PackageName))
	}

	written, err := io.Copy(io.MultiWriter(writers...), body)

	// Close file before rename
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return 0, err
	}

	if app.PackageHash != "" {
		actual := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(actual, app.PackageHash) {
			os.Remove(tempPath)
			return 0, fmt.Errorf("%w: %s has sha256 %s, expected %s", ErrChecksumMismatch, app.PackageName, actual, app.PackageHash)
		}
		clog.FromContext(ctx).Debug("checksum verified", "package", app.PackageName)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return 0, err
	}

	return written, nil
}

// progressBar renders byte progress to the runner output
func (d *DownloadRunner) progressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(d.Out),
		progressbar.OptionSetDescription("   "+description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(d.Out, "\n")
		}),
	)
}
