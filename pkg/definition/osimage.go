package definition

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/huanfeng/mia-cli/internal/workspace"
	"github.com/huanfeng/mia-cli/pkg/archive"
	"github.com/huanfeng/mia-cli/pkg/models"
)

const (
	downloadPage = "https://download.cyanogenmod.org/"

	// UpdateBinaryMember is the installer binary inside an OS image
	UpdateBinaryMember = "META-INF/com/google/android/update-binary"
)

// OSImage names an OS release zip and where to get it
type OSImage struct {
	FileName string
	PageURL  string
}

// ImageFor returns the OS image of a definition
func ImageFor(s *models.Settings) (*OSImage, error) {
	info := DeviceInfoFrom(s.General)
	if err := info.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("device", info.Codename)
	query.Set("type", info.ReleaseType)

	return &OSImage{
		FileName: fmt.Sprintf("cm-11-%s.%s-%s.zip", info.Codename, info.ReleaseType, info.ReleaseVersion),
		PageURL:  downloadPage + "?" + query.Encode(),
	}, nil
}

// Path is where the image is expected in the resources directory
func (i *OSImage) Path(ws *workspace.Workspace) string {
	return filepath.Join(ws.ResourcesDir(), i.FileName)
}

// UpdateBinaryPath is where the update-binary is placed in the definition
func UpdateBinaryPath(ws *workspace.Workspace) string {
	return filepath.Join(ws.DefinitionPath(), "other", "update-binary")
}

// ExtractUpdateBinary copies the update-binary out of the OS image into the
// definition. It returns the destination path.
func ExtractUpdateBinary(ws *workspace.Workspace, s *models.Settings) (string, error) {
	image, err := ImageFor(s)
	if err != nil {
		return "", err
	}

	dest := UpdateBinaryPath(ws)
	if _, err := archive.ExtractMember(image.Path(ws), UpdateBinaryMember, dest); err != nil {
		return "", err
	}
	return dest, nil
}
