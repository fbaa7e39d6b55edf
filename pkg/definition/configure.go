package definition

import (
	"errors"
	"fmt"

	"github.com/huanfeng/mia-cli/internal/workspace"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/settings"
)

// ErrMissingDeviceInfo is returned when the general section lacks the keys
// needed to name the OS image
var ErrMissingDeviceInfo = errors.New("device information missing from settings")

// DeviceInfo identifies the device and the OS release installed on it
type DeviceInfo struct {
	Codename       string
	ReleaseType    string
	ReleaseVersion string
}

// DeviceInfoFrom reads the device information of a definition
func DeviceInfoFrom(general models.General) DeviceInfo {
	return DeviceInfo{
		Codename:       general.CMDeviceCodename,
		ReleaseType:    general.CMReleaseType,
		ReleaseVersion: general.CMReleaseVersion,
	}
}

// Validate reports the first missing field
func (d DeviceInfo) Validate() error {
	switch {
	case d.Codename == "":
		return fmt.Errorf("%w: cm_device_codename", ErrMissingDeviceInfo)
	case d.ReleaseType == "":
		return fmt.Errorf("%w: cm_release_type", ErrMissingDeviceInfo)
	case d.ReleaseVersion == "":
		return fmt.Errorf("%w: cm_release_version", ErrMissingDeviceInfo)
	}
	return nil
}

// Configure backs up the settings file and writes the device information
// into its general section
func Configure(ws *workspace.Workspace, info DeviceInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if !ws.DefinitionExists() {
		return fmt.Errorf("%w: %s", ErrDefinitionNotFound, ws.Definition)
	}

	if err := settings.Backup(ws.SettingsFile()); err != nil {
		return err
	}

	return settings.Update(ws.SettingsFile(), map[string]settings.Change{
		"general": {
			Update: map[string]interface{}{
				"cm_device_codename": info.Codename,
				"cm_release_type":    info.ReleaseType,
				"cm_release_version": info.ReleaseVersion,
			},
		},
	})
}
