package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/spf13/viper"
)

// FileName is the base name of the tool configuration file
const FileName = "mia"

var defaultConfig = models.Config{
	Workspace:       ".",
	TemplatesDir:    "",
	DefaultTemplate: "mia-default",
	DefaultCPU:      "armeabi",
	Download: models.DownloadConfig{
		DefaultDir: "user-apps",
	},
	HTTP: models.HTTPConfig{
		Timeout:   30 * time.Minute,
		UserAgent: "Mia-CLI/1.0",
	},
	Log: models.LogConfig{
		Level:  "info",
		Format: "text",
	},
}

// Default returns the built-in configuration
func Default() models.Config {
	return defaultConfig
}

// Load reads the configuration file and MIA_* environment variables on top
// of the defaults. Without configPath, mia.yaml is looked up in workspace
// and in ~/.config/mia; a missing file is not an error.
func Load(configPath, workspace string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("workspace", defaultConfig.Workspace)
	v.SetDefault("templates_dir", defaultConfig.TemplatesDir)
	v.SetDefault("default_template", defaultConfig.DefaultTemplate)
	v.SetDefault("default_cpu", defaultConfig.DefaultCPU)
	v.SetDefault("lang", defaultConfig.Lang)
	v.SetDefault("download.default_dir", defaultConfig.Download.DefaultDir)
	v.SetDefault("http.timeout", defaultConfig.HTTP.Timeout)
	v.SetDefault("http.user_agent", defaultConfig.HTTP.UserAgent)
	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.format", defaultConfig.Log.Format)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(FileName)
		if workspace != "" {
			v.AddConfigPath(workspace)
		} else {
			v.AddConfigPath(".")
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mia"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// MIA_HTTP_TIMEOUT overrides http.timeout
	v.SetEnvPrefix("MIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if workspace != "" {
		config.Workspace = workspace
	}
	return &config, nil
}

// SaveTemplate writes a commented configuration file
func SaveTemplate(path string) error {
	templateContent := `# Mia CLI configuration

# Directory holding definitions/ and resources/
workspace: "."

# Directory searched for definition templates before the built-in ones
templates_dir: ""

default_template: "mia-default"
default_cpu: "armeabi"

download:
  # Download directory inside a definition for apps without a path
  default_dir: "user-apps"

http:
  timeout: 30m
  user_agent: "Mia-CLI/1.0"

log:
  # debug, info, warn or error
  level: "info"
  # text or json
  format: "text"
`

	return os.WriteFile(path, []byte(templateContent), 0644)
}
