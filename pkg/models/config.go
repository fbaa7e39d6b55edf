package models

import "time"

// Config represents the tool configuration
type Config struct {
	Workspace       string         `mapstructure:"workspace" json:"workspace"`
	TemplatesDir    string         `mapstructure:"templates_dir" json:"templates_dir"`
	DefaultTemplate string         `mapstructure:"default_template" json:"default_template"`
	DefaultCPU      string         `mapstructure:"default_cpu" json:"default_cpu"`
	Lang            string         `mapstructure:"lang" json:"lang"`
	Download        DownloadConfig `mapstructure:"download" json:"download"`
	HTTP            HTTPConfig     `mapstructure:"http" json:"http"`
	Log             LogConfig      `mapstructure:"log" json:"log"`
}

// DownloadConfig contains application download settings
type DownloadConfig struct {
	DefaultDir string `mapstructure:"default_dir" json:"default_dir"` // relative to the definition
}

// HTTPConfig contains transport settings shared by index and package fetches
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
	UserAgent string        `mapstructure:"user_agent" json:"user_agent"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" json:"format"` // "text", "json"
}
