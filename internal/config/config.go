package config

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"

	internal_errors "github.com/opchan-dev/opchan/internal/errors"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Port           int    `yaml:"port"`
	ThreadsPerPage int    `yaml:"threads_per_page"`
	MediaRootPath  string `yaml:"media_root_path"`
	// MaxAttachmentBytes bounds the upload before it is fully buffered.
	MaxAttachmentBytes int64 `yaml:"max_attachment_bytes"`
	// MaxDecodedImageBytes guards against decode bombs: a JPEG header can
	// claim 65535x65535 and make image.Decode allocate ~16GB.
	MaxDecodedImageBytes int64    `yaml:"max_decoded_image_bytes"`
	ThumbMaxSize         int      `yaml:"thumb_max_size"` // max thumbnail dimension, px
	AllowedOrigins       []string `yaml:"allowed_origins"`
	LogLevel             string   `yaml:"log_level"`
	LogJSON              bool     `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Private struct {
	Pg Pg `yaml:"pg"`
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

// Validate fails fast on configuration that would otherwise surface as
// per-request faults (divide-by-zero page math, unbounded uploads).
func (c *Config) Validate() error {
	if c.Public.ThreadsPerPage <= 0 {
		return &internal_errors.ConfigError{Field: "threads_per_page", Reason: "must be positive"}
	}
	if c.Public.MaxAttachmentBytes <= 0 {
		return &internal_errors.ConfigError{Field: "max_attachment_bytes", Reason: "must be positive"}
	}
	if c.Public.MaxDecodedImageBytes <= 0 {
		return &internal_errors.ConfigError{Field: "max_decoded_image_bytes", Reason: "must be positive"}
	}
	if c.Public.ThumbMaxSize <= 0 {
		return &internal_errors.ConfigError{Field: "thumb_max_size", Reason: "must be positive"}
	}
	if c.Public.MediaRootPath == "" {
		return &internal_errors.ConfigError{Field: "media_root_path", Reason: "must be set"}
	}
	return nil
}
