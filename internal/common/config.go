package common

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the worker configuration loaded from a single YAML file
type Config struct {
	Database     DatabaseConfig     `yaml:"database" validate:"required"`
	S3           S3Config           `yaml:"s3" validate:"required"`
	Logging      LoggingConfig      `yaml:"logging"`
	Documents    DocumentsConfig    `yaml:"documents"`
	Externals    ExternalsConfig    `yaml:"externals"`
	Experimental ExperimentalConfig `yaml:"experimental"`
}

type DatabaseConfig struct {
	ConnectionString  string `yaml:"connectionString" validate:"required"` // Postgres DSN
	ConnectionTimeout int    `yaml:"connectionTimeout"`                    // Dial timeout in milliseconds
	QueueTimeout      int    `yaml:"queueTimeout"`                         // Notification wait cycle in seconds
}

type S3Config struct {
	URL      string `yaml:"url" validate:"required"` // Endpoint URL, scheme selects TLS
	Username string `yaml:"username"`                // Access key
	Password string `yaml:"password"`                // Secret key
	Bucket   string `yaml:"bucket" validate:"required"`
	Region   string `yaml:"region"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`       // Worker log level ("DEBUG", "INFO", ...)
	GlobalLevel string `yaml:"globalLevel"` // Fallback level when level is unset
	Format      string `yaml:"format"`      // "text" or "json"
}

type DocumentsConfig struct {
	Naming NamingConfig `yaml:"naming"`
}

type NamingConfig struct {
	Strategy string `yaml:"strategy"` // "uuid", "sanitize" or "slugify"
}

type ExternalsConfig struct {
	Pandoc      ExternalConfig `yaml:"pandoc"`
	Wkhtmltopdf ExternalConfig `yaml:"wkhtmltopdf"`
	Prince      ExternalConfig `yaml:"prince"`
}

// ExternalConfig describes one converter binary
type ExternalConfig struct {
	Executable string `yaml:"executable"`
	Args       string `yaml:"args"`    // Extra arguments, shell-quoted
	Timeout    int    `yaml:"timeout"` // Seconds per invocation, 0 = unlimited
}

type ExperimentalConfig struct {
	MoreAppsEnabled bool    `yaml:"moreAppsEnabled"`   // Multi-tenant mode
	JobTimeout      int     `yaml:"job_timeout"`       // Wall-clock seconds per job, 0 = unlimited
	PDFWatermark    string  `yaml:"pdf_watermark"`     // Path to the stamp image
	PDFWatermarkTop float64 `yaml:"pdf_watermark_top"` // Offset from the page top in points
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			ConnectionTimeout: 30000, // 30s dial timeout
			QueueTimeout:      120,   // Re-check the queue every two minutes without notifications
		},
		Logging: LoggingConfig{
			Level:       "INFO",
			GlobalLevel: "WARNING",
			Format:      "text",
		},
		Documents: DocumentsConfig{
			Naming: NamingConfig{
				Strategy: "sanitize",
			},
		},
		Externals: ExternalsConfig{
			Pandoc:      ExternalConfig{Executable: "pandoc", Timeout: 60},
			Wkhtmltopdf: ExternalConfig{Executable: "wkhtmltopdf", Timeout: 60},
			Prince:      ExternalConfig{Executable: "prince", Timeout: 60},
		},
	}
}

// LoadConfig loads the YAML configuration file at path over the defaults
// and validates it. Missing required keys are reported by their YAML path.
func LoadConfig(path string) (*Config, error) {
	config := NewDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports every missing required option by its YAML path
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	missing := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		// Namespace is "Config.database.connectionString"; drop the root
		path := fieldErr.Namespace()
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}
		missing = append(missing, path)
	}
	return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
}

// ConnectTimeout returns the database dial timeout
func (c *DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeout) * time.Millisecond
}

// QueueWaitTimeout returns the notification wait cycle length
func (c *DatabaseConfig) QueueWaitTimeout() time.Duration {
	return time.Duration(c.QueueTimeout) * time.Second
}

// CommandTimeout returns the per-invocation limit, 0 when unlimited
func (c *ExternalConfig) CommandTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// JobTimeoutDuration returns the wall-clock job limit, 0 when unlimited
func (c *ExperimentalConfig) JobTimeoutDuration() time.Duration {
	return time.Duration(c.JobTimeout) * time.Second
}

// Secure reports whether the S3 endpoint uses TLS
func (c *S3Config) Secure() bool {
	return strings.HasPrefix(strings.ToLower(c.URL), "https://")
}

// Endpoint returns the S3 host[:port] without the URL scheme
func (c *S3Config) Endpoint() string {
	endpoint := c.URL
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(endpoint), prefix) {
			endpoint = endpoint[len(prefix):]
			break
		}
	}
	return strings.TrimSuffix(endpoint, "/")
}
