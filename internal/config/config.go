// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Environment variables that override file values.
const (
	EnvDataDir            = "JOBTRACKER_DATA_DIR"
	EnvSessionDir         = "JOBTRACKER_SESSION_DIR"
	EnvDatabaseURL        = "JOBTRACKER_DATABASE_URL"
	EnvDocumentName       = "JOBTRACKER_DOCUMENT_NAME"
	EnvSeedFile           = "JOBTRACKER_SEED_FILE"
	EnvGoogleClientID     = "JOBTRACKER_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "JOBTRACKER_GOOGLE_CLIENT_SECRET"
	EnvDriveEndpoint      = "JOBTRACKER_DRIVE_ENDPOINT"
	EnvPort               = "JOBTRACKER_PORT"
	EnvVerbose            = "JOBTRACKER_VERBOSE"
)

// Config represents the tracker configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults.
type Config struct {
	// Storage
	DataDir    string `json:"data_dir,omitempty"`    // Durable cache and file handle
	SessionDir string `json:"session_dir,omitempty"` // Bearer token, cleared with the login session
	SeedFile   string `json:"seed_file,omitempty"`   // JSON list used when the cache is empty

	// PostgreSQL URL for shared durable slots
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"`

	// Remote
	DocumentName       string `json:"document_name,omitempty" validate:"omitempty,excludes=/"`
	GoogleClientID     string `json:"google_client_id,omitempty"`
	GoogleClientSecret string `json:"google_client_secret,omitempty"`
	DriveEndpoint      string `json:"drive_endpoint,omitempty" validate:"omitempty,url"`

	// Server
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays JOBTRACKER_* environment variables onto the config.
func (c *Config) ApplyEnv() error {
	setString(&c.DataDir, EnvDataDir)
	setString(&c.SessionDir, EnvSessionDir)
	setString(&c.DatabaseURL, EnvDatabaseURL)
	setString(&c.DocumentName, EnvDocumentName)
	setString(&c.SeedFile, EnvSeedFile)
	setString(&c.GoogleClientID, EnvGoogleClientID)
	setString(&c.GoogleClientSecret, EnvGoogleClientSecret)
	setString(&c.DriveEndpoint, EnvDriveEndpoint)

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvPort, err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvVerbose, err)
		}
		c.Verbose = verbose
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// A client secret without an id cannot run the device flow
	if c.GoogleClientSecret != "" && c.GoogleClientID == "" {
		return fmt.Errorf("config error: 'google_client_secret' requires 'google_client_id'")
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: seed file not found: %s", c.SeedFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.SessionDir == "" {
		result.SessionDir = defaults.SessionDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DocumentName == "" {
		result.DocumentName = defaults.DocumentName
	}
	if result.SeedFile == "" {
		result.SeedFile = defaults.SeedFile
	}
	if result.GoogleClientID == "" {
		result.GoogleClientID = defaults.GoogleClientID
	}
	if result.GoogleClientSecret == "" {
		result.GoogleClientSecret = defaults.GoogleClientSecret
	}
	if result.DriveEndpoint == "" {
		result.DriveEndpoint = defaults.DriveEndpoint
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:      defaultDataDir(),
		SessionDir:   defaultSessionDir(),
		DocumentName: "job-tracker.json",
		Port:         8080,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "job-tracker")
	}
	return filepath.Join(".", ".job-tracker")
}

// defaultSessionDir picks a directory that does not survive the login
// session, so the bearer token goes with it.
func defaultSessionDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "job-tracker")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("job-tracker-%d", os.Getuid()))
}
