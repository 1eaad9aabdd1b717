package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and output file configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	LockDir   string `toml:"lock_dir"`
	ChartPath string `toml:"chart_path"`
}

// Server describes the extraction service endpoint.
type Server struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Camera maps facing modes to capture devices.
type Camera struct {
	// EnvironmentDevice is the rear ("environment") camera, opened first when
	// PreferBack is set.
	EnvironmentDevice string `toml:"environment_device"`
	// UserDevice is the front ("user") camera.
	UserDevice string `toml:"user_device"`
	// AnyDevices lists devices probed in order by the unconstrained fallback.
	// Empty means the system default camera.
	AnyDevices []string `toml:"any_devices"`
	PreferBack bool     `toml:"prefer_back"`
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
}

// Capture contains the automatic retry policy of the capture loop.
type Capture struct {
	RetryDelaySeconds    int    `toml:"retry_delay_seconds"`
	RetryMaxDelaySeconds int    `toml:"retry_max_delay_seconds"`
	RetryMaxAttempts     int    `toml:"retry_max_attempts"` // 0 retries forever
	RetryBackoff         string `toml:"retry_backoff"`
}

// Analytics contains polling and chart output settings.
type Analytics struct {
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	ChartWidth          int    `toml:"chart_width"`
	ChartHeight         int    `toml:"chart_height"`
	ChartTitle          string `toml:"chart_title"`
}

// Notifications configures ntfy delivery of capture events. An empty topic
// disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for unitcam.
//
// Configuration sections by subsystem:
//   - Paths: log, lock, and chart output locations
//   - Server: extraction service base URL and request timeout
//   - Camera: facing-mode to device mapping and capture resolution
//   - Capture: retry policy for empty or failed submissions
//   - Analytics: poll interval and chart geometry
//   - Notifications: optional ntfy topic
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Camera        Camera        `toml:"camera"`
	Capture       Capture       `toml:"capture"`
	Analytics     Analytics     `toml:"analytics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/unitcam/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("unitcam.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and lock directories plus the chart's
// parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.LockDir}
	if strings.TrimSpace(c.Paths.ChartPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.ChartPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ServerTimeout returns the HTTP request timeout for the extraction service.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base delay before an automatic capture retry.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Capture.RetryDelaySeconds) * time.Second
}

// RetryMaxDelay returns the cap applied to exponential retry delays.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Capture.RetryMaxDelaySeconds) * time.Second
}

// PollInterval returns the analytics poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Analytics.PollIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
