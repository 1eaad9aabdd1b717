package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeCamera()
	c.normalizeCapture()
	c.normalizeAnalytics()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ChartPath) == "" {
		c.Paths.ChartPath = defaultChartPath
	}
	if c.Paths.ChartPath, err = expandPath(c.Paths.ChartPath); err != nil {
		return fmt.Errorf("paths.chart_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv(defaultServerURLEnv); ok && strings.TrimSpace(value) != "" {
		c.Server.BaseURL = value
	}
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultServerBaseURL
	}
	if c.Server.TimeoutSeconds <= 0 {
		c.Server.TimeoutSeconds = defaultServerTimeoutSeconds
	}
}

func (c *Config) normalizeCamera() {
	if value, ok := os.LookupEnv(defaultEnvironmentDeviceEnv); ok && strings.TrimSpace(value) != "" {
		c.Camera.EnvironmentDevice = value
	}
	if value, ok := os.LookupEnv(defaultUserDeviceEnv); ok && strings.TrimSpace(value) != "" {
		c.Camera.UserDevice = value
	}
	c.Camera.EnvironmentDevice = strings.TrimSpace(c.Camera.EnvironmentDevice)
	c.Camera.UserDevice = strings.TrimSpace(c.Camera.UserDevice)

	devices := make([]string, 0, len(c.Camera.AnyDevices))
	seen := make(map[string]struct{}, len(c.Camera.AnyDevices))
	for _, device := range c.Camera.AnyDevices {
		device = strings.TrimSpace(device)
		if device == "" {
			continue
		}
		if _, exists := seen[device]; exists {
			continue
		}
		seen[device] = struct{}{}
		devices = append(devices, device)
	}
	c.Camera.AnyDevices = devices

	if c.Camera.Width < 0 {
		c.Camera.Width = 0
	}
	if c.Camera.Height < 0 {
		c.Camera.Height = 0
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.RetryBackoff = strings.ToLower(strings.TrimSpace(c.Capture.RetryBackoff))
	if c.Capture.RetryBackoff == "" {
		c.Capture.RetryBackoff = defaultRetryBackoff
	}
	if c.Capture.RetryDelaySeconds <= 0 {
		c.Capture.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.Capture.RetryMaxDelaySeconds <= 0 {
		c.Capture.RetryMaxDelaySeconds = defaultRetryMaxDelaySeconds
	}
	if c.Capture.RetryMaxAttempts < 0 {
		c.Capture.RetryMaxAttempts = 0
	}
}

func (c *Config) normalizeAnalytics() {
	if c.Analytics.PollIntervalSeconds <= 0 {
		c.Analytics.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Analytics.ChartWidth <= 0 {
		c.Analytics.ChartWidth = defaultChartWidth
	}
	if c.Analytics.ChartHeight <= 0 {
		c.Analytics.ChartHeight = defaultChartHeight
	}
	c.Analytics.ChartTitle = strings.TrimSpace(c.Analytics.ChartTitle)
	if c.Analytics.ChartTitle == "" {
		c.Analytics.ChartTitle = defaultChartTitle
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
