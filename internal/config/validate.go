package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", c.Server.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.base_url is missing a host: %q", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.EnvironmentDevice == "" && c.Camera.UserDevice == "" && len(c.Camera.AnyDevices) == 0 {
		return errors.New("camera: at least one of environment_device, user_device, or any_devices must be set")
	}
	return nil
}

func (c *Config) validateCapture() error {
	switch c.Capture.RetryBackoff {
	case BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("capture.retry_backoff must be %q or %q, got %q", BackoffFixed, BackoffExponential, c.Capture.RetryBackoff)
	}
	if c.Capture.RetryMaxDelaySeconds < c.Capture.RetryDelaySeconds {
		return errors.New("capture.retry_max_delay_seconds must be greater than or equal to retry_delay_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) topic URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
