// Package testsupport builds isolated configurations for tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"unitcam/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Cameras default to paths inside the temp dir so nothing touches real devices.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockDir = filepath.Join(base, "locks")
	cfgVal.Paths.ChartPath = filepath.Join(base, "charts", "analysis.png")
	cfgVal.Server.BaseURL = "http://127.0.0.1:0"
	cfgVal.Camera.EnvironmentDevice = filepath.Join(base, "dev", "video2")
	cfgVal.Camera.UserDevice = filepath.Join(base, "dev", "video0")
	cfgVal.Camera.AnyDevices = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServerURL points the config at a test server.
func WithServerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.BaseURL = url
	}
}

// WithCameras overrides the rear and front camera devices. Empty disables one.
func WithCameras(environment, user string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Camera.EnvironmentDevice = environment
		b.cfg.Camera.UserDevice = user
	}
}

// WithRetry overrides the capture retry settings.
func WithRetry(delaySeconds, maxAttempts int, backoff string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.RetryDelaySeconds = delaySeconds
		b.cfg.Capture.RetryMaxAttempts = maxAttempts
		b.cfg.Capture.RetryBackoff = backoff
	}
}

// WithPollInterval overrides the analytics poll interval.
func WithPollInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analytics.PollIntervalSeconds = seconds
	}
}
