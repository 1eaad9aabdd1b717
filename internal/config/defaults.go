package config

const (
	defaultLogDir               = "~/.local/share/unitcam/logs"
	defaultLockDir              = "~/.local/share/unitcam/locks"
	defaultChartPath            = "~/.local/share/unitcam/analysis.png"
	defaultServerBaseURL        = "http://127.0.0.1:5000"
	defaultServerTimeoutSeconds = 30
	defaultEnvironmentDevice    = "/dev/video2"
	defaultUserDevice           = "/dev/video0"
	defaultCameraWidth          = 1280
	defaultCameraHeight         = 720
	defaultRetryDelaySeconds    = 5
	defaultRetryMaxDelaySeconds = 60
	defaultRetryBackoff         = BackoffFixed
	defaultPollIntervalSeconds  = 5
	defaultChartWidth           = 1024
	defaultChartHeight          = 512
	defaultChartTitle           = "Unified Unit-wise Value Analysis"
	defaultNtfyTimeoutSeconds   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultServerURLEnv         = "UNITCAM_SERVER_URL"
	defaultEnvironmentDeviceEnv = "UNITCAM_CAMERA_ENVIRONMENT"
	defaultUserDeviceEnv        = "UNITCAM_CAMERA_USER"
)

// Backoff strategies accepted by capture.retry_backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			LockDir:   defaultLockDir,
			ChartPath: defaultChartPath,
		},
		Server: Server{
			BaseURL:        defaultServerBaseURL,
			TimeoutSeconds: defaultServerTimeoutSeconds,
		},
		Camera: Camera{
			EnvironmentDevice: defaultEnvironmentDevice,
			UserDevice:        defaultUserDevice,
			PreferBack:        true,
			Width:             defaultCameraWidth,
			Height:            defaultCameraHeight,
		},
		Capture: Capture{
			RetryDelaySeconds:    defaultRetryDelaySeconds,
			RetryMaxDelaySeconds: defaultRetryMaxDelaySeconds,
			RetryBackoff:         defaultRetryBackoff,
		},
		Analytics: Analytics{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			ChartWidth:          defaultChartWidth,
			ChartHeight:         defaultChartHeight,
			ChartTitle:          defaultChartTitle,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
