package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"unitcam/internal/camera"
	"unitcam/internal/camera/hotplug"
	"unitcam/internal/camera/opencv"
	"unitcam/internal/capture"
	"unitcam/internal/logging"
	"unitcam/internal/notifications"
	"unitcam/internal/preflight"
	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

const captureHelp = "Press Enter to capture, s to switch camera, q to quit."

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var front bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture frames and submit them for value/unit extraction",
		Long: `Open the preferred camera and run the capture loop.

Commands are read line by line from stdin:
  <Enter> or c   capture the current frame
  s              switch between the rear and front camera
  q              quit

Empty or failed extractions are retried automatically according to the
[capture] retry settings. A manual capture cancels a pending retry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := ctx.newClient()
			if err != nil {
				return err
			}

			preferBack := cfg.Camera.PreferBack && !front
			warnIfCameraNotReady(logger, cfg.Camera.EnvironmentDevice, cfg.Camera.UserDevice, preferBack)

			display := newTerminalDisplay(cmd.OutOrStdout())
			opener := opencv.NewOpener(opencv.Config{
				EnvironmentDevice: cfg.Camera.EnvironmentDevice,
				UserDevice:        cfg.Camera.UserDevice,
				AnyDevices:        cfg.Camera.AnyDevices,
			})
			manager := camera.NewManager(opener,
				camera.WithSink(display),
				camera.WithLogger(logger),
				camera.WithLockDir(cfg.Paths.LockDir),
				camera.WithResolution(cfg.Camera.Width, cfg.Camera.Height),
			)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan hotplug.Event, 4)
			monitor := hotplug.New(logger, func(ev hotplug.Event) {
				select {
				case events <- ev:
				default:
				}
			})
			_ = monitor.Start(runCtx)
			defer monitor.Stop()

			notifier := newAsyncNotifier(notifications.NewService(cfg), logger)
			defer notifier.wait()

			session := &captureSession{
				in:         cmd.InOrStdin(),
				out:        cmd.OutOrStdout(),
				display:    display,
				cameras:    manager,
				recognizer: client,
				preferBack: preferBack,
				once:       once,
				hotplug:    events,
				notifier:   notifier,
				logger:     logger,
				options: []capture.Option{
					capture.WithRetryPolicy(capture.PolicyFromConfig(cfg)),
					capture.WithLogger(logger),
					capture.WithOnExhausted(notifier.retryExhausted),
				},
			}
			return session.run(runCtx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Capture immediately and exit after the first accepted reading")
	cmd.Flags().BoolVar(&front, "front", false, "Start with the front (user) camera")
	return cmd
}

// warnIfCameraNotReady logs a failed preflight check of the preferred device.
func warnIfCameraNotReady(logger *slog.Logger, environment, user string, preferBack bool) {
	name, device := "Front camera", user
	if preferBack {
		name, device = "Rear camera", environment
	}
	if device == "" {
		return
	}
	if result := preflight.CheckCameraDevice(name, device); !result.Passed {
		logging.WarnWithContext(logger, "preferred camera not ready", "camera_preflight_failed",
			logging.String("camera", name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run unitcam check"),
			logging.String(logging.FieldImpact, "capture may fall back to any available camera"),
		)
	}
}

// cameraControl is the camera surface the capture loop drives.
type cameraControl interface {
	capture.VideoSource
	Acquire(ctx context.Context, preferBack bool) (camera.Stream, error)
	Switch(ctx context.Context) (camera.Stream, error)
	Release() error
	Session() camera.Session
}

type captureSession struct {
	in         io.Reader
	out        io.Writer
	display    *terminalDisplay
	cameras    cameraControl
	recognizer capture.Recognizer
	preferBack bool
	once       bool
	hotplug    <-chan hotplug.Event
	notifier   *asyncNotifier
	logger     *slog.Logger
	options    []capture.Option
}

func (s *captureSession) run(ctx context.Context) error {
	logger := logging.NewComponentLogger(s.logger, "cli")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := s.cameras.Acquire(runCtx, s.preferBack); err != nil {
		s.showCameraFailure(err)
		if s.once {
			return err
		}
	}
	defer func() {
		if err := s.cameras.Release(); err != nil {
			logger.Debug("camera release failed", logging.Error(err))
		}
	}()

	accepted := make(chan struct{}, 1)
	opts := append([]capture.Option{}, s.options...)
	opts = append(opts, capture.WithOnAccepted(func(result ocrapi.ExtractionResult) {
		s.notifier.readingCaptured(result)
		select {
		case accepted <- struct{}{}:
		default:
		}
	}))
	controller := capture.NewController(s.cameras, s.recognizer, s.display, opts...)

	runErr := make(chan error, 1)
	go func() { runErr <- controller.Run(runCtx) }()
	shutdown := func() error {
		cancel()
		return <-runErr
	}

	commands := make(chan string)
	go readCommands(runCtx, s.in, commands)

	if s.once {
		controller.Trigger()
	} else {
		fmt.Fprintln(s.out, captureHelp)
	}

	for {
		select {
		case <-runCtx.Done():
			return shutdown()
		case <-accepted:
			if s.once {
				return shutdown()
			}
		case ev := <-s.hotplug:
			s.handleHotplug(runCtx, ev)
		case line, ok := <-commands:
			if !ok {
				commands = nil
				if !s.once {
					return shutdown()
				}
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "c", "capture":
				controller.Trigger()
			case "s", "switch":
				if _, err := s.cameras.Switch(runCtx); err != nil {
					s.showCameraFailure(err)
				}
			case "q", "quit", "exit":
				return shutdown()
			default:
				fmt.Fprintf(s.out, "Unknown command %q. %s\n", strings.TrimSpace(line), captureHelp)
			}
		}
	}
}

// handleHotplug reacquires a camera when one appears while none is active.
func (s *captureSession) handleHotplug(ctx context.Context, ev hotplug.Event) {
	session := s.cameras.Session()
	if !ev.Added() || session.Active {
		return
	}
	if _, err := s.cameras.Acquire(ctx, session.PreferBack); err != nil {
		s.showCameraFailure(err)
	}
}

func (s *captureSession) showCameraFailure(err error) {
	s.notifier.cameraFailed(err)
	s.display.Status(capture.Status{
		Kind:    capture.StatusError,
		State:   capture.StateErrorIdle,
		Lines:   []string{"Camera Failed", services.Message(err)},
		ErrKind: services.Classify(err),
	})
}

func readCommands(ctx context.Context, in io.Reader, out chan<- string) {
	defer close(out)
	if in == nil {
		return
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}
