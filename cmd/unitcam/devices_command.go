package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unitcam/internal/camera/discovery"
	"unitcam/internal/camera/hotplug"
	"unitcam/internal/config"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List cameras and the configured facing mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printDevices(out, discovery.List(), cfg)
			if !watch {
				return nil
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			monitor := hotplug.New(logger, func(ev hotplug.Event) {
				fmt.Fprintf(out, "%s %s\n", ev.Action, ev.Device)
			})
			if err := monitor.Start(runCtx); err != nil {
				return err
			}
			defer monitor.Stop()
			if !monitor.Running() {
				return fmt.Errorf("hotplug monitoring unavailable; see log for details")
			}
			fmt.Fprintln(out, "Watching for camera changes (Ctrl-C to stop)...")
			<-runCtx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow camera add/remove events")
	return cmd
}

func printDevices(out io.Writer, devices []discovery.Device, cfg *config.Config) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Cameras", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No video inputs detected")
	} else {
		rows := make([][]string, 0, len(devices))
		for _, d := range devices {
			rows = append(rows, []string{d.Name(), d.ID})
		}
		fmt.Fprintln(out, renderTable([]string{"Name", "ID"}, rows, nil))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Configured", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := [][]string{
		{"environment", cfg.Camera.EnvironmentDevice, yesNo(cfg.Camera.PreferBack)},
		{"user", cfg.Camera.UserDevice, yesNo(!cfg.Camera.PreferBack)},
	}
	for _, device := range cfg.Camera.AnyDevices {
		rows = append(rows, []string{"any", device, "no"})
	}
	if len(cfg.Camera.AnyDevices) == 0 {
		rows = append(rows, []string{"any", "system default", "no"})
	}
	fmt.Fprintln(out, renderTable([]string{"Facing", "Device", "Preferred"}, rows, nil))
}
