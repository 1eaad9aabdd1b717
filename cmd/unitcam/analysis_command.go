package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"unitcam/internal/analytics"
	"unitcam/internal/chart"
	"unitcam/internal/config"
	"unitcam/internal/logging"
	"unitcam/internal/services"
)

func newAnalysisCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Poll the analysis dataset and render the unit chart",
		Long: `Fetch the per-unit value sequences, print a summary and render them as a
line chart (one series per unit). Without --once the dataset is polled on the
configured interval until interrupted; a failed poll keeps the previous chart.`,
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

			view := newChartView(cmd.OutOrStdout(), cfg, logger)
			if outputPath != "" {
				expanded, err := config.ExpandPath(outputPath)
				if err != nil {
					return fmt.Errorf("resolve chart path: %w", err)
				}
				view.path = expanded
			}
			poller := analytics.NewPoller(client, view,
				analytics.WithInterval(cfg.PollInterval()),
				analytics.WithLogger(logger),
			)

			if once {
				update := poller.PollOnce(cmd.Context())
				return update.Err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := poller.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			poller.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Fetch once, render, and exit")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Chart output path (defaults to paths.chart_path)")
	return cmd
}

// chartView renders every poll update to the chart file and prints a per-unit
// summary. It implements analytics.View.
type chartView struct {
	mu       sync.Mutex
	out      io.Writer
	path     string
	opts     chart.Options
	logger   *slog.Logger
	colorize bool
}

func newChartView(out io.Writer, cfg *config.Config, logger *slog.Logger) *chartView {
	return &chartView{
		out:  out,
		path: cfg.Paths.ChartPath,
		opts: chart.Options{
			Title:  cfg.Analytics.ChartTitle,
			Width:  cfg.Analytics.ChartWidth,
			Height: cfg.Analytics.ChartHeight,
		},
		logger:   logging.NewComponentLogger(logger, "cli"),
		colorize: shouldColorize(out),
	}
}

func (v *chartView) Show(u analytics.Update) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if u.Err != nil {
		line := fmt.Sprintf("Analysis fetch failed: %s (keeping previous chart)", services.Message(u.Err))
		if v.colorize {
			line = ansiRed + line + ansiReset
		}
		fmt.Fprintln(v.out, line)
		return
	}

	for _, line := range renderSectionHeader(fmt.Sprintf("Analysis #%d", u.Seq), v.colorize) {
		fmt.Fprintln(v.out, line)
	}
	if len(u.Series) == 0 {
		fmt.Fprintln(v.out, "No data yet.")
	} else {
		fmt.Fprintln(v.out, renderTable(
			[]string{"Unit", "Count", "Latest", "Min", "Max", "Mean"},
			summarizeSeries(u.Series),
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	}

	// An empty dataset still goes through WriteFile so a stale chart is removed.
	err := chart.WriteFile(v.path, u.Series, v.opts)
	switch {
	case errors.Is(err, chart.ErrNoData):
		if len(u.Series) > 0 {
			fmt.Fprintln(v.out, "No values to plot.")
		}
	case err != nil:
		logging.WarnWithContext(v.logger, "chart write failed", "chart_write_failed",
			logging.Error(err),
			logging.String("path", v.path),
			logging.String(logging.FieldErrorHint, "check paths.chart_path permissions"),
			logging.String(logging.FieldImpact, "chart file not updated"),
		)
		fmt.Fprintf(v.out, "Chart not written: %v\n", err)
	default:
		fmt.Fprintf(v.out, "Chart written to %s\n", v.path)
	}
}

// summarizeSeries builds one table row per series, in series order.
func summarizeSeries(series []chart.Series) [][]string {
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		if len(s.Points) == 0 {
			rows = append(rows, []string{s.Label, "0", "-", "-", "-", "-"})
			continue
		}
		minV, maxV, sum := s.Points[0].Y, s.Points[0].Y, 0.0
		for _, p := range s.Points {
			minV = min(minV, p.Y)
			maxV = max(maxV, p.Y)
			sum += p.Y
		}
		rows = append(rows, []string{
			s.Label,
			strconv.Itoa(len(s.Points)),
			chart.FormatNumber(s.Points[len(s.Points)-1].Y),
			chart.FormatNumber(minV),
			chart.FormatNumber(maxV),
			chart.FormatNumber(sum / float64(len(s.Points))),
		})
	}
	return rows
}
