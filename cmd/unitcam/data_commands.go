package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"unitcam/internal/notifications"
	"unitcam/internal/services/ocrapi"
)

func newDataCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "data",
		Short: "List stored value/unit readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			rows, err := client.Rows(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				if rows == nil {
					rows = []ocrapi.Row{}
				}
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No readings stored")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Value", "Unit"},
				readingRows(rows),
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func readingRows(rows []ocrapi.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		out = append(out, []string{strconv.Itoa(i + 1), row.Value.String(), row.Unit})
	}
	return out
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !assumeYes {
				fmt.Fprintf(out, "Delete all stored readings on %s? [y/N]: ", client.BaseURL())
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}
			message, err := client.ClearData(cmd.Context())
			if err != nil {
				return err
			}
			if cfg := ctx.configValue(); cfg != nil {
				logger, _ := ctx.ensureLogger()
				notifier := newAsyncNotifier(notifications.NewService(cfg), logger)
				notifier.publish(notifications.EventDataCleared, notifications.Payload{"server": client.BaseURL()})
				defer notifier.wait()
			}
			if strings.TrimSpace(message) == "" {
				message = "All data cleared"
			}
			fmt.Fprintln(out, message)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
