package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"unitcam/internal/logging"
	"unitcam/internal/notifications"
	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

const notifyTimeout = 15 * time.Second

// asyncNotifier publishes off the caller's goroutine. wait blocks until every
// pending publish has finished.
type asyncNotifier struct {
	svc    notifications.Service
	logger *slog.Logger
	wg     sync.WaitGroup
}

func newAsyncNotifier(svc notifications.Service, logger *slog.Logger) *asyncNotifier {
	return &asyncNotifier{svc: svc, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (n *asyncNotifier) publish(event notifications.Event, payload notifications.Payload) {
	if n == nil || n.svc == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.svc.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(n.logger, "notification failed", "notification_failed",
				logging.Error(err),
				logging.String("event", string(event)),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "notification not delivered"),
			)
		}
	}()
}

func (n *asyncNotifier) wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *asyncNotifier) readingCaptured(result ocrapi.ExtractionResult) {
	readings := make([]string, 0, len(result.Inserted))
	for _, item := range result.Inserted {
		readings = append(readings, fmt.Sprintf("%s %s", item.Value, item.Unit))
	}
	n.publish(notifications.EventReadingCaptured, notifications.Payload{
		"readings": readings,
		"skipped":  len(result.Skipped),
	})
}

func (n *asyncNotifier) retryExhausted(attempts int, cause error) {
	n.publish(notifications.EventRetryExhausted, notifications.Payload{
		"attempts": attempts,
		"error":    services.Message(cause),
	})
}

func (n *asyncNotifier) cameraFailed(err error) {
	n.publish(notifications.EventCameraFailed, notifications.Payload{"error": services.Message(err)})
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, "Notifications disabled; set notifications.ntfy_topic")
				return nil
			}
			sendCtx, cancel := context.WithTimeout(cmd.Context(), notifyTimeout)
			defer cancel()
			if err := notifications.NewService(cfg).Publish(sendCtx, notifications.EventTest, nil); err != nil {
				return err
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
