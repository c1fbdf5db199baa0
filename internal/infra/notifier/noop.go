package notifier

import (
	"context"
	"log/slog"

	"wikinotify/internal/domain/entity"
)

// DryRun is a Transport that renders the webhook body and logs it instead of posting.
// It is used when delivery is disabled so the rest of the pipeline runs unchanged.
// This follows the Null Object pattern.
type DryRun struct {
	logger *slog.Logger
}

// NewDryRun creates a DryRun transport. A nil logger uses slog.Default().
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger}
}

// Name implements Transport.
func (d *DryRun) Name() string {
	return "dry-run"
}

// Send encodes the payload and logs the body. Encoding errors are still reported
// so that a dry run surfaces the same payload problems a real delivery would.
func (d *DryRun) Send(ctx context.Context, p entity.Payload) error {
	body, err := EncodeBody(p)
	if err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dry-run webhook delivery",
		slog.String("severity", p.Severity.String()),
		slog.String("channel", p.Channel),
		slog.Int("body_bytes", len(body)),
		slog.String("text", p.Text))
	return nil
}
