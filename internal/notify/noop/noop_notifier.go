package noop

import (
	"context"
	"log/slog"

	"docstore/internal/audit"
)

type noopNotifier struct {
	logger *slog.Logger
}

// NewNotifier creates a FailureNotifier that only logs a summary. The
// coordinator has already logged every entry.
func NewNotifier(logger *slog.Logger) audit.FailureNotifier {
	return &noopNotifier{logger: logger}
}

func (n *noopNotifier) NotifyDeferredFailure(ctx context.Context, f audit.DeferredFailure) error {
	n.logger.WarnContext(ctx, "deferred audit failure not forwarded (noop notifier)",
		"entries", len(f.Entries), "at", f.At)
	return nil
}
