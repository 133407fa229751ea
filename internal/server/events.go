package server

import (
	"context"
	"log/slog"
	"time"

	"chronicle/internal/models"
	"chronicle/internal/notifications"
	"chronicle/internal/observability"
	"chronicle/internal/service"
)

// logSink turns service events into log lines and metrics, and forwards
// successful writes to the notifier.
type logSink struct {
	logger   *slog.Logger
	notifier *notifications.Notifier
	now      func() time.Time
}

func newLogSink(logger *slog.Logger, notifier *notifications.Notifier) *logSink {
	return &logSink{logger: logger, notifier: notifier, now: time.Now}
}

func (s *logSink) ReadDegraded(ctx context.Context, operation string, err error) {
	observability.BlogReadDegradations.WithLabelValues(operation).Inc()
	s.logger.WarnContext(ctx, "blog read degraded to empty result",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (s *logSink) PostWritten(ctx context.Context, e service.PostEvent) {
	if e.Operation == service.OpView {
		if e.Err == nil {
			observability.BlogPostViews.Inc()
		}
		return
	}

	if e.Err != nil {
		outcome := models.ErrorCode(e.Err)
		if outcome == "" {
			outcome = "error"
		}
		observability.BlogPostWrites.WithLabelValues(e.Operation, outcome).Inc()
		s.logger.WarnContext(ctx, "blog post write failed",
			slog.String("operation", e.Operation),
			slog.String("post_id", e.PostID.String()),
			slog.String("error", e.Err.Error()),
		)
		return
	}

	observability.BlogPostWrites.WithLabelValues(e.Operation, "success").Inc()
	if e.Transition != "" && e.Transition != models.TransitionNone {
		observability.BlogPublishTransitions.WithLabelValues(string(e.Transition)).Inc()
	}
	s.logger.InfoContext(ctx, "blog post written",
		slog.String("operation", e.Operation),
		slog.String("post_id", e.PostID.String()),
		slog.String("slug", e.Slug),
		slog.Any("changes", e.Changes),
		slog.String("transition", string(e.Transition)),
		slog.String("state", string(e.State)),
	)

	change := notifications.PostChange{
		Operation:  e.Operation,
		PostID:     e.PostID.String(),
		Slug:       e.Slug,
		Changes:    e.Changes,
		Transition: string(e.Transition),
		State:      string(e.State),
		At:         s.now().UTC(),
	}
	if e.Transition == models.TransitionNone {
		change.Transition = ""
	}
	if err := s.notifier.PublishPostChange(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "failed to publish post change",
			slog.String("post_id", change.PostID),
			slog.String("error", err.Error()),
		)
	}
}
