package interact

import (
	"context"
	"log/slog"
)

// FlowEvent identifies the pipeline outcome being logged for one
// interaction event.
type FlowEvent string

const (
	FlowRejectedOwner FlowEvent = "interaction_rejected_owner"
	FlowRateLimited   FlowEvent = "interaction_rate_limited"
	FlowMalformed     FlowEvent = "interaction_malformed_token"
	FlowDispatched    FlowEvent = "interaction_dispatched"
	FlowHandlerError  FlowEvent = "interaction_handler_error"
	FlowExpired       FlowEvent = "interaction_collector_expired"
	FlowRenderFailed  FlowEvent = "interaction_render_failed"
	FlowReplyFailed   FlowEvent = "interaction_reply_failed"
)

// flowLogger wraps slog.Logger for structured interaction pipeline
// logging.
type flowLogger struct {
	logger *slog.Logger
}

func newFlowLogger(logger *slog.Logger) *flowLogger {
	return &flowLogger{logger: logger.With("component", "interact")}
}

func (fl *flowLogger) log(event FlowEvent, attrs ...slog.Attr) {
	base := []slog.Attr{slog.String("event", string(event))}
	base = append(base, attrs...)
	fl.logger.LogAttrs(context.Background(), slog.LevelInfo, "interaction", base...)
}
