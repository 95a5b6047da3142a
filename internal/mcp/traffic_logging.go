package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps the bytes of a params or result payload in a log entry.
const maxLoggedPayload = 2048

// trafficLogger writes one debug entry per MCP exchange. Tool calls are keyed
// by tool name so activity operations can be traced in the log.
type trafficLogger struct {
	logger    *slog.Logger
	direction string
}

func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	tl := trafficLogger{logger: logger, direction: direction}
	return tl.wrap
}

func (tl trafficLogger) wrap(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
	return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		if tl.logger == nil || !tl.logger.Enabled(ctx, slog.LevelDebug) {
			return next(ctx, method, req)
		}

		start := time.Now()
		result, err := next(ctx, method, req)

		attrs := []slog.Attr{
			slog.String("direction", tl.direction),
			slog.String("method", method),
		}
		if tool := toolName(req); tool != "" {
			attrs = append(attrs, slog.String("tool", tool))
		}
		if id := sessionID(req); id != "" {
			attrs = append(attrs, slog.String("session_id", id))
		}
		attrs = append(attrs,
			slog.Duration("elapsed", time.Since(start)),
			slog.String("params", encodePayload(params(req))),
		)
		if !strings.HasPrefix(method, "notifications/") {
			attrs = append(attrs, slog.String("result", encodePayload(result)))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		tl.logger.LogAttrs(ctx, slog.LevelDebug, "mcp exchange", attrs...)
		return result, err
	}
}

// Request accessors can panic on partially built requests; logging must not.

func sessionID(req sdkmcp.Request) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if req == nil || req.GetSession() == nil {
		return ""
	}
	return req.GetSession().ID()
}

func params(req sdkmcp.Request) (p any) {
	defer func() {
		if recover() != nil {
			p = nil
		}
	}()
	if req == nil {
		return nil
	}
	return req.GetParams()
}

func toolName(req sdkmcp.Request) string {
	if call, ok := params(req).(*sdkmcp.CallToolParamsRaw); ok && call != nil {
		return call.Name
	}
	if call, ok := params(req).(*sdkmcp.CallToolParams); ok && call != nil {
		return call.Name
	}
	return ""
}

func encodePayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "<unencodable>"
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "...(truncated)"
	}
	return string(data)
}
