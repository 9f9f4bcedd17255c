package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganot/erfasst-mcp/internal/observability"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// callMiddleware tags every tool call with a request ID, wraps it in a
// span and logs its outcome.
func callMiddleware(logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			requestID := observability.RequestIDFromContext(ctx)
			if requestID == "" {
				requestID = observability.NewRequestID()
				ctx = observability.WithRequestID(ctx, requestID)
			}
			tool := toolName(req)

			ctx, span := observability.StartSpan(ctx, "mcp.tool/"+tool,
				attribute.String("mcp.tool", tool),
				attribute.String("request.id", requestID),
			)
			defer span.End()

			started := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(started)

			isError := false
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil {
				isError = res.IsError
			}
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				logger.Warn("tool call errored", "tool", tool, "request_id", requestID, "duration", elapsed, "error", err)
			case isError:
				span.SetStatus(codes.Error, "tool returned error result")
				logger.Info("tool call", "tool", tool, "request_id", requestID, "duration", elapsed, "is_error", true)
			default:
				logger.Info("tool call", "tool", tool, "request_id", requestID, "duration", elapsed, "is_error", false)
			}
			return result, err
		}
	}
}

func toolName(req sdkmcp.Request) string {
	params, ok := safeParams(req).(*sdkmcp.CallToolParamsRaw)
	if !ok || params == nil {
		return "unknown"
	}
	return params.Name
}
