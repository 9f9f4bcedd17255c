package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// APIError is the structured error returned from a failed tool call.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain and gateway errors to API error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var (
		already  *timetracking.AlreadyTrackingError
		noActive *timetracking.NoActiveSessionError
		conflict *timetracking.ConflictingSessionsError
		filter   *graphql.UnsupportedFilterError
	)
	switch {
	case errors.As(err, &already):
		return &APIError{
			Code:         "ALREADY_TRACKING",
			Message:      already.Error(),
			Details:      map[string]any{"session": already.Session},
			RecoveryHint: "Stop the open session with stop_time_tracking before starting a new one",
		}
	case errors.As(err, &noActive):
		details := map[string]any{"person_id": noActive.PersonID}
		if noActive.ExpectedSessionID != "" {
			details["expected_session_id"] = noActive.ExpectedSessionID
		}
		if noActive.Current != nil {
			details["current_session"] = noActive.Current
		}
		return &APIError{
			Code:         "NO_ACTIVE_SESSION",
			Message:      noActive.Error(),
			Details:      details,
			RecoveryHint: "Call time_tracking_status to see the person's current state",
		}
	case errors.As(err, &conflict):
		return &APIError{
			Code:         "CONFLICTING_SESSIONS",
			Message:      conflict.Error(),
			Details:      map[string]any{"person_id": conflict.PersonID, "sessions": conflict.Sessions},
			RecoveryHint: "Resolve the duplicate open sessions in 123erfasst, or stop one by passing its session_id",
		}
	case errors.As(err, &filter):
		return &APIError{
			Code:    "UNSUPPORTED_FILTER",
			Message: filter.Error(),
			Details: map[string]any{"field": filter.Field, "operator": filter.Op},
		}
	case errors.Is(err, repository.ErrInvalidArgument):
		return &APIError{Code: "INVALID_ARGUMENT", Message: err.Error(), RecoveryHint: "Check the tool arguments"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), RecoveryHint: "Check ID spelling or use a list/search tool"}
	case errors.Is(err, gateway.ErrAuthentication):
		return &APIError{
			Code:         "AUTHENTICATION_FAILED",
			Message:      err.Error(),
			RecoveryHint: "Verify ERFASST_API_USERNAME and ERFASST_API_TOKEN",
		}
	case errors.Is(err, gateway.ErrRateLimit):
		return &APIError{Code: "RATE_LIMITED", Message: err.Error(), Retryable: true, RecoveryHint: "Wait before retrying"}
	case errors.Is(err, gateway.ErrNetwork):
		return &APIError{Code: "NETWORK_ERROR", Message: err.Error(), Retryable: true, RecoveryHint: "Retry; for start/stop check time_tracking_status first"}
	case errors.Is(err, gateway.ErrRemoteSchema):
		return &APIError{Code: "REMOTE_SCHEMA_ERROR", Message: err.Error()}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError:           true,
		Content:           []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		StructuredContent: apiErr,
	}
}
