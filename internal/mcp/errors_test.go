package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	open := timetracking.Session{ID: "st-1", PersonID: "per-1", Start: time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC), Running: true}

	tests := []struct {
		name      string
		err       error
		code      string
		retryable bool
	}{
		{"already tracking", fmt.Errorf("start: %w", &timetracking.AlreadyTrackingError{Session: open}), "ALREADY_TRACKING", false},
		{"no active session", &timetracking.NoActiveSessionError{PersonID: "per-1"}, "NO_ACTIVE_SESSION", false},
		{"conflicting sessions", &timetracking.ConflictingSessionsError{PersonID: "per-1", Sessions: []timetracking.Session{open, open}}, "CONFLICTING_SESSIONS", false},
		{"unsupported filter", &graphql.UnsupportedFilterError{Entity: "Project", Field: "budget", Op: graphql.OpRange}, "UNSUPPORTED_FILTER", false},
		{"invalid argument", repository.InvalidArgument("limit must not be negative"), "INVALID_ARGUMENT", false},
		{"not found", repository.NotFound("Project", "p-9"), "NOT_FOUND", false},
		{"authentication", fmt.Errorf("list: %w", gateway.ErrAuthentication), "AUTHENTICATION_FAILED", false},
		{"rate limit", gateway.ErrRateLimit, "RATE_LIMITED", true},
		{"network", gateway.ErrNetwork, "NETWORK_ERROR", true},
		{"remote schema", gateway.RemoteSchemaf("projects: missing nodes"), "REMOTE_SCHEMA_ERROR", false},
		{"unknown", errors.New("boom"), "INTERNAL", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapError(tt.err)
			require.Equal(t, tt.code, apiErr.Code)
			require.Equal(t, tt.retryable, apiErr.Retryable)
			require.NotEmpty(t, apiErr.Message)
		})
	}

	require.Nil(t, MapError(nil))
}

func TestMapError_NoActiveSessionDetails(t *testing.T) {
	current := &timetracking.Session{ID: "st-2", PersonID: "per-1", Running: true}
	apiErr := MapError(&timetracking.NoActiveSessionError{PersonID: "per-1", ExpectedSessionID: "st-1", Current: current})

	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "per-1", details["person_id"])
	require.Equal(t, "st-1", details["expected_session_id"])
	require.Equal(t, current, details["current_session"])
}

func TestErrorResult(t *testing.T) {
	apiErr := &APIError{Code: "NOT_FOUND", Message: "project p-9 not found"}
	res := errorResult(apiErr)

	require.True(t, res.IsError)
	require.Equal(t, apiErr, res.StructuredContent)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)

	var decoded APIError
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	require.Equal(t, *apiErr, decoded)
}
