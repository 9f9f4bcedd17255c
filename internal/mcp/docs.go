package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `erfasst-mcp exposes the 123erfasst construction management API: projects, staff, equipment and time tracking.

Core concepts:
- Every read goes straight to 123erfasst. Nothing is stored locally, so results are always current.
- List tools return {items, total_count, page}. page reports the applied limit, whether it was clamped, and has_more.
- Limits default to 50 and are capped at 500. A larger request is clamped, never rejected.
- Search is a case-insensitive substring match ("acme" finds "Acme Construction GmbH").

Time tracking rules:
1) A person has at most one open session.
2) start_time_tracking fails with ALREADY_TRACKING (and returns the open session) when one exists.
3) stop_time_tracking fails with NO_ACTIVE_SESSION when none is open. Nothing is changed in that case.
4) Both tools re-read 123erfasst before changing anything; time_tracking_status shows the live state.
5) After NETWORK_ERROR on start or stop, call time_tracking_status before retrying.

Errors come back as {code, message, retryable, details, recovery_hint}.

Docs:
- erfasst://docs/index
- erfasst://docs/time-tracking
- erfasst://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "erfasst://docs/index",
		Name:        "docs_index",
		Title:       "erfasst-mcp docs index",
		Description: "Tool overview and which doc to read when.",
		Content: `# erfasst-mcp: Agent Docs Index

## Tool families

- Projects: ` + "`list_projects`" + `, ` + "`search_projects`" + `, ` + "`get_project_details`" + `, ` + "`get_active_projects`" + `, ` + "`get_projects_by_date_range`" + `, ` + "`get_project_statistics`" + `.
- Staff: ` + "`list_staff`" + `, ` + "`search_staff`" + `, ` + "`get_person_details`" + `, ` + "`get_active_staff`" + `, ` + "`get_staff_by_role`" + `, ` + "`get_staff_by_project`" + `, ` + "`get_staff_statistics`" + `.
- Equipment: ` + "`list_equipment`" + `, ` + "`search_equipment`" + `, ` + "`get_equipment_details`" + `, ` + "`get_operational_equipment`" + `, ` + "`get_equipment_by_project`" + `, ` + "`get_equipment_by_person`" + `, ` + "`get_maintenance_due_equipment`" + `, ` + "`get_equipment_statistics`" + `.
- Time tracking: ` + "`start_time_tracking`" + `, ` + "`stop_time_tracking`" + `, ` + "`time_tracking_status`" + `, ` + "`get_current_times`" + `, ` + "`get_time_tracking_history`" + `, ` + "`get_time_statistics`" + `.
- Other: ` + "`list_tickets`" + `, ` + "`list_planning`" + `, ` + "`health_check`" + `.

## Pagination

Pass ` + "`limit`" + ` and ` + "`offset`" + `. When ` + "`page.next_cursor`" + ` is set, pass it as ` + "`cursor`" + ` to continue.
A limit above 500 is clamped to 500 and ` + "`page.clamped`" + ` is true.

## Docs (read on demand)

- ` + "`erfasst://docs/time-tracking`" + `: the start/stop state machine.
- ` + "`erfasst://docs/errors`" + `: error codes and how to recover.
`,
	},
	{
		URI:         "erfasst://docs/time-tracking",
		Name:        "docs_time_tracking",
		Title:       "Time tracking state machine",
		Description: "How start, stop and status interact with 123erfasst.",
		Content: `# Time tracking

Each person is either **Idle** (no open session) or **Tracking** (exactly one open session).

| From     | Tool                  | Result                              |
|----------|-----------------------|-------------------------------------|
| Idle     | start_time_tracking   | Tracking, returns the new session   |
| Tracking | start_time_tracking   | ALREADY_TRACKING, nothing changes   |
| Tracking | stop_time_tracking    | Idle, returns the closed session    |
| Idle     | stop_time_tracking    | NO_ACTIVE_SESSION, nothing changes  |

## Confirming reads

Start and stop always ask 123erfasst for the person's open sessions first.
A session opened or closed by another client (the web app, a terminal) is seen immediately.

## session_id on stop

Passing ` + "`session_id`" + ` makes the stop conditional: if a different session is open, the stop is refused
with NO_ACTIVE_SESSION and the open session is returned in ` + "`details.current_session`" + `.

## Duplicate open sessions

If 123erfasst reports more than one open session for a person, start fails with CONFLICTING_SESSIONS.
Stop one of them by passing its ` + "`session_id`" + `.

## Status

` + "`time_tracking_status`" + ` re-reads the remote state. ` + "`drift`" + ` is true when it differs from what this server saw last.
`,
	},
	{
		URI:         "erfasst://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Structured error codes and recovery steps.",
		Content: `# Errors

| Code                  | Retryable | Meaning                                                  |
|-----------------------|-----------|----------------------------------------------------------|
| INVALID_ARGUMENT      | no        | A required argument is missing or malformed.             |
| UNSUPPORTED_FILTER    | no        | The entity cannot be filtered that way.                  |
| NOT_FOUND             | no        | No entity with that identifier.                          |
| ALREADY_TRACKING      | no        | The person already has an open session.                  |
| NO_ACTIVE_SESSION     | no        | The person has no open session (or a different one).     |
| CONFLICTING_SESSIONS  | no        | 123erfasst holds several open sessions for one person.   |
| AUTHENTICATION_FAILED | no        | Username or token was rejected.                          |
| RATE_LIMITED          | yes       | Too many requests. Wait, then retry.                     |
| NETWORK_ERROR         | yes       | 123erfasst was unreachable or failed.                    |
| REMOTE_SCHEMA_ERROR   | no        | 123erfasst answered with something unexpected.           |

Reads are retried automatically before NETWORK_ERROR is reported. Start and stop are never retried
automatically: check ` + "`time_tracking_status`" + ` before trying again.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
