package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/planning"
	"github.com/ganot/erfasst-mcp/internal/domain/project"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/domain/ticket"
	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type tools struct {
	svc    Services
	logger *slog.Logger
}

// addTool registers a typed tool whose domain errors become structured
// error results instead of protocol errors.
func addTool[In any](t *tools, server *sdkmcp.Server, name, description string, fn func(context.Context, In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				apiErr := MapError(err)
				t.logger.Info("tool call failed", "tool", name, "code", apiErr.Code, "error", err)
				return errorResult(apiErr), nil, nil
			}
			return nil, out, nil
		})
}

func (t *tools) register(server *sdkmcp.Server) {
	if t.svc.Projects != nil {
		t.registerProjectTools(server)
	}
	if t.svc.Staff != nil {
		t.registerStaffTools(server)
	}
	if t.svc.Equipment != nil {
		t.registerEquipmentTools(server)
	}
	if t.svc.TimeTracking != nil {
		t.registerTimeTrackingTools(server)
	}
	if t.svc.Tickets != nil {
		addTool(t, server, "list_tickets", "List project tickets, optionally filtered by project and status.",
			func(ctx context.Context, a ProjectListArgs) (any, error) {
				return t.svc.Tickets.List(ctx, ticket.ListRequest{ProjectID: a.ProjectID, Status: a.Status, Page: page(a.Limit, a.Offset)})
			})
	}
	if t.svc.Planning != nil {
		addTool(t, server, "list_planning", "List project milestones, optionally filtered by project and status.",
			func(ctx context.Context, a ProjectListArgs) (any, error) {
				return t.svc.Planning.List(ctx, planning.ListRequest{ProjectID: a.ProjectID, Status: a.Status, Page: page(a.Limit, a.Offset)})
			})
	}
	if t.svc.Health != nil {
		addTool(t, server, "health_check", "Check connectivity and credentials against the 123erfasst API.",
			func(ctx context.Context, _ NoArgs) (any, error) {
				started := time.Now()
				err := t.svc.Health.Ping(ctx)
				res := &HealthResult{Status: "healthy", LatencyMS: time.Since(started).Milliseconds()}
				if err != nil {
					res.Status = "unhealthy"
					res.Error = MapError(err)
				}
				return res, nil
			})
	}
}

func (t *tools) registerProjectTools(server *sdkmcp.Server) {
	addTool(t, server, "list_projects", "List construction projects with optional status filter and pagination.",
		func(ctx context.Context, a ListProjectsArgs) (any, error) {
			return t.svc.Projects.List(ctx, project.ListRequest{
				Status: a.Status,
				Page:   PageArgs{Limit: a.Limit, Offset: a.Offset, Cursor: a.Cursor}.page(),
			})
		})
	addTool(t, server, "get_project_details", "Get one project with its assigned staff and equipment.",
		func(ctx context.Context, a ProjectIDArgs) (any, error) {
			return t.svc.Projects.Get(ctx, a.ProjectID)
		})
	addTool(t, server, "search_projects", "Search projects by name or description (case-insensitive substring).",
		func(ctx context.Context, a SearchProjectsArgs) (any, error) {
			return t.svc.Projects.Search(ctx, project.SearchRequest{Query: a.Query, Status: a.Status, Page: page(a.Limit, a.Offset)})
		})
	addTool(t, server, "get_project_statistics", "Aggregate project counts by status and average scheduled duration.",
		func(ctx context.Context, _ NoArgs) (any, error) {
			return t.svc.Projects.Statistics(ctx)
		})
	addTool(t, server, "get_active_projects", "List projects with status active.",
		func(ctx context.Context, a PageArgs) (any, error) {
			return t.svc.Projects.Active(ctx, a.page())
		})
	addTool(t, server, "get_projects_by_date_range", "List projects whose schedule overlaps the given date range.",
		func(ctx context.Context, a DateRangeArgs) (any, error) {
			return t.svc.Projects.ByDateRange(ctx, project.DateRangeRequest{Start: a.StartDate, End: a.EndDate, Page: page(a.Limit, a.Offset)})
		})
}

func (t *tools) registerStaffTools(server *sdkmcp.Server) {
	addTool(t, server, "list_staff", "List employees with optional role and status filters.",
		func(ctx context.Context, a ListStaffArgs) (any, error) {
			return t.svc.Staff.List(ctx, staff.ListRequest{
				Role:   a.Role,
				Status: a.Status,
				Page:   PageArgs{Limit: a.Limit, Offset: a.Offset, Cursor: a.Cursor}.page(),
			})
		})
	addTool(t, server, "get_person_details", "Get one employee by identifier.",
		func(ctx context.Context, a PersonIDArgs) (any, error) {
			return t.svc.Staff.Get(ctx, a.PersonID)
		})
	addTool(t, server, "search_staff", "Search employees by name or role (case-insensitive substring).",
		func(ctx context.Context, a SearchStaffArgs) (any, error) {
			return t.svc.Staff.Search(ctx, staff.SearchRequest{Query: a.Query, Role: a.Role, Status: a.Status, Page: page(a.Limit, a.Offset)})
		})
	addTool(t, server, "get_staff_statistics", "Aggregate employee counts by activity and role.",
		func(ctx context.Context, _ NoArgs) (any, error) {
			return t.svc.Staff.Statistics(ctx)
		})
	addTool(t, server, "get_active_staff", "List active employees.",
		func(ctx context.Context, a PageArgs) (any, error) {
			return t.svc.Staff.Active(ctx, a.page())
		})
	addTool(t, server, "get_staff_by_role", "List employees with the given role.",
		func(ctx context.Context, a StaffByRoleArgs) (any, error) {
			return t.svc.Staff.ByRole(ctx, a.Role, page(a.Limit, a.Offset))
		})
	addTool(t, server, "get_staff_by_project", "List employees assigned to a project.",
		func(ctx context.Context, a ProjectPageArgs) (any, error) {
			return t.svc.Staff.ByProject(ctx, a.ProjectID, page(a.Limit, a.Offset))
		})
}

func (t *tools) registerEquipmentTools(server *sdkmcp.Server) {
	addTool(t, server, "list_equipment", "List equipment with optional status, type and location filters.",
		func(ctx context.Context, a ListEquipmentArgs) (any, error) {
			return t.svc.Equipment.List(ctx, equipment.ListRequest{
				Status:   a.Status,
				Type:     a.EquipmentType,
				Location: a.Location,
				Page:     PageArgs{Limit: a.Limit, Offset: a.Offset, Cursor: a.Cursor}.page(),
			})
		})
	addTool(t, server, "get_equipment_details", "Get one piece of equipment with its maintenance schedule.",
		func(ctx context.Context, a EquipmentIDArgs) (any, error) {
			return t.svc.Equipment.Get(ctx, a.EquipmentID)
		})
	addTool(t, server, "search_equipment", "Search equipment by name or type (case-insensitive substring).",
		func(ctx context.Context, a SearchEquipmentArgs) (any, error) {
			return t.svc.Equipment.Search(ctx, equipment.SearchRequest{Query: a.Query, Status: a.Status, Type: a.EquipmentType, Page: page(a.Limit, a.Offset)})
		})
	addTool(t, server, "get_equipment_statistics", "Aggregate equipment counts by status and type, including maintenance due in 14 days.",
		func(ctx context.Context, _ NoArgs) (any, error) {
			return t.svc.Equipment.Statistics(ctx)
		})
	addTool(t, server, "get_operational_equipment", "List equipment that is available for use.",
		func(ctx context.Context, a PageArgs) (any, error) {
			return t.svc.Equipment.Operational(ctx, a.page())
		})
	addTool(t, server, "get_equipment_by_project", "List equipment assigned to a project.",
		func(ctx context.Context, a ProjectPageArgs) (any, error) {
			return t.svc.Equipment.ByProject(ctx, a.ProjectID, page(a.Limit, a.Offset))
		})
	addTool(t, server, "get_equipment_by_person", "List equipment assigned to a person.",
		func(ctx context.Context, a PersonPageArgs) (any, error) {
			return t.svc.Equipment.ByPerson(ctx, a.PersonID, page(a.Limit, a.Offset))
		})
	addTool(t, server, "get_maintenance_due_equipment", "List equipment in maintenance or with maintenance scheduled within the window.",
		func(ctx context.Context, a MaintenanceDueArgs) (any, error) {
			return t.svc.Equipment.MaintenanceDue(ctx, a.WithinDays)
		})
}

func (t *tools) registerTimeTrackingTools(server *sdkmcp.Server) {
	addTool(t, server, "start_time_tracking",
		"Start a time tracking session for a person on a project. Fails with ALREADY_TRACKING, carrying the open session, if one exists.",
		func(ctx context.Context, a StartTrackingArgs) (any, error) {
			return t.svc.TimeTracking.Start(ctx, timetracking.StartRequest{PersonID: a.PersonID, ProjectID: a.ProjectID, Description: a.Description})
		})
	addTool(t, server, "stop_time_tracking",
		"Stop the person's open time tracking session. Fails with NO_ACTIVE_SESSION, without changing anything, if none is open.",
		func(ctx context.Context, a StopTrackingArgs) (any, error) {
			return t.svc.TimeTracking.Stop(ctx, timetracking.StopRequest{PersonID: a.PersonID, SessionID: a.SessionID})
		})
	addTool(t, server, "get_current_times", "List running time tracking sessions, optionally for one person or project.",
		func(ctx context.Context, a CurrentTimesArgs) (any, error) {
			return t.svc.TimeTracking.Current(ctx, timetracking.CurrentRequest{PersonID: a.PersonID, ProjectID: a.ProjectID})
		})
	addTool(t, server, "get_time_tracking_history", "List past and running sessions with totals per project.",
		func(ctx context.Context, a TimeFilterArgs) (any, error) {
			return t.svc.TimeTracking.History(ctx, timeFilter(a))
		})
	addTool(t, server, "time_tracking_status", "Read the person's current tracking state directly from 123erfasst.",
		func(ctx context.Context, a PersonIDArgs) (any, error) {
			return t.svc.TimeTracking.Status(ctx, a.PersonID)
		})
	addTool(t, server, "get_time_statistics", "Aggregate tracked hours by project and person.",
		func(ctx context.Context, a TimeFilterArgs) (any, error) {
			return t.svc.TimeTracking.Statistics(ctx, timeFilter(a))
		})
}

func timeFilter(a TimeFilterArgs) timetracking.Filter {
	return timetracking.Filter{PersonID: a.PersonID, ProjectID: a.ProjectID, StartDate: a.StartDate, EndDate: a.EndDate}
}
