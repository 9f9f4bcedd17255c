package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/planning"
	"github.com/ganot/erfasst-mcp/internal/domain/project"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/domain/ticket"
	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context, req project.ListRequest) (repository.List[project.Project], error)
	Search(ctx context.Context, req project.SearchRequest) (repository.List[project.Project], error)
	Get(ctx context.Context, id string) (*project.Details, error)
	Active(ctx context.Context, page graphql.Pagination) (repository.List[project.Project], error)
	ByDateRange(ctx context.Context, req project.DateRangeRequest) (repository.List[project.Project], error)
	Statistics(ctx context.Context) (*project.Statistics, error)
}

// StaffService defines staff operations needed by MCP.
type StaffService interface {
	List(ctx context.Context, req staff.ListRequest) (repository.List[staff.Person], error)
	Search(ctx context.Context, req staff.SearchRequest) (repository.List[staff.Person], error)
	Get(ctx context.Context, id string) (*staff.Person, error)
	Active(ctx context.Context, page graphql.Pagination) (repository.List[staff.Person], error)
	ByRole(ctx context.Context, role string, page graphql.Pagination) (repository.List[staff.Person], error)
	ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[staff.Person], error)
	Statistics(ctx context.Context) (*staff.Statistics, error)
}

// EquipmentService defines equipment operations needed by MCP.
type EquipmentService interface {
	List(ctx context.Context, req equipment.ListRequest) (repository.List[equipment.Equipment], error)
	Search(ctx context.Context, req equipment.SearchRequest) (repository.List[equipment.Equipment], error)
	Get(ctx context.Context, id string) (*equipment.Equipment, error)
	Operational(ctx context.Context, page graphql.Pagination) (repository.List[equipment.Equipment], error)
	ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[equipment.Equipment], error)
	ByPerson(ctx context.Context, personID string, page graphql.Pagination) (repository.List[equipment.Equipment], error)
	MaintenanceDue(ctx context.Context, withinDays int) (*equipment.MaintenanceDue, error)
	Statistics(ctx context.Context) (*equipment.Statistics, error)
}

// TimeTrackingService defines time tracking operations needed by MCP.
type TimeTrackingService interface {
	Start(ctx context.Context, req timetracking.StartRequest) (*timetracking.Session, error)
	Stop(ctx context.Context, req timetracking.StopRequest) (*timetracking.Session, error)
	Status(ctx context.Context, personID string) (*timetracking.Status, error)
	Current(ctx context.Context, req timetracking.CurrentRequest) (*timetracking.Current, error)
	History(ctx context.Context, f timetracking.Filter) (*timetracking.History, error)
	Statistics(ctx context.Context, f timetracking.Filter) (*timetracking.Statistics, error)
}

// TicketService defines ticket operations needed by MCP.
type TicketService interface {
	List(ctx context.Context, req ticket.ListRequest) (repository.List[ticket.Ticket], error)
}

// PlanningService defines planning operations needed by MCP.
type PlanningService interface {
	List(ctx context.Context, req planning.ListRequest) (repository.List[planning.Planning], error)
}

// HealthChecker verifies connectivity to the remote API.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects     ProjectService
	Staff        StaffService
	Equipment    EquipmentService
	TimeTracking TimeTrackingService
	Tickets      TicketService
	Planning     PlanningService
	Health       HealthChecker
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "erfasst-mcp",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(
		callMiddleware(logger),
		trafficLoggingMiddleware(logger, "inbound"),
	)
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	t := &tools{svc: cfg.Services, logger: logger}
	t.register(server)

	return server
}
