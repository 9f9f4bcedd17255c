package project

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Service handles project operations.
type Service struct {
	remote    *repository.Remote
	staff     StaffDirectory
	equipment EquipmentInventory
	logger    *slog.Logger
}

// NewService creates a new project service. staffDir and inventory may be nil,
// in which case details carry no assignments.
func NewService(remote *repository.Remote, staffDir StaffDirectory, inventory EquipmentInventory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, staff: staffDir, equipment: inventory, logger: logger}
}

// ListRequest filters the project list.
type ListRequest struct {
	Status string
	Page   graphql.Pagination
}

// SearchRequest is a case-insensitive search over name and description.
type SearchRequest struct {
	Query  string
	Status string
	Page   graphql.Pagination
}

// DateRangeRequest selects projects overlapping [Start, End].
type DateRangeRequest struct {
	Start string
	End   string
	Page  graphql.Pagination
}

// List returns one page of projects.
func (s *Service) List(ctx context.Context, req ListRequest) (repository.List[Project], error) {
	filters, err := statusFilter(req.Status)
	if err != nil {
		return repository.List[Project]{}, err
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Search matches query against name and description.
func (s *Service) Search(ctx context.Context, req SearchRequest) (repository.List[Project], error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return repository.List[Project]{}, repository.InvalidArgument("query is required")
	}
	filters, err := statusFilter(req.Status)
	if err != nil {
		return repository.List[Project]{}, err
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationSearch,
		Search:    query,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Active lists active projects.
func (s *Service) Active(ctx context.Context, page graphql.Pagination) (repository.List[Project], error) {
	return s.List(ctx, ListRequest{Status: string(StatusActive), Page: page})
}

// ByDateRange lists projects whose schedule overlaps the range.
func (s *Service) ByDateRange(ctx context.Context, req DateRangeRequest) (repository.List[Project], error) {
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		return repository.List[Project]{}, repository.InvalidArgument("start_date and end_date are required")
	}
	start, err := repository.DateArg("start_date", req.Start)
	if err != nil {
		return repository.List[Project]{}, err
	}
	end, err := repository.DateArg("end_date", req.End)
	if err != nil {
		return repository.List[Project]{}, err
	}
	if end.Before(*start) {
		return repository.List[Project]{}, repository.InvalidArgument("end_date %s is before start_date %s",
			end.Format(repository.DateLayout), start.Format(repository.DateLayout))
	}

	return s.list(ctx, graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Filters: graphql.Filters{
			"startDate": graphql.Between(nil, end.Format(repository.DateLayout)),
			"endDate":   graphql.Between(start.Format(repository.DateLayout), nil),
		},
		Page: req.Page,
	})
}

// Get fetches a project and, concurrently, its assigned staff and equipment.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.InvalidArgument("project_id is required")
	}
	proj, err := repository.FetchOne(ctx, s.remote, graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationGet,
		ID:        id,
	}, Decode)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}

	details := &Details{
		Project:   proj,
		Staff:     []staff.Person{},
		Equipment: []equipment.Equipment{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.staff != nil {
		g.Go(func() error {
			people, err := s.staff.ByProject(gctx, id, graphql.Pagination{})
			if err != nil {
				return fmt.Errorf("project staff: %w", err)
			}
			details.Staff = people.Items
			details.StaffTotal = people.TotalCount
			return nil
		})
	}
	if s.equipment != nil {
		g.Go(func() error {
			items, err := s.equipment.ByProject(gctx, id, graphql.Pagination{})
			if err != nil {
				return fmt.Errorf("project equipment: %w", err)
			}
			details.Equipment = items.Items
			details.EquipmentTotal = items.TotalCount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// Statistics enumerates all projects and aggregates them locally.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	projects, _, truncated, err := repository.FetchAll(ctx, s.remote, graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Fields:    []string{"ident", "name", "status", "startDate", "endDate"},
	}, Decode)
	if err != nil {
		return nil, fmt.Errorf("collecting projects: %w", err)
	}

	stats := &Statistics{
		ByStatus:  map[Status]int{StatusActive: 0, StatusInactive: 0, StatusArchived: 0},
		Truncated: truncated,
	}
	var totalDays float64
	for _, p := range projects {
		stats.Total++
		stats.ByStatus[p.Status]++
		if p.StartDate == "" || p.EndDate == "" {
			continue
		}
		start, err1 := repository.ParseDate(p.StartDate)
		end, err2 := repository.ParseDate(p.EndDate)
		if err1 != nil || err2 != nil || end.Before(start) {
			continue
		}
		stats.Scheduled++
		totalDays += end.Sub(start).Hours() / 24
	}
	if stats.Scheduled > 0 {
		stats.AverageDurationDays = math.Round(totalDays/float64(stats.Scheduled)*10) / 10
	}
	return stats, nil
}

func (s *Service) list(ctx context.Context, req graphql.Request) (repository.List[Project], error) {
	list, err := repository.FetchList(ctx, s.remote, req, Decode)
	if err != nil {
		return repository.List[Project]{}, fmt.Errorf("listing projects: %w", err)
	}
	return list, nil
}

func statusFilter(status string) (graphql.Filters, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return nil, nil
	}
	if !Status(status).Valid() {
		return nil, repository.InvalidArgument("status must be one of %q, %q, %q, got %q",
			StatusActive, StatusInactive, StatusArchived, status)
	}
	return graphql.Filters{"status": graphql.Eq(status)}, nil
}
