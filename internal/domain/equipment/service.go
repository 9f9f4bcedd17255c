package equipment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// DefaultDueWindow is the maintenance look-ahead in days.
const DefaultDueWindow = 14

// Service handles equipment lookups.
type Service struct {
	remote *repository.Remote
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new equipment service.
func NewService(remote *repository.Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for maintenance windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListRequest filters the equipment list.
type ListRequest struct {
	Status   string
	Type     string
	Location string
	Page     graphql.Pagination
}

// SearchRequest is a case-insensitive search over name and type.
type SearchRequest struct {
	Query  string
	Status string
	Type   string
	Page   graphql.Pagination
}

// List returns one page of equipment.
func (s *Service) List(ctx context.Context, req ListRequest) (repository.List[Equipment], error) {
	filters, err := filtersFor(req.Status, req.Type)
	if err != nil {
		return repository.List[Equipment]{}, err
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		filters["location"] = graphql.Contains(loc)
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Search matches query against name and type.
func (s *Service) Search(ctx context.Context, req SearchRequest) (repository.List[Equipment], error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return repository.List[Equipment]{}, repository.InvalidArgument("query is required")
	}
	filters, err := filtersFor(req.Status, req.Type)
	if err != nil {
		return repository.List[Equipment]{}, err
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationSearch,
		Search:    query,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Get fetches equipment by ID.
func (s *Service) Get(ctx context.Context, id string) (*Equipment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.InvalidArgument("equipment_id is required")
	}
	e, err := repository.FetchOne(ctx, s.remote, graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationGet,
		ID:        id,
	}, Decode)
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return &e, nil
}

// Operational lists equipment that is available for use.
func (s *Service) Operational(ctx context.Context, page graphql.Pagination) (repository.List[Equipment], error) {
	return s.List(ctx, ListRequest{Status: string(StatusAvailable), Page: page})
}

// ByProject lists equipment assigned to a project.
func (s *Service) ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[Equipment], error) {
	return s.byReference(ctx, "project_id", "projectIdent", projectID, page)
}

// ByPerson lists equipment assigned to a person.
func (s *Service) ByPerson(ctx context.Context, personID string, page graphql.Pagination) (repository.List[Equipment], error) {
	return s.byReference(ctx, "person_id", "personIdent", personID, page)
}

// MaintenanceDue collects all equipment and keeps items in maintenance or
// with a schedule entry on or before today plus withinDays.
func (s *Service) MaintenanceDue(ctx context.Context, withinDays int) (*MaintenanceDue, error) {
	if withinDays < 0 {
		return nil, repository.InvalidArgument("within_days must not be negative")
	}
	if withinDays == 0 {
		withinDays = DefaultDueWindow
	}

	all, truncated, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	cutoff := today.AddDate(0, 0, withinDays)
	out := &MaintenanceDue{
		Items:      []DueItem{},
		WithinDays: withinDays,
		Cutoff:     cutoff.Format(repository.DateLayout),
		Truncated:  truncated,
	}
	for _, e := range all {
		if item, ok := dueItem(e, today, cutoff); ok {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

// Statistics enumerates all equipment and aggregates it locally.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	all, truncated, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	cutoff := today.AddDate(0, 0, DefaultDueWindow)
	stats := &Statistics{
		ByStatus:  map[Status]int{StatusAvailable: 0, StatusInUse: 0, StatusMaintenance: 0},
		ByType:    map[string]int{},
		Truncated: truncated,
	}
	for _, e := range all {
		stats.Total++
		stats.ByStatus[e.Status]++
		kind := e.Type
		if kind == "" {
			kind = "unspecified"
		}
		stats.ByType[kind]++
		if e.ProjectID != "" {
			stats.Assigned++
		}
		if _, due := dueItem(e, today, cutoff); due {
			stats.MaintenanceDue++
		}
	}
	return stats, nil
}

func (s *Service) collect(ctx context.Context) ([]Equipment, bool, error) {
	all, _, truncated, err := repository.FetchAll(ctx, s.remote, graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationList,
	}, Decode)
	if err != nil {
		return nil, false, fmt.Errorf("collecting equipment: %w", err)
	}
	return all, truncated, nil
}

func (s *Service) byReference(ctx context.Context, arg, field, id string, page graphql.Pagination) (repository.List[Equipment], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return repository.List[Equipment]{}, repository.InvalidArgument("%s is required", arg)
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationList,
		Filters:   graphql.Filters{field: graphql.Eq(id)},
		Page:      page,
	})
}

func (s *Service) list(ctx context.Context, req graphql.Request) (repository.List[Equipment], error) {
	list, err := repository.FetchList(ctx, s.remote, req, Decode)
	if err != nil {
		return repository.List[Equipment]{}, fmt.Errorf("listing equipment: %w", err)
	}
	return list, nil
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func dueItem(e Equipment, today, cutoff time.Time) (DueItem, bool) {
	for _, m := range e.Maintenance {
		date, err := repository.ParseDate(m.Date)
		if err != nil || date.After(cutoff) {
			continue
		}
		days := int(date.Sub(today).Hours() / 24)
		return DueItem{
			Equipment:    e,
			DueDate:      m.Date,
			DaysUntilDue: days,
			Overdue:      days < 0,
		}, true
	}
	if e.Status == StatusMaintenance {
		return DueItem{Equipment: e}, true
	}
	return DueItem{}, false
}

func filtersFor(status, kind string) (graphql.Filters, error) {
	filters := graphql.Filters{}
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		if !Status(status).Valid() {
			return nil, repository.InvalidArgument("status must be one of %q, %q, %q, got %q",
				StatusAvailable, StatusInUse, StatusMaintenance, status)
		}
		filters["status"] = graphql.Eq(status)
	}
	if kind = strings.TrimSpace(kind); kind != "" {
		filters["type"] = graphql.Eq(kind)
	}
	return filters, nil
}
