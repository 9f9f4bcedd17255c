package staff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Service handles staff lookups.
type Service struct {
	remote *repository.Remote
	logger *slog.Logger
}

// NewService creates a new staff service.
func NewService(remote *repository.Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, logger: logger}
}

// ListRequest filters the staff list.
type ListRequest struct {
	Role   string
	Status string
	Page   graphql.Pagination
}

// SearchRequest is a case-insensitive search over name and role.
type SearchRequest struct {
	Query  string
	Role   string
	Status string
	Page   graphql.Pagination
}

// List returns one page of persons.
func (s *Service) List(ctx context.Context, req ListRequest) (repository.List[Person], error) {
	filters, err := filtersFor(req.Role, req.Status)
	if err != nil {
		return repository.List[Person]{}, err
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Search matches query against name and role.
func (s *Service) Search(ctx context.Context, req SearchRequest) (repository.List[Person], error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return repository.List[Person]{}, repository.InvalidArgument("query is required")
	}
	filters, err := filtersFor(req.Role, req.Status)
	if err != nil {
		return repository.List[Person]{}, err
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationSearch,
		Search:    query,
		Filters:   filters,
		Page:      req.Page,
	})
}

// Get fetches a person by ID.
func (s *Service) Get(ctx context.Context, id string) (*Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.InvalidArgument("person_id is required")
	}
	p, err := repository.FetchOne(ctx, s.remote, graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationGet,
		ID:        id,
	}, Decode)
	if err != nil {
		return nil, fmt.Errorf("getting person: %w", err)
	}
	return &p, nil
}

// Active lists active persons.
func (s *Service) Active(ctx context.Context, page graphql.Pagination) (repository.List[Person], error) {
	return s.List(ctx, ListRequest{Status: StatusActive, Page: page})
}

// ByRole lists persons with exactly the given role.
func (s *Service) ByRole(ctx context.Context, role string, page graphql.Pagination) (repository.List[Person], error) {
	if strings.TrimSpace(role) == "" {
		return repository.List[Person]{}, repository.InvalidArgument("role is required")
	}
	return s.List(ctx, ListRequest{Role: role, Page: page})
}

// ByProject lists persons assigned to a project.
func (s *Service) ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[Person], error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return repository.List[Person]{}, repository.InvalidArgument("project_id is required")
	}
	return s.list(ctx, graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationList,
		Filters:   graphql.Filters{"projectIdent": graphql.Eq(projectID)},
		Page:      page,
	})
}

// Statistics enumerates all persons and aggregates them locally.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	people, _, truncated, err := repository.FetchAll(ctx, s.remote, graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationList,
		Fields:    []string{"ident", "name", "role", "active"},
	}, Decode)
	if err != nil {
		return nil, fmt.Errorf("collecting staff: %w", err)
	}

	stats := &Statistics{ByRole: map[string]int{}, Truncated: truncated}
	for _, p := range people {
		stats.Total++
		if p.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
		role := p.Role
		if role == "" {
			role = "unassigned"
		}
		stats.ByRole[role]++
	}
	return stats, nil
}

func (s *Service) list(ctx context.Context, req graphql.Request) (repository.List[Person], error) {
	list, err := repository.FetchList(ctx, s.remote, req, Decode)
	if err != nil {
		return repository.List[Person]{}, fmt.Errorf("listing staff: %w", err)
	}
	return list, nil
}

func filtersFor(role, status string) (graphql.Filters, error) {
	filters := graphql.Filters{}
	if role = strings.TrimSpace(role); role != "" {
		filters["role"] = graphql.Eq(role)
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "":
	case StatusActive:
		filters["active"] = graphql.Eq(true)
	case StatusInactive:
		filters["active"] = graphql.Eq(false)
	default:
		return nil, repository.InvalidArgument("status must be %q or %q, got %q", StatusActive, StatusInactive, status)
	}
	return filters, nil
}
