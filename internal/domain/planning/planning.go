// Package planning lists project milestones.
package planning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Planning is a scheduled milestone of a project.
type Planning struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Milestone   string `json:"milestone"`
	Status      string `json:"status,omitempty"`
	PlannedDate string `json:"planned_date,omitempty"`
	Description string `json:"description,omitempty"`
}

type planningNode struct {
	Ident        string `json:"ident"`
	ProjectIdent string `json:"projectIdent"`
	Milestone    string `json:"milestone"`
	Status       string `json:"status"`
	PlannedDate  string `json:"plannedDate"`
	Description  string `json:"description"`
}

// Decode validates a remote planning node.
func Decode(raw []byte) (Planning, error) {
	var n planningNode
	if err := repository.Unmarshal(raw, &n); err != nil {
		return Planning{}, err
	}
	switch {
	case n.Ident == "":
		return Planning{}, gateway.RemoteSchemaf("planning: missing ident")
	case n.ProjectIdent == "":
		return Planning{}, gateway.RemoteSchemaf("planning %s: missing projectIdent", n.Ident)
	case n.Milestone == "":
		return Planning{}, gateway.RemoteSchemaf("planning %s: missing milestone", n.Ident)
	}
	date, err := repository.NormalizeDate(n.PlannedDate)
	if err != nil {
		return Planning{}, gateway.RemoteSchemaf("planning %s: invalid plannedDate %q", n.Ident, n.PlannedDate)
	}
	return Planning{
		ID:          n.Ident,
		ProjectID:   n.ProjectIdent,
		Milestone:   n.Milestone,
		Status:      n.Status,
		PlannedDate: date,
		Description: n.Description,
	}, nil
}

// ListRequest filters the planning list.
type ListRequest struct {
	ProjectID string
	Status    string
	Page      graphql.Pagination
}

// Service lists planning entries.
type Service struct {
	remote *repository.Remote
	logger *slog.Logger
}

// NewService creates a new planning service.
func NewService(remote *repository.Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, logger: logger}
}

// List returns one page of planning entries.
func (s *Service) List(ctx context.Context, req ListRequest) (repository.List[Planning], error) {
	filters := graphql.Filters{}
	if id := strings.TrimSpace(req.ProjectID); id != "" {
		filters["projectIdent"] = graphql.Eq(id)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filters["status"] = graphql.Eq(status)
	}
	list, err := repository.FetchList(ctx, s.remote, graphql.Request{
		Entity:    graphql.PlanningEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
		Page:      req.Page,
	}, Decode)
	if err != nil {
		return repository.List[Planning]{}, fmt.Errorf("listing planning: %w", err)
	}
	return list, nil
}
