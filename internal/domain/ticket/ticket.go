// Package ticket lists project tickets (issues, defects, tasks).
package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Ticket is an issue attached to a project.
type Ticket struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

type ticketNode struct {
	Ident        string `json:"ident"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	ProjectIdent string `json:"projectIdent"`
}

// Decode validates a remote ticket node.
func Decode(raw []byte) (Ticket, error) {
	var n ticketNode
	if err := repository.Unmarshal(raw, &n); err != nil {
		return Ticket{}, err
	}
	switch {
	case n.Ident == "":
		return Ticket{}, gateway.RemoteSchemaf("ticket: missing ident")
	case n.Title == "":
		return Ticket{}, gateway.RemoteSchemaf("ticket %s: missing title", n.Ident)
	case n.Status == "":
		return Ticket{}, gateway.RemoteSchemaf("ticket %s: missing status", n.Ident)
	}
	return Ticket{
		ID:          n.Ident,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		ProjectID:   n.ProjectIdent,
	}, nil
}

// ListRequest filters the ticket list.
type ListRequest struct {
	ProjectID string
	Status    string
	Page      graphql.Pagination
}

// Service lists tickets.
type Service struct {
	remote *repository.Remote
	logger *slog.Logger
}

// NewService creates a new ticket service.
func NewService(remote *repository.Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, logger: logger}
}

// List returns one page of tickets.
func (s *Service) List(ctx context.Context, req ListRequest) (repository.List[Ticket], error) {
	filters := graphql.Filters{}
	if id := strings.TrimSpace(req.ProjectID); id != "" {
		filters["projectIdent"] = graphql.Eq(id)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filters["status"] = graphql.Eq(status)
	}
	list, err := repository.FetchList(ctx, s.remote, graphql.Request{
		Entity:    graphql.TicketEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
		Page:      req.Page,
	}, Decode)
	if err != nil {
		return repository.List[Ticket]{}, fmt.Errorf("listing tickets: %w", err)
	}
	return list, nil
}
