package project

import (
	"context"

	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// StaffDirectory lists persons assigned to a project.
type StaffDirectory interface {
	ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[staff.Person], error)
}

// EquipmentInventory lists equipment assigned to a project.
type EquipmentInventory interface {
	ByProject(ctx context.Context, projectID string, page graphql.Pagination) (repository.List[equipment.Equipment], error)
}
