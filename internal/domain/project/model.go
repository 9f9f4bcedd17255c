package project

import (
	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// Project represents a construction project on the remote system
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Status       Status   `json:"status"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	StaffIDs     []string `json:"staff_ids"`
	EquipmentIDs []string `json:"equipment_ids"`
}

// Details is a project with its assigned staff and equipment.
type Details struct {
	Project
	Staff          []staff.Person        `json:"staff"`
	StaffTotal     int                   `json:"staff_total"`
	Equipment      []equipment.Equipment `json:"equipment"`
	EquipmentTotal int                   `json:"equipment_total"`
}

// Statistics aggregates the full project collection.
type Statistics struct {
	Total               int            `json:"total"`
	ByStatus            map[Status]int `json:"by_status"`
	Scheduled           int            `json:"scheduled"`
	AverageDurationDays float64        `json:"average_duration_days"`
	Truncated           bool           `json:"truncated"`
}

type projectNode struct {
	Ident           string   `json:"ident"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Status          string   `json:"status"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	StaffIdents     []string `json:"staffIdents"`
	EquipmentIdents []string `json:"equipmentIdents"`
}

// Decode validates a remote project node.
func Decode(raw []byte) (Project, error) {
	var n projectNode
	if err := repository.Unmarshal(raw, &n); err != nil {
		return Project{}, err
	}
	switch {
	case n.Ident == "":
		return Project{}, gateway.RemoteSchemaf("project: missing ident")
	case n.Name == "":
		return Project{}, gateway.RemoteSchemaf("project %s: missing name", n.Ident)
	case !Status(n.Status).Valid():
		return Project{}, gateway.RemoteSchemaf("project %s: unknown status %q", n.Ident, n.Status)
	}
	start, err := repository.NormalizeDate(n.StartDate)
	if err != nil {
		return Project{}, gateway.RemoteSchemaf("project %s: invalid startDate %q", n.Ident, n.StartDate)
	}
	end, err := repository.NormalizeDate(n.EndDate)
	if err != nil {
		return Project{}, gateway.RemoteSchemaf("project %s: invalid endDate %q", n.Ident, n.EndDate)
	}

	p := Project{
		ID:           n.Ident,
		Name:         n.Name,
		Description:  n.Description,
		Status:       Status(n.Status),
		StartDate:    start,
		EndDate:      end,
		StaffIDs:     n.StaffIdents,
		EquipmentIDs: n.EquipmentIdents,
	}
	if p.StaffIDs == nil {
		p.StaffIDs = []string{}
	}
	if p.EquipmentIDs == nil {
		p.EquipmentIDs = []string{}
	}
	return p, nil
}
