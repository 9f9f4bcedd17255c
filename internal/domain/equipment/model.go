package equipment

import (
	"sort"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Status is the operational state of a piece of equipment.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in-use"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

// MaintenanceEntry is one scheduled maintenance date.
type MaintenanceEntry struct {
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// Equipment is a machine or tool tracked on the remote.
type Equipment struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        string             `json:"type,omitempty"`
	Status      Status             `json:"status"`
	Location    string             `json:"location,omitempty"`
	ProjectID   string             `json:"project_id,omitempty"`
	PersonID    string             `json:"person_id,omitempty"`
	Maintenance []MaintenanceEntry `json:"maintenance"`
}

// DueItem is equipment with a maintenance date inside the requested window.
type DueItem struct {
	Equipment
	DueDate      string `json:"due_date,omitempty"`
	DaysUntilDue int    `json:"days_until_due"`
	Overdue      bool   `json:"overdue"`
}

// MaintenanceDue lists equipment needing maintenance by Cutoff.
type MaintenanceDue struct {
	Items      []DueItem `json:"items"`
	WithinDays int       `json:"within_days"`
	Cutoff     string    `json:"cutoff"`
	Truncated  bool      `json:"truncated"`
}

// Statistics aggregates the full equipment collection.
type Statistics struct {
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"by_status"`
	ByType         map[string]int `json:"by_type"`
	Assigned       int            `json:"assigned_to_project"`
	MaintenanceDue int            `json:"maintenance_due"`
	Truncated      bool           `json:"truncated"`
}

type equipmentNode struct {
	Ident        string `json:"ident"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	ProjectIdent string `json:"projectIdent"`
	PersonIdent  string `json:"personIdent"`
	Maintenance  []struct {
		Date        string `json:"date"`
		Description string `json:"description"`
	} `json:"maintenance"`
}

// Decode validates a remote equipment node. Maintenance entries are ordered by date.
func Decode(raw []byte) (Equipment, error) {
	var n equipmentNode
	if err := repository.Unmarshal(raw, &n); err != nil {
		return Equipment{}, err
	}
	switch {
	case n.Ident == "":
		return Equipment{}, gateway.RemoteSchemaf("equipment: missing ident")
	case n.Name == "":
		return Equipment{}, gateway.RemoteSchemaf("equipment %s: missing name", n.Ident)
	case !Status(n.Status).Valid():
		return Equipment{}, gateway.RemoteSchemaf("equipment %s: unknown status %q", n.Ident, n.Status)
	}

	entries := make([]MaintenanceEntry, 0, len(n.Maintenance))
	for _, m := range n.Maintenance {
		date, err := repository.NormalizeDate(m.Date)
		if err != nil || date == "" {
			return Equipment{}, gateway.RemoteSchemaf("equipment %s: invalid maintenance date %q", n.Ident, m.Date)
		}
		entries = append(entries, MaintenanceEntry{Date: date, Description: m.Description})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	return Equipment{
		ID:          n.Ident,
		Name:        n.Name,
		Type:        n.Type,
		Status:      Status(n.Status),
		Location:    n.Location,
		ProjectID:   n.ProjectIdent,
		PersonID:    n.PersonIdent,
		Maintenance: entries,
	}, nil
}
