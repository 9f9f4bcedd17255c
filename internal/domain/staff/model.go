package staff

import (
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// Status filter values accepted by the staff tools.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Person is an employee record.
type Person struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Role       string   `json:"role,omitempty"`
	Active     bool     `json:"active"`
	Email      string   `json:"email,omitempty"`
	ProjectIDs []string `json:"project_ids"`
}

// Statistics aggregates the full staff collection.
type Statistics struct {
	Total     int            `json:"total"`
	Active    int            `json:"active"`
	Inactive  int            `json:"inactive"`
	ByRole    map[string]int `json:"by_role"`
	Truncated bool           `json:"truncated"`
}

type personNode struct {
	Ident         string   `json:"ident"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Active        *bool    `json:"active"`
	Email         string   `json:"email"`
	ProjectIdents []string `json:"projectIdents"`
}

// Decode validates a remote person node.
func Decode(raw []byte) (Person, error) {
	var n personNode
	if err := repository.Unmarshal(raw, &n); err != nil {
		return Person{}, err
	}
	switch {
	case n.Ident == "":
		return Person{}, gateway.RemoteSchemaf("person: missing ident")
	case n.Name == "":
		return Person{}, gateway.RemoteSchemaf("person %s: missing name", n.Ident)
	case n.Active == nil:
		return Person{}, gateway.RemoteSchemaf("person %s: missing active flag", n.Ident)
	}
	projects := n.ProjectIdents
	if projects == nil {
		projects = []string{}
	}
	return Person{
		ID:         n.Ident,
		Name:       n.Name,
		Role:       n.Role,
		Active:     *n.Active,
		Email:      n.Email,
		ProjectIDs: projects,
	}, nil
}
