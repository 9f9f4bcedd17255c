package testserver

import "fmt"

// Fixtures returns a fresh copy of the seeded remote data.
//
// Projects: p-001 "Acme Construction GmbH" plus eleven generated sites.
// Persons: five, four of them active. Staff times: per-001 has one closed
// session, per-003 is tracking on p-002.
func Fixtures() map[string][]Node {
	projects := []Node{
		{
			"ident": "p-001", "name": "Acme Construction GmbH", "description": "Office building shell",
			"status": "active", "startDate": "2026-01-05", "endDate": "2026-09-30",
			"staffIdents": []any{"per-001", "per-002"}, "equipmentIdents": []any{"eq-001"},
		},
		{
			"ident": "p-002", "name": "Bridge Renovation", "description": "Steel bridge repair",
			"status": "active", "startDate": "2026-03-01", "endDate": "2026-12-15",
			"staffIdents": []any{"per-003"}, "equipmentIdents": []any{"eq-002"},
		},
	}
	for i := 3; i <= 12; i++ {
		status := "active"
		if i%3 == 0 {
			status = "archived"
		}
		projects = append(projects, Node{
			"ident":           fmt.Sprintf("p-%03d", i),
			"name":            fmt.Sprintf("Residential Block %d", i),
			"description":     "Housing",
			"status":          status,
			"startDate":       fmt.Sprintf("2025-%02d-01", i),
			"endDate":         nil,
			"staffIdents":     []any{},
			"equipmentIdents": []any{},
		})
	}

	persons := []Node{
		{"ident": "per-001", "name": "Anna Schmidt", "role": "Foreman", "active": true, "email": "anna@example.com", "projectIdents": []any{"p-001"}},
		{"ident": "per-002", "name": "Ben Keller", "role": "Carpenter", "active": true, "email": "ben@example.com", "projectIdents": []any{"p-001"}},
		{"ident": "per-003", "name": "Clara Vogel", "role": "Electrician", "active": true, "email": "", "projectIdents": []any{"p-002"}},
		{"ident": "per-004", "name": "David Wolf", "role": "Carpenter", "active": false, "email": "", "projectIdents": []any{}},
		{"ident": "per-005", "name": "Eva Braun", "role": "Foreman", "active": true, "email": "", "projectIdents": []any{}},
	}

	equipments := []Node{
		{
			"ident": "eq-001", "name": "Excavator CAT 320", "type": "excavator", "status": "in-use",
			"location": "Munich Site A", "projectIdent": "p-001", "personIdent": "per-001",
			"maintenance": []any{map[string]any{"date": "2030-06-01", "description": "Hydraulics check"}},
		},
		{
			"ident": "eq-002", "name": "Tower Crane", "type": "crane", "status": "maintenance",
			"location": "Berlin Yard", "projectIdent": "p-002", "personIdent": nil,
			"maintenance": []any{},
		},
		{
			"ident": "eq-003", "name": "Concrete Mixer", "type": "mixer", "status": "available",
			"location": "Munich Depot", "projectIdent": nil, "personIdent": nil,
			"maintenance": []any{},
		},
	}

	staffTimes := []Node{
		{
			"ident": "st-001", "personIdent": "per-001", "projectIdent": "p-001", "description": "Formwork",
			"start": "2026-02-02T07:00:00Z", "end": "2026-02-02T15:30:00Z",
		},
		{
			"ident": "st-002", "personIdent": "per-003", "projectIdent": "p-002", "description": "Wiring",
			"start": "2025-06-02T06:00:00Z", "end": nil,
		},
	}

	tickets := []Node{
		{"ident": "t-001", "title": "Missing rebar delivery", "description": "", "status": "open", "priority": "high", "projectIdent": "p-001"},
		{"ident": "t-002", "title": "Scaffold inspection", "description": "", "status": "closed", "priority": "normal", "projectIdent": "p-002"},
	}

	plannings := []Node{
		{"ident": "pl-001", "projectIdent": "p-001", "milestone": "Shell complete", "status": "planned", "plannedDate": "2026-06-30", "description": ""},
	}

	return map[string][]Node{
		"projects":   projects,
		"persons":    persons,
		"equipments": equipments,
		"staffTimes": staffTimes,
		"tickets":    tickets,
		"plannings":  plannings,
	}
}
