package mcp

import "github.com/ganot/erfasst-mcp/internal/graphql"

type NoArgs struct{}

type PageArgs struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque cursor from a previous result's page.next_cursor"`
}

func (a PageArgs) page() graphql.Pagination {
	return graphql.Pagination{Limit: a.Limit, Offset: a.Offset, Cursor: a.Cursor}
}

func page(limit, offset int) graphql.Pagination {
	return graphql.Pagination{Limit: limit, Offset: offset}
}

// Projects

type ListProjectsArgs struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active, inactive or archived"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque cursor from a previous result's page.next_cursor"`
}

type ProjectIDArgs struct {
	ProjectID string `json:"project_id" jsonschema:"Project identifier"`
}

type SearchProjectsArgs struct {
	Query  string `json:"query" jsonschema:"Case-insensitive text matched against project name and description"`
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active, inactive or archived"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type DateRangeArgs struct {
	StartDate string `json:"start_date" jsonschema:"Range start (YYYY-MM-DD)"`
	EndDate   string `json:"end_date" jsonschema:"Range end (YYYY-MM-DD), inclusive"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset    int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

// Staff

type ListStaffArgs struct {
	Role   string `json:"role,omitempty" jsonschema:"Filter by exact role, e.g. Foreman"`
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active or inactive"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque cursor from a previous result's page.next_cursor"`
}

type PersonIDArgs struct {
	PersonID string `json:"person_id" jsonschema:"Person identifier"`
}

type SearchStaffArgs struct {
	Query  string `json:"query" jsonschema:"Case-insensitive text matched against name and role"`
	Role   string `json:"role,omitempty" jsonschema:"Filter by exact role"`
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active or inactive"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type StaffByRoleArgs struct {
	Role   string `json:"role" jsonschema:"Role to match exactly"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type ProjectPageArgs struct {
	ProjectID string `json:"project_id" jsonschema:"Project identifier"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset    int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

// Equipment

type ListEquipmentArgs struct {
	Status        string `json:"status,omitempty" jsonschema:"Filter by status: available, in-use or maintenance"`
	EquipmentType string `json:"equipment_type,omitempty" jsonschema:"Filter by exact equipment type, e.g. excavator"`
	Location      string `json:"location,omitempty" jsonschema:"Case-insensitive location substring"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset        int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
	Cursor        string `json:"cursor,omitempty" jsonschema:"Opaque cursor from a previous result's page.next_cursor"`
}

type EquipmentIDArgs struct {
	EquipmentID string `json:"equipment_id" jsonschema:"Equipment identifier"`
}

type SearchEquipmentArgs struct {
	Query         string `json:"query" jsonschema:"Case-insensitive text matched against name and type"`
	Status        string `json:"status,omitempty" jsonschema:"Filter by status: available, in-use or maintenance"`
	EquipmentType string `json:"equipment_type,omitempty" jsonschema:"Filter by exact equipment type"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset        int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type PersonPageArgs struct {
	PersonID string `json:"person_id" jsonschema:"Person identifier"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type MaintenanceDueArgs struct {
	WithinDays int `json:"within_days,omitempty" jsonschema:"Look-ahead window in days (default 14)"`
}

// Time tracking

type StartTrackingArgs struct {
	PersonID    string `json:"person_id" jsonschema:"Person who starts working"`
	ProjectID   string `json:"project_id" jsonschema:"Project the time is booked on"`
	Description string `json:"description,omitempty" jsonschema:"What the person is working on"`
}

type StopTrackingArgs struct {
	PersonID  string `json:"person_id" jsonschema:"Person who stops working"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Session expected to be open; the stop is refused if a different session is open"`
}

type CurrentTimesArgs struct {
	PersonID  string `json:"person_id,omitempty" jsonschema:"Only sessions of this person"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only sessions on this project"`
}

type TimeFilterArgs struct {
	PersonID  string `json:"person_id,omitempty" jsonschema:"Only sessions of this person"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only sessions on this project"`
	StartDate string `json:"start_date,omitempty" jsonschema:"Sessions starting on or after this date (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Sessions starting on or before this date (YYYY-MM-DD)"`
}

// Tickets and planning

type ProjectListArgs struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only entries of this project"`
	Status    string `json:"status,omitempty" jsonschema:"Filter by exact status"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, capped at 500)"`
	Offset    int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

// HealthResult reports remote connectivity.
type HealthResult struct {
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Error     *APIError `json:"error,omitempty"`
}
