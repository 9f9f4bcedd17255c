package timetracking

import (
	"time"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// State is the per-person tracking state.
type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Session is a StaffTime record. A running session has no End.
type Session struct {
	ID              string     `json:"id"`
	PersonID        string     `json:"person_id"`
	ProjectID       string     `json:"project_id,omitempty"`
	Description     string     `json:"description,omitempty"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	Running         bool       `json:"running"`
	DurationSeconds int64      `json:"duration_seconds"`
}

// Status is the confirmed state of one person.
type Status struct {
	PersonID    string    `json:"person_id"`
	State       State     `json:"state"`
	Session     *Session  `json:"session,omitempty"`
	CachedState State     `json:"cached_state,omitempty"`
	Drift       bool      `json:"drift"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Filter narrows history and statistics queries. Dates are inclusive calendar days.
type Filter struct {
	PersonID  string
	ProjectID string
	StartDate string
	EndDate   string
}

// CurrentRequest narrows the running-session query.
type CurrentRequest struct {
	PersonID  string
	ProjectID string
}

// Current lists running sessions.
type Current struct {
	Sessions            []Session `json:"sessions"`
	TotalCount          int       `json:"total_count"`
	TotalRunningSeconds int64     `json:"total_running_seconds"`
	Truncated           bool      `json:"truncated"`
}

// ProjectTotal is the tracked time on one project.
type ProjectTotal struct {
	ProjectID       string  `json:"project_id"`
	Sessions        int     `json:"sessions"`
	DurationSeconds int64   `json:"duration_seconds"`
	Hours           float64 `json:"hours"`
}

// Summary totals a set of sessions.
type Summary struct {
	Sessions             int            `json:"sessions"`
	Running              int            `json:"running"`
	TotalDurationSeconds int64          `json:"total_duration_seconds"`
	TotalHours           float64        `json:"total_hours"`
	ByProject            []ProjectTotal `json:"by_project"`
}

// History is the session list for a filter, newest first.
type History struct {
	Sessions   []Session `json:"sessions"`
	TotalCount int       `json:"total_count"`
	Summary    Summary   `json:"summary"`
	Truncated  bool      `json:"truncated"`
}

// Statistics aggregates tracked time for a filter.
type Statistics struct {
	Summary
	AverageSessionMinutes float64        `json:"average_session_minutes"`
	ByPerson              map[string]int `json:"sessions_by_person"`
	Truncated             bool           `json:"truncated"`
}

type staffTimeNode struct {
	Ident        string     `json:"ident"`
	PersonIdent  string     `json:"personIdent"`
	ProjectIdent string     `json:"projectIdent"`
	Description  string     `json:"description"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
}

func decodeAt(now time.Time) repository.Decoder[Session] {
	return func(raw []byte) (Session, error) {
		var n staffTimeNode
		if err := repository.Unmarshal(raw, &n); err != nil {
			return Session{}, err
		}
		switch {
		case n.Ident == "":
			return Session{}, gateway.RemoteSchemaf("staff time: missing ident")
		case n.PersonIdent == "":
			return Session{}, gateway.RemoteSchemaf("staff time %s: missing personIdent", n.Ident)
		case n.Start == nil || n.Start.IsZero():
			return Session{}, gateway.RemoteSchemaf("staff time %s: missing start", n.Ident)
		case n.End != nil && !n.End.After(*n.Start):
			return Session{}, gateway.RemoteSchemaf("staff time %s: end %s not after start %s",
				n.Ident, n.End.Format(time.RFC3339), n.Start.Format(time.RFC3339))
		}

		s := Session{
			ID:          n.Ident,
			PersonID:    n.PersonIdent,
			ProjectID:   n.ProjectIdent,
			Description: n.Description,
			Start:       *n.Start,
			End:         n.End,
			Running:     n.End == nil,
		}
		until := now
		if n.End != nil {
			until = *n.End
		}
		if d := until.Sub(s.Start); d > 0 {
			s.DurationSeconds = int64(d / time.Second)
		}
		return s, nil
	}
}
