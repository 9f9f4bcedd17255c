// Package timetracking runs the per-person start/stop state machine over
// remote StaffTime records. The remote is the only source of truth: every
// mutation is preceded by a confirming read, and locally cached state is
// advisory.
package timetracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
)

// openSessionLimit bounds the confirm-read; anything above one is already a conflict.
const openSessionLimit = 10

type cachedState struct {
	state   State
	session *Session
	at      time.Time
}

// Service handles time tracking.
type Service struct {
	remote *repository.Remote
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedState
}

// NewService creates a new time tracking service.
func NewService(remote *repository.Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		remote: remote,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]cachedState),
	}
}

// WithClock overrides the clock used for start and end timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// StartRequest opens a session.
type StartRequest struct {
	PersonID    string
	ProjectID   string
	Description string
}

// StopRequest closes the person's open session. SessionID, when set, must
// match the open session.
type StopRequest struct {
	PersonID  string
	SessionID string
}

// Start opens a session for a person who has none. An existing open session
// is never closed or replaced: it is returned inside AlreadyTrackingError.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Session, error) {
	personID := strings.TrimSpace(req.PersonID)
	projectID := strings.TrimSpace(req.ProjectID)
	if personID == "" {
		return nil, repository.InvalidArgument("person_id is required")
	}
	if projectID == "" {
		return nil, repository.InvalidArgument("project_id is required")
	}

	open, err := s.openSessions(ctx, personID)
	if err != nil {
		return nil, err
	}
	switch len(open) {
	case 0:
	case 1:
		s.remember(personID, StateTracking, &open[0])
		return nil, &AlreadyTrackingError{Session: open[0]}
	default:
		s.forget(personID)
		return nil, &ConflictingSessionsError{PersonID: personID, Sessions: open}
	}

	started := s.now().UTC().Truncate(time.Second)
	session, err := repository.Mutate(ctx, s.remote, graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationCreate,
		Input: map[string]any{
			"personIdent":  personID,
			"projectIdent": projectID,
			"description":  req.Description,
			"start":        started.Format(time.RFC3339),
		},
	}, decodeAt(started))
	if err != nil {
		s.afterFailedMutation(personID, err)
		return nil, fmt.Errorf("starting time tracking: %w", err)
	}
	if session.PersonID != personID || !session.Running {
		s.forget(personID)
		return nil, gateway.RemoteSchemaf("start returned session %s for person %s (running=%t)",
			session.ID, session.PersonID, session.Running)
	}

	s.remember(personID, StateTracking, &session)
	s.logger.Info("time tracking started", "person_id", personID, "project_id", projectID, "session_id", session.ID)
	return &session, nil
}

// Stop closes the person's open session after a confirming read. When the
// read finds nothing to close no mutation is sent.
func (s *Service) Stop(ctx context.Context, req StopRequest) (*Session, error) {
	personID := strings.TrimSpace(req.PersonID)
	expected := strings.TrimSpace(req.SessionID)
	if personID == "" {
		return nil, repository.InvalidArgument("person_id is required")
	}

	open, err := s.openSessions(ctx, personID)
	if err != nil {
		return nil, err
	}

	var target Session
	switch {
	case len(open) == 0:
		s.remember(personID, StateIdle, nil)
		return nil, &NoActiveSessionError{PersonID: personID, ExpectedSessionID: expected}
	case len(open) == 1:
		target = open[0]
		if expected != "" && target.ID != expected {
			s.remember(personID, StateTracking, &target)
			return nil, &NoActiveSessionError{PersonID: personID, ExpectedSessionID: expected, Current: &target}
		}
	default:
		idx := -1
		for i := range open {
			if expected != "" && open[i].ID == expected {
				idx = i
			}
		}
		if idx < 0 {
			s.forget(personID)
			return nil, &ConflictingSessionsError{PersonID: personID, Sessions: open}
		}
		target = open[idx]
	}

	end := s.now().UTC().Truncate(time.Second)
	if !end.After(target.Start) {
		end = target.Start.Add(time.Second)
	}
	closed, err := repository.Mutate(ctx, s.remote, graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationClose,
		ID:        target.ID,
		Input:     map[string]any{"end": end.Format(time.RFC3339)},
	}, decodeAt(end))
	if err != nil {
		s.afterFailedMutation(personID, err)
		return nil, fmt.Errorf("stopping time tracking: %w", err)
	}
	if closed.ID != target.ID || closed.End == nil || !closed.End.After(closed.Start) {
		s.forget(personID)
		return nil, gateway.RemoteSchemaf("stop of session %s returned an invalid record", target.ID)
	}

	if len(open) > 1 {
		s.forget(personID)
	} else {
		s.remember(personID, StateIdle, nil)
	}
	s.logger.Info("time tracking stopped", "person_id", personID, "session_id", closed.ID, "duration_seconds", closed.DurationSeconds)
	return &closed, nil
}

// Status re-reads the person's open session and reports whether the cached
// state had drifted from the remote.
func (s *Service) Status(ctx context.Context, personID string) (*Status, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, repository.InvalidArgument("person_id is required")
	}

	cached, hadCache := s.cached(personID)
	open, err := s.openSessions(ctx, personID)
	if err != nil {
		return nil, err
	}
	if len(open) > 1 {
		s.forget(personID)
		return nil, &ConflictingSessionsError{PersonID: personID, Sessions: open}
	}

	status := &Status{PersonID: personID, State: StateIdle, CheckedAt: s.now().UTC()}
	if len(open) == 1 {
		status.State = StateTracking
		status.Session = &open[0]
	}
	if hadCache {
		status.CachedState = cached.state
		status.Drift = cached.state != status.State ||
			(cached.session != nil && status.Session != nil && cached.session.ID != status.Session.ID)
		if status.Drift {
			s.logger.Debug("time tracking state drifted", "person_id", personID, "cached", cached.state, "remote", status.State)
		}
	}
	s.remember(personID, status.State, status.Session)
	return status, nil
}

// Current lists running sessions, optionally for one person or project.
func (s *Service) Current(ctx context.Context, req CurrentRequest) (*Current, error) {
	filters := graphql.Filters{"running": graphql.Eq(true)}
	if id := strings.TrimSpace(req.PersonID); id != "" {
		filters["personIdent"] = graphql.Eq(id)
	}
	if id := strings.TrimSpace(req.ProjectID); id != "" {
		filters["projectIdent"] = graphql.Eq(id)
	}

	sessions, total, truncated, err := repository.FetchAll(ctx, s.remote, graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
	}, decodeAt(s.now()))
	if err != nil {
		return nil, fmt.Errorf("listing running sessions: %w", err)
	}

	out := &Current{Sessions: sessions, TotalCount: total, Truncated: truncated}
	for _, session := range sessions {
		out.TotalRunningSeconds += session.DurationSeconds
	}
	return out, nil
}

// History lists sessions matching the filter, newest first.
func (s *Service) History(ctx context.Context, f Filter) (*History, error) {
	sessions, total, truncated, err := s.collect(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Start.After(sessions[j].Start) })
	return &History{
		Sessions:   sessions,
		TotalCount: total,
		Summary:    summarize(sessions),
		Truncated:  truncated,
	}, nil
}

// Statistics aggregates tracked time for the filter.
func (s *Service) Statistics(ctx context.Context, f Filter) (*Statistics, error) {
	sessions, _, truncated, err := s.collect(ctx, f)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		Summary:   summarize(sessions),
		ByPerson:  map[string]int{},
		Truncated: truncated,
	}
	for _, session := range sessions {
		stats.ByPerson[session.PersonID]++
	}
	if stats.Sessions > 0 {
		stats.AverageSessionMinutes = round1(float64(stats.TotalDurationSeconds) / float64(stats.Sessions) / 60)
	}
	return stats, nil
}

func (s *Service) collect(ctx context.Context, f Filter) ([]Session, int, bool, error) {
	filters := graphql.Filters{}
	if id := strings.TrimSpace(f.PersonID); id != "" {
		filters["personIdent"] = graphql.Eq(id)
	}
	if id := strings.TrimSpace(f.ProjectID); id != "" {
		filters["projectIdent"] = graphql.Eq(id)
	}
	from, err := repository.DateArg("start_date", f.StartDate)
	if err != nil {
		return nil, 0, false, err
	}
	to, err := repository.EndOfDayArg("end_date", f.EndDate)
	if err != nil {
		return nil, 0, false, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, 0, false, repository.InvalidArgument("end_date is before start_date")
	}
	if from != nil || to != nil {
		var lo, hi any
		if from != nil {
			lo = from.UTC().Format(time.RFC3339)
		}
		if to != nil {
			hi = to.UTC().Format(time.RFC3339)
		}
		filters["start"] = graphql.Between(lo, hi)
	}

	sessions, total, truncated, err := repository.FetchAll(ctx, s.remote, graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationList,
		Filters:   filters,
	}, decodeAt(s.now()))
	if err != nil {
		return nil, 0, false, fmt.Errorf("collecting sessions: %w", err)
	}
	return sessions, total, truncated, nil
}

func (s *Service) openSessions(ctx context.Context, personID string) ([]Session, error) {
	list, err := repository.FetchList(ctx, s.remote, graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationList,
		Filters: graphql.Filters{
			"personIdent": graphql.Eq(personID),
			"running":     graphql.Eq(true),
		},
		Page: graphql.Pagination{Limit: openSessionLimit},
	}, decodeAt(s.now()))
	if err != nil {
		return nil, fmt.Errorf("reading open sessions: %w", err)
	}
	open := make([]Session, 0, len(list.Items))
	for _, session := range list.Items {
		if session.PersonID != personID || !session.Running {
			return nil, gateway.RemoteSchemaf("open-session read for %s returned session %s (person %s, running=%t)",
				personID, session.ID, session.PersonID, session.Running)
		}
		open = append(open, session)
	}
	return open, nil
}

// afterFailedMutation drops cached state when the outcome of a write is unknown.
func (s *Service) afterFailedMutation(personID string, err error) {
	if errors.Is(err, gateway.ErrNetwork) {
		s.forget(personID)
		s.logger.Warn("time tracking mutation outcome unknown", "person_id", personID, "error", err)
	}
}

func (s *Service) remember(personID string, state State, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[personID] = cachedState{state: state, session: session, at: s.now()}
}

func (s *Service) forget(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, personID)
}

func (s *Service) cached(personID string) (cachedState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[personID]
	return c, ok
}

func summarize(sessions []Session) Summary {
	sum := Summary{ByProject: []ProjectTotal{}}
	byProject := map[string]*ProjectTotal{}
	for _, session := range sessions {
		sum.Sessions++
		if session.Running {
			sum.Running++
		}
		sum.TotalDurationSeconds += session.DurationSeconds

		key := session.ProjectID
		pt, ok := byProject[key]
		if !ok {
			pt = &ProjectTotal{ProjectID: key}
			byProject[key] = pt
		}
		pt.Sessions++
		pt.DurationSeconds += session.DurationSeconds
	}
	for _, pt := range byProject {
		pt.Hours = round1(float64(pt.DurationSeconds) / 3600)
		sum.ByProject = append(sum.ByProject, *pt)
	}
	sort.Slice(sum.ByProject, func(i, j int) bool {
		if sum.ByProject[i].DurationSeconds != sum.ByProject[j].DurationSeconds {
			return sum.ByProject[i].DurationSeconds > sum.ByProject[j].DurationSeconds
		}
		return sum.ByProject[i].ProjectID < sum.ByProject[j].ProjectID
	})
	sum.TotalHours = round1(float64(sum.TotalDurationSeconds) / 3600)
	return sum
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
