package timetracking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/erfasst-mcp/internal/gateway"
)

var (
	// ErrAlreadyTracking indicates the person already has an open session.
	ErrAlreadyTracking = errors.New("already tracking")
	// ErrNoActiveSession indicates there is no open session to stop.
	ErrNoActiveSession = errors.New("no active session")
	// ErrConflictingSessions indicates the remote holds more than one open session for a person.
	ErrConflictingSessions = errors.New("conflicting open sessions")
)

// AlreadyTrackingError carries the session that blocked a start.
type AlreadyTrackingError struct {
	Session Session
}

func (e *AlreadyTrackingError) Error() string {
	return fmt.Sprintf("person %s is already tracking time in session %s since %s",
		e.Session.PersonID, e.Session.ID, e.Session.Start.Format("2006-01-02 15:04:05 MST"))
}

func (e *AlreadyTrackingError) Is(target error) bool {
	return target == ErrAlreadyTracking
}

// NoActiveSessionError reports a stop that found nothing matching to close.
// Current is set when a different session is open.
type NoActiveSessionError struct {
	PersonID          string
	ExpectedSessionID string
	Current           *Session
}

func (e *NoActiveSessionError) Error() string {
	if e.ExpectedSessionID != "" && e.Current != nil {
		return fmt.Sprintf("session %s is not open for person %s; open session is %s",
			e.ExpectedSessionID, e.PersonID, e.Current.ID)
	}
	if e.ExpectedSessionID != "" {
		return fmt.Sprintf("session %s is not open for person %s", e.ExpectedSessionID, e.PersonID)
	}
	return fmt.Sprintf("person %s has no active time tracking session", e.PersonID)
}

func (e *NoActiveSessionError) Is(target error) bool {
	return target == ErrNoActiveSession
}

// ConflictingSessionsError lists every open session found for one person.
// It also matches gateway.ErrRemoteSchema since the remote broke the
// one-open-session rule.
type ConflictingSessionsError struct {
	PersonID string
	Sessions []Session
}

func (e *ConflictingSessionsError) Error() string {
	ids := make([]string, 0, len(e.Sessions))
	for _, s := range e.Sessions {
		ids = append(ids, s.ID)
	}
	return fmt.Sprintf("person %s has %d open sessions: %s", e.PersonID, len(e.Sessions), strings.Join(ids, ", "))
}

func (e *ConflictingSessionsError) Is(target error) bool {
	return target == ErrConflictingSessions || target == gateway.ErrRemoteSchema
}
