package timetracking_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"github.com/ganot/erfasst-mcp/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newService(exec *mocks.Executor) *timetracking.Service {
	remote := repository.NewRemote(exec, graphql.NewBuilder(50, 500), 0, nil)
	return timetracking.NewService(remote, nil).WithClock(clock)
}

func openRead(nodes string, total int) *gateway.Result {
	return mocks.Result("staffTimes", `{"nodes":`+nodes+`,"totalCount":`+strconv.Itoa(total)+`}`)
}

const openNode = `{"ident":"st-1","personIdent":"p-1","projectIdent":"pr-1","description":"Schalung","start":"2024-06-03T08:00:00Z","end":null}`

func TestStart_ExistingSessionIsReturnedWithoutMutation(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+openNode+`]`, 1), nil)

	_, err := newService(exec).Start(ctx, timetracking.StartRequest{PersonID: "p-1", ProjectID: "pr-2"})
	require.ErrorIs(t, err, timetracking.ErrAlreadyTracking)

	var already *timetracking.AlreadyTrackingError
	require.ErrorAs(t, err, &already)
	require.Equal(t, "st-1", already.Session.ID)
	require.Equal(t, int64(4*3600), already.Session.DurationSeconds)
	exec.AssertNotCalled(t, "Execute", ctx, mocks.Operation("StartStaffTime"))
}

func TestStart_OpensSession(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[]`, 0), nil)
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		if doc.OperationName != "StartStaffTime" {
			return false
		}
		input := doc.Variables["input"].(map[string]any)
		return input["personIdent"] == "p-1" &&
			input["projectIdent"] == "pr-1" &&
			input["start"] == "2024-06-03T12:00:00Z"
	})).Return(mocks.Result("startStaffTime",
		`{"ident":"st-9","personIdent":"p-1","projectIdent":"pr-1","start":"2024-06-03T12:00:00Z","end":null}`), nil).Once()

	session, err := newService(exec).Start(ctx, timetracking.StartRequest{PersonID: "p-1", ProjectID: "pr-1", Description: "Bewehrung"})
	require.NoError(t, err)
	require.Equal(t, "st-9", session.ID)
	require.True(t, session.Running)
	exec.AssertExpectations(t)
}

func TestStart_RequiresPersonAndProject(t *testing.T) {
	svc := newService(&mocks.Executor{})
	_, err := svc.Start(context.Background(), timetracking.StartRequest{ProjectID: "pr-1"})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)
	_, err = svc.Start(context.Background(), timetracking.StartRequest{PersonID: "p-1"})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestStart_MutationIsNotRetried(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[]`, 0), nil)
	exec.On("Execute", ctx, mocks.Operation("StartStaffTime")).Return(nil, gateway.ErrNetwork).Once()

	_, err := newService(exec).Start(ctx, timetracking.StartRequest{PersonID: "p-1", ProjectID: "pr-1"})
	require.ErrorIs(t, err, gateway.ErrNetwork)
	exec.AssertNumberOfCalls(t, "Execute", 2)
}

func TestStop_IdlePersonGetsNoActiveSessionAndNoMutation(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[]`, 0), nil)

	_, err := newService(exec).Stop(ctx, timetracking.StopRequest{PersonID: "p-1"})
	require.ErrorIs(t, err, timetracking.ErrNoActiveSession)

	var noActive *timetracking.NoActiveSessionError
	require.ErrorAs(t, err, &noActive)
	require.Equal(t, "p-1", noActive.PersonID)
	require.Nil(t, noActive.Current)
	exec.AssertNotCalled(t, "Execute", ctx, mocks.Operation("StopStaffTime"))
}

func TestStop_MismatchedSessionReportsCurrent(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+openNode+`]`, 1), nil)

	_, err := newService(exec).Stop(ctx, timetracking.StopRequest{PersonID: "p-1", SessionID: "st-old"})
	var noActive *timetracking.NoActiveSessionError
	require.ErrorAs(t, err, &noActive)
	require.Equal(t, "st-old", noActive.ExpectedSessionID)
	require.Equal(t, "st-1", noActive.Current.ID)
	exec.AssertNotCalled(t, "Execute", ctx, mocks.Operation("StopStaffTime"))
}

func TestStop_ClosesConfirmedSession(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+openNode+`]`, 1), nil).Once()
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		return doc.OperationName == "StopStaffTime" &&
			doc.Variables["ident"] == "st-1" &&
			doc.Variables["end"] == "2024-06-03T12:00:00Z"
	})).Return(mocks.Result("stopStaffTime",
		`{"ident":"st-1","personIdent":"p-1","projectIdent":"pr-1","start":"2024-06-03T08:00:00Z","end":"2024-06-03T12:00:00Z"}`), nil).Once()
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[]`, 0), nil).Once()

	svc := newService(exec)
	closed, err := svc.Stop(ctx, timetracking.StopRequest{PersonID: "p-1", SessionID: "st-1"})
	require.NoError(t, err)
	require.False(t, closed.Running)
	require.True(t, closed.End.After(closed.Start))
	require.Equal(t, int64(4*3600), closed.DurationSeconds)

	status, err := svc.Status(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, timetracking.StateIdle, status.State)
	require.False(t, status.Drift)
	exec.AssertExpectations(t)
}

func TestStop_EndIsAfterStartWhenClockLags(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	future := `{"ident":"st-2","personIdent":"p-1","start":"2024-06-03T12:00:00Z"}`
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+future+`]`, 1), nil)
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		return doc.OperationName == "StopStaffTime" && doc.Variables["end"] == "2024-06-03T12:00:01Z"
	})).Return(mocks.Result("stopStaffTime",
		`{"ident":"st-2","personIdent":"p-1","start":"2024-06-03T12:00:00Z","end":"2024-06-03T12:00:01Z"}`), nil)

	closed, err := newService(exec).Stop(ctx, timetracking.StopRequest{PersonID: "p-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), closed.DurationSeconds)
}

func TestConflictingOpenSessionsAreSchemaErrors(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	second := `{"ident":"st-3","personIdent":"p-1","start":"2024-06-03T09:00:00Z"}`
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+openNode+`,`+second+`]`, 2), nil)

	svc := newService(exec)
	_, err := svc.Start(ctx, timetracking.StartRequest{PersonID: "p-1", ProjectID: "pr-1"})
	require.ErrorIs(t, err, gateway.ErrRemoteSchema)

	var conflict *timetracking.ConflictingSessionsError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Sessions, 2)

	_, err = svc.Status(ctx, "p-1")
	require.ErrorIs(t, err, timetracking.ErrConflictingSessions)

	_, err = svc.Stop(ctx, timetracking.StopRequest{PersonID: "p-1"})
	require.ErrorIs(t, err, timetracking.ErrConflictingSessions)
}

func TestStatus_ReportsDrift(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[`+openNode+`]`, 1), nil).Once()
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(openRead(`[]`, 0), nil).Once()

	svc := newService(exec)
	first, err := svc.Status(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, timetracking.StateTracking, first.State)
	require.False(t, first.Drift)

	second, err := svc.Status(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, timetracking.StateIdle, second.State)
	require.Equal(t, timetracking.StateTracking, second.CachedState)
	require.True(t, second.Drift)
}

func TestHistory_SummarizesByProject(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		filter, ok := doc.Variables["filter"].(map[string]any)
		if !ok {
			return false
		}
		start := filter["start"].(map[string]any)
		return start["gte"] == "2024-06-01T00:00:00Z" && start["lte"] == "2024-06-02T23:59:59Z"
	})).Return(mocks.Result("staffTimes", `{"nodes":[
		{"ident":"a","personIdent":"p-1","projectIdent":"pr-1","start":"2024-06-01T08:00:00Z","end":"2024-06-01T10:00:00Z"},
		{"ident":"b","personIdent":"p-1","projectIdent":"pr-2","start":"2024-06-02T08:00:00Z","end":"2024-06-02T09:00:00Z"},
		{"ident":"c","personIdent":"p-2","projectIdent":"pr-1","start":"2024-06-02T10:00:00Z","end":"2024-06-02T13:00:00Z"}
	],"totalCount":3}`), nil)

	history, err := newService(exec).History(ctx, timetracking.Filter{StartDate: "2024-06-01", EndDate: "2024-06-02"})
	require.NoError(t, err)
	require.Equal(t, 3, history.TotalCount)
	require.Equal(t, "c", history.Sessions[0].ID)
	require.Equal(t, int64(6*3600), history.Summary.TotalDurationSeconds)
	require.Equal(t, 6.0, history.Summary.TotalHours)
	require.Equal(t, "pr-1", history.Summary.ByProject[0].ProjectID)
	require.Equal(t, 5.0, history.Summary.ByProject[0].Hours)
}

func TestHistory_RejectsZeroLengthSession(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(mocks.Result("staffTimes", `{"nodes":[
		{"ident":"z","personIdent":"p-1","projectIdent":"pr-1","start":"2024-06-01T08:00:00Z","end":"2024-06-01T08:00:00Z"}
	],"totalCount":1}`), nil)

	_, err := newService(exec).History(ctx, timetracking.Filter{PersonID: "p-1"})
	require.ErrorIs(t, err, gateway.ErrRemoteSchema)
	require.ErrorContains(t, err, "not after start")
}

func TestHistory_TimestampEndDateIsExact(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		filter, ok := doc.Variables["filter"].(map[string]any)
		if !ok {
			return false
		}
		start := filter["start"].(map[string]any)
		return start["gte"] == "2024-06-01T00:00:00Z" && start["lte"] == "2024-06-02T10:00:00Z"
	})).Return(openRead(`[]`, 0), nil)

	history, err := newService(exec).History(ctx, timetracking.Filter{StartDate: "2024-06-01", EndDate: "2024-06-02T10:00:00Z"})
	require.NoError(t, err)
	require.Empty(t, history.Sessions)
	exec.AssertExpectations(t)
}

func TestHistory_RejectsInvertedRange(t *testing.T) {
	_, err := newService(&mocks.Executor{}).History(context.Background(), timetracking.Filter{StartDate: "2024-06-05", EndDate: "2024-06-01"})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListStaffTimes")).Return(mocks.Result("staffTimes", `{"nodes":[
		{"ident":"a","personIdent":"p-1","projectIdent":"pr-1","start":"2024-06-01T08:00:00Z","end":"2024-06-01T09:00:00Z"},
		{"ident":"b","personIdent":"p-2","projectIdent":"pr-1","start":"2024-06-03T11:00:00Z"}
	],"totalCount":2}`), nil)

	stats, err := newService(exec).Statistics(ctx, timetracking.Filter{ProjectID: "pr-1"})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Sessions)
	require.Equal(t, 1, stats.Running)
	require.Equal(t, int64(2*3600), stats.TotalDurationSeconds)
	require.Equal(t, 60.0, stats.AverageSessionMinutes)
	require.Equal(t, map[string]int{"p-1": 1, "p-2": 1}, stats.ByPerson)
}
