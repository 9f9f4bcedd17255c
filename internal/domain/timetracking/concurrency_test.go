package timetracking_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"github.com/ganot/erfasst-mcp/internal/repository/mocks"
	"github.com/ganot/erfasst-mcp/internal/testserver"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentStartStopAcrossPersons(t *testing.T) {
	remote := testserver.NewRemote(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := gateway.New(gateway.Options{
		Endpoint: remote.URL(),
		Username: remote.Username,
		Token:    remote.Token,
		Timeout:  5 * time.Second,
		Logger:   logger,
	})
	require.NoError(t, err)
	svc := timetracking.NewService(repository.NewRemote(client, graphql.NewBuilder(0, 0), 0, logger), logger)

	const workers = 8
	var g errgroup.Group
	for i := range workers {
		personID := fmt.Sprintf("worker-%02d", i)
		g.Go(func() error {
			ctx := context.Background()
			started, err := svc.Start(ctx, timetracking.StartRequest{PersonID: personID, ProjectID: "p-001"})
			if err != nil {
				return fmt.Errorf("%s start: %w", personID, err)
			}
			status, err := svc.Status(ctx, personID)
			if err != nil {
				return fmt.Errorf("%s status: %w", personID, err)
			}
			if status.State != timetracking.StateTracking || status.Session.ID != started.ID || status.Drift {
				return fmt.Errorf("%s: unexpected status %+v", personID, status)
			}
			stopped, err := svc.Stop(ctx, timetracking.StopRequest{PersonID: personID, SessionID: started.ID})
			if err != nil {
				return fmt.Errorf("%s stop: %w", personID, err)
			}
			if stopped.ID != started.ID || stopped.Running {
				return fmt.Errorf("%s: stop returned %+v", personID, stopped)
			}
			status, err = svc.Status(ctx, personID)
			if err != nil {
				return fmt.Errorf("%s second status: %w", personID, err)
			}
			if status.State != timetracking.StateIdle || status.Drift {
				return fmt.Errorf("%s: unexpected idle status %+v", personID, status)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, workers, remote.Calls("StartStaffTime"))
	require.Equal(t, workers, remote.Calls("StopStaffTime"))
	for i := range workers {
		require.Empty(t, remote.OpenSessions(fmt.Sprintf("worker-%02d", i)))
	}
}

func readFor(personID string) any {
	return mock.MatchedBy(func(doc graphql.Document) bool {
		filter, ok := doc.Variables["filter"].(map[string]any)
		if !ok || doc.OperationName != "ListStaffTimes" {
			return false
		}
		person, _ := filter["personIdent"].(map[string]any)
		return person["eq"] == personID
	})
}

func TestStatus_SlowPersonDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})

	exec := &mocks.Executor{}
	exec.On("Execute", ctx, readFor("p-slow")).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(openRead(`[]`, 0), nil).Once()
	exec.On("Execute", ctx, readFor("p-1")).Return(openRead(`[`+openNode+`]`, 1), nil)

	svc := newService(exec)
	slow := make(chan error, 1)
	go func() {
		_, err := svc.Status(ctx, "p-slow")
		slow <- err
	}()
	<-entered

	type result struct {
		status *timetracking.Status
		err    error
	}
	fast := make(chan result, 1)
	go func() {
		status, err := svc.Status(ctx, "p-1")
		fast <- result{status, err}
	}()

	select {
	case res := <-fast:
		require.NoError(t, res.err)
		require.Equal(t, timetracking.StateTracking, res.status.State)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("status for p-1 waited on p-slow")
	}

	close(release)
	require.NoError(t, <-slow)
	exec.AssertExpectations(t)
}
