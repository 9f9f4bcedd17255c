package staff_test

import (
	"context"
	"testing"

	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"github.com/ganot/erfasst-mcp/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const people = `{"nodes":[
	{"ident":"p-1","name":"Anna Berg","role":"Foreman","active":true,"projectIdents":["pr-1"]},
	{"ident":"p-2","name":"Bernd Koch","role":"Mason","active":false},
	{"ident":"p-3","name":"Clara Voss","active":true}
],"totalCount":3}`

func newService(exec *mocks.Executor) *staff.Service {
	return staff.NewService(repository.NewRemote(exec, graphql.NewBuilder(50, 500), 0, nil), nil)
}

func TestStaffService_ListEncodesStatusAndRole(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		filter, ok := doc.Variables["filter"].(map[string]any)
		return ok &&
			assertEq(filter["active"], true) &&
			assertEq(filter["role"], "Foreman")
	})).Return(mocks.Result("persons", `{"nodes":[{"ident":"p-1","name":"Anna Berg","role":"Foreman","active":true}],"totalCount":1}`), nil)

	list, err := newService(exec).List(ctx, staff.ListRequest{Role: "Foreman", Status: "Active"})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalCount)
	require.Equal(t, "Anna Berg", list.Items[0].Name)
	require.Equal(t, []string{}, list.Items[0].ProjectIDs)
	exec.AssertExpectations(t)
}

func assertEq(pred any, want any) bool {
	m, ok := pred.(map[string]any)
	return ok && m["eq"] == want
}

func TestStaffService_RejectsInvalidArguments(t *testing.T) {
	ctx := context.Background()
	svc := newService(&mocks.Executor{})

	_, err := svc.List(ctx, staff.ListRequest{Status: "retired"})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)

	_, err = svc.Search(ctx, staff.SearchRequest{Query: "   "})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)

	_, err = svc.Get(ctx, "")
	require.ErrorIs(t, err, repository.ErrInvalidArgument)

	_, err = svc.ByRole(ctx, "", graphql.Pagination{})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)

	_, err = svc.ByProject(ctx, "", graphql.Pagination{})
	require.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestStaffService_GetRejectsMalformedRecord(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("GetPerson")).
		Return(mocks.Result("person", `{"ident":"p-9","name":"No Flag"}`), nil)

	_, err := newService(exec).Get(ctx, "p-9")
	require.ErrorIs(t, err, gateway.ErrRemoteSchema)
}

func TestStaffService_ByProjectUsesForeignKey(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mock.MatchedBy(func(doc graphql.Document) bool {
		filter, ok := doc.Variables["filter"].(map[string]any)
		return ok && assertEq(filter["projectIdent"], "pr-1")
	})).Return(mocks.Result("persons", people), nil)

	list, err := newService(exec).ByProject(ctx, "pr-1", graphql.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
}

func TestStaffService_Statistics(t *testing.T) {
	ctx := context.Background()
	exec := &mocks.Executor{}
	exec.On("Execute", ctx, mocks.Operation("ListPersons")).Return(mocks.Result("persons", people), nil)

	stats, err := newService(exec).Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Active)
	require.Equal(t, 1, stats.Inactive)
	require.Equal(t, map[string]int{"Foreman": 1, "Mason": 1, "unassigned": 1}, stats.ByRole)
	require.False(t, stats.Truncated)
}
