package graphql_test

import (
	"errors"
	"testing"

	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/stretchr/testify/require"
)

func TestBuild_ListAppliesDefaultLimit(t *testing.T) {
	b := graphql.NewBuilder(0, 0)

	doc, err := b.Build(graphql.Request{Entity: graphql.ProjectEntity, Operation: graphql.OperationList})
	require.NoError(t, err)
	require.Equal(t, "ListProjects", doc.OperationName)
	require.Equal(t, "projects", doc.Root)
	require.False(t, doc.Mutation)
	require.Equal(t, 50, doc.Variables["first"])
	require.Equal(t, 0, doc.Variables["offset"])
	require.NotContains(t, doc.Variables, "filter")
	require.NotContains(t, doc.Variables, "after")
	require.Contains(t, doc.Query, "projects(first: $first, offset: $offset, after: $after, filter: $filter)")
	require.Contains(t, doc.Query, "totalCount")
	require.False(t, doc.Page.Clamped)
}

func TestBuild_ClampsLimit(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	doc, err := b.Build(graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationList,
		Page:      graphql.Pagination{Limit: 10000, Offset: 20},
	})
	require.NoError(t, err)
	require.Equal(t, 500, doc.Variables["first"])
	require.Equal(t, 20, doc.Variables["offset"])
	require.True(t, doc.Page.Clamped)
	require.Equal(t, 10000, doc.Page.RequestedLimit)
	require.Equal(t, 500, doc.Page.Limit)
}

func TestNewBuilder_MaxLimitNeverExceedsHardCap(t *testing.T) {
	b := graphql.NewBuilder(50, 10000)
	require.Equal(t, graphql.MaxLimit, b.MaxLimit())

	doc, err := b.Build(graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Page:      graphql.Pagination{Limit: 10000},
	})
	require.NoError(t, err)
	require.Equal(t, graphql.MaxLimit, doc.Variables["first"])
	require.True(t, doc.Page.Clamped)
	require.Equal(t, 10000, doc.Page.RequestedLimit)
}

func TestBuild_EncodesPredicates(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	doc, err := b.Build(graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Filters: graphql.Filters{
			"status":    graphql.Eq("active"),
			"startDate": graphql.Between(nil, "2024-06-30"),
			"endDate":   graphql.Between("2024-06-01", nil),
		},
		Page: graphql.Pagination{Limit: 10, Cursor: "abc"},
	})
	require.NoError(t, err)

	filter, ok := doc.Variables["filter"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, map[string]any{"eq": "active"}, filter["status"])
	require.Equal(t, map[string]any{"lte": "2024-06-30"}, filter["startDate"])
	require.Equal(t, map[string]any{"gte": "2024-06-01"}, filter["endDate"])
	require.Equal(t, "abc", doc.Variables["after"])
}

func TestBuild_SearchAddsCaseInsensitiveOr(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	doc, err := b.Build(graphql.Request{
		Entity:    graphql.EquipmentEntity,
		Operation: graphql.OperationSearch,
		Search:    "  bagger ",
		Filters:   graphql.Filters{"status": graphql.Eq("available")},
	})
	require.NoError(t, err)
	require.Equal(t, "SearchEquipments", doc.OperationName)

	filter := doc.Variables["filter"].(map[string]any)
	require.Equal(t, []map[string]any{
		{"name": map[string]any{"containsInsensitive": "bagger"}},
		{"type": map[string]any{"containsInsensitive": "bagger"}},
	}, filter["or"])
	require.Equal(t, map[string]any{"eq": "available"}, filter["status"])
}

func TestBuild_RejectsUnsupportedFilter(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	_, err := b.Build(graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationList,
		Filters:   graphql.Filters{"email": graphql.Contains("example")},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, graphql.ErrUnsupportedFilter))

	var ufe *graphql.UnsupportedFilterError
	require.ErrorAs(t, err, &ufe)
	require.Equal(t, "email", ufe.Field)
	require.Equal(t, graphql.OpContains, ufe.Op)

	_, err = b.Build(graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
		Filters:   graphql.Filters{"status": graphql.Between("a", "b")},
	})
	require.ErrorIs(t, err, graphql.ErrUnsupportedFilter)
}

func TestBuild_GetUsesMinimalProjection(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	doc, err := b.Build(graphql.Request{
		Entity:    graphql.PersonEntity,
		Operation: graphql.OperationGet,
		ID:        "p-1",
		Fields:    []string{"ident", "active"},
	})
	require.NoError(t, err)
	require.Equal(t, "person", doc.Root)
	require.Equal(t, map[string]any{"ident": "p-1"}, doc.Variables)
	require.Contains(t, doc.Query, "person(ident: $ident) { ident active }")
	require.NotContains(t, doc.Query, "email")
}

func TestBuild_Mutations(t *testing.T) {
	b := graphql.NewBuilder(50, 500)

	start, err := b.Build(graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationCreate,
		Input:     map[string]any{"personIdent": "p-1", "projectIdent": "pr-1"},
	})
	require.NoError(t, err)
	require.True(t, start.Mutation)
	require.Equal(t, "StartStaffTime", start.OperationName)
	require.Equal(t, "startStaffTime", start.Root)

	stop, err := b.Build(graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationClose,
		ID:        "st-1",
		Input:     map[string]any{"end": "2024-06-01T10:00:00Z"},
	})
	require.NoError(t, err)
	require.True(t, stop.Mutation)
	require.Equal(t, "st-1", stop.Variables["ident"])
	require.Equal(t, "2024-06-01T10:00:00Z", stop.Variables["end"])

	_, err = b.Build(graphql.Request{Entity: graphql.ProjectEntity, Operation: graphql.OperationCreate})
	require.ErrorIs(t, err, graphql.ErrUnsupportedOperation)
}
