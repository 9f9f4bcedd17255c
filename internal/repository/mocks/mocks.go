package mocks

import (
	"context"
	"encoding/json"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/stretchr/testify/mock"
)

// Executor is a mock for repository.Executor.
type Executor struct {
	mock.Mock
}

func (m *Executor) Execute(ctx context.Context, doc graphql.Document) (*gateway.Result, error) {
	args := m.Called(ctx, doc)
	if res, ok := args.Get(0).(*gateway.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// Operation matches a document by operation name.
func Operation(name string) any {
	return mock.MatchedBy(func(doc graphql.Document) bool {
		return doc.OperationName == name
	})
}

// Result builds a gateway result whose data object is {root: payload}.
func Result(root, payload string) *gateway.Result {
	return &gateway.Result{
		Root: root,
		Data: json.RawMessage(`{"` + root + `":` + payload + `}`),
	}
}
