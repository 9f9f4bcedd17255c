package repository

import (
	"context"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
)

// Executor runs a built document against the remote endpoint.
type Executor interface {
	Execute(ctx context.Context, doc graphql.Document) (*gateway.Result, error)
}

// Decoder turns one remote node into a validated record.
type Decoder[T any] func(raw []byte) (T, error)
