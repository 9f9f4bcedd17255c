// Package testserver runs the full tool server against an in-memory fake
// of the remote API.
package testserver

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/planning"
	"github.com/ganot/erfasst-mcp/internal/domain/project"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/domain/ticket"
	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/mcp"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"github.com/ganot/erfasst-mcp/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Remote *Remote
	MCP    *sdkmcp.Server
	// Server exposes MCP over streamable HTTP, guarded by Token.
	Server *httptest.Server
	Token  string
}

func New(t *testing.T, token string) *TestServer {
	t.Helper()

	remote := NewRemote(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := gateway.New(gateway.Options{
		Endpoint:       remote.URL(),
		Username:       remote.Username,
		Token:          remote.Token,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		Logger:         logger,
	})
	require.NoError(t, err)

	repo := repository.NewRemote(client, graphql.NewBuilder(graphql.DefaultLimit, graphql.MaxLimit), repository.DefaultMaxPages, logger)
	staffSvc := staff.NewService(repo, logger)
	equipmentSvc := equipment.NewService(repo, logger)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:     project.NewService(repo, staffSvc, equipmentSvc, logger),
			Staff:        staffSvc,
			Equipment:    equipmentSvc,
			TimeTracking: timetracking.NewService(repo, logger),
			Tickets:      ticket.NewService(repo, logger),
			Planning:     planning.NewService(repo, logger),
			Health:       client,
		},
		Version: "test",
		Logger:  logger,
	})

	httpServer := httptest.NewServer(transport.NewServer(transport.NewMCPHandler(server), transport.AuthMiddleware(token)))
	t.Cleanup(httpServer.Close)

	return &TestServer{
		Remote: remote,
		MCP:    server,
		Server: httpServer,
		Token:  token,
	}
}

// Connect opens an in-memory client session to the server.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := ts.MCP.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}
