package gateway_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/observability"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, url string, retries int) *gateway.Client {
	t.Helper()
	client, err := gateway.New(gateway.Options{
		Endpoint:       url,
		Username:       "api",
		Token:          "secret",
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func listDoc() graphql.Document {
	doc, _ := graphql.NewBuilder(50, 500).Build(graphql.Request{
		Entity:    graphql.ProjectEntity,
		Operation: graphql.OperationList,
	})
	return doc
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := gateway.New(gateway.Options{Endpoint: "http://localhost"})
	require.ErrorIs(t, err, gateway.ErrMissingToken)
}

func TestExecute_SendsBasicAuthAndUnwrapsCollection(t *testing.T) {
	var gotAuth, gotRequestID string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"data":{"projects":{"nodes":[{"ident":"pr-1","name":"A"}],"totalCount":7,"pageInfo":{"hasNextPage":true,"endCursor":"c1"}}}}`))
	}))
	defer srv.Close()

	ctx := observability.WithRequestID(context.Background(), "req-1")
	res, err := newClient(t, srv.URL, 0).Execute(ctx, listDoc())
	require.NoError(t, err)

	require.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("api:secret")), gotAuth)
	require.Equal(t, "req-1", gotRequestID)
	require.Equal(t, "ListProjects", gotBody["operationName"])

	coll, err := res.Collection()
	require.NoError(t, err)
	require.Len(t, coll.Nodes, 1)
	require.Equal(t, 7, coll.TotalCount)
	require.True(t, coll.HasNextPage)
	require.Equal(t, "c1", coll.EndCursor)
}

func TestExecute_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		kind      *gateway.Error
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, ``, gateway.ErrAuthentication, false},
		{"forbidden", http.StatusForbidden, ``, gateway.ErrAuthentication, false},
		{"rate limited", http.StatusTooManyRequests, ``, gateway.ErrRateLimit, true},
		{"server error", http.StatusBadGateway, `oops`, gateway.ErrNetwork, true},
		{"bad request", http.StatusBadRequest, `{"message":"bad"}`, gateway.ErrRemoteSchema, false},
		{"not json", http.StatusOK, `<html>`, gateway.ErrRemoteSchema, false},
		{"no data", http.StatusOK, `{"data":null}`, gateway.ErrRemoteSchema, false},
		{"missing root", http.StatusOK, `{"data":{"other":{}}}`, gateway.ErrRemoteSchema, false},
		{"graphql error", http.StatusOK, `{"errors":[{"message":"Cannot query field"}]}`, gateway.ErrRemoteSchema, false},
		{"graphql unauthenticated", http.StatusOK, `{"errors":[{"message":"no","extensions":{"code":"UNAUTHENTICATED"}}]}`, gateway.ErrAuthentication, false},
		{"graphql throttled", http.StatusOK, `{"errors":[{"message":"slow down","extensions":{"code":"THROTTLED"}}]}`, gateway.ErrRateLimit, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL, 0).Execute(context.Background(), listDoc())
			require.Error(t, err)
			require.ErrorIs(t, err, tc.kind)
			require.Equal(t, tc.retryable, gateway.Retryable(err))
		})
	}
}

func TestExecute_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, 0).Execute(context.Background(), listDoc())
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.True(t, gateway.Retryable(err))
}

func TestExecute_TimeoutIsRetryableNetworkError(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := gateway.New(gateway.Options{
		Endpoint:       srv.URL,
		Token:          "secret",
		Timeout:        50 * time.Millisecond,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	mutation, err := graphql.NewBuilder(50, 500).Build(graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationClose,
		ID:        "st-1",
		Input:     map[string]any{"end": "2024-06-03T12:00:00Z"},
	})
	require.NoError(t, err)

	started := time.Now()
	_, err = client.Execute(context.Background(), mutation)
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.True(t, gateway.Retryable(err))
	require.ErrorContains(t, err, "timed out after 50ms")
	require.Equal(t, int32(1), calls.Load())
	require.Less(t, time.Since(started), time.Second)

	calls.Store(0)
	_, err = client.Execute(context.Background(), listDoc())
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.Equal(t, int32(3), calls.Load())
}

func TestExecute_RetriesReadsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"projects":{"nodes":[],"totalCount":0}}}`))
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, 3)
	_, err := client.Execute(context.Background(), listDoc())
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	mutation, err := graphql.NewBuilder(50, 500).Build(graphql.Request{
		Entity:    graphql.StaffTimeEntity,
		Operation: graphql.OperationCreate,
		Input:     map[string]any{"personIdent": "p-1"},
	})
	require.NoError(t, err)
	_, err = client.Execute(context.Background(), mutation)
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.Equal(t, int32(1), calls.Load())
}

func TestExecute_DoesNotRetryAuthentication(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 3).Execute(context.Background(), listDoc())
	require.ErrorIs(t, err, gateway.ErrAuthentication)
	require.Equal(t, int32(1), calls.Load())
}

func TestResult_Single(t *testing.T) {
	res := &gateway.Result{Root: "project", Data: json.RawMessage(`{"project":null}`)}
	_, found, err := res.Single()
	require.NoError(t, err)
	require.False(t, found)

	res = &gateway.Result{Root: "project", Data: json.RawMessage(`{"project":{"ident":"pr-1"}}`)}
	raw, found, err := res.Single()
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"ident":"pr-1"}`, string(raw))

	res = &gateway.Result{Root: "projects", Data: json.RawMessage(`{"projects":{"nodes":[]}}`)}
	_, err = res.Collection()
	require.ErrorIs(t, err, gateway.ErrRemoteSchema)
}
