// Package gateway executes GraphQL documents against the remote API and
// classifies every failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/observability"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxResponseBytes = 16 << 20

// ErrMissingToken indicates the client was built without an API token.
var ErrMissingToken = errors.New("api token is required")

// Options configures a Client. Credentials are fixed for the client's lifetime.
type Options struct {
	Endpoint       string
	Username       string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client sends documents to the remote endpoint.
type Client struct {
	endpoint       string
	authorization  string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	http           *http.Client
	logger         *slog.Logger
}

// New builds a client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, ErrMissingToken
	}
	if opts.Endpoint == "" {
		return nil, errors.New("api endpoint is required")
	}
	if opts.Username == "" {
		opts.Username = "api"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	creds := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Token))
	return &Client{
		endpoint:       opts.Endpoint,
		authorization:  "Basic " + creds,
		timeout:        opts.Timeout,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		http:           opts.HTTPClient,
		logger:         opts.Logger,
	}, nil
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Execute sends doc and returns its data. Reads that fail with a network or
// rate-limit error are retried with exponential backoff; mutations are sent
// exactly once.
func (c *Client) Execute(ctx context.Context, doc graphql.Document) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "gateway.execute",
		attribute.String("graphql.operation.name", doc.OperationName),
		attribute.Bool("graphql.mutation", doc.Mutation),
	)
	defer span.End()

	res, err := c.execute(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (c *Client) execute(ctx context.Context, doc graphql.Document) (*Result, error) {
	if doc.Mutation || c.maxRetries == 0 {
		return c.roundTrip(ctx, doc)
	}

	attempt := 0
	op := func() (*Result, error) {
		attempt++
		res, err := c.roundTrip(ctx, doc)
		if err != nil && !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("remote request failed, retrying",
			"operation", doc.OperationName,
			"attempt", attempt,
			"wait", wait,
			"request_id", observability.RequestIDFromContext(ctx),
			"error", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	res, err := backoff.RetryNotifyWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx),
		notify)
	if err != nil {
		var gwErr *Error
		if !errors.As(err, &gwErr) {
			return nil, newError(KindNetwork, 0, "request aborted", err)
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) roundTrip(ctx context.Context, doc graphql.Document) (*Result, error) {
	payload, err := json.Marshal(requestBody{
		Query:         doc.Query,
		OperationName: doc.OperationName,
		Variables:     doc.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := observability.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(KindNetwork, 0, fmt.Sprintf("request timed out after %s", c.timeout), err)
		}
		return nil, newError(KindNetwork, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newError(KindNetwork, resp.StatusCode, "read response", err)
	}

	c.logger.Debug("remote request",
		"operation", doc.OperationName,
		"status", resp.StatusCode,
		"duration", time.Since(started),
		"request_id", observability.RequestIDFromContext(ctx))

	return classify(doc, resp.StatusCode, body)
}

func classify(doc graphql.Document, status int, body []byte) (*Result, error) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, newError(KindAuthentication, status, "remote rejected credentials", nil)
	case status == http.StatusTooManyRequests:
		return nil, newError(KindRateLimit, status, "remote rate limit exceeded", nil)
	case status >= 500:
		return nil, newError(KindNetwork, status, fmt.Sprintf("remote returned HTTP %d", status), nil)
	}

	if !gjson.ValidBytes(body) {
		if status >= 400 {
			return nil, newError(KindRemoteSchema, status, fmt.Sprintf("remote returned HTTP %d", status), nil)
		}
		return nil, newError(KindRemoteSchema, status, "response is not valid JSON", nil)
	}

	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, classifyGraphQLErrors(status, errs)
	}
	if status >= 400 {
		return nil, newError(KindRemoteSchema, status, fmt.Sprintf("remote returned HTTP %d", status), nil)
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, newError(KindRemoteSchema, status, "response has no data", nil)
	}
	if !data.Get(doc.Root).Exists() {
		return nil, newError(KindRemoteSchema, status, fmt.Sprintf("response has no %q field", doc.Root), nil)
	}
	return &Result{Root: doc.Root, Data: json.RawMessage(data.Raw)}, nil
}

func classifyGraphQLErrors(status int, errs gjson.Result) *Error {
	kind := KindRemoteSchema
	messages := make([]string, 0, len(errs.Array()))
	errs.ForEach(func(_, e gjson.Result) bool {
		if msg := e.Get("message").String(); msg != "" {
			messages = append(messages, msg)
		}
		switch strings.ToUpper(e.Get("extensions.code").String()) {
		case "UNAUTHENTICATED", "FORBIDDEN":
			kind = KindAuthentication
		case "RATE_LIMITED", "THROTTLED":
			if kind != KindAuthentication {
				kind = KindRateLimit
			}
		}
		return true
	})
	msg := strings.Join(messages, "; ")
	if msg == "" {
		msg = "remote returned errors"
	}
	return newError(kind, status, msg, nil)
}

// Ping runs a schema introspection query to verify connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Execute(ctx, graphql.Document{
		OperationName: "Ping",
		Query:         "query Ping { __schema { queryType { name } } }",
		Root:          "__schema",
	})
	return err
}
