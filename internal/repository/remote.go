package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
)

// DefaultMaxPages bounds full-collection enumeration.
const DefaultMaxPages = 20

// Page reports the pagination applied to a list result.
type Page struct {
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
	RequestedLimit int    `json:"requested_limit"`
	Clamped        bool   `json:"clamped"`
	HasMore        bool   `json:"has_more"`
	NextCursor     string `json:"next_cursor,omitempty"`
}

// List is one page of records plus the remote total.
type List[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       Page `json:"page"`
}

// Remote pairs the query builder with an executor.
type Remote struct {
	exec     Executor
	builder  *graphql.Builder
	maxPages int
	logger   *slog.Logger
}

// NewRemote creates a Remote. maxPages <= 0 selects DefaultMaxPages.
func NewRemote(exec Executor, builder *graphql.Builder, maxPages int, logger *slog.Logger) *Remote {
	if builder == nil {
		builder = graphql.NewBuilder(0, 0)
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{exec: exec, builder: builder, maxPages: maxPages, logger: logger}
}

func (r *Remote) run(ctx context.Context, req graphql.Request) (graphql.Document, *gateway.Result, error) {
	doc, err := r.builder.Build(req)
	if err != nil {
		return graphql.Document{}, nil, err
	}
	res, err := r.exec.Execute(ctx, doc)
	if err != nil {
		return doc, nil, err
	}
	return doc, res, nil
}

// FetchList runs a collection request and decodes one page.
func FetchList[T any](ctx context.Context, r *Remote, req graphql.Request, decode Decoder[T]) (List[T], error) {
	if err := CheckPage(req.Page); err != nil {
		return List[T]{}, err
	}
	doc, res, err := r.run(ctx, req)
	if err != nil {
		return List[T]{}, err
	}
	coll, err := res.Collection()
	if err != nil {
		return List[T]{}, err
	}
	items, err := decodeAll(coll.Nodes, decode)
	if err != nil {
		return List[T]{}, err
	}

	if doc.Page.Clamped {
		r.logger.Debug("page limit clamped",
			"operation", doc.OperationName,
			"requested", doc.Page.RequestedLimit,
			"applied", doc.Page.Limit)
	}

	return List[T]{
		Items:      items,
		TotalCount: coll.TotalCount,
		Page: Page{
			Limit:          doc.Page.Limit,
			Offset:         doc.Page.Offset,
			RequestedLimit: doc.Page.RequestedLimit,
			Clamped:        doc.Page.Clamped,
			HasMore:        hasMore(coll, doc.Page.Offset),
			NextCursor:     coll.EndCursor,
		},
	}, nil
}

// FetchAll enumerates a collection page by page until the remote reports no
// further pages or the page maximum is reached. truncated is true in the
// latter case.
func FetchAll[T any](ctx context.Context, r *Remote, req graphql.Request, decode Decoder[T]) (items []T, total int, truncated bool, err error) {
	req.Page = graphql.Pagination{Limit: r.builder.MaxLimit()}
	offset := 0

	for page := 0; page < r.maxPages; page++ {
		_, res, err := r.run(ctx, req)
		if err != nil {
			return nil, 0, false, err
		}
		coll, err := res.Collection()
		if err != nil {
			return nil, 0, false, err
		}
		decoded, err := decodeAll(coll.Nodes, decode)
		if err != nil {
			return nil, 0, false, err
		}
		items = append(items, decoded...)
		total = coll.TotalCount

		more := hasMore(coll, offset)
		if !more || len(coll.Nodes) == 0 {
			return items, total, false, nil
		}
		offset += len(coll.Nodes)
		if coll.EndCursor != "" {
			req.Page = graphql.Pagination{Limit: r.builder.MaxLimit(), Cursor: coll.EndCursor}
		} else {
			req.Page = graphql.Pagination{Limit: r.builder.MaxLimit(), Offset: offset}
		}
	}

	r.logger.Warn("collection enumeration truncated",
		"entity", req.Entity.Name,
		"max_pages", r.maxPages,
		"collected", len(items),
		"total", total)
	return items, total, true, nil
}

// FetchOne runs a single-record request. A null record is ErrNotFound.
func FetchOne[T any](ctx context.Context, r *Remote, req graphql.Request, decode Decoder[T]) (T, error) {
	var zero T
	_, res, err := r.run(ctx, req)
	if err != nil {
		return zero, err
	}
	raw, found, err := res.Single()
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, NotFound(req.Entity.Name, req.ID)
	}
	return decode(raw)
}

// Mutate runs a create or close request and decodes the returned record.
// A null result is a schema violation since mutations always return the record.
func Mutate[T any](ctx context.Context, r *Remote, req graphql.Request, decode Decoder[T]) (T, error) {
	var zero T
	doc, res, err := r.run(ctx, req)
	if err != nil {
		return zero, err
	}
	raw, found, err := res.Single()
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, gateway.RemoteSchemaf("%s returned no record", doc.Root)
	}
	return decode(raw)
}

// Unmarshal decodes a remote node, reporting malformed input as a schema error.
func Unmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return gateway.RemoteSchemaf("decode %T: %v", v, err)
	}
	return nil
}

// CheckPage validates caller-supplied pagination.
func CheckPage(p graphql.Pagination) error {
	if p.Limit < 0 {
		return InvalidArgument("limit must not be negative")
	}
	if p.Offset < 0 {
		return InvalidArgument("offset must not be negative")
	}
	return nil
}

func decodeAll[T any](nodes []json.RawMessage, decode Decoder[T]) ([]T, error) {
	out := make([]T, 0, len(nodes))
	for i, raw := range nodes {
		item, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func hasMore(coll gateway.Collection, offset int) bool {
	if coll.HasPageInfo {
		return coll.HasNextPage
	}
	return offset+len(coll.Nodes) < coll.TotalCount
}
