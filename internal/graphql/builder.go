// Package graphql builds GraphQL documents for the remote construction API.
// Building is pure: no I/O happens here.
package graphql

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ErrUnsupportedOperation indicates the entity has no root for the operation.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Operation is the kind of document to build.
type Operation string

const (
	OperationList   Operation = "list"
	OperationSearch Operation = "search"
	OperationGet    Operation = "get"
	OperationCreate Operation = "create"
	OperationClose  Operation = "close"
)

// Pagination is the caller's page request.
type Pagination struct {
	Limit  int
	Offset int
	Cursor string
}

// Page is the pagination actually applied to a document.
type Page struct {
	Limit          int
	Offset         int
	Cursor         string
	RequestedLimit int
	Clamped        bool
}

// Request describes the document to build.
type Request struct {
	Entity    Entity
	Operation Operation
	ID        string
	Search    string
	Filters   Filters
	Page      Pagination
	Fields    []string
	Input     map[string]any
}

// Document is a ready-to-send GraphQL request.
type Document struct {
	OperationName string
	Query         string
	Variables     map[string]any
	Root          string
	Mutation      bool
	Page          Page
}

// Builder renders requests into documents with a configured page policy.
type Builder struct {
	defaultLimit int
	maxLimit     int
}

// NewBuilder returns a builder. Non-positive limits fall back to the defaults
// and maxLimit never exceeds MaxLimit.
func NewBuilder(defaultLimit, maxLimit int) *Builder {
	if maxLimit <= 0 || maxLimit > MaxLimit {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Builder{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// MaxLimit reports the hard page cap.
func (b *Builder) MaxLimit() int {
	return b.maxLimit
}

// Build renders a request. It fails only on filters the entity cannot express
// or an operation the entity has no root for.
func (b *Builder) Build(req Request) (Document, error) {
	fields := req.Fields
	if len(fields) == 0 {
		fields = req.Entity.Fields
	}
	selection := strings.Join(fields, " ")

	switch req.Operation {
	case OperationList, OperationSearch:
		return b.buildCollection(req, selection)
	case OperationGet:
		return Document{
			OperationName: "Get" + req.Entity.Name,
			Query: fmt.Sprintf("query Get%s($ident: Ident!) {\n  %s(ident: $ident) { %s }\n}",
				req.Entity.Name, req.Entity.Single, selection),
			Variables: map[string]any{"ident": req.ID},
			Root:      req.Entity.Single,
		}, nil
	case OperationCreate:
		if req.Entity.CreateRoot == "" {
			return Document{}, fmt.Errorf("%w: create %s", ErrUnsupportedOperation, req.Entity.Name)
		}
		name := "Start" + req.Entity.Name
		return Document{
			OperationName: name,
			Query: fmt.Sprintf("mutation %s($input: %s!) {\n  %s(input: $input) { %s }\n}",
				name, req.Entity.CreateInput, req.Entity.CreateRoot, selection),
			Variables: map[string]any{"input": req.Input},
			Root:      req.Entity.CreateRoot,
			Mutation:  true,
		}, nil
	case OperationClose:
		if req.Entity.CloseRoot == "" {
			return Document{}, fmt.Errorf("%w: close %s", ErrUnsupportedOperation, req.Entity.Name)
		}
		name := "Stop" + req.Entity.Name
		vars := map[string]any{"ident": req.ID}
		for k, v := range req.Input {
			vars[k] = v
		}
		return Document{
			OperationName: name,
			Query: fmt.Sprintf("mutation %s($ident: Ident!, $end: DateTime!) {\n  %s(ident: $ident, end: $end) { %s }\n}",
				name, req.Entity.CloseRoot, selection),
			Variables: vars,
			Root:      req.Entity.CloseRoot,
			Mutation:  true,
		}, nil
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedOperation, req.Operation)
	}
}

func (b *Builder) buildCollection(req Request, selection string) (Document, error) {
	search := ""
	if req.Operation == OperationSearch {
		search = strings.TrimSpace(req.Search)
	}
	filter, err := encodeFilter(req.Entity, req.Filters, search)
	if err != nil {
		return Document{}, err
	}

	page := b.applyPage(req.Page)
	vars := map[string]any{
		"first":  page.Limit,
		"offset": page.Offset,
	}
	if page.Cursor != "" {
		vars["after"] = page.Cursor
	}
	if filter != nil {
		vars["filter"] = filter
	}

	prefix := "List"
	if req.Operation == OperationSearch {
		prefix = "Search"
	}
	name := prefix + req.Entity.Plural
	query := fmt.Sprintf("query %s($first: Int!, $offset: Int!, $after: String, $filter: %s) {\n"+
		"  %s(first: $first, offset: $offset, after: $after, filter: $filter) {\n"+
		"    nodes { %s }\n"+
		"    totalCount\n"+
		"    pageInfo { hasNextPage endCursor }\n"+
		"  }\n}",
		name, req.Entity.FilterType, req.Entity.Collection, selection)

	return Document{
		OperationName: name,
		Query:         query,
		Variables:     vars,
		Root:          req.Entity.Collection,
		Page:          page,
	}, nil
}

func (b *Builder) applyPage(p Pagination) Page {
	page := Page{
		Limit:          p.Limit,
		Offset:         p.Offset,
		Cursor:         p.Cursor,
		RequestedLimit: p.Limit,
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Limit <= 0 {
		page.Limit = b.defaultLimit
		page.RequestedLimit = b.defaultLimit
	}
	if page.Limit > b.maxLimit {
		page.Limit = b.maxLimit
		page.Clamped = true
	}
	return page
}
