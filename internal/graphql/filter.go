package graphql

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedFilter indicates a predicate the remote schema cannot express.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// UnsupportedFilterError names the offending field and operator.
type UnsupportedFilterError struct {
	Entity string
	Field  string
	Op     Operator
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("unsupported filter: %s.%s does not accept %q", e.Entity, e.Field, e.Op)
}

func (e *UnsupportedFilterError) Is(target error) bool {
	return target == ErrUnsupportedFilter
}

// Operator is a predicate operator.
type Operator string

const (
	OpEqual    Operator = "eq"
	OpRange    Operator = "range"
	OpContains Operator = "contains"
)

// Predicate is a single condition on one field.
type Predicate struct {
	Op    Operator
	Value any
	Min   any
	Max   any
}

// Eq matches records whose field equals v.
func Eq(v any) Predicate { return Predicate{Op: OpEqual, Value: v} }

// Contains matches a case-insensitive substring.
func Contains(s string) Predicate { return Predicate{Op: OpContains, Value: s} }

// Between matches an inclusive range. A nil bound is open.
func Between(min, max any) Predicate { return Predicate{Op: OpRange, Min: min, Max: max} }

// Filters maps remote field names to predicates. All entries must hold.
type Filters map[string]Predicate

func encodeFilter(e Entity, filters Filters, search string) (map[string]any, error) {
	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make(map[string]any, len(filters)+1)
	for _, field := range fields {
		pred := filters[field]
		if !e.allows(field, pred.Op) {
			return nil, &UnsupportedFilterError{Entity: e.Name, Field: field, Op: pred.Op}
		}
		switch pred.Op {
		case OpEqual:
			out[field] = map[string]any{"eq": pred.Value}
		case OpContains:
			s, _ := pred.Value.(string)
			if s == "" {
				continue
			}
			out[field] = map[string]any{"containsInsensitive": s}
		case OpRange:
			bounds := map[string]any{}
			if pred.Min != nil {
				bounds["gte"] = pred.Min
			}
			if pred.Max != nil {
				bounds["lte"] = pred.Max
			}
			if len(bounds) == 0 {
				continue
			}
			out[field] = bounds
		}
	}

	if search != "" && len(e.SearchFields) > 0 {
		or := make([]map[string]any, 0, len(e.SearchFields))
		for _, field := range e.SearchFields {
			or = append(or, map[string]any{field: map[string]any{"containsInsensitive": search}})
		}
		out["or"] = or
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
