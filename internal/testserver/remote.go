package testserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Node is one remote record in wire form.
type Node map[string]any

type collectionRoots struct {
	root   string
	single string
}

var operations = map[string]collectionRoots{
	"Projects":   {root: "projects", single: "project"},
	"Persons":    {root: "persons", single: "person"},
	"Equipments": {root: "equipments", single: "equipment"},
	"StaffTimes": {root: "staffTimes", single: "staffTime"},
	"Tickets":    {root: "tickets", single: "ticket"},
	"Plannings":  {root: "plannings", single: "planning"},
}

// Remote is an in-memory stand-in for the 123erfasst GraphQL endpoint. It
// interprets the filter and pagination contract the query builder emits.
type Remote struct {
	Server   *httptest.Server
	Username string
	Token    string

	mu    sync.Mutex
	data  map[string][]Node
	calls map[string]int
	fail  map[string]int
}

// NewRemote starts a fake endpoint seeded with Fixtures.
func NewRemote(t *testing.T) *Remote {
	t.Helper()

	r := &Remote{
		Username: "api",
		Token:    "remote-token",
		data:     Fixtures(),
		calls:    map[string]int{},
		fail:     map[string]int{},
	}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Server.Close)
	return r
}

// URL is the GraphQL endpoint.
func (r *Remote) URL() string {
	return r.Server.URL + "/api/graphql"
}

// RotateToken changes the credentials the fake accepts.
func (r *Remote) RotateToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Token = token
}

// Calls reports how often an operation was received.
func (r *Remote) Calls(operation string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[operation]
}

// FailNext makes the next n requests for operation answer with status.
func (r *Remote) FailNext(operation string, status, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[operation+"#"+strconv.Itoa(status)] = n
}

// Put inserts or replaces a record in a collection.
func (r *Remote) Put(collection string, node Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.data[collection] {
		if existing["ident"] == node["ident"] {
			r.data[collection][i] = node
			return
		}
	}
	r.data[collection] = append(r.data[collection], node)
}

// CloseSession ends a staff time the way another client would.
func (r *Remote) CloseSession(ident string, end time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.data["staffTimes"] {
		if n["ident"] == ident && n["end"] == nil {
			n["end"] = end.UTC().Format(time.RFC3339)
			return true
		}
	}
	return false
}

// OpenSessions lists the running staff times of a person.
func (r *Remote) OpenSessions(personID string) []Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Node
	for _, n := range r.data["staffTimes"] {
		if n["personIdent"] == personID && n["end"] == nil {
			out = append(out, n)
		}
	}
	return out
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func (r *Remote) serve(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeErrors(w, "BAD_REQUEST", "invalid request body")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[body.OperationName]++
	if !r.authorized(req) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	for key, n := range r.fail {
		op, status, _ := strings.Cut(key, "#")
		if op == body.OperationName && n > 0 {
			r.fail[key] = n - 1
			code, _ := strconv.Atoi(status)
			http.Error(w, http.StatusText(code), code)
			return
		}
	}

	data, err := r.dispatch(body)
	if err != nil {
		writeErrors(w, "BAD_USER_INPUT", err.Error())
		return
	}
	writeJSON(w, map[string]any{"data": data})
}

func (r *Remote) authorized(req *http.Request) bool {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(r.Username+":"+r.Token))
	return req.Header.Get("Authorization") == want
}

func (r *Remote) dispatch(body request) (map[string]any, error) {
	op := body.OperationName
	vars := body.Variables

	switch {
	case op == "Ping":
		return map[string]any{"__schema": map[string]any{"queryType": map[string]any{"name": "Query"}}}, nil
	case op == "StartStaffTime":
		return r.startStaffTime(vars)
	case op == "StopStaffTime":
		return r.stopStaffTime(vars)
	case strings.HasPrefix(op, "List"), strings.HasPrefix(op, "Search"):
		plural := strings.TrimPrefix(strings.TrimPrefix(op, "List"), "Search")
		coll, ok := operations[plural]
		if !ok {
			return nil, fmt.Errorf("unknown operation %q", op)
		}
		return map[string]any{coll.root: r.collection(coll.root, vars)}, nil
	case strings.HasPrefix(op, "Get"):
		name := strings.TrimPrefix(op, "Get")
		for plural, coll := range operations {
			if strings.TrimSuffix(plural, "s") == name {
				ident, _ := vars["ident"].(string)
				return map[string]any{coll.single: r.find(coll.root, ident)}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

func (r *Remote) collection(root string, vars map[string]any) map[string]any {
	filter, _ := vars["filter"].(map[string]any)

	matched := make([]Node, 0)
	for _, n := range r.data[root] {
		if matches(n, filter) {
			matched = append(matched, n)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return fmt.Sprint(matched[i]["ident"]) < fmt.Sprint(matched[j]["ident"])
	})

	first := intVar(vars["first"])
	offset := intVar(vars["offset"])
	if after, ok := vars["after"].(string); ok && after != "" {
		offset, _ = strconv.Atoi(strings.TrimPrefix(after, "cursor:"))
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + first
	if first <= 0 || end > len(matched) {
		end = len(matched)
	}

	nodes := make([]Node, 0, end-offset)
	for _, n := range matched[offset:end] {
		nodes = append(nodes, project(n))
	}
	hasNext := end < len(matched)
	cursor := ""
	if hasNext {
		cursor = "cursor:" + strconv.Itoa(end)
	}
	return map[string]any{
		"nodes":      nodes,
		"totalCount": len(matched),
		"pageInfo":   map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
	}
}

func (r *Remote) find(root, ident string) any {
	for _, n := range r.data[root] {
		if n["ident"] == ident {
			return project(n)
		}
	}
	return nil
}

func (r *Remote) startStaffTime(vars map[string]any) (map[string]any, error) {
	input, _ := vars["input"].(map[string]any)
	person, _ := input["personIdent"].(string)
	if person == "" {
		return nil, fmt.Errorf("personIdent is required")
	}
	start, _ := input["start"].(string)
	if _, err := time.Parse(time.RFC3339, start); err != nil {
		return nil, fmt.Errorf("start must be RFC3339")
	}
	n := Node{
		"ident":        "st-" + uuid.NewString()[:8],
		"personIdent":  person,
		"projectIdent": input["projectIdent"],
		"description":  input["description"],
		"start":        start,
		"end":          nil,
	}
	r.data["staffTimes"] = append(r.data["staffTimes"], n)
	return map[string]any{"startStaffTime": project(n)}, nil
}

func (r *Remote) stopStaffTime(vars map[string]any) (map[string]any, error) {
	ident, _ := vars["ident"].(string)
	end, _ := vars["end"].(string)
	if _, err := time.Parse(time.RFC3339, end); err != nil {
		return nil, fmt.Errorf("end must be RFC3339")
	}
	for _, n := range r.data["staffTimes"] {
		if n["ident"] != ident {
			continue
		}
		if n["end"] != nil {
			return nil, fmt.Errorf("staff time %s is already stopped", ident)
		}
		n["end"] = end
		return map[string]any{"stopStaffTime": project(n)}, nil
	}
	return nil, fmt.Errorf("staff time %s not found", ident)
}

// matches applies a builder filter: top-level keys are ANDed, "or" holds
// alternatives.
func matches(n Node, filter map[string]any) bool {
	for field, raw := range filter {
		if field == "or" {
			alts, _ := raw.([]any)
			if len(alts) == 0 {
				continue
			}
			hit := false
			for _, alt := range alts {
				if m, ok := alt.(map[string]any); ok && matches(n, m) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		pred, _ := raw.(map[string]any)
		if !matchField(n, field, pred) {
			return false
		}
	}
	return true
}

func matchField(n Node, field string, pred map[string]any) bool {
	if field == "running" {
		running := n["end"] == nil
		want, _ := pred["eq"].(bool)
		return running == want
	}

	value, ok := n[field]
	if !ok {
		// Reference filters match membership in the plural list field.
		if list, isList := n[field+"s"].([]any); isList {
			want := fmt.Sprint(pred["eq"])
			for _, v := range list {
				if fmt.Sprint(v) == want {
					return true
				}
			}
		}
		return false
	}

	for op, want := range pred {
		switch op {
		case "eq":
			if fmt.Sprint(value) != fmt.Sprint(want) {
				return false
			}
		case "containsInsensitive":
			s, _ := value.(string)
			if !strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(want))) {
				return false
			}
		case "gte":
			s, isString := value.(string)
			if !isString || s < fmt.Sprint(want) {
				return false
			}
		case "lte":
			s, isString := value.(string)
			if !isString || s > fmt.Sprint(want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// project copies a node so callers never share fixture maps.
func project(n Node) Node {
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

func intVar(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func writeErrors(w http.ResponseWriter, code, message string) {
	writeJSON(w, map[string]any{
		"data": nil,
		"errors": []map[string]any{{
			"message":    message,
			"extensions": map[string]any{"code": code},
		}},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
