package gateway

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Result holds the data object of a successful response.
type Result struct {
	Root string
	Data json.RawMessage
}

// Collection is an unwrapped collection envelope.
type Collection struct {
	Nodes       []json.RawMessage
	TotalCount  int
	HasPageInfo bool
	HasNextPage bool
	EndCursor   string
}

// Collection unwraps `{nodes, totalCount, pageInfo}` under the result root.
func (r *Result) Collection() (Collection, error) {
	root := gjson.GetBytes(r.Data, r.Root)
	if !root.IsObject() {
		return Collection{}, RemoteSchemaf("%s: expected a collection object", r.Root)
	}
	nodes := root.Get("nodes")
	if !nodes.IsArray() {
		return Collection{}, RemoteSchemaf("%s: missing nodes", r.Root)
	}
	total := root.Get("totalCount")
	if total.Type != gjson.Number {
		return Collection{}, RemoteSchemaf("%s: missing totalCount", r.Root)
	}

	c := Collection{TotalCount: int(total.Int())}
	for _, n := range nodes.Array() {
		if !n.IsObject() {
			return Collection{}, RemoteSchemaf("%s: node is not an object", r.Root)
		}
		c.Nodes = append(c.Nodes, json.RawMessage(n.Raw))
	}
	if info := root.Get("pageInfo"); info.IsObject() {
		c.HasPageInfo = true
		c.HasNextPage = info.Get("hasNextPage").Bool()
		c.EndCursor = info.Get("endCursor").String()
	}
	return c, nil
}

// Single unwraps a single-record root. found is false when the remote
// returned null.
func (r *Result) Single() (raw json.RawMessage, found bool, err error) {
	root := gjson.GetBytes(r.Data, r.Root)
	switch {
	case !root.Exists(), root.Type == gjson.Null:
		return nil, false, nil
	case !root.IsObject():
		return nil, false, RemoteSchemaf("%s: expected an object", r.Root)
	}
	return json.RawMessage(root.Raw), true, nil
}
