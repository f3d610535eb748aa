package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qri-io/deepdiff-mcp/internal/config"
)

var testImpl = &mcp.Implementation{Name: "deepdiff-test", Version: "0.1.0"}

func newTestServer(t *testing.T, modify func(cfg *config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if modify != nil {
		modify(cfg)
	}
	return New(cfg, zaptest.NewLogger(t), "test")
}

func mcpSession(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverT, clientT := mcp.NewInMemoryTransports()
	go func() { _ = s.MCP().Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
		cancel()
	})
	return session
}

// callTool returns the text of a tool result & whether it was a tool error.
// args may be a json.RawMessage to control number encoding exactly
func callTool(t *testing.T, session *mcp.ClientSession, name string, args interface{}) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "calling %s", name)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content from %s", name)
	return tc.Text, res.IsError
}

func mustCall(t *testing.T, session *mcp.ClientSession, name string, args interface{}, into interface{}) {
	t.Helper()
	text, isErr := callTool(t, session, name, args)
	require.False(t, isErr, "%s returned a tool error: %s", name, text)
	require.NoError(t, json.Unmarshal([]byte(text), into), "decoding %s result %s", name, text)
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

func TestListTools(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))
	assert.Equal(t, []string{
		"apply_delta", "compare", "create_delta", "extract_path",
		"get_deep_distance", "grep", "hash_object", "search",
	}, toolNames(t, session))

	session = mcpSession(t, newTestServer(t, func(cfg *config.Config) { cfg.Server.AllowFileAccess = true }))
	names := toolNames(t, session)
	assert.Len(t, names, 9)
	assert.Contains(t, names, "compare_files")
}

type report map[string]map[string]map[string]interface{}

func TestCompare(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var r report
	mustCall(t, session, "compare", map[string]interface{}{
		"t1": map[string]interface{}{"a": 1, "b": 2, "c": 3},
		"t2": map[string]interface{}{"a": 1, "b": 4, "c": 3, "d": 5},
	}, &r)

	assert.Equal(t, report{
		"values_changed": {
			"root['b']": {"old_value": float64(2), "new_value": float64(4)},
		},
		"dictionary_item_added": {
			"root['d']": {"value": float64(5)},
		},
	}, r)
}

func TestCompareKeepsNumberTypes(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var r report
	mustCall(t, session, "compare", json.RawMessage(`{"t1":{"a":1},"t2":{"a":1.0}}`), &r)
	require.Contains(t, r, "type_changes")
	change := r["type_changes"]["root['a']"]
	assert.Equal(t, "int", change["old_type"])
	assert.Equal(t, "float", change["new_type"])

	var ignored report
	mustCall(t, session, "compare", json.RawMessage(`{"t1":{"a":1},"t2":{"a":1.0},"ignore_numeric_type_changes":true}`), &ignored)
	assert.Empty(t, ignored)
}

func TestCompareOptions(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var r report
	mustCall(t, session, "compare", map[string]interface{}{
		"t1":            map[string]interface{}{"l": []interface{}{1, 2, 3}, "meta": "x"},
		"t2":            map[string]interface{}{"l": []interface{}{3, 2, 1}, "meta": "y"},
		"ignore_order":  true,
		"exclude_paths": []string{"root['meta']"},
	}, &r)
	assert.Empty(t, r)

	var typed report
	mustCall(t, session, "compare", map[string]interface{}{
		"t1":            map[string]interface{}{"a": "x", "b": 1},
		"t2":            map[string]interface{}{"a": "y", "b": 2},
		"exclude_types": []string{"str", "widget"},
	}, &typed)
	assert.Equal(t, report{
		"values_changed": {"root['b']": {"old_value": float64(1), "new_value": float64(2)}},
	}, typed)

	text, isErr := callTool(t, session, "compare", map[string]interface{}{
		"t1":                  1,
		"t2":                  2,
		"exclude_regex_paths": []string{"("},
	})
	assert.True(t, isErr)
	assert.NotEmpty(t, text)
}

func TestDistance(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var d float64
	mustCall(t, session, "get_deep_distance", map[string]interface{}{
		"t1": []interface{}{1, 2},
		"t2": []interface{}{1, 2},
	}, &d)
	assert.Equal(t, float64(0), d)

	mustCall(t, session, "get_deep_distance", map[string]interface{}{
		"t1": map[string]interface{}{"a": 1},
		"t2": map[string]interface{}{"a": 2},
	}, &d)
	assert.Greater(t, d, float64(0))
	assert.LessOrEqual(t, d, float64(1))
}

func TestSearch(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))
	obj := map[string]interface{}{
		"a": map[string]interface{}{
			"b": []interface{}{1, 2, 3, map[string]interface{}{"c": "found me"}},
		},
	}

	var res map[string][]string
	mustCall(t, session, "search", map[string]interface{}{"obj": obj, "item": "found me"}, &res)
	assert.Contains(t, res["matched_values"], "root['a']['b'][3]['c']")

	var none map[string][]string
	mustCall(t, session, "search", map[string]interface{}{"obj": obj, "item": "FOUND", "case_sensitive": true}, &none)
	assert.Empty(t, none)
}

func TestGrep(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))
	obj := map[string]interface{}{"name": "deepdiff", "tags": []interface{}{"go", "diff"}}

	var res map[string][]string
	mustCall(t, session, "grep", map[string]interface{}{"obj": obj, "item": "^d.*f$", "use_regexp": true}, &res)
	assert.Equal(t, []string{"root['name']", "root['tags'][1]"}, res["matched_values"])

	text, isErr := callTool(t, session, "grep", map[string]interface{}{"obj": obj, "item": "(", "use_regexp": true})
	assert.True(t, isErr)
	assert.NotEmpty(t, text)
}

func TestHashObject(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var a, b, c map[string]string
	mustCall(t, session, "hash_object", json.RawMessage(`{"obj":{"x":1,"y":[1,2]}}`), &a)
	mustCall(t, session, "hash_object", json.RawMessage(`{"obj":{"y":[1,2],"x":1}}`), &b)
	mustCall(t, session, "hash_object", json.RawMessage(`{"obj":{"y":[1,2],"x":2},"exclude_paths":["root['x']"]}`), &c)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), a["hash"])
	assert.Equal(t, a["hash"], b["hash"])
	assert.NotEqual(t, a["hash"], c["hash"])
}

func TestDeltaRoundTrip(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))
	t1 := json.RawMessage(`{"a":1,"b":[1,2,3],"c":{"x":true}}`)
	t2 := json.RawMessage(`{"a":"1","b":[1,5],"c":{},"d":null}`)

	var deltas json.RawMessage
	mustCall(t, session, "create_delta", map[string]interface{}{"t1": t1, "t2": t2}, &deltas)

	text, isErr := callTool(t, session, "apply_delta", map[string]interface{}{"obj": t1, "delta_dict": deltas})
	require.False(t, isErr, text)
	assert.JSONEq(t, string(t2), text)

	var empty []interface{}
	mustCall(t, session, "create_delta", map[string]interface{}{"t1": t1, "t2": t1}, &empty)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestCreateDeltaJSONPatch(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	var patch []map[string]interface{}
	mustCall(t, session, "create_delta", map[string]interface{}{
		"t1":     map[string]interface{}{"a": 1, "b": []interface{}{"x"}},
		"t2":     map[string]interface{}{"a": 2, "b": []interface{}{"x", "y"}},
		"format": "json_patch",
	}, &patch)

	require.Len(t, patch, 2)
	assert.Equal(t, "replace", patch[0]["op"])
	assert.Equal(t, "/a", patch[0]["path"])
	assert.Equal(t, float64(2), patch[0]["value"])
	assert.Equal(t, "add", patch[1]["op"])
	assert.Equal(t, "/b/1", patch[1]["path"])
	assert.Equal(t, "y", patch[1]["value"])

	_, isErr := callTool(t, session, "create_delta", map[string]interface{}{"t1": 1, "t2": 2, "format": "xml"})
	assert.True(t, isErr)
}

func TestApplyDeltaErrors(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))

	text, isErr := callTool(t, session, "apply_delta", json.RawMessage(`{
		"obj": {"a": 1},
		"delta_dict": [{"action": "remove_key", "path": "root['missing']", "old_value": 1}]
	}`))
	assert.True(t, isErr)
	assert.Contains(t, text, "root['missing']")

	_, isErr = callTool(t, session, "apply_delta", json.RawMessage(`{"obj": {}, "delta_dict": "nope"}`))
	assert.True(t, isErr)
}

func TestExtractPath(t *testing.T) {
	session := mcpSession(t, newTestServer(t, nil))
	obj := map[string]interface{}{
		"a": map[string]interface{}{
			"b": []interface{}{1, 2, 3, map[string]interface{}{"c": "value"}},
		},
	}

	var v interface{}
	mustCall(t, session, "extract_path", map[string]interface{}{"obj": obj, "path": "root['a']['b'][3]['c']"}, &v)
	assert.Equal(t, "value", v)

	_, isErr := callTool(t, session, "extract_path", map[string]interface{}{"obj": obj, "path": "root['a']['z']"})
	assert.True(t, isErr)

	_, isErr = callTool(t, session, "extract_path", map[string]interface{}{"obj": obj, "path": "a.b"})
	assert.True(t, isErr)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "before.csv")
	f2 := filepath.Join(dir, "after.csv")
	require.NoError(t, os.WriteFile(f1, []byte("id,name,qty\n1,apple,3\n2,pear,4\n"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("id,name,qty\n1,apple,3\n2,pear,5\n"), 0o644))

	session := mcpSession(t, newTestServer(t, func(cfg *config.Config) { cfg.Server.AllowFileAccess = true }))

	var r report
	mustCall(t, session, "compare_files", map[string]interface{}{"file1": f1, "file2": f2}, &r)
	assert.Equal(t, report{
		"values_changed": {"root[1]['qty']": {"old_value": float64(4), "new_value": float64(5)}},
	}, r)

	_, isErr := callTool(t, session, "compare_files", map[string]interface{}{"file1": f1, "file2": filepath.Join(dir, "missing.csv")})
	assert.True(t, isErr)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "deepdiff", body["name"])
	assert.Equal(t, "test", body["version"])
}

func TestStreamableHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp", DisableStandaloneSSE: true}, nil)
	require.NoError(t, err)
	defer session.Close()

	var v interface{}
	mustCall(t, session, "extract_path", map[string]interface{}{"obj": []interface{}{"a", "b"}, "path": "root[1]"}, &v)
	assert.Equal(t, "b", v)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Transport = "http"
		cfg.Server.Port = freePort(t)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
