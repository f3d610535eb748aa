package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"

	deepdiff "github.com/qri-io/deepdiff-mcp"
	"github.com/qri-io/deepdiff-mcp/internal/config"
	"github.com/qri-io/deepdiff-mcp/internal/loader"
	"github.com/qri-io/deepdiff-mcp/internal/log"
)

// endpoint handles one tool call. the returned value is sent back as JSON text
type endpoint func(ctx context.Context, logger *zap.Logger, args json.RawMessage) (interface{}, error)

// addTool registers fn under tool. failures come back as tool errors, never
// as protocol errors
func (s *Server) addTool(tool *mcp.Tool, fn endpoint) {
	s.mcp.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.logger.With(zap.String("tool", tool.Name), zap.String("request_id", uuid.NewString()))
		start := time.Now()

		resp, err := fn(ctx, logger, req.Params.Arguments)
		if err == nil {
			var data []byte
			if data, err = json.Marshal(resp); err == nil {
				logger.Debug("tool call", zap.Duration("took", time.Since(start)))
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
				}, nil
			}
			err = fmt.Errorf("encoding result: %w", err)
		}

		log.LogError(logger, err, "tool call failed")
		var res mcp.CallToolResult
		res.SetError(err)
		return &res, nil
	})
}

// decodeArgs reads tool arguments, keeping numbers as json.Number so ints &
// floats stay distinct
func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// differ builds a differ for a call. unknown exclude types only warrant a
// warning
func (s *Server) differ(logger *zap.Logger, opts config.DiffOptions) (*deepdiff.DeepDiff, error) {
	dd := deepdiff.New(opts.Options(s.cfg.Limits)...)
	err := dd.Validate()
	var te *deepdiff.TypeExclusionError
	if errors.As(err, &te) {
		logger.Warn("ignoring unknown exclude types", zap.Strings("types", te.Tags))
		return dd, nil
	}
	return dd, err
}

func inputSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	p := map[string]interface{}{"description": description}
	if typ != "" {
		p["type"] = typ
	}
	return p
}

func stringList(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

// diffProps describes the config.DiffOptions fields, merged with extra
func diffProps(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"ignore_order":                prop("boolean", "compare lists as multisets, ignoring element order"),
		"report_repetition":           prop("boolean", "with ignore_order, report elements repeated a different number of times"),
		"exclude_paths":               stringList("paths to skip, eg: root['meta']"),
		"exclude_regex_paths":         stringList("regular expressions matching paths to skip"),
		"exclude_types":               stringList("type names to skip, eg: str, int, float, NoneType"),
		"ignore_string_type_changes":  prop("boolean", "treat strings & bytes as the same type"),
		"ignore_numeric_type_changes": prop("boolean", "treat ints & floats as the same type"),
		"ignore_string_case":          prop("boolean", "compare strings case-insensitively"),
		"significant_digits":          prop("integer", "round numbers to this many decimal places before comparing"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

type compareArgs struct {
	T1 interface{} `json:"t1"`
	T2 interface{} `json:"t2"`
	config.DiffOptions
}

type searchArgs struct {
	Obj           interface{} `json:"obj"`
	Item          interface{} `json:"item"`
	CaseSensitive bool        `json:"case_sensitive"`
	ExactMatch    bool        `json:"exact_match"`
	UseRegexp     bool        `json:"use_regexp"`
}

type hashArgs struct {
	Obj               interface{} `json:"obj"`
	ExcludeTypes      []string    `json:"exclude_types"`
	ExcludePaths      []string    `json:"exclude_paths"`
	ExcludeRegexPaths []string    `json:"exclude_regex_paths"`
}

type createDeltaArgs struct {
	compareArgs
	Format string `json:"format"`
}

type applyDeltaArgs struct {
	Obj   interface{}     `json:"obj"`
	Delta deepdiff.Deltas `json:"delta_dict"`
}

type extractArgs struct {
	Obj  interface{} `json:"obj"`
	Path string      `json:"path"`
}

type compareFilesArgs struct {
	File1 string `json:"file1"`
	File2 string `json:"file2"`
	config.DiffOptions
}

func (s *Server) registerTools() {
	pair := map[string]interface{}{
		"t1": prop("", "first value, any JSON"),
		"t2": prop("", "second value, any JSON"),
	}

	s.addTool(&mcp.Tool{
		Name:        "compare",
		Description: "Compare two values & report their differences by category: type_changes, values_changed, dictionary_item_added/removed, iterable_item_added/removed, set_item_added/removed & repetition_change.",
		InputSchema: inputSchema(diffProps(pair), "t1", "t2"),
	}, s.compare)

	s.addTool(&mcp.Tool{
		Name:        "get_deep_distance",
		Description: "Estimate how different two values are, from 0 (equal) to 1 (nothing in common).",
		InputSchema: inputSchema(diffProps(pair), "t1", "t2"),
	}, s.distance)

	searchProps := map[string]interface{}{
		"obj":            prop("", "value to search"),
		"item":           prop("", "item to look for"),
		"case_sensitive": prop("boolean", "match string case exactly"),
		"exact_match":    prop("boolean", "require whole values to match instead of substrings"),
	}
	s.addTool(&mcp.Tool{
		Name:        "search",
		Description: "Find the paths in obj where item appears as a value, a key, or a matching container.",
		InputSchema: inputSchema(searchProps, "obj", "item"),
	}, s.search(false))

	grepProps := map[string]interface{}{"use_regexp": prop("boolean", "treat item as a regular expression")}
	for k, v := range searchProps {
		grepProps[k] = v
	}
	s.addTool(&mcp.Tool{
		Name:        "grep",
		Description: "Search obj for item, optionally as a regular expression over string values & keys.",
		InputSchema: inputSchema(grepProps, "obj", "item"),
	}, s.search(true))

	s.addTool(&mcp.Tool{
		Name:        "hash_object",
		Description: "Compute a content hash of a value. mapping key order never changes the hash.",
		InputSchema: inputSchema(map[string]interface{}{
			"obj":                 prop("", "value to hash"),
			"exclude_types":       stringList("type names to leave out of the hash"),
			"exclude_paths":       stringList("paths to leave out of the hash"),
			"exclude_regex_paths": stringList("regular expressions matching paths to leave out of the hash"),
		}, "obj"),
	}, s.hash)

	s.addTool(&mcp.Tool{
		Name:        "create_delta",
		Description: "Create the edit script that turns t1 into t2, as a delta list or an RFC 6902 JSON Patch.",
		InputSchema: inputSchema(diffProps(map[string]interface{}{
			"t1": pair["t1"],
			"t2": pair["t2"],
			"format": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"delta", "json_patch"},
				"description": "output format, defaults to delta",
			},
		}), "t1", "t2"),
	}, s.createDelta)

	s.addTool(&mcp.Tool{
		Name:        "apply_delta",
		Description: "Apply a delta list from create_delta to obj, returning the patched value. obj itself is unchanged.",
		InputSchema: inputSchema(map[string]interface{}{
			"obj":        prop("", "value to patch"),
			"delta_dict": prop("array", "delta list, as returned by create_delta"),
		}, "obj", "delta_dict"),
	}, s.applyDelta)

	s.addTool(&mcp.Tool{
		Name:        "extract_path",
		Description: "Return the value at a path like root['a']['b'][0] within obj.",
		InputSchema: inputSchema(map[string]interface{}{
			"obj":  prop("", "value to read from"),
			"path": prop("string", "path to extract, eg: root['a'][0]"),
		}, "obj", "path"),
	}, s.extractPath)

	if s.cfg.Server.AllowFileAccess {
		s.addTool(&mcp.Tool{
			Name:        "compare_files",
			Description: "Load two data files (csv, tsv, xlsx, json, yaml) from the server's filesystem & compare their contents.",
			InputSchema: inputSchema(diffProps(map[string]interface{}{
				"file1": prop("string", "path of the first file"),
				"file2": prop("string", "path of the second file"),
			}), "file1", "file2"),
		}, s.compareFiles)
	}
}

func (s *Server) compare(ctx context.Context, logger *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args compareArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	dd, err := s.differ(logger, args.DiffOptions)
	if err != nil {
		return nil, err
	}
	return dd.Diff(ctx, args.T1, args.T2)
}

func (s *Server) distance(ctx context.Context, logger *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args compareArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	dd, err := s.differ(logger, args.DiffOptions)
	if err != nil {
		return nil, err
	}
	return dd.Distance(ctx, args.T1, args.T2)
}

func (s *Server) search(grep bool) endpoint {
	return func(ctx context.Context, _ *zap.Logger, raw json.RawMessage) (interface{}, error) {
		var args searchArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		cfg := &deepdiff.SearchConfig{
			CaseSensitive: args.CaseSensitive,
			ExactMatch:    args.ExactMatch,
			MaxDepth:      s.cfg.Limits.MaxDepth,
		}
		if grep {
			cfg.UseRegexp = args.UseRegexp
			return deepdiff.Grep(ctx, args.Obj, args.Item, cfg)
		}
		return deepdiff.Search(ctx, args.Obj, args.Item, cfg)
	}
}

func (s *Server) hash(ctx context.Context, logger *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args hashArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	dd, err := s.differ(logger, config.DiffOptions{
		ExcludeTypes:      args.ExcludeTypes,
		ExcludePaths:      args.ExcludePaths,
		ExcludeRegexPaths: args.ExcludeRegexPaths,
	})
	if err != nil {
		return nil, err
	}
	h, err := dd.Hash(ctx, args.Obj)
	if err != nil {
		return nil, err
	}
	return map[string]string{"hash": h}, nil
}

func (s *Server) createDelta(ctx context.Context, logger *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args createDeltaArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Format != "" && args.Format != "delta" && args.Format != "json_patch" {
		return nil, fmt.Errorf("unknown delta format %q, expected delta or json_patch", args.Format)
	}

	dd, err := s.differ(logger, args.DiffOptions)
	if err != nil {
		return nil, err
	}
	ds, err := dd.Delta(ctx, args.T1, args.T2)
	if err != nil {
		return nil, err
	}
	if args.Format == "json_patch" {
		patch, err := ds.JSONPatch()
		if err != nil {
			return nil, err
		}
		if patch == nil {
			patch = jsondiff.Patch{}
		}
		return patch, nil
	}
	if ds == nil {
		ds = deepdiff.Deltas{}
	}
	return ds, nil
}

func (s *Server) applyDelta(_ context.Context, _ *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args applyDeltaArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return deepdiff.Patch(args.Obj, args.Delta)
}

func (s *Server) extractPath(_ context.Context, _ *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args extractArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return deepdiff.Extract(args.Obj, args.Path)
}

func (s *Server) compareFiles(ctx context.Context, logger *zap.Logger, raw json.RawMessage) (interface{}, error) {
	var args compareFilesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.File1 == "" || args.File2 == "" {
		return nil, errors.New("file1 & file2 are required")
	}
	dd, err := s.differ(logger, args.DiffOptions)
	if err != nil {
		return nil, err
	}

	t1, t2, err := loader.LoadPair(ctx, args.File1, args.File2)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded files", zap.String("file1", args.File1), zap.String("file2", args.File2))
	return dd.Diff(ctx, t1, t2)
}
