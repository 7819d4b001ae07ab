package soso

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

// Combine merges JSON-LD documents into a single document whose @graph holds
// every top-level node. The first context found becomes the shared one;
// nodes whose context differs keep their own.
func Combine(docs ...[]byte) ([]byte, error) {
	var shared any
	graph := []any{}
	for i, data := range docs {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", i, err)
		}
		for _, node := range nodes(v) {
			ctx, has := node["@context"]
			switch {
			case !has:
			case shared == nil:
				shared = ctx
				delete(node, "@context")
			case reflect.DeepEqual(ctx, shared):
				delete(node, "@context")
			}
			graph = append(graph, node)
		}
	}
	out := map[string]any{"@graph": graph}
	if shared != nil {
		out["@context"] = shared
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return append(data, '\n'), nil
}

// nodes flattens one decoded document into its top-level nodes. Members of
// a @graph inherit the graph's context.
func nodes(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var res []map[string]any
		for _, e := range t {
			res = append(res, nodes(e)...)
		}
		return res
	case map[string]any:
		g, ok := t["@graph"].([]any)
		if !ok {
			return []map[string]any{t}
		}
		ctx, has := t["@context"]
		var res []map[string]any
		for _, n := range nodes(g) {
			if _, own := n["@context"]; has && !own {
				n["@context"] = ctx
			}
			res = append(res, n)
		}
		return res
	}
	return nil
}

// CombineFiles merges the JSON-LD files at paths.
func CombineFiles(paths []string) ([]byte, error) {
	docs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s': %w", p, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("'%s' is not valid JSON", p)
		}
		docs = append(docs, data)
	}
	return Combine(docs...)
}
