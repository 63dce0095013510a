package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var namespaceProperty = map[string]interface{}{
	"type":        "string",
	"description": "Bundle namespace: core, virtual, local, or the name of a local corpus",
	"default":     "core",
}

// rebuildBundleTool returns the tool definition for rebuild_bundle
func rebuildBundleTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rebuild_bundle",
		Description: "Derive score metadata into a bundle, re-reading only sources changed since the last snapshot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": namespaceProperty,
				"paths": map[string]interface{}{
					"type":        "array",
					"description": "Score files or URIs to add; defaults to every score under the corpus root",
					"items":       map[string]interface{}{"type": "string"},
				},
				"root": map[string]interface{}{
					"type":        "string",
					"description": "Absolute corpus directory to scan when paths is omitted",
				},
				"full": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, discard the bundle and its snapshot and derive everything again",
					"default":     false,
				},
				"parallel": map[string]interface{}{
					"type":        "boolean",
					"description": "Derive on a worker pool",
				},
				"use_parser_hint": map[string]interface{}{
					"type":        "boolean",
					"description": "Record sources relative to the corpus root",
					"default":     false,
				},
			},
		},
	}
}

// searchBundleTool returns the tool definition for search_bundle
func searchBundleTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_bundle",
		Description: "Search score metadata by substring or regular expression, optionally within one field",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": namespaceProperty,
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive substring, or a regular expression when it contains metacharacters",
				},
				"field": map[string]interface{}{
					"type":        "string",
					"description": "Restrict matching to one field (see list_search_fields)",
				},
				"extensions": map[string]interface{}{
					"type":        "array",
					"description": "Only match sources with these extensions; .xml also matches .mxl and .mx",
					"items":       map[string]interface{}{"type": "string"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// bundleStatusTool returns the tool definition for bundle_status
func bundleStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "bundle_status",
		Description: "Report entry counts, snapshot location and the last rebuild of a bundle",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": namespaceProperty,
			},
		},
	}
}

// validateBundleTool returns the tool definition for validate_bundle
func validateBundleTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_bundle",
		Description: "Remove entries whose source file no longer exists and save the bundle",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": namespaceProperty,
			},
		},
	}
}

// listSearchFieldsTool returns the tool definition for list_search_fields
func listSearchFieldsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_search_fields",
		Description: "List the metadata fields accepted by search_bundle",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
