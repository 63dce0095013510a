// Package mcp implements the Model Context Protocol (MCP) server for scorecache.
//
// The server exposes metadata bundles to MCP clients through five tools:
//   - rebuild_bundle: Derive metadata for new or changed scores
//   - search_bundle: Search a bundle by field value or pattern
//   - bundle_status: Report bundle size and snapshot state
//   - validate_bundle: Drop entries whose source file has disappeared
//   - list_search_fields: List the field names search_bundle accepts
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	scorecache serve
//
// # Tool: rebuild_bundle
//
// Without paths the corpus root is walked for every supported score
// extension. Sources whose modification time is not newer than the
// snapshot are skipped; full discards the bundle first.
//
//	Request:
//	{
//	  "name": "rebuild_bundle",
//	  "arguments": {
//	    "namespace": "core",
//	    "root": "/srv/corpus",
//	    "parallel": true
//	  }
//	}
//
//	Response:
//	{
//	  "namespace": "core",
//	  "entries": 14213,
//	  "requested": 13950,
//	  "scheduled": 12,
//	  "skipped": 13938,
//	  "failed": 0,
//	  "removed": 3,
//	  "duration_ms": 1840
//	}
//
// # Tool: search_bundle
//
// Plain queries match as case-insensitive substrings. Queries holding
// regular expression metacharacters are compiled as patterns.
//
//	Request:
//	{
//	  "name": "search_bundle",
//	  "arguments": {
//	    "query": "bach",
//	    "field": "composer",
//	    "extensions": [".xml"],
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "total": 371,
//	  "returned": 10,
//	  "results": [
//	    {
//	      "key": "bach_bwv269_mxl",
//	      "source_path": "bach/bwv269.mxl",
//	      "title": "Aus meines Herzens Grunde",
//	      "composer": "J.S. Bach",
//	      "matched_field": "composer"
//	    }
//	  ]
//	}
//
// # Error Handling
//
// Handlers return *MCPError values which the framework encodes as JSON-RPC
// errors:
//   - -32602: Invalid params
//   - -32603: Internal error (snapshot I/O, discovery)
//   - -32001: Corpus root not found
//   - -32002: Rebuild in progress
//   - -32004: Empty query
//   - -32005: Invalid query pattern
//
// # Concurrency
//
// Only one rebuild or validation runs at a time. Incremental rebuilds and
// validation mutate the cached bundle under a write lock that searches
// wait on; a full rebuild builds a fresh bundle and swaps it into the
// registry when done.
//
// # Logging
//
// The server logs to stderr through log/slog since stdout carries the
// protocol.
package mcp
