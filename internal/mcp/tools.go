package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/scorecache/internal/bundle"
	"github.com/dshills/scorecache/internal/corpus"
	"github.com/dshills/scorecache/internal/parser"
	"github.com/dshills/scorecache/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeCorpusNotFound    = -32001 // Corpus root is missing or not a directory
	ErrorCodeRebuildInProgress = -32002 // Another rebuild is already running
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
	ErrorCodeInvalidQuery      = -32005 // Query pattern does not compile
)

// maxReportedFailures caps the failed paths echoed back to the client
const maxReportedFailures = 5

// handleRebuildBundle handles the rebuild_bundle tool invocation
func (s *Server) handleRebuildBundle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	namespace := getStringDefault(args, "namespace", bundle.NamespaceCore)
	full := getBoolDefault(args, "full", false)
	opts := bundle.AddOptions{
		Parallel:      getBoolDefault(args, "parallel", s.opts.Parallel),
		UseParserHint: getBoolDefault(args, "use_parser_hint", false),
	}

	paths := getStringSlice(args, "paths")
	if len(paths) == 0 {
		root := getStringDefault(args, "root", s.opts.CorpusRoot)
		if err := validateRoot(root); err != nil {
			return nil, newMCPError(ErrorCodeCorpusNotFound, "invalid corpus root", map[string]interface{}{
				"param":  "root",
				"reason": err.Error(),
			})
		}
		discovered, err := corpus.Discover(root, corpus.Options{Extensions: parser.Extensions()})
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "corpus discovery failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		paths = discovered
	}

	if !s.rebuilding.TryAcquire() {
		return nil, newMCPError(ErrorCodeRebuildInProgress, "a rebuild is already in progress", nil)
	}
	defer s.rebuilding.Release()

	var (
		b      *bundle.Bundle
		failed []string
		err    error
	)
	if full {
		b, failed, err = s.registry.Rebuild(ctx, namespace, paths, opts)
	} else {
		s.mu.Lock()
		b, err = s.registry.Get(ctx, namespace)
		if err == nil {
			failed, err = b.AddFromPaths(ctx, paths, opts)
		}
		s.mu.Unlock()
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "rebuild failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	report := b.LastReport()
	response := map[string]interface{}{
		"namespace":   namespace,
		"full":        full,
		"entries":     b.Len(),
		"requested":   report.Requested,
		"scheduled":   report.Scheduled,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
		"removed":     report.Removed,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if len(failed) > 0 {
		if len(failed) > maxReportedFailures {
			response["failed_paths"] = failed[:maxReportedFailures]
		} else {
			response["failed_paths"] = failed
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchBundle handles the search_bundle tool invocation
func (s *Server) handleSearchBundle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	namespace := getStringDefault(args, "namespace", bundle.NamespaceCore)
	field := getStringDefault(args, "field", "")
	extensions := getStringSlice(args, "extensions")

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.registry.Get(ctx, namespace)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load bundle", map[string]interface{}{
			"error": err.Error(),
		})
	}

	found, err := b.Search(query, field, extensions)
	if errors.Is(err, types.ErrInvalidQuery) {
		return nil, newMCPError(ErrorCodeInvalidQuery, "invalid query pattern", map[string]interface{}{
			"param":  "query",
			"reason": err.Error(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := found.Entries()
	if len(entries) > limit {
		entries = entries[:limit]
	}
	results := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		results = append(results, entryResult(e, query, field))
	}

	response := map[string]interface{}{
		"namespace": namespace,
		"query":     query,
		"total":     found.Len(),
		"returned":  len(results),
		"results":   results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleBundleStatus handles the bundle_status tool invocation
func (s *Server) handleBundleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}
	namespace := getStringDefault(args, "namespace", bundle.NamespaceCore)

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.registry.Get(ctx, namespace)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load bundle", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stubs := 0
	for _, e := range b.Entries() {
		if e.IsStub() {
			stubs++
		}
	}

	snapshot := map[string]interface{}{
		"path":   b.FilePath(),
		"exists": false,
	}
	if info, err := os.Stat(b.FilePath()); err == nil {
		snapshot["exists"] = true
		snapshot["size_bytes"] = info.Size()
		snapshot["modified_at"] = info.ModTime().UTC().Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"namespace":  namespace,
		"entries":    b.Len(),
		"stubs":      stubs,
		"snapshot":   snapshot,
		"loaded":     s.registry.Loaded(),
		"rebuilding": s.rebuilding.Held(),
	}
	if report := b.LastReport(); report.Requested > 0 {
		response["last_rebuild"] = map[string]interface{}{
			"requested":   report.Requested,
			"scheduled":   report.Scheduled,
			"skipped":     report.Skipped,
			"failed":      report.Failed,
			"removed":     report.Removed,
			"duration_ms": report.Duration.Milliseconds(),
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleValidateBundle handles the validate_bundle tool invocation
func (s *Server) handleValidateBundle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}
	namespace := getStringDefault(args, "namespace", bundle.NamespaceCore)

	// Validation rewrites the snapshot, which a running rebuild also owns
	if !s.rebuilding.TryAcquire() {
		return nil, newMCPError(ErrorCodeRebuildInProgress, "a rebuild is already in progress", nil)
	}
	defer s.rebuilding.Release()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.registry.Get(ctx, namespace)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load bundle", map[string]interface{}{
			"error": err.Error(),
		})
	}

	removed := b.Validate()
	if err := b.Write(ctx, ""); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save bundle", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"namespace": namespace,
		"removed":   removed,
		"entries":   b.Len(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListSearchFields handles the list_search_fields tool invocation
func (s *Server) handleListSearchFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"fields": types.SearchFields(),
	})), nil
}

// Helper functions

// entryResult describes one search hit
func entryResult(e *bundle.Entry, query, field string) map[string]interface{} {
	out := map[string]interface{}{
		"key":         e.Key(),
		"source_path": e.SourcePath(),
	}
	if n := e.Number(); n != nil {
		out["number"] = *n
	}
	if _, matched, err := e.Search(query, field); err == nil && matched != "" {
		out["matched_field"] = matched
	}
	if md, ok := e.Payload().(*types.Metadata); ok && md != nil {
		if md.Title != "" {
			out["title"] = md.Title
		}
		if md.Composer != "" {
			out["composer"] = md.Composer
		}
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateRoot checks that a corpus root is an existing absolute directory
func validateRoot(root string) error {
	if root == "" {
		return ErrRootRequired
	}
	if !filepath.IsAbs(root) {
		return ErrRootNotAbsolute
	}

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return ErrRootNotFound
	}
	if err != nil {
		return ErrRootNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, skipping non-strings
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, v := range val {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Validation helpers

var (
	ErrRootRequired    = errors.New("corpus root is required")
	ErrRootNotAbsolute = errors.New("corpus root must be absolute")
	ErrRootNotFound    = errors.New("corpus root does not exist")
	ErrRootNotReadable = errors.New("corpus root is not readable")
	ErrNotDirectory    = errors.New("corpus root is not a directory")
)
