package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	toolSearch     = "canon_search"
	toolFetchFile  = "canon_fetch_file"
	toolInvalidate = "canon_invalidate_cache"
)

// SearchInput is the input schema for canon_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question to answer from governance documents"`
	Canon string `json:"canon,omitempty" jsonschema:"optional canon repository override as owner/repo[@ref]"`
}

// FetchFileInput is the input schema for canon_fetch_file.
type FetchFileInput struct {
	Path  string `json:"path" jsonschema:"repository-relative path of a governed file"`
	Canon string `json:"canon,omitempty" jsonschema:"optional canon repository override as owner/repo[@ref]"`
}

// InvalidateInput is the input schema for canon_invalidate_cache.
type InvalidateInput struct {
	Canon string `json:"canon,omitempty" jsonschema:"canon repository to invalidate; the configured baseline when empty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolSearch,
		Description: "Answer a question from local and baseline governance documents with cited evidence, arbitration and confidence",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolFetchFile,
		Description: "Fetch one governed file from the baseline repository or a canon override",
	}, s.handleFetchFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolInvalidate,
		Description: "Drop cached baseline content so the next request refetches it",
	}, s.handleInvalidate)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.NewString()
	s.logger.Info("Calling tool", "tool", toolSearch, "requestId", requestID, "canon", in.Canon)

	canon, err := parseCanon(in.Canon)
	if err != nil {
		return s.fail(toolSearch, requestID, err)
	}
	res, err := s.engine.Search(ctx, in.Query, canon)
	if err != nil {
		return s.fail(toolSearch, requestID, err)
	}
	return respond(searchResponse(requestID, res))
}

func (s *Server) handleFetchFile(ctx context.Context, _ *mcp.CallToolRequest, in FetchFileInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.NewString()
	s.logger.Info("Calling tool", "tool", toolFetchFile, "requestId", requestID, "path", in.Path)

	canon, err := parseCanon(in.Canon)
	if err != nil {
		return s.fail(toolFetchFile, requestID, err)
	}
	res, err := s.engine.FetchFile(ctx, in.Path, canon)
	if err != nil {
		return s.fail(toolFetchFile, requestID, err)
	}
	return respond(fetchResponse(requestID, res))
}

func (s *Server) handleInvalidate(ctx context.Context, _ *mcp.CallToolRequest, in InvalidateInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.NewString()
	s.logger.Info("Calling tool", "tool", toolInvalidate, "requestId", requestID, "canon", in.Canon)

	canon, err := parseCanon(in.Canon)
	if err != nil {
		return s.fail(toolInvalidate, requestID, err)
	}
	if err := s.engine.InvalidateCache(ctx, canon); err != nil {
		return s.fail(toolInvalidate, requestID, err)
	}
	return respond(invalidateResponse(requestID, in.Canon))
}

func (s *Server) fail(tool, requestID string, err error) (*mcp.CallToolResult, any, error) {
	s.logger.Warn("Tool failed", "tool", tool, "requestId", requestID, "error", err)
	return respond(errorResponse(requestID, err))
}
