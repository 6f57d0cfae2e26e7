package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"canon/internal/baseline"
	"canon/internal/docs"
	"canon/internal/envelope"
	canonerrors "canon/internal/errors"
	"canon/internal/query"
	"canon/internal/ranking"
)

type fakeEngine struct {
	result     *query.SearchResult
	file       *baseline.FileResult
	err        error
	lastQuery  string
	lastPath   string
	lastCanon  *baseline.RepoRef
	invalidate int
}

func (f *fakeEngine) Search(_ context.Context, q string, canon *baseline.RepoRef) (*query.SearchResult, error) {
	f.lastQuery = q
	f.lastCanon = canon
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEngine) FetchFile(_ context.Context, path string, canon *baseline.RepoRef) (*baseline.FileResult, error) {
	f.lastPath = path
	f.lastCanon = canon
	if f.err != nil {
		return nil, f.err
	}
	return f.file, nil
}

func (f *fakeEngine) InvalidateCache(_ context.Context, canon *baseline.RepoRef) error {
	f.lastCanon = canon
	f.invalidate++
	return f.err
}

func newTestServer(t *testing.T, engine Engine) *Server {
	t.Helper()
	s, err := NewServer(engine, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

// decode extracts the envelope from a tool result.
func decode(t *testing.T, res *mcp.CallToolResult) envelope.Response {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %+v", res)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", res.Content[0])
	}
	var resp envelope.Response
	if err := json.Unmarshal([]byte(text.Text), &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return resp
}

func TestNewServer_RequiresEngine(t *testing.T) {
	if _, err := NewServer(nil, nil); !errors.Is(err, ErrMissingEngine) {
		t.Errorf("NewServer(nil) error = %v, want ErrMissingEngine", err)
	}
}

func TestHandleSearch(t *testing.T) {
	status := baseline.Status{Available: true, Repo: "https://github.com/acme/gov", SHA: "abc123", Tier: baseline.TierStore}
	engine := &fakeEngine{result: &query.SearchResult{
		Query:  "retry policy",
		Status: envelope.StatusSupported,
		Sources: []query.Source{
			{Path: "docs/adr/001.md", Origin: docs.OriginLocal},
			{Path: "standards/retry.md", Origin: docs.OriginBaseline},
			{Path: "docs/adr/002.md", Origin: docs.OriginLocal},
		},
		Confidence: envelope.Confidence{Score: 0.82, Tier: envelope.TierHigh},
		Debug:      query.Debug{IndexBuildID: "build-1"},
		Baseline:   &status,
	}}
	s := newTestServer(t, engine)

	res, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "retry policy", Canon: "acme/canon@v2"})
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if res.IsError {
		t.Fatal("IsError = true, want false")
	}
	if engine.lastCanon == nil || engine.lastCanon.Repo != "canon" || engine.lastCanon.Ref != "v2" {
		t.Errorf("canon = %+v, want acme/canon@v2", engine.lastCanon)
	}

	resp := decode(t, res)
	if resp.RequestID == "" {
		t.Error("RequestID is empty")
	}
	if resp.Meta == nil || resp.Meta.Confidence == nil || resp.Meta.Confidence.Score != 0.82 {
		t.Fatalf("Meta.Confidence = %+v, want score 0.82", resp.Meta)
	}
	prov := resp.Meta.Provenance
	if prov == nil {
		t.Fatal("Meta.Provenance is nil")
	}
	if len(prov.Origins) != 2 || prov.Origins[0] != "baseline" || prov.Origins[1] != "local" {
		t.Errorf("Origins = %v, want [baseline local]", prov.Origins)
	}
	if prov.BaselineSHA != "abc123" || prov.BaselineTier != "store" || prov.IndexBuildID != "build-1" {
		t.Errorf("Provenance = %+v", prov)
	}
	if resp.Meta.Cache == nil || !resp.Meta.Cache.Hit {
		t.Errorf("Meta.Cache = %+v, want hit", resp.Meta.Cache)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", resp.Warnings)
	}
}

func TestHandleSearch_Warnings(t *testing.T) {
	tests := []struct {
		name     string
		result   *query.SearchResult
		wantCode string
		want     int
	}{
		{
			name: "baseline unavailable",
			result: &query.SearchResult{
				Status: envelope.StatusSupported,
				Debug:  query.Debug{BaselineUnavailable: true, BaselineCause: "TIMEOUT"},
			},
			wantCode: string(canonerrors.BaselineUnavailable),
			want:     1,
		},
		{
			name:   "insufficient evidence",
			result: &query.SearchResult{Status: envelope.StatusInsufficientEvidence, Advisory: true},
			want:   1,
		},
		{
			name:   "advisory",
			result: &query.SearchResult{Status: envelope.StatusSupported, Advisory: true},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeEngine{result: tt.result})
			res, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "anything"})
			if err != nil {
				t.Fatalf("handleSearch() error = %v", err)
			}
			resp := decode(t, res)
			if len(resp.Warnings) != tt.want {
				t.Fatalf("Warnings = %v, want %d", resp.Warnings, tt.want)
			}
			if resp.Warnings[0].Code != tt.wantCode {
				t.Errorf("Warning code = %q, want %q", resp.Warnings[0].Code, tt.wantCode)
			}
			if resp.Meta.Cache != nil {
				t.Errorf("Meta.Cache = %+v, want nil without a baseline", resp.Meta.Cache)
			}
		})
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    SearchInput
		err      error
		wantCode string
		called   bool
	}{
		{
			name:     "engine error",
			input:    SearchInput{Query: "   "},
			err:      canonerrors.New(canonerrors.InvalidQuery, "query is empty", nil),
			wantCode: string(canonerrors.InvalidQuery),
			called:   true,
		},
		{
			name:     "bad canon reference",
			input:    SearchInput{Query: "retry", Canon: "not a repo"},
			wantCode: string(canonerrors.InvalidReference),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{err: tt.err}
			s := newTestServer(t, engine)
			res, _, err := s.handleSearch(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("handleSearch() error = %v, want envelope error", err)
			}
			if !res.IsError {
				t.Error("IsError = false, want true")
			}
			resp := decode(t, res)
			if resp.Error == nil || resp.ErrorCode != tt.wantCode {
				t.Errorf("Error = %v code %q, want code %q", resp.Error, resp.ErrorCode, tt.wantCode)
			}
			if (engine.lastQuery != "") != tt.called {
				t.Errorf("engine called = %v, want %v", engine.lastQuery != "", tt.called)
			}
		})
	}
}

func TestHandleFetchFile(t *testing.T) {
	engine := &fakeEngine{file: &baseline.FileResult{
		Path:    "standards/retry.md",
		Content: "# Retry\n",
		Found:   true,
		Status:  baseline.Status{Available: true, SHA: "abc123", Tier: baseline.TierOrigin},
	}}
	s := newTestServer(t, engine)

	res, _, err := s.handleFetchFile(context.Background(), nil, FetchFileInput{Path: "standards/retry.md"})
	if err != nil {
		t.Fatalf("handleFetchFile() error = %v", err)
	}
	if engine.lastPath != "standards/retry.md" || engine.lastCanon != nil {
		t.Errorf("engine got path %q canon %+v", engine.lastPath, engine.lastCanon)
	}
	resp := decode(t, res)
	if resp.Meta == nil || resp.Meta.Cache == nil || resp.Meta.Cache.Hit {
		t.Errorf("Meta.Cache = %+v, want origin miss", resp.Meta)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["content"] != "# Retry\n" {
		t.Errorf("Data = %v", resp.Data)
	}

	engine.file = &baseline.FileResult{Path: "missing.md", Status: baseline.Status{Available: true}}
	res, _, _ = s.handleFetchFile(context.Background(), nil, FetchFileInput{Path: "missing.md"})
	if resp := decode(t, res); len(resp.Warnings) != 1 {
		t.Errorf("Warnings = %v, want not-found warning", resp.Warnings)
	}
}

func TestHandleInvalidate(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestServer(t, engine)

	res, _, err := s.handleInvalidate(context.Background(), nil, InvalidateInput{Canon: "acme/canon"})
	if err != nil {
		t.Fatalf("handleInvalidate() error = %v", err)
	}
	if engine.invalidate != 1 || engine.lastCanon == nil || engine.lastCanon.Owner != "acme" {
		t.Errorf("invalidate calls = %d canon = %+v", engine.invalidate, engine.lastCanon)
	}
	resp := decode(t, res)
	data, _ := resp.Data.(map[string]any)
	if data["invalidated"] != "acme/canon" {
		t.Errorf("Data = %v", resp.Data)
	}

	engine.err = canonerrors.New(canonerrors.BaselineUnavailable, "no baseline repository configured", nil)
	res, _, _ = s.handleInvalidate(context.Background(), nil, InvalidateInput{})
	if resp := decode(t, res); resp.ErrorCode != string(canonerrors.BaselineUnavailable) {
		t.Errorf("ErrorCode = %q, want BASELINE_UNAVAILABLE", resp.ErrorCode)
	}
}

func TestHandleSearch_Truncation(t *testing.T) {
	result := &query.SearchResult{
		Status:   envelope.StatusSupported,
		Evidence: make([]ranking.Evidence, 3),
		Debug:    query.Debug{EvidenceDropped: 2},
	}
	s := newTestServer(t, &fakeEngine{result: result})

	res, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "retry"})
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	resp := decode(t, res)
	tr := resp.Meta.Truncation
	if tr == nil || !tr.IsTruncated || tr.Shown != 3 || tr.Total != 5 || tr.Reason != "max-evidence" {
		t.Errorf("Truncation = %+v, want 3 of 5 by max-evidence", tr)
	}

	result.Debug.EvidenceDropped = 0
	res, _, _ = s.handleSearch(context.Background(), nil, SearchInput{Query: "retry"})
	if resp := decode(t, res); resp.Meta != nil && resp.Meta.Truncation != nil {
		t.Errorf("Truncation = %+v, want none", resp.Meta.Truncation)
	}
}
