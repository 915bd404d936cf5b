package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/fixtures"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/myrjola/mysteries/internal/models"
	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
	"github.com/myrjola/mysteries/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedCase = `Here you go:
{
  "title": "The Lighthouse Keeper",
  "desc": "The keeper vanished during the storm.",
  "img": "lighthouse.png",
  "realKiller": "Ada",
  "time": "1901",
  "clues": [{"title": "Wet boots", "desc": "Left by the door.", "img": "boots.png"}],
  "timeline": ["Storm begins", "Lamp goes dark"],
  "suspects": [{"name": "Ada", "age": 41, "relation": "Sister", "motive": "Inheritance",
    "alibi": "Asleep", "notes": "Nervous", "img": "ada.png"}]
}`

type fakeGenerator struct {
	text string
	err  error
}

func (g fakeGenerator) Complete(context.Context, string) (string, error) {
	return g.text, g.err
}

func newTestServer(t *testing.T, generator ingest.Generator) *Server {
	t.Helper()
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dbs.Close()) })
	repo := repositories.NewCaseRepository(dbs, logger)
	pipeline := ingest.NewPipeline(repo, generator, logger)
	seeded, err := fixtures.Seed(ctx, repo, pipeline, logger)
	require.NoError(t, err)
	require.Equal(t, 2, seeded)
	return New(repo, pipeline, logger, "test")
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestServer_listCases(t *testing.T) {
	s := newTestServer(t, nil)
	r, err := s.listCases(context.Background(), callTool("list_cases", nil))
	require.NoError(t, err)
	require.False(t, r.IsError)

	var summaries []models.CaseSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "The Case of the Missing Painting", summaries[0].Title)
}

func TestServer_getCase(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	r, err := s.getCase(ctx, callTool("get_case", map[string]any{"id": float64(1)}))
	require.NoError(t, err)
	require.False(t, r.IsError)
	text := resultText(t, r)
	assert.Contains(t, text, "The Case of the Missing Painting")
	assert.NotContains(t, text, "realKiller")

	var detail struct {
		Clues    []map[string]any `json:"clues"`
		Suspects []map[string]any `json:"suspects"`
		Timeline []string         `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &detail))
	assert.Len(t, detail.Suspects, 3)
	assert.Len(t, detail.Timeline, 4)
	assert.NotEmpty(t, detail.Clues)
}

func TestServer_getCase_errors(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing id", args: map[string]any{}, want: "id"},
		{name: "fractional id", args: map[string]any{"id": 1.5}, want: "whole number"},
		{name: "negative id", args: map[string]any{"id": float64(-3)}, want: "whole number"},
		{name: "unknown case", args: map[string]any{"id": float64(999)}, want: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.getCase(context.Background(), callTool("get_case", tt.args))
			require.NoError(t, err)
			require.True(t, r.IsError)
			assert.Contains(t, resultText(t, r), tt.want)
		})
	}
}

func TestServer_revealCulprit(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	r, err := s.revealCulprit(ctx, callTool("reveal_culprit", map[string]any{"id": float64(2)}))
	require.NoError(t, err)
	require.False(t, r.IsError)
	assert.Equal(t, "Dr. Evelyn Collins", resultText(t, r))

	r, err = s.revealCulprit(ctx, callTool("reveal_culprit", map[string]any{"id": float64(42)}))
	require.NoError(t, err)
	require.True(t, r.IsError)
}

func TestServer_importCase(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	r, err := s.importCase(ctx, callTool("import_case", map[string]any{
		"case": `{"title": "Cold Tea", "desc": "Someone drank it.", "img": "tea.png", "realKiller": "Butler"}`,
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(t, r))
	assert.Equal(t, "stored case 3", resultText(t, r))

	r, err = s.importCase(ctx, callTool("import_case", map[string]any{"case": `{"title": "No details"}`}))
	require.NoError(t, err)
	require.True(t, r.IsError)
	assert.Contains(t, resultText(t, r), "invalid case")
}

func TestServer_generateCase(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the generated case", func(t *testing.T) {
		s := newTestServer(t, fakeGenerator{text: generatedCase, err: nil})
		r, err := s.generateCase(ctx, callTool("generate_case", nil))
		require.NoError(t, err)
		require.False(t, r.IsError, resultText(t, r))
		assert.Equal(t, "generated case 3", resultText(t, r))

		r, err = s.revealCulprit(ctx, callTool("reveal_culprit", map[string]any{"id": float64(3)}))
		require.NoError(t, err)
		assert.Equal(t, "Ada", resultText(t, r))
	})

	t.Run("reports generation failure", func(t *testing.T) {
		s := newTestServer(t, fakeGenerator{text: "", err: errors.NewSentinel("quota exceeded")})
		r, err := s.generateCase(ctx, callTool("generate_case", nil))
		require.NoError(t, err)
		require.True(t, r.IsError)
		assert.Contains(t, resultText(t, r), "quota exceeded")
	})

	t.Run("reports missing generator", func(t *testing.T) {
		s := newTestServer(t, nil)
		r, err := s.generateCase(ctx, callTool("generate_case", nil))
		require.NoError(t, err)
		require.True(t, r.IsError)
	})
}
