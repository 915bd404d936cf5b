// Package mcpserver exposes the case store and the ingestion pipeline as MCP (Model Context Protocol) tools so that
// LLM agents can browse, create and solve cases over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/myrjola/mysteries/internal/repositories"
)

type Server struct {
	mcp      *server.MCPServer
	cases    *repositories.CaseRepository
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

// New creates a new MCP server with all case tools registered.
func New(cases *repositories.CaseRepository, pipeline *ingest.Pipeline, logger *slog.Logger, version string) *Server {
	s := &Server{cases: cases, pipeline: pipeline, logger: logger.With("source", "mcpserver")}

	s.mcp = server.NewMCPServer(
		"Mysteries",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_cases",
		mcp.WithDescription("List all mystery cases with id, title, short description and thumbnail."),
	), s.listCases)

	s.mcp.AddTool(mcp.NewTool("get_case",
		mcp.WithDescription("Read a case with its background, clues, suspects and timeline. "+
			"The culprit is not included."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Case id")),
	), s.getCase)

	s.mcp.AddTool(mcp.NewTool("import_case",
		mcp.WithDescription("Store a new case. The case is a JSON object with title, desc, img, realKiller and "+
			"optional time, clues [{title, desc, img}], timeline [string] and "+
			"suspects [{name, age, relation, motive, alibi, notes, img}]."),
		mcp.WithString("case", mcp.Required(), mcp.Description("Case as a JSON object")),
	), s.importCase)

	s.mcp.AddTool(mcp.NewTool("generate_case",
		mcp.WithDescription("Invent a new case with the language model and store it."),
	), s.generateCase)

	s.mcp.AddTool(mcp.NewTool("reveal_culprit",
		mcp.WithDescription("Reveal who committed the crime in a case."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Case id")),
	), s.revealCulprit)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError logs err and turns it into a tool result the agent can read.
func (s *Server) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	s.logger.LogAttrs(ctx, slog.LevelWarn, "tool failed", slog.String("tool", tool), errors.SlogError(err))
	return mcp.NewToolResultError(err.Error())
}

func requireCaseID(req mcp.CallToolRequest) (int64, error) {
	f, err := req.RequireFloat("id")
	if err != nil {
		return 0, err //nolint:wrapcheck // the message is shown to the agent as is.
	}
	if f != math.Trunc(f) || f < 1 {
		return 0, fmt.Errorf("id must be a positive whole number, got %v", f)
	}
	return int64(f), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode result")
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCases(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.cases.List(ctx)
	if err != nil {
		return s.toolError(ctx, "list_cases", err), nil
	}
	return jsonResult(summaries)
}

func (s *Server) getCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireCaseID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.cases.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("case %d not found", id)), nil
	}
	if err != nil {
		return s.toolError(ctx, "get_case", err), nil
	}
	return jsonResult(map[string]any{
		"id":         detail.ID,
		"title":      detail.Title,
		"background": detail.Background,
		"time":       detail.Time,
		"clues":      detail.Clues,
		"suspects":   detail.Suspects,
		"timeline":   detail.Events(),
	})
}

func (s *Server) importCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("case")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.pipeline.IngestJSON(ctx, strings.NewReader(raw))
	if errors.Is(err, ingest.ErrValidation) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return s.toolError(ctx, "import_case", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("stored case %d", id)), nil
}

func (s *Server) generateCase(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.pipeline.Generate(ctx)
	if err != nil {
		return s.toolError(ctx, "generate_case", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("generated case %d", id)), nil
}

func (s *Server) revealCulprit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireCaseID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	culprit, err := s.cases.Solution(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no solution for case %d", id)), nil
	}
	if err != nil {
		return s.toolError(ctx, "reveal_culprit", err), nil
	}
	return mcp.NewToolResultText(culprit), nil
}
