// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Dagaz tracker tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/trackservice"
)

// Server wraps the MCP server with Dagaz tools.
type Server struct {
	mcp *server.MCPServer
	svc *trackservice.Service
}

// New creates a new MCP server with all Dagaz tools registered.
func New(svc *trackservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_trackers",
		mcp.WithDescription("List the loaded tracker definitions with their folders and query counts."),
	), s.listTrackers)

	s.mcp.AddTool(mcp.NewTool("run_tracker",
		mcp.WithDescription("Run one tracker against the vault now and return its assembled datasets. "+
			"Fails with the engine's message when no notes match or the configured date range is impossible."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tracker name as returned by list_trackers")),
	), s.runTracker)

	s.mcp.AddTool(mcp.NewTool("get_latest_datasets",
		mcp.WithDescription("Return the newest stored run of a tracker with its per-query daily datasets. "+
			"Gap days carry a null value; an explicit zero means the day was tracked as zero."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tracker name")),
	), s.getLatestDatasets)

	s.mcp.AddTool(mcp.NewTool("write_entry",
		mcp.WithDescription("Write a new daily note into the vault so trackers can pick it up. "+
			"The file name must carry the date in the tracker's date format. Content MUST follow "+
			"the trackable note conventions (inline #tag:value, frontmatter keys, or dataview:: fields). "+
			"Read the contract first via the get_tracker_contract tool or the dagaz://tracker-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Dagaz tracker format contract")),
	), s.writeEntry)

	s.mcp.AddTool(mcp.NewTool("get_tracker_contract",
		mcp.WithDescription("Returns the canonical Dagaz tracker and trackable-note format contract. "+
			"Call this before writing entries or authoring tracker definitions."),
	), s.getTrackerContract)

	// Resource: tracker format contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://tracker-format", "Tracker Format Contract",
			mcp.WithResourceDescription("Canonical tracker definition and trackable-note format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTrackerFormatResource,
	)

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

func (s *Server) listTrackers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.List(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) runTracker(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Run(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("tracker not found: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"run_id":       res.RunID,
		"window_start": res.Window.Start.Format("2006-01-02"),
		"window_end":   res.Window.End.Format("2006-01-02"),
		"datasets":     runDatasets(res.Datasets),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// runPoint is one day of a freshly-run dataset; Value is null on gap days,
// matching the stored-series shape the REST API serves.
type runPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type runDataset struct {
	QueryID    int        `json:"query_id"`
	QueryType  string     `json:"query_type"`
	Target     string     `json:"target"`
	TimeValued bool       `json:"time_valued"`
	Points     []runPoint `json:"points"`
}

func runDatasets(datasets []engine.Dataset) []runDataset {
	out := make([]runDataset, 0, len(datasets))
	for _, ds := range datasets {
		rd := runDataset{
			QueryID:    ds.Query.ID,
			QueryType:  ds.Query.Type.String(),
			Target:     ds.Query.Target,
			TimeValued: ds.UsingTimeValue,
			Points:     make([]runPoint, 0, len(ds.Points)),
		}
		for _, p := range ds.Points {
			rp := runPoint{Date: p.Date.Format("2006-01-02")}
			if p.Valid {
				v := p.Value
				rp.Value = &v
			}
			rd.Points = append(rd.Points, rp)
		}
		out = append(out, rd)
	}
	return out
}

func (s *Server) getLatestDatasets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run, series, err := s.svc.Latest(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no stored runs for tracker: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"run":      run,
		"datasets": series,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) writeEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasSuffix(path, ".md") {
		return mcp.NewToolResultError("path must end with .md"), nil
	}

	if err := s.svc.WriteEntry(path, []byte(content)); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) getTrackerContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TrackerFormatContract), nil
}

func (s *Server) readTrackerFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://tracker-format",
			MIMEType: "text/markdown",
			Text:     TrackerFormatContract,
		},
	}, nil
}
