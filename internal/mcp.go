package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the stored channel data and rollups to MCP clients
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App) *MCPServer {
	mcpServer := server.NewMCPServer(
		"liftscope-server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("channel_overview",
		mcp.WithDescription("Summary of the tracked strongman channel: how many videos are stored, how many have transcripts, and how many carry training-phase labels. Call this first to see what data is available."),
	), s.handleOverview)

	s.mcpServer.AddTool(mcp.NewTool("get_video",
		mcp.WithDescription("Metadata and inferred training label (phase, event tags, confidence) for one stored video."),
		mcp.WithString("video_id",
			mcp.Description("11-character YouTube video ID"),
			mcp.Required(),
		),
	), s.handleGetVideo)

	s.mcpServer.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Stored transcript text for one video. Fails if the transcript was never fetched or the fetch failed."),
		mcp.WithString("video_id",
			mcp.Description("11-character YouTube video ID"),
			mcp.Required(),
		),
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("get_rollup",
		mcp.WithDescription("Training-phase rollup of all labeled videos, bucketed by calendar month or ISO week. Returns one row per period with video counts, dominant phase, and top event tags."),
		mcp.WithString("period",
			mcp.Description("Bucket size: 'month' (default) or 'week'"),
		),
	), s.handleGetRollup)

	s.mcpServer.AddTool(mcp.NewTool("macrocycle_report",
		mcp.WithDescription("Markdown report of the channel's training macrocycle: phase timeline, per-period video counts, and dominant events."),
		mcp.WithString("period",
			mcp.Description("Bucket size: 'month' (default) or 'week'"),
		),
	), s.handleReport)
}

// handleOverview implements the channel_overview tool
func (s *MCPServer) handleOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	MCPLogDebug("channel_overview called")

	stats, err := s.app.Stats(ctx)
	if err != nil {
		MCPLogError("channel_overview: %v", err)
		return mcp.NewToolResultErrorFromErr("reading store", err), nil
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Channel: %s\n", s.app.config.Channel))
	buf.WriteString(fmt.Sprintf("Videos: %d\n", stats.Videos))
	buf.WriteString(fmt.Sprintf("Transcribed: %d\n", stats.Transcribed))
	buf.WriteString(fmt.Sprintf("Transcript failures: %d\n", stats.Failed))
	buf.WriteString(fmt.Sprintf("Labeled: %d\n", stats.Labeled))

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleGetVideo implements the get_video tool
func (s *MCPServer) handleGetVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	if !IsValidVideoID(videoID) {
		return mcp.NewToolResultError("video_id must be an 11-character YouTube video ID"), nil
	}

	video, err := s.app.store.GetVideo(ctx, videoID)
	if err != nil {
		MCPLogError("get_video %s: %v", videoID, err)
		return mcp.NewToolResultErrorFromErr("video not stored - run the pull stage first", err), nil
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Title: %s\n", video.Title))
	buf.WriteString(fmt.Sprintf("URL: %s\n", video.URL()))
	buf.WriteString(fmt.Sprintf("Published: %s\n", video.PublishedAt.Format("2006-01-02")))
	buf.WriteString(fmt.Sprintf("Duration: %d seconds\n", video.Duration))
	buf.WriteString(fmt.Sprintf("Views: %d\n", video.ViewCount))

	if t, err := s.app.store.GetTranscript(ctx, videoID); err == nil {
		if t.OK() {
			buf.WriteString(fmt.Sprintf("Transcript: %s (%s)\n", t.Source, t.Language))
		} else {
			buf.WriteString(fmt.Sprintf("Transcript: failed (%s)\n", t.ErrorKind))
		}
	} else {
		buf.WriteString("Transcript: not fetched\n")
	}

	labeled, err := s.app.store.ListLabeled(ctx)
	if err == nil {
		for _, lv := range labeled {
			if lv.Video.ID == videoID {
				buf.WriteString(fmt.Sprintf("Phase: %s (confidence %.2f)\n", lv.Label.Phase, lv.Label.Confidence))
				if len(lv.Label.Events) > 0 {
					buf.WriteString(fmt.Sprintf("Events: %s\n", strings.Join(lv.Label.Events, ", ")))
				}
				buf.WriteString(fmt.Sprintf("Labeled by: %s\n", lv.Label.Model))
				break
			}
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleGetTranscript implements the get_transcript tool
func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}

	transcript, err := s.app.store.GetTranscript(ctx, videoID)
	if err != nil {
		MCPLogError("get_transcript %s: %v", videoID, err)
		return mcp.NewToolResultErrorFromErr("transcript not stored - run the transcripts stage first", err), nil
	}
	if !transcript.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("transcript fetch failed for %s: %s", videoID, transcript.ErrorKind)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(transcript.Text)},
	}, nil
}

// handleGetRollup implements the get_rollup tool
func (s *MCPServer) handleGetRollup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := s.requestPeriod(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid period", err), nil
	}

	var buf strings.Builder
	if err := s.app.Export(ctx, &buf, period, FormatTable); err != nil {
		MCPLogError("get_rollup: %v", err)
		return mcp.NewToolResultErrorFromErr("building rollup", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleReport implements the macrocycle_report tool
func (s *MCPServer) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := s.requestPeriod(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid period", err), nil
	}

	report, err := s.app.Report(ctx, period)
	if err != nil {
		MCPLogError("macrocycle_report: %v", err)
		return mcp.NewToolResultErrorFromErr("building report", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(report)},
	}, nil
}

// requestPeriod reads the optional period argument, defaulting to month.
func (s *MCPServer) requestPeriod(request mcp.CallToolRequest) (Period, error) {
	raw := request.GetString("period", string(PeriodMonth))
	return ParsePeriod(raw)
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	MCPLogInfo("starting MCP server (transport=%s)", transport)

	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httpServer.Start(addr)
	}

	// Default to stdio transport
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server for advanced configuration
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
