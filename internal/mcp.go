package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"skillcast-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_video",
		mcp.WithDescription("Get a skill video's catalog record (title, description, video URL and transcript if one exists) as JSON."),
		mcp.WithString("video_id",
			mcp.Description("Video ID from the videos table"),
			mcp.Required(),
		),
	), s.handleGetVideo)

	s.mcpServer.AddTool(mcp.NewTool("get_video_transcript",
		mcp.WithDescription("Get the transcript of a skill video. Stored transcripts are returned immediately. When none exists and generate is true (the default), the video is downloaded and transcribed once, which calls a paid speech-to-text API and can take minutes. The result is stored for all future requests."),
		mcp.WithString("video_id",
			mcp.Description("Video ID from the videos table"),
			mcp.Required(),
		),
		mcp.WithString("url",
			mcp.Description("Video URL to transcribe (default: the video_url stored for the video)"),
		),
		mcp.WithBoolean("generate",
			mcp.Description("Generate a missing transcript (default true). Set false to only read a stored one."),
		),
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("ask_about_video",
		mcp.WithDescription("Answer a question about a skill video using its title, description and transcript. May generate the transcript first."),
		mcp.WithString("video_id",
			mcp.Description("Video ID from the videos table"),
			mcp.Required(),
		),
		mcp.WithString("question",
			mcp.Description("Question about the video"),
			mcp.Required(),
		),
	), s.handleAsk)
}

func (s *MCPServer) handleGetVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	MCPLogInfo("get_video %s", videoID)

	video, err := s.app.Video(ctx, videoID)
	if err != nil {
		MCPLogError("get_video %s: %v", videoID, err)
		return mcp.NewToolResultErrorFromErr("failed to load video", err), nil
	}

	data, err := json.MarshalIndent(video, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to encode video", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	videoURL := request.GetString("url", "")
	generate := request.GetBool("generate", true)

	MCPLogInfo("get_video_transcript %s (generate=%t)", videoID, generate)
	start := time.Now()

	var transcript string
	if generate {
		transcript, err = s.app.TranscriptForVideo(ctx, videoID, videoURL, false)
	} else {
		transcript, err = s.app.StoredTranscript(ctx, videoID)
		if err == nil && transcript == "" {
			return mcp.NewToolResultError(fmt.Sprintf("no stored transcript for %s - call again with generate=true to create one", videoID)), nil
		}
	}
	if err != nil {
		MCPLogError("get_video_transcript %s: %v", videoID, err)
		return mcp.NewToolResultErrorFromErr(transcriptFailureMessage(err), err), nil
	}

	MCPLogInfo("get_video_transcript %s: %d chars in %s", videoID, len(transcript), time.Since(start).Round(time.Millisecond))
	return mcp.NewToolResultText(transcript), nil
}

func (s *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}
	MCPLogInfo("ask_about_video %s", videoID)

	answer, err := s.app.Ask(ctx, videoID, question, false)
	if err != nil {
		MCPLogError("ask_about_video %s: %v", videoID, err)
		return mcp.NewToolResultErrorFromErr("failed to answer question", err), nil
	}
	return mcp.NewToolResultText(answer), nil
}

// transcriptFailureMessage maps pipeline errors to a short hint for the caller
func transcriptFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid request"
	case errors.Is(err, ErrVideoNotFound):
		return "video not found"
	case errors.Is(err, ErrDownload):
		return "failed to download video"
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrBinaryNotFound):
		return "failed to extract audio"
	case errors.Is(err, ErrTranscriptionAuth):
		return "transcription provider rejected the API key"
	case errors.Is(err, ErrTranscriptionUnavailable):
		return "transcription endpoint unavailable"
	case errors.Is(err, ErrPersistence):
		return "transcript generated but could not be saved"
	default:
		return "failed to get transcript"
	}
}

// Start serves MCP over stdio, or over streamable HTTP when transport is "http"
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				MCPLogError("shutting down HTTP transport: %v", err)
			}
		}()

		MCPLogInfo("serving streamable HTTP on %s", addr)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	MCPLogInfo("serving stdio")
	return server.ServeStdio(s.mcpServer)
}
