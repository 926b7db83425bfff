// Package mcp exposes a running engine to AI agents as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/control"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource under which the loaded graph document is published.
const GraphURI = "parley://graph"

// ConversationList is the structured result of list_conversations.
type ConversationList struct {
	Conversations []control.Conversation `json:"conversations" jsonschema_description:"Running conversations"`
}

// Server wraps a control.Controller and exposes it as an MCP server.
type Server struct {
	control   *control.Controller
	logger    *slog.Logger
	version   string
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Stdio servers must log to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a new MCP server for ctrl.
func NewServer(ctrl *control.Controller, opts ...Option) *Server {
	s := &Server{
		control: ctrl,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("parley-mcp", s.version)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List the conversations the engine is running, with the node each one is on."),
		mcp.WithOutputSchema[ConversationList](),
	), mcp.NewStructuredToolHandler(s.handleListConversations))

	s.mcpServer.AddTool(mcp.NewTool("list_flags",
		mcp.WithDescription("List the flags the loaded graph references."),
	), s.handleListFlags)

	s.mcpServer.AddTool(mcp.NewTool("raise_flag",
		mcp.WithDescription("Raise a flag on every running conversation, releasing blocks that wait for it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flag name")),
	), s.handleRaiseFlag)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a conversation as a Mermaid flowchart with active nodes highlighted."),
		mcp.WithString("conversation", mcp.Required(), mcp.Description("Conversation id")),
	), s.handleGetGraph)
}

func (s *Server) handleListConversations(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (ConversationList, error) {
	convs, err := s.control.Conversations(ctx)
	if err != nil {
		return ConversationList{}, err
	}
	return ConversationList{Conversations: convs}, nil
}

func (s *Server) handleListFlags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.control.Flags(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list flags failed: %v", err)), nil
	}
	data, _ := json.Marshal(names)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRaiseFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.control.RaiseFlag(ctx, name); err != nil {
		s.logger.Warn("MCP raise_flag rejected", "flag", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("raised %s", name)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("conversation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.control.Mermaid(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Loaded conversation graph",
		mcp.WithMIMEType("application/yaml"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.control.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/yaml",
			Text:     string(doc),
		},
	}, nil
}
