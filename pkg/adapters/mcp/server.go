// Package mcp exposes the agent as an MCP tool so MCP-capable clients can
// drive the same dialogue over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/empassist/empassist"
	"github.com/empassist/empassist/pkg/tools"
)

// Responder produces the next assistant utterance for a session. The root
// Agent satisfies this.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (string, error)
}

// ChatResponse is the structured payload returned by the chat tool.
type ChatResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"Session identifier to pass on the next call"`
	Answer    string `json:"answer" jsonschema_description:"The assistant's reply"`
}

// Server wraps the agent and exposes it as an MCP server.
type Server struct {
	responder Responder
	registry  *tools.Registry
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithToolRegistry additionally exposes the registry's backend tools
// (validation, update) directly, next to the conversational chat tool.
func WithToolRegistry(registry *tools.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

// NewServer creates an MCP server over the responder.
func NewServer(responder Responder, opts ...Option) *Server {
	s := &Server{
		responder: responder,
		mcpServer: server.NewMCPServer("empassist-mcp", strings.TrimSpace(empassist.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one message to the employee self-service assistant. "+
			"Pass the returned session_id on subsequent calls to continue the conversation."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("session_id", mcp.Description("Session to continue (omit to start a new one)")),
		mcp.WithOutputSchema[ChatResponse](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	if s.registry == nil {
		return
	}
	for _, name := range s.registry.Names() {
		s.registerBackendTool(name)
	}
}

// registerBackendTool publishes one registry tool as a passthrough MCP tool.
// Arguments are forwarded untyped; the registry decodes and validates them.
func (s *Server) registerBackendTool(name string) {
	var tool mcp.Tool
	switch name {
	case tools.ToolNameValidation:
		tool = mcp.NewTool(name,
			mcp.WithDescription("Validate an employee by ID, first name and last name."),
			mcp.WithString("employee_id", mcp.Required(), mcp.Description("Employee ID, e.g. EMP01012")),
			mcp.WithString("first_name", mcp.Required(), mcp.Description("First name")),
			mcp.WithString("last_name", mcp.Required(), mcp.Description("Last name")),
		)
	case tools.ToolNameUpdate:
		tool = mcp.NewTool(name,
			mcp.WithDescription("Update profile fields of a validated employee. Omit a field to leave it unchanged."),
			mcp.WithString("employee_id", mcp.Required(), mcp.Description("Employee ID, e.g. EMP01012")),
			mcp.WithString("address", mcp.Description("New address")),
			mcp.WithString("department", mcp.Description("New department")),
			mcp.WithString("job_title", mcp.Description("New job title")),
		)
	default:
		tool = mcp.NewTool(name, mcp.WithDescription("Backend tool "+name))
	}

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.registry.Execute(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err)), nil
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	prompt, _ := args["prompt"].(string)
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = "mcp_" + uuid.NewString()
	}

	answer, err := s.responder.Respond(ctx, sessionID, prompt)
	if err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{SessionID: sessionID, Answer: answer}, nil
}
