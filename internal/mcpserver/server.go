// Package mcpserver exposes the email tools over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
)

// Version is reported to MCP clients.
const Version = "v1.0.0"

type executor interface {
	Execute(ctx context.Context, call model.ToolInvocation) (string, error)
}

// DraftResponse is the structured result of the drafting tool.
type DraftResponse struct {
	Subject string `json:"subject" jsonschema:"email subject line"`
	Body    string `json:"body" jsonschema:"email body"`
}

// SendResponse is the structured result of the sending tool.
type SendResponse struct {
	Success    bool            `json:"success" jsonschema:"whether the batch was attempted"`
	SentCount  int             `json:"sent_count" jsonschema:"number of recipients accepted by the provider"`
	TotalCount int             `json:"total_count" jsonschema:"number of recipients in the request"`
	Results    map[string]bool `json:"results" jsonschema:"per-recipient delivery result"`
	Message    string          `json:"message" jsonschema:"human readable summary"`
}

// NewServer creates an MCP server whose tools run through tools, so calls
// share the chat loop's tracing and metrics.
func NewServer(tools executor) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "announcement-agent", Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        tool.GenerateEmail,
		Description: "Generate a professional company announcement email. Returns the subject and body.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tool.GenerateArgs) (*mcp.CallToolResult, DraftResponse, error) {
		var out DraftResponse
		err := call(ctx, tools, tool.GenerateEmail, in, &out)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        tool.SendEmail,
		Description: "Send an email to a list of employees. Returns per-recipient results.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tool.SendArgs) (*mcp.CallToolResult, SendResponse, error) {
		var out SendResponse
		err := call(ctx, tools, tool.SendEmail, in, &out)
		return nil, out, err
	})

	return server
}

func call(ctx context.Context, tools executor, name string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}

	result, err := tools.Execute(ctx, model.ToolInvocation{
		ID:        "mcp_" + uuid.NewString(),
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}

	if err := json.Unmarshal([]byte(result), out); err != nil {
		return fmt.Errorf("%s returned malformed output: %w", name, err)
	}
	return nil
}
