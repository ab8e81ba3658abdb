// Package mcpserver adapts the tool registry and the categories resource to
// the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"expensetracker/internal/categories"
	"expensetracker/internal/log"
	"expensetracker/internal/tools"
)

const (
	Name    = "ExpenseTracker"
	Version = "1.0.0"
)

// ToolCaller runs a named tool.
type ToolCaller interface {
	Descriptors() []tools.Descriptor
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// CategoryReader returns the categories document.
type CategoryReader interface {
	Read() (string, error)
}

// New builds an MCP server exposing every registry tool and the categories
// resource.
func New(registry ToolCaller, cats CategoryReader) *server.MCPServer {
	s := server.NewMCPServer(Name, Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	for _, d := range registry.Descriptors() {
		s.AddTool(toolFor(d), callHandler(registry, d.Name))
	}

	s.AddResource(
		mcp.NewResource(categories.URI, "categories",
			mcp.WithResourceDescription("Load categories from JSON file."),
			mcp.WithMIMEType(categories.MIMEType),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			text, err := cats.Read()
			if err != nil {
				log.FromContext(ctx).WithComponent(log.ComponentMCP).WarnContext(ctx, "Failed to read categories resource",
					log.FieldError, err.Error(),
					log.FieldErrorType, log.ErrorTypeInternal)
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      categories.URI,
					MIMEType: categories.MIMEType,
					Text:     text,
				},
			}, nil
		},
	)

	return s
}

// Handler serves s over streamable HTTP.
func Handler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

func toolFor(d tools.Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, p := range d.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, append(props, integerType)...))
		case tools.TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(d.Name, opts...)
}

// integerType narrows a number property to JSON Schema "integer".
func integerType(schema map[string]any) {
	schema["type"] = "integer"
}

// callHandler turns every tool failure into an error result so the client
// sees the message instead of a protocol error.
func callHandler(registry ToolCaller, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := registry.Call(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body, err := json.Marshal(result)
		if err != nil {
			log.FromContext(ctx).WithComponent(log.ComponentMCP).ErrorContext(ctx, "Failed to encode tool result",
				log.FieldTool, name, log.FieldError, err.Error())
			return mcp.NewToolResultError(fmt.Sprintf("encode %s result: %v", name, err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
