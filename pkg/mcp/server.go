package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/tools"
)

const (
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"
	maxMessageSize  = 8 << 20
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Request is a JSON-RPC request or notification. Notifications carry no id.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r Request) isNotification() bool {
	return len(r.ID) == 0
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolDescriptor struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema tools.Schema `json:"inputSchema"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Server answers MCP requests over newline delimited JSON-RPC.
type Server struct {
	registry tools.Registry
	info     ServerInfo

	writeMu sync.Mutex
}

func NewServer(registry tools.Registry, info ServerInfo) *Server {
	return &Server{registry: registry, info: info}
}

// Serve reads requests from in until EOF or ctx is done and writes responses to out.
// Requests are handled one at a time.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := zerolog.Ctx(ctx)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	logger.Info().Str("server", s.info.Name).Str("version", s.info.Version).Msg("mcp server listening on stdio")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := s.Handle(ctx, line)
		if resp == nil {
			continue
		}
		if err := s.write(out, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	logger.Info().Msg("stdin closed, mcp server stopping")
	return nil
}

// Handle processes one raw message and returns the response, or nil for notifications.
func (s *Server) Handle(ctx context.Context, raw []byte) *Response {
	logger := zerolog.Ctx(ctx)

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Warn().Err(err).Msg("unparseable request")
		return errorResponse(json.RawMessage("null"), CodeParseError, "parse error")
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}

	logger.Debug().Str("method", req.Method).RawJSON("id", idOrNull(req.ID)).Msg("request received")

	result, rpcErr := s.dispatch(ctx, req)
	if req.isNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": s.info,
		}, nil
	case "notifications/initialized", "notifications/cancelled":
		return nil, nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		list := s.registry.List()
		descriptors := make([]toolDescriptor, 0, len(list))
		for _, tool := range list {
			descriptors = append(descriptors, toolDescriptor{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
		return map[string]any{"tools": descriptors}, nil
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "tools/call needs a tool name"}
		}
		return s.callTool(ctx, params), nil
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func (s *Server) callTool(ctx context.Context, params callParams) callResult {
	result, toolErr := s.registry.Call(ctx, params.Name, params.Arguments)
	if toolErr != nil {
		return textResult(toolErr, true)
	}
	return textResult(result, false)
}

func textResult(v any, isError bool) callResult {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return callResult{
			Content: []content{{Type: "text", Text: fmt.Sprintf(`{"code":"internal_error","message":%q}`, err.Error())}},
			IsError: true,
		}
	}
	return callResult{Content: []content{{Type: "text", Text: string(body)}}, IsError: isError}
}

func (s *Server) write(out io.Writer, resp *Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = out.Write(append(body, '\n'))
	return err
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: idOrNull(id), Error: &RPCError{Code: code, Message: message}}
}

func idOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
