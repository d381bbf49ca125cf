package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/tools"
)

type echoArgs struct {
	Value int `json:"value"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, r.Register(tools.Tool{
		Name:        "echo",
		Description: "echo the value",
		InputSchema: tools.Object(map[string]tools.Schema{"value": tools.Integer("value", 0, 100)}, "value"),
		Handler: func(_ context.Context, raw json.RawMessage) (any, error) {
			var args echoArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
			}
			return map[string]int{"value": args.Value}, nil
		},
	}))
	require.NoError(t, r.Register(tools.Tool{
		Name:        "broken",
		Description: "always fails",
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return nil, fmt.Errorf("load: %w", domain.ErrConfiguration)
		},
	}))
	return NewServer(r, ServerInfo{Name: "appstore-connect", Version: "test"})
}

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

func TestServer_Handle(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		request   string
		wantNil   bool
		wantCode  int
		checkJSON func(t *testing.T, result map[string]any)
	}{
		{
			name:    "initialize",
			request: `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
			checkJSON: func(t *testing.T, result map[string]any) {
				assert.Equal(t, protocolVersion, result["protocolVersion"])
				info := result["serverInfo"].(map[string]any)
				assert.Equal(t, "appstore-connect", info["name"])
				assert.Contains(t, result["capabilities"], "tools")
			},
		},
		{
			name:    "initialized notification has no response",
			request: `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			wantNil: true,
		},
		{
			name:    "ping",
			request: `{"jsonrpc":"2.0","id":"p","method":"ping"}`,
			checkJSON: func(t *testing.T, result map[string]any) {
				assert.Empty(t, result)
			},
		},
		{
			name:    "tools list",
			request: `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
			checkJSON: func(t *testing.T, result map[string]any) {
				list := result["tools"].([]any)
				require.Len(t, list, 2)
				first := list[0].(map[string]any)
				assert.Equal(t, "broken", first["name"])
				second := list[1].(map[string]any)
				assert.Equal(t, "echo", second["name"])
				schema := second["inputSchema"].(map[string]any)
				assert.Equal(t, "object", schema["type"])
			},
		},
		{
			name:    "tool call",
			request: `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"value":42}}}`,
			checkJSON: func(t *testing.T, result map[string]any) {
				assert.NotContains(t, result, "isError")
				text := result["content"].([]any)[0].(map[string]any)["text"].(string)
				assert.JSONEq(t, `{"value":42}`, text)
			},
		},
		{
			name:    "tool failure is a result with isError",
			request: `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"broken"}}`,
			checkJSON: func(t *testing.T, result map[string]any) {
				assert.Equal(t, true, result["isError"])
				text := result["content"].([]any)[0].(map[string]any)["text"].(string)
				var toolErr map[string]string
				require.NoError(t, json.Unmarshal([]byte(text), &toolErr))
				assert.Equal(t, "broken", toolErr["operation"])
				assert.Equal(t, tools.CodeConfiguration, toolErr["code"])
			},
		},
		{
			name:     "call without name",
			request:  `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{}}`,
			wantCode: CodeInvalidParams,
		},
		{
			name:     "unknown method",
			request:  `{"jsonrpc":"2.0","id":6,"method":"resources/list"}`,
			wantCode: CodeMethodNotFound,
		},
		{
			name:     "wrong version",
			request:  `{"jsonrpc":"1.0","id":7,"method":"ping"}`,
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "garbage",
			request:  `{not json`,
			wantCode: CodeParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.Handle(testContext(), []byte(tt.request))
			if tt.wantNil {
				assert.Nil(t, resp)
				return
			}
			require.NotNil(t, resp)
			assert.Equal(t, jsonRPCVersion, resp.JSONRPC)

			body, err := json.Marshal(resp)
			require.NoError(t, err)
			var decoded struct {
				Result map[string]any `json:"result"`
				Error  *RPCError      `json:"error"`
			}
			require.NoError(t, json.Unmarshal(body, &decoded))

			if tt.wantCode != 0 {
				require.NotNil(t, decoded.Error)
				assert.Equal(t, tt.wantCode, decoded.Error.Code)
				return
			}
			require.Nil(t, decoded.Error)
			tt.checkJSON(t, decoded.Result)
		})
	}
}

func TestServer_ServeEchoesIDs(t *testing.T) {
	// Given a session with a notification and two requests
	s := newTestServer(t)
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"echo","arguments":{"value":7}}}`,
	}, "\n"))
	var out strings.Builder

	// When the server drains stdin
	err := s.Serve(testContext(), in, &out)

	// Then each request gets exactly one response line carrying its id
	require.NoError(t, err)
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	var ids []string
	for scanner.Scan() {
		var resp struct {
			ID json.RawMessage `json:"id"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		ids = append(ids, string(resp.ID))
	}
	assert.Equal(t, []string{`1`, `"abc"`}, ids)
}

func TestServer_ServeStopsOnCancelledContext(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	var out strings.Builder
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
