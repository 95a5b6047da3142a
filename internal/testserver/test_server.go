// Package testserver wires a SQLite-backed activity service behind an MCP
// server for tests, reachable in memory and over HTTP.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/mcp"
	"github.com/ganot/convlog/internal/sqlite"
	"github.com/ganot/convlog/internal/transport"
)

type TestServer struct {
	Service *activity.Service
	DB      *sqlite.DB
	Session *sdkmcp.ClientSession
	HTTP    *httptest.Server
	Token   string
}

// New starts a server over a fresh in-memory database. HTTP requests must
// carry token as a bearer token.
func New(t *testing.T, token string, opts activity.Options) *TestServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	svc := activity.NewService(sqlite.NewStore(db), opts, nil)
	server := mcp.NewServer(mcp.Config{Service: svc})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	httpServer := httptest.NewServer(transport.NewServer(
		transport.NewMCPHandler(server),
		transport.AuthMiddleware(transport.StaticToken(token)),
		nil,
	))

	t.Cleanup(func() {
		httpServer.Close()
		_ = session.Close()
		_ = serverSession.Close()
		_ = db.Close()
	})

	return &TestServer{
		Service: svc,
		DB:      db,
		Session: session,
		HTTP:    httpServer,
		Token:   token,
	}
}

// CallTool invokes a tool over the in-memory session.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	result, err := ts.Session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

// CallToolInto invokes a tool that must succeed and decodes its JSON text content.
func (ts *TestServer) CallToolInto(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	result := ts.CallTool(t, name, args)
	require.False(t, result.IsError, "tool %s returned error: %s", name, Text(result))
	require.NoError(t, json.Unmarshal([]byte(Text(result)), out), "decode %s result", name)
}

// Text concatenates the text content of a tool result.
func Text(result *sdkmcp.CallToolResult) string {
	var text string
	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			text += textContent.Text
		}
	}
	return text
}
