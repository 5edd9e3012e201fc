package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watermarkhu/mpath/pkg/builder"
	"github.com/watermarkhu/mpath/pkg/dependency"
	"github.com/watermarkhu/mpath/pkg/grammar"
	"github.com/watermarkhu/mpath/pkg/pathengine"
)

func newTestEngine(t *testing.T) *pathengine.Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.m"), []byte("function helper()\nend\n"), 0o644))

	cache, err := grammar.NewCache(16)
	require.NoError(t, err)
	b := builder.New(cache, dependency.New(nil), true, nil)

	e, err := pathengine.New([]string{dir}, b, pathengine.Options{}, nil)
	require.NoError(t, err)
	return e
}

func callTool(t *testing.T, req mcp.CallToolRequest, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) *mcp.CallToolResult {
	t.Helper()
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(newTestEngine(t), "")
	require.NoError(t, err)
	return srv
}

func TestHandleResolveFound(t *testing.T) {
	srv := newTestServer(t)
	res := callTool(t, toolRequest("resolve", map[string]any{"name": "helper"}), srv.handleResolve)
	require.NotNil(t, res)
	assert.False(t, res.IsError)
}

func TestHandleResolveNotFound(t *testing.T) {
	srv := newTestServer(t)
	res := callTool(t, toolRequest("resolve", map[string]any{"name": "nonexistent"}), srv.handleResolve)
	require.NotNil(t, res)
	assert.False(t, res.IsError)
}

func TestHandleResolveMissingNameArgumentErrors(t *testing.T) {
	srv := newTestServer(t)
	res := callTool(t, toolRequest("resolve", map[string]any{}), srv.handleResolve)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}

func TestHandleDependencies(t *testing.T) {
	srv := newTestServer(t)
	srv.engine.ResolveDependencies()
	res := callTool(t, toolRequest("dependencies", map[string]any{"name": "helper"}), srv.handleDependencies)
	require.NotNil(t, res)
	assert.False(t, res.IsError)
}
