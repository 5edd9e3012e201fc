// Package mcpserver exposes the path engine as an MCP server over stdio:
// resolve, dependencies, and namespace_members tools, giving the indexer a
// programmatic surface beyond the CLI. Every tool call can optionally be
// recorded to an audit log.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/watermarkhu/mpath/pkg/node"
	"github.com/watermarkhu/mpath/pkg/pathengine"
)

const serverVersion = "0.1.0-dev"

// Server wraps an *pathengine.Engine behind MCP tool calls. The engine is
// single-threaded and non-reentrant; every handler here runs on mcp-go's
// single request-handling goroutine, so no additional locking is
// introduced.
type Server struct {
	mcpServer *server.MCPServer
	engine    *pathengine.Engine
	audit     *auditLog
}

// NewServer builds a Server backed by engine. auditLogPath may be empty, in
// which case tool calls are not recorded.
func NewServer(engine *pathengine.Engine, auditLogPath string) (*Server, error) {
	audit, err := newAuditLog(auditLogPath)
	if err != nil {
		return nil, err
	}

	s := &Server{engine: engine, audit: audit}

	s.mcpServer = server.NewMCPServer("mpath", serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: resolveTool(), Handler: s.handleResolve},
		server.ServerTool{Tool: dependenciesTool(), Handler: s.handleDependencies},
		server.ServerTool{Tool: namespaceMembersTool(), Handler: s.handleNamespaceMembers},
	)

	return s, nil
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close releases the audit log file, if one is open.
func (s *Server) Close() error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Close()
}

func resolveTool() mcp.Tool {
	return mcp.NewTool("resolve",
		mcp.WithDescription("Resolve a name to the node it refers to under the current search path"),
		mcp.WithString("name", mcp.Required(), mcp.Description("The name or fully qualified dotted name to resolve")),
		mcp.WithString("context_dir", mcp.Description("Optional directory to check as a local namespace before the global one")),
	)
}

func (s *Server) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := now()
	name, err := req.RequireString("name")
	if err != nil {
		s.audit.record(start, errEntry("resolve", err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	var local []string
	if dir := req.GetString("context_dir", ""); dir != "" {
		local = []string{dir}
	}
	n, ok := s.engine.Resolve(name, local)
	entry := auditEntry{Tool: "resolve", Name: name, Resolved: ok}
	if ok {
		entry.Kind = n.Kind.String()
	}
	s.audit.record(start, entry)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("%q did not resolve", name)), nil
	}
	return mcp.NewToolResultText(describeNode(n)), nil
}

func dependenciesTool() mcp.Tool {
	return mcp.NewTool("dependencies",
		mcp.WithDescription("List the resolved dependencies and dependants of a named node"),
		mcp.WithString("name", mcp.Required(), mcp.Description("The name to look up")),
	)
}

func (s *Server) handleDependencies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := now()
	name, err := req.RequireString("name")
	if err != nil {
		s.audit.record(start, errEntry("dependencies", err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.engine.Resolve(name, nil)
	entry := auditEntry{Tool: "dependencies", Name: name, Resolved: ok}
	if !ok {
		s.audit.record(start, entry)
		return mcp.NewToolResultText(fmt.Sprintf("%q did not resolve", name)), nil
	}
	entry.Kind = n.Kind.String()
	entry.DependencyCount = len(n.Dependencies)
	entry.DependantCount = len(n.Dependants)
	entry.UnresolvedCount = len(n.UnresolvedDependencies)
	s.audit.record(start, entry)
	text := fmt.Sprintf("%s (%s)\ndependencies: %s\ndependants: %s\nunresolved: %v",
		n.Fqdm, n.Kind, joinNodeNames(n.Dependencies), joinNodeNames(n.Dependants), n.UnresolvedDependencies)
	return mcp.NewToolResultText(text), nil
}

func namespaceMembersTool() mcp.Tool {
	return mcp.NewTool("namespace_members",
		mcp.WithDescription("List the members of a package, by its fqdm prefix"),
		mcp.WithString("package", mcp.Required(), mcp.Description("The package's fqdm, e.g. pkg.subpkg")),
	)
}

func (s *Server) handleNamespaceMembers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := now()
	name, err := req.RequireString("package")
	if err != nil {
		s.audit.record(start, errEntry("namespace_members", err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.engine.Resolve(name, nil)
	if !ok || n.Kind != node.KindPackage || n.Package == nil {
		s.audit.record(start, auditEntry{Tool: "namespace_members", Name: name, Resolved: false})
		return mcp.NewToolResultText(fmt.Sprintf("%q is not a known package", name)), nil
	}
	var members []string
	for _, c := range n.Package.Classdefs {
		members = append(members, c.Fqdm)
	}
	for _, f := range n.Package.Functions {
		members = append(members, f.Fqdm)
	}
	for _, p := range n.Package.Subpackages {
		members = append(members, p.Fqdm)
	}
	s.audit.record(start, auditEntry{
		Tool: "namespace_members", Name: name, Resolved: true,
		Kind: n.Kind.String(), MemberCount: len(members),
	})
	return mcp.NewToolResultText(fmt.Sprintf("%v", members)), nil
}

func describeNode(n *node.Node) string {
	return fmt.Sprintf("%s (%s) at %s", n.Fqdm, n.Kind, n.Path)
}

func joinNodeNames(nodes []*node.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Fqdm
	}
	return out
}
