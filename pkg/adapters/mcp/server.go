package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/panelstate"
	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/aretw0/panelstate/pkg/session"
	"github.com/aretw0/panelstate/pkg/treeio"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatesURI is the resource listing every live entry.
const StatesURI = "panelstate://states"

// StateResponse is the structured result of the tools that expose an entry.
type StateResponse struct {
	ID      string `json:"id" jsonschema_description:"Entry identifier"`
	Created bool   `json:"created,omitempty" jsonschema_description:"Whether this call created the entry"`
	State   any    `json:"state" jsonschema_description:"The whole state of the entry"`
	Value   any    `json:"value,omitempty" jsonschema_description:"The value read through the shape, if one was given"`
	Found   bool   `json:"found,omitempty" jsonschema_description:"Whether the shape matched anything"`
	Patch   any    `json:"patch,omitempty" jsonschema_description:"The change applied by set_state"`
}

// Server exposes a session manager as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("panelstate-mcp", strings.TrimSpace(panelstate.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_or_create_state",
		mcp.WithDescription("Return the state of a panel, creating it from defaults and initial state on first use."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Panel identifier")),
		mcp.WithString("defaults", mcp.Description("JSON or YAML tree read when the state has no truthy value")),
		mcp.WithString("initial", mcp.Description("JSON or YAML object the state starts from")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetOrCreate))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Read a panel's state. With a shape, only the paths it names are returned."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Panel identifier")),
		mcp.WithString("shape", mcp.Description("JSON or YAML tree whose keys select what to read")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("set_state",
		mcp.WithDescription("Merge a partial tree into a panel's state."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Panel identifier")),
		mcp.WithString("partial", mcp.Required(), mcp.Description("JSON or YAML tree to merge")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetState))

	s.mcpServer.AddTool(mcp.NewTool("reset_state",
		mcp.WithDescription("Drop a panel's state. The next get_or_create_state starts over."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Panel identifier")),
	), s.handleResetState)

	s.mcpServer.AddTool(mcp.NewTool("save_state",
		mcp.WithDescription("Send a panel's state to its host tagged with an action."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Panel identifier")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action tag, e.g. commit")),
	), s.handleSaveState)

	s.mcpServer.AddTool(mcp.NewTool("list_states",
		mcp.WithDescription("List the identifiers of every live panel."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string][]string{"ids": s.sessions.IDs()})
	})

	s.mcpServer.AddTool(mcp.NewTool("merge_trees",
		mcp.WithDescription("Deep-merge a JSON array of trees, later trees winning."),
		mcp.WithString("trees", mcp.Required(), mcp.Description("JSON array of trees")),
	), s.handleMerge)

	s.mcpServer.AddTool(mcp.NewTool("diff_trees",
		mcp.WithDescription("Compute the patch that turns before into after."),
		mcp.WithString("before", mcp.Description("JSON or YAML tree")),
		mcp.WithString("after", mcp.Description("JSON or YAML tree")),
	), s.handleDiff)
}

// Handler methods for structured tools

func (s *Server) handleGetOrCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	id, _ := args["id"].(string)
	defaults, err := treeArg(args, "defaults")
	if err != nil {
		return StateResponse{}, err
	}
	initial, err := treeArg(args, "initial")
	if err != nil {
		return StateResponse{}, err
	}

	state, created, err := s.sessions.GetOrCreate(id, defaults, initial)
	if err != nil {
		return StateResponse{}, fmt.Errorf("get_or_create_state failed: %w", err)
	}
	return StateResponse{ID: id, Created: created, State: state.Value()}, nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	id, _ := args["id"].(string)
	shape, err := treeArg(args, "shape")
	if err != nil {
		return StateResponse{}, err
	}

	resp := StateResponse{ID: id}
	err = s.sessions.WithEntry(id, func(e *registry.Entry) error {
		// State and value are read under one lock so they agree.
		resp.State = e.State().Value()
		if shape != nil {
			value := e.Get(shape)
			resp.Value, resp.Found = value.Value(), value != nil
		}
		return nil
	})
	if err != nil {
		return StateResponse{}, fmt.Errorf("get_state failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleSetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	id, _ := args["id"].(string)
	partial, err := treeArg(args, "partial")
	if err != nil {
		return StateResponse{}, err
	}
	if partial == nil {
		return StateResponse{}, fmt.Errorf("%w: partial is required", domain.ErrInvalidTree)
	}

	var state, patch *domain.Tree
	err = s.sessions.WithEntry(id, func(e *registry.Entry) error {
		before := e.State()
		e.Set(partial)
		patch = domain.Diff(before, e.State())
		state = e.State().Clone()
		return nil
	})
	if err != nil {
		return StateResponse{}, fmt.Errorf("set_state failed: %w", err)
	}
	return StateResponse{ID: id, State: state.Value(), Patch: patch.Clone().Value()}, nil
}

func (s *Server) handleResetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["id"].(string)
	if err := s.sessions.Reset(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset_state failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reset %s", id)), nil
}

func (s *Server) handleSaveState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, _ := args["id"].(string)
	action, _ := args["action"].(string)

	if err := s.sessions.Save(ctx, id, action); err != nil {
		s.logger.Warn("MCP save_state failed", "id", id, "action", action, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("save_state failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved %s as %q", id, action)), nil
}

func (s *Server) handleMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, _ := request.GetArguments()["trees"].(string)
	var trees []*domain.Tree
	if err := json.Unmarshal([]byte(raw), &trees); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trees must be a JSON array: %v", err)), nil
	}
	return jsonResult(domain.Merge(trees...))
}

func (s *Server) handleDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	before, err := treeArg(args, "before")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	after, err := treeArg(args, "after")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]*domain.Tree{"patch": domain.Diff(before, after)})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StatesURI, "Live panel states",
		mcp.WithMIMEType("application/json"),
	), s.readStates)
}

func (s *Server) readStates(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap := s.sessions.Snapshot()
	out := domain.NewMap()
	for _, id := range s.sessions.IDs() {
		if state, ok := snap[id]; ok {
			out.Set(id, state)
		}
	}
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode states: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StatesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// treeArg reads an optional tree argument. Strings are parsed as JSON or
// YAML; objects sent inline by the client are converted directly.
func treeArg(args map[string]interface{}, name string) (*domain.Tree, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	if str, ok := v.(string); ok {
		if strings.TrimSpace(str) == "" {
			return nil, nil
		}
		t, err := treeio.Parse([]byte(str))
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		return t, nil
	}
	t, err := domain.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", name, err)
	}
	return t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

