// Package mcp exposes the idea service as Model Context Protocol tools: a
// JSON-RPC envelope served over HTTP POST and the official SDK server over
// stdio.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/service"
)

const (
	ProtocolVersion = "2024-11-05"
	serverName      = "sfl"
	maxBodyBytes    = 4 << 20
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the message carries no id at all. An
// explicit null id still gets a reply.
func (r *request) isNotification() bool {
	return len(r.ID) == 0
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Server answers JSON-RPC tool requests.
type Server struct {
	version string
	tools   []Tool
	byName  map[string]Tool
	log     *logger.Logger
}

func NewServer(svc *service.Service, version string, log *logger.Logger) *Server {
	tools := Catalog(svc)
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Server{version: version, tools: tools, byName: byName, log: log.With("component", "mcp")}
}

// ServeHTTP handles one POST carrying a message or a batch. Requests that
// only contain notifications are answered with 202 and no body.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, codeParseError, "Parse error"))
		return
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse(nil, codeParseError, "Parse error"))
			return
		}
		if len(batch) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse(nil, codeInvalidRequest, "Invalid Request"))
			return
		}
		replies := make([]*response, 0, len(batch))
		for _, raw := range batch {
			if resp := s.handleRaw(r.Context(), raw); resp != nil {
				replies = append(replies, resp)
			}
		}
		if len(replies) == 0 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, replies)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, codeParseError, "Parse error"))
		return
	}
	resp := s.handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRaw(ctx context.Context, raw json.RawMessage) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, codeInvalidRequest, "Invalid Request")
	}
	return s.handle(ctx, &req)
}

// handle executes one message. Notifications run but get no reply.
func (s *Server) handle(ctx context.Context, req *request) *response {
	resp := s.dispatch(ctx, req)
	if req.isNotification() {
		return nil
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *request) *response {
	if req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "Invalid Request")
	}

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"serverInfo":      map[string]string{"name": serverName, "version": s.version},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		})
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		list := make([]toolDescriptor, 0, len(s.tools))
		for _, t := range s.tools {
			list = append(list, toolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		return resultResponse(req.ID, map[string]any{"tools": list})
	case "tools/call":
		return s.callTool(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found: "+req.Method)
	}
}

// callTool always succeeds at the envelope level once the params parse;
// tool failures are reported inside the result with isError set.
func (s *Server) callTool(ctx context.Context, req *request) *response {
	var params callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, codeInvalidParams, "Invalid params")
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "Missing tool name")
	}

	var text string
	var isErr bool
	tool, ok := s.byName[params.Name]
	if !ok {
		text, isErr = "Error: Unknown tool: "+params.Name, true
	} else {
		out, err := tool.call(ctx, params.Arguments)
		if err != nil {
			if apierr.KindOf(err) == apierr.Internal {
				s.log.Error("tool call failed", "tool", params.Name, "error", err)
			} else {
				s.log.Debug("tool call rejected", "tool", params.Name, "error", err)
			}
		}
		text, isErr = renderResult(out, err)
	}
	return resultResponse(req.ID, callResult{
		Content: []textContent{{Type: "text", Text: text}},
		IsError: isErr,
	})
}

func resultResponse(id json.RawMessage, result any) *response {
	return &response{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

func errorResponse(id json.RawMessage, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: normalizeID(id), Error: &rpcError{Code: code, Message: msg}}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewStdioServer registers the catalog on an SDK server, ready for
// Run(ctx, &mcp.StdioTransport{}).
func NewStdioServer(svc *service.Service, version string) *gomcp.Server {
	srv := gomcp.NewServer(&gomcp.Implementation{Name: serverName, Version: version}, nil)
	for _, t := range Catalog(svc) {
		t.register(srv)
	}
	return srv
}
