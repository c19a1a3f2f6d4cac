package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

type lspServer interface {
	SendDiagnostics(ctx context.Context, params lsp.PublishDiagnosticsParams) error
}

// Backend is the real language server litweave-ls proxies to. It speaks
// the embedded language of the shadow files (lua-language-server by
// default).
type Backend struct {
	conn *jsonrpc2.Conn
	cmd  *exec.Cmd

	server lspServer
}

func NewBackend(command string, server lspServer) (*Backend, error) {
	backendPath, err := resolveBackendPath(command)
	if err != nil {
		return nil, fmt.Errorf("backend language server not found: %w", err)
	}
	cmd := exec.Command(backendPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	rw := NewRWC(stdout, stdin)
	stream := jsonrpc2.NewBufferedStream(rw, jsonrpc2.VSCodeObjectCodec{})

	b := &Backend{
		cmd:    cmd,
		server: server,
	}

	b.conn = jsonrpc2.NewConn(
		context.Background(),
		stream,
		jsonrpc2.HandlerWithError(b.HandleResponse),
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start backend language server: %w", err)
	}

	go func() {
		err := cmd.Wait()
		if err != nil {
			slog.Error("backend language server exited", "error", err)
		}
	}()

	slog.Debug("backend language server started", "path", backendPath)

	return b, nil
}

// HandleResponse handles notifications from the backend language server
// and forwards them to the proxy
func (b *Backend) HandleResponse(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	slog.Debug("received notification from backend", "method", req.Method)
	switch req.Method {
	case "textDocument/publishDiagnostics":
		var params lsp.PublishDiagnosticsParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}

		// Diagnostics arrive against the shadow file; remap to the
		// literate document they came from
		originalURI, exists := b.server.(*Server).getShadowToOriginalURI(string(params.URI))
		if !exists {
			return nil, fmt.Errorf("no mapping for shadow URI: %s", params.URI)
		}

		slog.Debug("forwarding diagnostics",
			"shadow_uri", params.URI,
			"original_uri", originalURI,
			"diagnostic_count", len(params.Diagnostics))

		params.URI = lsp.DocumentURI(originalURI)
		return nil, b.server.SendDiagnostics(ctx, params)
	}
	return nil, nil
}

// ForwardRequest forwards a request from the proxy to the backend
func (b *Backend) ForwardRequest(method string, params interface{}) (interface{}, error) {
	var result interface{}
	slog.Debug("sending request to backend", "method", method)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.conn.Call(ctx, method, params, &result)
	return result, err
}

// resolveBackendPath locates the backend language server binary. An
// explicit path is honoured as-is; a bare command is searched in common
// installation directories and then PATH.
func resolveBackendPath(command string) (string, error) {
	if _, err := os.Stat(command); err == nil {
		return command, nil
	}

	commonDirs := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/usr/bin",
	}

	for _, dir := range commonDirs {
		candidate := dir + "/" + command
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return exec.LookPath(command)
}
