package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultServerOptions(t *testing.T) {
	require.Equal(t, "lua-language-server", DefaultServerOptions.BackendCmd)
	require.NotEmpty(t, DefaultServerOptions.DocService.ShadowRoot)
	require.Equal(t, ".lua", DefaultServerOptions.DocService.ShadowExt)
}

func TestResolveBackendPathExplicitPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-ls")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	got, err := resolveBackendPath(bin)
	require.NoError(t, err)
	require.Equal(t, bin, got)
}

func TestResolveBackendPathMissingCommand(t *testing.T) {
	_, err := resolveBackendPath("definitely-not-a-real-language-server")
	require.Error(t, err)
}

func TestNewServerFailsWithoutBackend(t *testing.T) {
	opts := DefaultServerOptions
	opts.BackendCmd = "definitely-not-a-real-language-server"
	opts.DocService.ShadowRoot = t.TempDir()

	_, err := NewServer(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "backend language server not found")
}
