package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jwtly10/litweave"
	"github.com/jwtly10/litweave/internal/transformer"
	"github.com/stretchr/testify/require"
)

const testDoc = `# Doc

` + "```lua" + `
print("hi")
` + "```" + `
`

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(testDoc), 0644))
	return path
}

func newTestProcessor() *Processor {
	return NewProcessor(Options{
		Transform: transformer.TransformOptions{
			WriterMode: litweave.ModeTangle,
			NoBackup:   true,
		},
	})
}

func TestProcessSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "config.lit.md")

	results, err := newTestProcessor().ProcessPath(path)
	require.NoError(t, err)
	require.Len(t, results, 1)

	content, err := os.ReadFile(filepath.Join(dir, "config.lua"))
	require.NoError(t, err)
	require.Contains(t, string(content), `print("hi")`)
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.lit.md")
	writeDoc(t, dir, "nested/b.lit.md")

	results, err := newTestProcessor().ProcessPath(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	_, err = os.Stat(filepath.Join(dir, "a.lua"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nested", "b.lua"))
	require.NoError(t, err)
}

func TestProcessRejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.md")
	require.NoError(t, os.WriteFile(path, []byte(testDoc), 0644))

	_, err := newTestProcessor().ProcessPath(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid file extension")
}

func TestFindFilesHonoursGitignore(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "keep.lit.md")
	writeDoc(t, dir, "ignored/skip.lit.md")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored/\n"), 0644))

	files, err := newTestProcessor().FindFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Contains(t, files[0], "keep.lit.md")
}

func TestFindFilesErrorsWhenEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestProcessor().FindFiles(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no .lit.md files found")
}

func TestProcessDirectoryWeaveOnly(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "doc.lit.md")

	p := NewProcessor(Options{
		Transform: transformer.TransformOptions{
			WriterMode: litweave.ModeTangle,
			NoBackup:   true,
		},
		Weave:    true,
		NoTangle: true,
	})

	results, err := p.ProcessPath(dir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = os.Stat(filepath.Join(dir, "doc.html"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "doc.lua"))
	require.True(t, os.IsNotExist(err))
}
