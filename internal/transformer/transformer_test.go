package transformer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwtly10/litweave"
	"github.com/stretchr/testify/require"
)

const basicDoc = `<!-- @pragma output: init.lua -->

# Config

` + "```lua" + `
<<opts>>
print("done")
` + "```" + `

` + "```lua \"opts\"" + `
vim.o.number = true
` + "```" + `
`

func sourceFor(t *testing.T, content string) (DocumentSource, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.lit.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return DocumentSource{
		Content:  f,
		Metadata: litweave.MetaData{Source: path, AbsSource: path},
	}, dir
}

func TestTransformWritesExpandedOutput(t *testing.T) {
	src, dir := sourceFor(t, basicDoc)

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeTangle,
		NoBackup:   true,
	})

	outPath, err := tr.Transform(src)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "init.lua"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "vim.o.number = true\nprint(\"done\")\n")
	require.True(t, strings.HasPrefix(string(content), "-- Generated by litweave"))
}

func TestTransformRequiresPragmaOutputWhenAsked(t *testing.T) {
	doc := strings.Replace(basicDoc, "<!-- @pragma output: init.lua -->\n", "", 1)
	src, _ := sourceFor(t, doc)

	tr := NewTransformer(TransformOptions{
		WriterMode:          litweave.ModeTangle,
		NoBackup:            true,
		RequirePragmaOutput: true,
	})

	_, err := tr.Transform(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "pragma key 'output' is required")
}

func TestTransformCreatesBackupOfExistingOutput(t *testing.T) {
	src, dir := sourceFor(t, basicDoc)

	outPath := filepath.Join(dir, "init.lua")
	require.NoError(t, os.WriteFile(outPath, []byte("old content"), 0644))

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeTangle,
	})

	_, err := tr.Transform(src)
	require.NoError(t, err)

	entries, err := filepath.Glob(outPath + ".*.bak")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	backup, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	require.Equal(t, "old content", string(backup))
}

func TestTransformRejectsDocWithoutMacros(t *testing.T) {
	src, _ := sourceFor(t, "# Only prose\n\nNothing else.\n")

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeTangle,
		NoBackup:   true,
	})

	_, err := tr.Transform(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no macro code blocks")
}

func TestTransformShadowRequiresPath(t *testing.T) {
	src, _ := sourceFor(t, basicDoc)

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeShadow,
		NoBackup:   true,
	})

	_, err := tr.Transform(src)
	require.Error(t, err)

	_, err = tr.TransformToPath(src, "")
	require.Error(t, err)
}

func TestTransformToShadowPath(t *testing.T) {
	src, dir := sourceFor(t, basicDoc)
	shadowPath := filepath.Join(dir, "shadow.lua")

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeShadow,
		NoBackup:   true,
	})

	outPath, err := tr.TransformToPath(src, shadowPath)
	require.NoError(t, err)
	require.Equal(t, shadowPath, outPath)

	content, err := os.ReadFile(shadowPath)
	require.NoError(t, err)

	// Code lands on its original document lines: macro bodies start on
	// lines 6 and 11 of the source
	lines := strings.Split(string(content), "\n")
	require.Equal(t, "<<opts>>", lines[5])
	require.Equal(t, `print("done")`, lines[6])
	require.Equal(t, "vim.o.number = true", lines[10])
}

func TestWeaveWritesHypertext(t *testing.T) {
	src, dir := sourceFor(t, basicDoc)

	tr := NewTransformer(TransformOptions{
		WriterMode: litweave.ModeTangle,
		NoBackup:   true,
	})

	outPath, err := tr.Weave(src)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.html"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "<h1>Config</h1>")
	require.Contains(t, string(content), `href="#opts"`)
}

func TestTransformOptionsPretty(t *testing.T) {
	opts := TransformOptions{WriterMode: litweave.ModeTangle, NoBackup: true}
	require.Equal(t, "mode=Tangle backup=no annotate=no require_output_pragma=no", opts.Pretty())
}
