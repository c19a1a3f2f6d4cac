package transformer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwtly10/litweave"
)

type TransformOptions struct {
	// The mode for the writer instance
	WriterMode litweave.WriteMode
	// If true, no backup will be created
	NoBackup bool
	// If true, generated output carries source position comments even
	// without an annotate pragma
	Annotate bool
	// If true, the output pragma is required, otherwise transform will error
	RequirePragmaOutput bool
}

func (t *TransformOptions) Pretty() string {
	return fmt.Sprintf("mode=%s backup=%s annotate=%s require_output_pragma=%s",
		writerModeToString(t.WriterMode),
		boolToText(!t.NoBackup),
		boolToText(t.Annotate),
		boolToText(t.RequirePragmaOutput))
}

func writerModeToString(mode litweave.WriteMode) string {
	switch mode {
	case litweave.ModeTangle:
		return "Tangle"
	case litweave.ModeShadow:
		return "Shadow"
	default:
		return fmt.Sprintf("Mode(%d)", mode)
	}
}

func boolToText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Transformer runs the full parse -> expand -> write pipeline for a
// single literate document.
type Transformer struct {
	parser *litweave.Parser
	writer *litweave.Writer
	backup *litweave.BackupManager
	weaver *litweave.Weaver

	opts TransformOptions
}

// NewTransformer creates a new Transformer instance with the specified options [TransformOptions]
func NewTransformer(opts TransformOptions) *Transformer {
	w := litweave.NewWriter(opts.WriterMode)
	w.Annotate = opts.Annotate

	return &Transformer{
		parser: litweave.NewParser(),
		writer: w,
		backup: litweave.NewBackupManager(),
		weaver: litweave.NewWeaver(),
		opts:   opts,
	}
}

type DocumentSource struct {
	Content  io.Reader
	Metadata litweave.MetaData
}

// Transform runs standard code generation (using pragmas/default paths),
// returning the absolute path of the output file.
func (t *Transformer) Transform(input DocumentSource) (string, error) {
	if t.opts.WriterMode == litweave.ModeShadow {
		return "", fmt.Errorf("cannot use Transform() for shadow mode, use TransformToPath() instead")
	}

	return t.transform(input, "")
}

// TransformToPath forces output to a specific path (for shadow files)
func (t *Transformer) TransformToPath(input DocumentSource, outputPath string) (string, error) {
	if t.opts.WriterMode != litweave.ModeShadow {
		return "", fmt.Errorf("TransformToPath() can only be used with shadow mode")
	}
	if outputPath == "" {
		return "", fmt.Errorf("output path is required for shadow transformation")
	}

	return t.transform(input, outputPath)
}

func (t *Transformer) transform(input DocumentSource, forcedPath string) (string, error) {
	slog.Debug("transforming document", "path", input.Metadata.AbsSource)
	if input.Metadata.AbsSource == "" {
		return "", fmt.Errorf("abs source metadata is required for transformation")
	}

	doc, err := t.parser.ParseDoc(input.Content, input.Metadata)
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	if len(doc.Macros()) == 0 {
		return "", fmt.Errorf("no macro code blocks found in document")
	}

	var absTransformPath string
	if forcedPath != "" {
		absTransformPath = forcedPath
	} else if t.opts.RequirePragmaOutput {
		if doc.Pragmas.Output == "" {
			return "", fmt.Errorf("pragma key 'output' is required for transformation")
		}
		absTransformPath = filepath.Join(filepath.Dir(input.Metadata.AbsSource), doc.Pragmas.Output)
	} else {
		absTransformPath, err = litweave.ResolveOutputPath(input.Metadata.AbsSource, doc.Pragmas)
		if err != nil {
			return "", fmt.Errorf("resolve output path error: %w", err)
		}
	}

	// Only support creating backups for tangle mode
	if !t.opts.NoBackup && t.opts.WriterMode == litweave.ModeTangle {
		if _, err := t.backup.CreateBackupOf(absTransformPath); err != nil {
			return "", fmt.Errorf("backup error: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absTransformPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(absTransformPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := t.writer.Write(doc, out, litweave.VERSION, time.Now()); err != nil {
		return "", fmt.Errorf("write error: %w", err)
	}

	return absTransformPath, nil
}

// Weave renders the document to hypertext next to its source, returning
// the absolute path of the woven file.
func (t *Transformer) Weave(input DocumentSource) (string, error) {
	slog.Debug("weaving document", "path", input.Metadata.AbsSource)
	if input.Metadata.AbsSource == "" {
		return "", fmt.Errorf("abs source metadata is required for weaving")
	}

	doc, err := t.parser.ParseDoc(input.Content, input.Metadata)
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	weavePath := litweave.ResolveWeavePath(input.Metadata.AbsSource)

	out, err := os.Create(weavePath)
	if err != nil {
		return "", fmt.Errorf("failed to create weave output file: %w", err)
	}
	defer out.Close()

	if err := t.weaver.Weave(doc, out); err != nil {
		return "", fmt.Errorf("weave error: %w", err)
	}

	return weavePath, nil
}
