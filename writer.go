package litweave

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

type WriteMode int

const (
	// ModeTangle writes the flattened, macro-expanded source file
	ModeTangle WriteMode = iota
	// ModeShadow writes code at its original document line numbers, for
	// editor tooling that maps diagnostics back to the literate source
	ModeShadow
)

type Writer struct {
	mode WriteMode
	// Annotate forces source position comments regardless of the
	// document's annotate pragma. Tangle mode only.
	Annotate bool
}

func NewWriter(mode WriteMode) *Writer {
	return &Writer{mode: mode}
}

// Write renders doc to output according to the writer's mode.
func (w *Writer) Write(doc *Document, output io.Writer, version string, now time.Time) error {
	switch w.mode {
	case ModeTangle:
		return w.writeTangle(doc, output, version, now)
	case ModeShadow:
		return w.writeShadow(doc, output)
	default:
		return fmt.Errorf("unknown write mode %d", w.mode)
	}
}

func (w *Writer) writeTangle(doc *Document, output io.Writer, version string, now time.Time) error {
	outPath, err := ResolveOutputPath(doc.Metadata.Source, doc.Pragmas)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	ext := filepath.Ext(outPath)
	tok := CommentToken(ext)

	header := fmt.Sprintf("%[1]s Generated by litweave %[2]s\n%[1]s Source: %[3]s\n%[1]s Generated: %[4]s\n\n",
		tok, version, doc.Metadata.Source, now.Format(time.RFC3339))
	if _, err := io.WriteString(output, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var text string
	if w.Annotate || doc.Pragmas.Annotate {
		text, err = GenerateWithAnnotations(ext, doc.Chunks)
	} else {
		text, err = Generate(doc.Chunks)
	}
	if err != nil {
		return fmt.Errorf("expanding document: %w", err)
	}

	if _, err := io.WriteString(output, text); err != nil {
		return fmt.Errorf("writing expanded output: %w", err)
	}

	return nil
}

// writeShadow lays each macro body out at its original line numbers so
// positions in the shadow file match positions in the literate source.
func (w *Writer) writeShadow(doc *Document, output io.Writer) error {
	macros := doc.Macros()
	if len(macros) == 0 {
		return fmt.Errorf("no macro blocks found in document")
	}

	maxLine := 0
	for _, m := range macros {
		if m.Position.EndLine > maxLine {
			maxLine = m.Position.EndLine
		}
	}

	lines := make([]string, maxLine)

	slog.Debug("writing shadow file", "macros", len(macros), "last_line", maxLine, "source", doc.Metadata.Source)

	for _, m := range macros {
		bodyLines := strings.Split(strings.TrimSuffix(bodyText(m), "\n"), "\n")

		startLine := m.Position.StartLine
		for i, line := range bodyLines {
			actualIndex := startLine + i - 1 // file lines are 1-indexed
			if lines[actualIndex] != "" {
				return fmt.Errorf("line %d already contains code", startLine+i)
			}
			lines[actualIndex] = line
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(output, line); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}

	return nil
}

// bodyText reconstructs a macro body verbatim, reference lines included.
func bodyText(m Macro) string {
	var buf strings.Builder
	for _, p := range m.Parts {
		switch part := p.(type) {
		case Literal:
			buf.WriteString(part.Text)
		case Ref:
			buf.WriteString(part.Indent)
			buf.WriteString("<<")
			buf.WriteString(part.Name)
			buf.WriteString(">>\n")
		}
	}
	return buf.String()
}
