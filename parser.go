package litweave

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	pragmaRegex = regexp.MustCompile(`^<!--\s*@pragma\s+(\w+)\s*:\s*([^>]+?)\s*-->$`)
	// The macro name rides in the fence info string after the language,
	// eg ```lua "window options"
	fenceNameRegex = regexp.MustCompile(`"([^"]*)"`)
	// A reference line is nothing but optional indentation around <<name>>
	refLineRegex = regexp.MustCompile(`^([ \t]*)<<(.+?)>>[ \t]*\r?\n?$`)
)

type Parser struct {
	gm goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{
		gm: goldmark.New(),
	}
}

// ParseDoc parses a literate markdown document into its ordered chunk
// sequence.
//
// Every fenced code block becomes a macro: the quoted name from the fence
// info string, or [RootName] when the fence carries no name. Code lines
// holding only an indented <<name>> become references carrying that exact
// indentation; everything else in a fence is literal text. All remaining
// document text is kept verbatim as prose chunks.
func (p *Parser) ParseDoc(r io.Reader, md MetaData) (*Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Metadata: md,
	}

	hasWalkedOtherNodes := false
	root := p.gm.Parser().Parse(text.NewReader(content))

	var fences []fence
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if _, ok := n.(*ast.HTMLBlock); !ok {
			if _, isDoc := n.(*ast.Document); !isDoc {
				// Pragmas only count while we are still at the top of the
				// file, before any other markdown node
				hasWalkedOtherNodes = true
			}
		}

		switch node := n.(type) {
		case *ast.HTMLBlock:
			if err := p.handleHTMLBlock(node, content, &hasWalkedOtherNodes, doc); err != nil {
				return ast.WalkStop, err
			}
		case *ast.FencedCodeBlock:
			f, ok := p.readFence(node, content)
			if ok {
				fences = append(fences, f)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	doc.Chunks = assembleChunks(content, md.Source, fences)

	return doc, nil
}

// fence is a fenced code block located in the raw source.
type fence struct {
	name      string
	code      string
	startLine int // first code line, 1-based
	endLine   int // last code line, 1-based
}

func (p *Parser) readFence(cb *ast.FencedCodeBlock, content []byte) (fence, bool) {
	if cb.Lines().Len() == 0 {
		// An empty fence defines nothing and anchors no prose split
		return fence{}, false
	}

	name := RootName
	if cb.Info != nil {
		info := string(cb.Info.Segment.Value(content))
		if m := fenceNameRegex.FindStringSubmatch(info); m != nil {
			name = m[1]
		}
	}

	var buf bytes.Buffer
	l := cb.Lines().Len()
	for i := 0; i < l; i++ {
		line := cb.Lines().At(i)
		buf.Write(line.Value(content))
	}

	first := cb.Lines().At(0)
	last := cb.Lines().At(l - 1)

	f := fence{
		name:      name,
		code:      buf.String(),
		startLine: getLineNumber(content, first.Start),
		endLine:   getLineNumber(content, last.Start),
	}
	slog.Debug("parsed code fence", "name", f.name, "start", f.startLine, "end", f.endLine)
	return f, true
}

// assembleChunks interleaves prose and macro chunks in document order.
// Fence delimiter lines belong to neither: they are dropped along with
// the code they bracket when slicing prose.
func assembleChunks(content []byte, source string, fences []fence) []Chunk {
	lines := splitLines(content)

	var chunks []Chunk
	next := 1 // next source line not yet consumed, 1-based

	for _, f := range fences {
		// The opening fence sits on the line above the first code line
		proseEnd := f.startLine - 1
		if prose := joinLines(lines, next, proseEnd-1); prose != "" {
			chunks = append(chunks, Prose{Text: prose})
		}

		chunks = append(chunks, Macro{
			Name: f.name,
			Position: Position{
				File:      source,
				StartLine: f.startLine,
				EndLine:   f.endLine,
			},
			Parts: parseParts(f.code),
		})

		// Skip past the closing fence line
		next = f.endLine + 2
	}

	if prose := joinLines(lines, next, len(lines)); prose != "" {
		chunks = append(chunks, Prose{Text: prose})
	}

	return chunks
}

// parseParts splits a fence body into literal and reference parts.
func parseParts(code string) []Part {
	var parts []Part
	for _, line := range strings.SplitAfter(code, "\n") {
		if line == "" {
			continue
		}
		if m := refLineRegex.FindStringSubmatch(line); m != nil {
			parts = append(parts, Ref{Name: m[2], Indent: m[1]})
			continue
		}
		parts = append(parts, Literal{Text: line})
	}
	return parts
}

func splitLines(content []byte) []string {
	return strings.SplitAfter(string(content), "\n")
}

// joinLines returns source lines from..to inclusive, 1-based, clamped.
func joinLines(lines []string, from, to int) string {
	if from < 1 {
		from = 1
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return ""
	}
	return strings.Join(lines[from-1:to], "")
}

func getLineNumber(content []byte, byteOffset int) int {
	return bytes.Count(content[:byteOffset], []byte("\n")) + 1
}

// handleHTMLBlock parses pragma values from HTML comments in markdown.
//
// Only HTML comments at the top of the document are considered pragmas;
// once any other markdown node has been walked, comments are plain prose.
func (p *Parser) handleHTMLBlock(hb *ast.HTMLBlock, content []byte, hasWalkedOtherNodes *bool, doc *Document) error {
	slog.Debug("parsing html block", "hasWalkedOtherNodes", *hasWalkedOtherNodes)
	if !*hasWalkedOtherNodes && hb.HTMLBlockType == ast.HTMLBlockType2 {
		var buf bytes.Buffer
		l := hb.Lines().Len()
		for i := 0; i < l; i++ {
			line := hb.Lines().At(i)
			buf.Write(line.Value(content))
		}
		if err := p.extractPragmaFromLine(&doc.Pragmas, buf.String()); err != nil {
			return err
		}
	}
	return nil
}

// extractPragmaFromLine parses a pragma key/value pair from a markdown
// comment line such as:
//
//	<!-- @pragma output: init.lua -->
//
// Unknown keys are ignored. If multiple lines set the same key, the last
// one wins. Returns an error if a recognised key's value cannot be
// parsed.
func (p *Parser) extractPragmaFromLine(pragma *Pragma, line string) error {
	line = strings.TrimSpace(line)
	slog.Debug("parsing pragma line", "line", line)

	matches := pragmaRegex.FindStringSubmatch(line)
	if len(matches) != 3 {
		slog.Debug("invalid pragma line", "line", line)
		return nil
	}

	key := matches[1]
	value := matches[2]

	switch key {
	case string(PragmaOutput):
		pragma.Output = value
	case string(PragmaAnnotate):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("could not parse annotate pragma value: %w", err)
		}
		pragma.Annotate = b
	case string(PragmaDebug):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("could not parse debug pragma value: %w", err)
		}
		pragma.Debug = b
	default:
		slog.Debug("unknown pragma key", "key", key)
	}

	return nil
}
