package litweave

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

var anchorSpaceRegex = regexp.MustCompile(`\s+`)

// AnchorToken normalizes a macro name into an identifier-safe hypertext
// anchor: surrounding whitespace trimmed, interior runs of whitespace
// replaced with a dash.
func AnchorToken(name string) string {
	return anchorSpaceRegex.ReplaceAllString(strings.TrimSpace(name), "-")
}

// Weaver renders a parsed document into a standalone hypertext page,
// cross-linking macro definitions to their uses.
//
// It walks the un-merged chunk sequence directly and never invokes Merge
// or Expand: continuation definitions of the same name are rendered where
// they appear, linked back to the first definition's anchor.
type Weaver struct {
	gm goldmark.Markdown
}

func NewWeaver() *Weaver {
	return &Weaver{
		gm: goldmark.New(),
	}
}

const weaveStyle = `body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: serif; line-height: 1.5; }
pre { background: #f6f6f6; padding: 0.6rem 0.8rem; overflow-x: auto; }
.macro-title { font-family: monospace; font-weight: bold; }
.macro-cont { color: #666; }
.macro-uses { font-size: 0.85em; color: #666; margin-top: -0.5rem; }
a.ref { text-decoration: none; }`

// Weave writes the complete hypertext rendering of doc to out.
func (wv *Weaver) Weave(doc *Document, out io.Writer) error {
	title := doc.Metadata.Source
	if title == "" {
		title = "litweave"
	}

	if _, err := fmt.Fprintf(out,
		"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n",
		html.EscapeString(title), weaveStyle); err != nil {
		return err
	}

	xref := crossReference(doc.Chunks)
	defined := make(map[string]bool)

	for _, c := range doc.Chunks {
		switch chunk := c.(type) {
		case Prose:
			if err := wv.gm.Convert([]byte(chunk.Text), out); err != nil {
				return fmt.Errorf("rendering prose: %w", err)
			}
		case Macro:
			anchor := AnchorToken(chunk.Name)
			if err := weaveMacro(out, chunk, anchor, !defined[anchor], xref[anchor]); err != nil {
				return err
			}
			defined[anchor] = true
		}
	}

	_, err := fmt.Fprint(out, "</body>\n</html>\n")
	return err
}

// crossReference maps each referenced anchor token to the anchors of the
// macros that reference it, in encounter order without duplicates.
func crossReference(chunks []Chunk) map[string][]string {
	uses := make(map[string][]string)
	for _, c := range chunks {
		m, ok := c.(Macro)
		if !ok {
			continue
		}
		from := AnchorToken(m.Name)
		for _, p := range m.Parts {
			ref, ok := p.(Ref)
			if !ok {
				continue
			}
			to := AnchorToken(ref.Name)
			if !containsString(uses[to], from) {
				uses[to] = append(uses[to], from)
			}
		}
	}
	return uses
}

func weaveMacro(out io.Writer, m Macro, anchor string, first bool, usedBy []string) error {
	name := html.EscapeString(strings.TrimSpace(m.Name))

	if first {
		_, err := fmt.Fprintf(out, "<p class=\"macro-title\" id=\"%s\">&lt;&lt;%s&gt;&gt;=</p>\n", anchor, name)
		if err != nil {
			return err
		}
	} else {
		// Continuation of an earlier definition: link back instead of
		// redefining the anchor
		_, err := fmt.Fprintf(out, "<p class=\"macro-title macro-cont\"><a class=\"ref\" href=\"#%s\">&lt;&lt;%s&gt;&gt;</a>+=</p>\n", anchor, name)
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(out, "<pre><code>"); err != nil {
		return err
	}

	for _, p := range m.Parts {
		switch part := p.(type) {
		case Literal:
			if _, err := fmt.Fprint(out, html.EscapeString(part.Text)); err != nil {
				return err
			}
		case Ref:
			refName := html.EscapeString(strings.TrimSpace(part.Name))
			_, err := fmt.Fprintf(out, "%s<a class=\"ref\" href=\"#%s\">&lt;&lt;%s&gt;&gt;</a>\n",
				part.Indent, AnchorToken(part.Name), refName)
			if err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprint(out, "</code></pre>\n"); err != nil {
		return err
	}

	if len(usedBy) > 0 {
		links := make([]string, 0, len(usedBy))
		for _, u := range usedBy {
			links = append(links, fmt.Sprintf("<a class=\"ref\" href=\"#%s\">%s</a>", u, html.EscapeString(u)))
		}
		if _, err := fmt.Fprintf(out, "<p class=\"macro-uses\">Used by %s</p>\n", strings.Join(links, ", ")); err != nil {
			return err
		}
	}

	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
