package litweave

import (
	"fmt"
	"strings"
)

// commentTokens maps a generated-code file extension to the line comment
// token used for source position annotations. Extend as new targets come
// up.
var commentTokens = map[string]string{
	".sh":   "#",
	".bash": "#",
	".zsh":  "#",
	".lua":  "--",
	".sql":  "--",
}

// defaultCommentToken is used for any extension not in the table.
const defaultCommentToken = "//"

// CommentToken returns the line comment token for a target language
// extension, with or without the leading dot.
func CommentToken(ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if tok, ok := commentTokens[strings.ToLower(ext)]; ok {
		return tok
	}
	return defaultCommentToken
}

// Annotate returns a copy of macros where each macro's parts begin with a
// comment line recording the macro's originating file and line.
//
// This runs before [Merge], so each contributor to a merged macro keeps
// its own provenance line immediately ahead of its own content.
func Annotate(ext string, macros []Macro) []Macro {
	tok := CommentToken(ext)

	annotated := make([]Macro, 0, len(macros))
	for _, m := range macros {
		parts := make([]Part, 0, len(m.Parts)+1)
		parts = append(parts, Literal{
			Text: fmt.Sprintf("%s %s:%d\n", tok, m.Position.File, m.Position.StartLine),
		})
		parts = append(parts, m.Parts...)

		annotated = append(annotated, Macro{
			Name:     m.Name,
			Position: m.Position,
			Parts:    parts,
		})
	}

	return annotated
}
