package litweave

// Generate expands a chunk sequence into flat output text: prose is
// dropped, same-named macros are merged, and the root macro is expanded.
func Generate(chunks []Chunk) (string, error) {
	return Expand(Merge(macrosOf(chunks)))
}

// GenerateWithAnnotations is [Generate] with a source position comment
// line injected ahead of every macro body, using the comment token for
// the target language extension.
func GenerateWithAnnotations(ext string, chunks []Chunk) (string, error) {
	return Expand(Merge(Annotate(ext, macrosOf(chunks))))
}

func macrosOf(chunks []Chunk) []Macro {
	var macros []Macro
	for _, c := range chunks {
		if m, ok := c.(Macro); ok {
			macros = append(macros, m)
		}
	}
	return macros
}
