package litweave

// VERSION is the current release of the litweave toolchain
const VERSION = "0.1.0"

// RootName is the distinguished macro name expansion starts from.
//
// If no macro with this name exists, expansion falls back to the last
// macro in the document.
const RootName = "*"

// Document represents a parsed literate document containing
// pragmas, the ordered chunk sequence, and metadata about the source file
type Document struct {
	// Metadata about the source file
	Metadata MetaData
	// Document-level pragmas controlling generation options
	Pragmas Pragma
	// The ordered sequence of prose and macro chunks
	Chunks []Chunk
}

// Macros returns only the macro chunks of the document, in order.
func (d *Document) Macros() []Macro {
	var macros []Macro
	for _, c := range d.Chunks {
		if m, ok := c.(Macro); ok {
			macros = append(macros, m)
		}
	}
	return macros
}

type MetaData struct {
	// The source file path
	Source string
	// The absolute source file path, where known
	AbsSource string
}

type PragmaKey string

const (
	PragmaOutput   PragmaKey = "output"
	PragmaAnnotate PragmaKey = "annotate"
	PragmaDebug    PragmaKey = "debug"
)

type Pragma struct {
	// The generated code output path, relative to the source document
	Output string
	// If true, generated output carries source position comments
	Annotate bool
	// Internal flag for additional debugging output
	Debug bool
}

// Chunk is a unit of parsed document content: either prose or a macro.
//
// The set of implementations is closed; consumers switch over the two
// variants exhaustively.
type Chunk interface {
	chunk()
}

// Prose is an opaque block of narrative markdown, carried verbatim.
// Merge and Expand never look inside it.
type Prose struct {
	Text string
}

func (Prose) chunk() {}

// Macro is a named definition made of ordered parts. Multiple macros may
// share a name; Merge combines them into one.
type Macro struct {
	// The macro name. Compared after trimming surrounding whitespace.
	Name string
	// Where the macro body starts in the source document
	Position Position
	// The ordered literal and reference parts of the body
	Parts []Part
}

func (Macro) chunk() {}

// Position locates a macro body in its originating document.
// Lines are 1-based.
type Position struct {
	File      string
	StartLine int
	EndLine   int
}

// Part is a fragment of a macro body: literal text or a reference to
// another macro. The set of implementations is closed.
type Part interface {
	part()
}

// Literal is verbatim output text, usually including its own trailing
// newline.
type Literal struct {
	Text string
}

func (Literal) part() {}

// Ref substitutes the expansion of the named macro at this point in the
// body. Indent is the exact whitespace that preceded the reference in its
// source line and is prepended to every line the target expands into.
type Ref struct {
	Name   string
	Indent string
}

func (Ref) part() {}
