package litweave

import (
	"fmt"
	"strings"
)

// maxExpandDepth bounds recursion as a backstop for pathological inputs
// that somehow evade cycle detection.
const maxExpandDepth = 512

// CycleError reports a macro that transitively references itself.
type CycleError struct {
	// The name that reappeared while it was still being expanded
	Name string
	// The expansion stack at the point of detection, root first
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular reference naming %q: %s", e.Name, strings.Join(e.Path, " -> "))
}

// Expand renders the root macro of an already-merged macro sequence into
// flat text.
//
// The root is the macro named [RootName], falling back to the last macro
// in the sequence. A reference to a name with no macro expands to nothing;
// a dangling reference is an authoring defect discovered by inspecting
// output, not an error. The only failure mode is a reference cycle, which
// is reported as a [CycleError].
func Expand(macros []Macro) (string, error) {
	if len(macros) == 0 {
		return "", nil
	}

	defs := make(map[string][]Part, len(macros))
	for _, m := range macros {
		defs[strings.TrimSpace(m.Name)] = m.Parts
	}

	root, ok := defs[RootName]
	if !ok {
		root = macros[len(macros)-1].Parts
	}

	e := &expander{defs: defs, visiting: make(map[string]bool)}
	var out strings.Builder
	if err := e.render(&out, root, "", 0); err != nil {
		return "", err
	}
	return out.String(), nil
}

type expander struct {
	defs     map[string][]Part
	visiting map[string]bool
	stack    []string
}

// render writes the expansion of parts, prepending prefix to every
// literal. Indentation accumulates down the reference chain: each Ref
// appends its own indent to the prefix its target is rendered with.
func (e *expander) render(out *strings.Builder, parts []Part, prefix string, depth int) error {
	if depth > maxExpandDepth {
		return fmt.Errorf("max expansion depth exceeded (%d)", maxExpandDepth)
	}

	for _, p := range parts {
		switch part := p.(type) {
		case Literal:
			out.WriteString(prefix)
			out.WriteString(part.Text)
		case Ref:
			name := strings.TrimSpace(part.Name)
			body, ok := e.defs[name]
			if !ok {
				// Missing macros expand to nothing by contract
				continue
			}
			if e.visiting[name] {
				return &CycleError{Name: name, Path: append(append([]string(nil), e.stack...), name)}
			}

			e.visiting[name] = true
			e.stack = append(e.stack, name)

			err := e.render(out, body, prefix+part.Indent, depth+1)

			e.stack = e.stack[:len(e.stack)-1]
			e.visiting[name] = false

			if err != nil {
				return err
			}
		}
	}

	return nil
}
