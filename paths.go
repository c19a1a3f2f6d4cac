package litweave

import (
	"path/filepath"
	"strings"
)

// DocExtension is the canonical extension for litweave documents.
const DocExtension = ".lit.md"

// ResolveOutputPath determines the generated code path for a document.
// The output pragma wins, resolved relative to the document's directory;
// otherwise the document extension is swapped for .lua.
func ResolveOutputPath(docPath string, pragma Pragma) (string, error) {
	if pragma.Output == "" {
		return trimDocExtension(docPath) + ".lua", nil
	}

	docDir := filepath.Dir(docPath)
	return filepath.Join(docDir, pragma.Output), nil
}

// ResolveWeavePath determines the hypertext output path for a document.
func ResolveWeavePath(docPath string) string {
	return trimDocExtension(docPath) + ".html"
}

func trimDocExtension(docPath string) string {
	if strings.HasSuffix(docPath, DocExtension) {
		return strings.TrimSuffix(docPath, DocExtension)
	}
	return strings.TrimSuffix(docPath, filepath.Ext(docPath))
}

func MustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
