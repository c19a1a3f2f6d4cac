// Package preview serves woven hypertext for the documents under a root
// directory. Documents are re-woven on every request, so the page is
// always current without any cache invalidation.
package preview

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jwtly10/litweave"
)

type Server struct {
	router chi.Router
	weaver *litweave.Weaver
	parser *litweave.Parser
	root   string
}

// NewServer creates a preview server over the documents under root.
func NewServer(root string) *Server {
	s := &Server{
		weaver: litweave.NewWeaver(),
		parser: litweave.NewParser(),
		root:   root,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/view/*", s.handleView)

	s.router = r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := s.listDocs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html><head><title>litweave preview</title></head><body>\n<h1>Documents</h1>\n<ul>\n")
	for _, doc := range docs {
		fmt.Fprintf(w, "<li><a href=\"/view/%s\">%s</a></li>\n", doc, html.EscapeString(doc))
	}
	fmt.Fprint(w, "</ul>\n</body></html>\n")
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")

	path, err := s.resolve(rel)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	doc, err := s.parser.ParseDoc(f, litweave.MetaData{Source: rel, AbsSource: path})
	if err != nil {
		http.Error(w, fmt.Sprintf("parse error: %v", err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.weaver.Weave(doc, w); err != nil {
		slog.Error("weave error", "path", path, "error", err)
	}
}

// resolve maps a request path onto a document under root, refusing
// anything that escapes it.
func (s *Server) resolve(rel string) (string, error) {
	if !strings.HasSuffix(rel, litweave.DocExtension) {
		return "", fmt.Errorf("not a %s file", litweave.DocExtension)
	}

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}

	path := filepath.Join(absRoot, filepath.FromSlash(rel))
	if path != absRoot && !strings.HasPrefix(path, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes preview root")
	}

	return path, nil
}

func (s *Server) listDocs() ([]string, error) {
	var docs []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, litweave.DocExtension) {
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			docs = append(docs, filepath.ToSlash(rel))
		}
		return nil
	})
	return docs, err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
