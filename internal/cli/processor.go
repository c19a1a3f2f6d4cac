package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/jwtly10/litweave"
	"github.com/jwtly10/litweave/internal/transformer"
)

const (
	maxFiles   = 100
	maxWorkers = 4
)

type Options struct {
	// Options for code generation
	Transform transformer.TransformOptions
	// If true, also render each document to hypertext
	Weave bool
	// If true, skip code generation entirely (weave only)
	NoTangle bool
}

type GenerateResult struct {
	Path      string
	OutPath   string
	WeavePath string
	Duration  time.Duration
}

type processResult struct {
	Path      string
	OutPath   string
	WeavePath string
	Error     error
}

type Processor struct {
	transformer *transformer.Transformer
	opts        Options
}

func NewProcessor(opts Options) *Processor {
	return &Processor{
		transformer: transformer.NewTransformer(opts.Transform),
		opts:        opts,
	}
}

// ProcessPath generates output for a single document or, given a
// directory, every document under it.
func (p *Processor) ProcessPath(path string) ([]GenerateResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path: %w", err)
	}

	if info.IsDir() {
		return p.processDirectory(path)
	}

	result := p.processFile(path)
	if result.Error != nil {
		return nil, result.Error
	}

	return []GenerateResult{{
		Path:      result.Path,
		OutPath:   result.OutPath,
		WeavePath: result.WeavePath,
	}}, nil
}

// FindFiles walks the directory tree starting at root and returns the
// literate documents under it.
//
// If a .git directory is found, it will be used to load .gitignore patterns.
func (p *Processor) FindFiles(root string) ([]string, error) {
	var files []string
	var patterns []gitignore.Pattern

	// If .git exists, set up gitignore patterns
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		// Add .git directory pattern
		patterns = append(patterns, gitignore.ParsePattern(".git/", nil))

		// Load .gitignore if it exists
		if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
			for _, raw := range strings.Split(string(data), "\n") {
				if raw = strings.TrimSpace(raw); raw != "" && !strings.HasPrefix(raw, "#") {
					patterns = append(patterns, gitignore.ParsePattern(raw, nil))
				}
			}
		}
	}

	matcher := gitignore.NewMatcher(patterns)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		pathComponents := strings.Split(relPath, string(os.PathSeparator))

		if len(patterns) > 0 {
			if matcher.Match(pathComponents, info.IsDir()) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if !info.IsDir() && strings.HasSuffix(path, litweave.DocExtension) {
			if len(files) >= maxFiles {
				return fmt.Errorf("max files limit reached (%d)", maxFiles)
			}
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found", litweave.DocExtension)
	}

	return files, nil
}

func (p *Processor) processDirectory(root string) ([]GenerateResult, error) {
	startTime := time.Now()
	slog.Debug("starting directory processing", "path", root)
	files, err := p.FindFiles(root)
	if err != nil {
		return nil, err
	}

	slog.Debug("found files to process", "count", len(files), "duration", time.Since(startTime))

	jobs := make(chan string, len(files))
	results := make(chan processResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- p.processFile(path)
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var errors []error
	var generateResults []GenerateResult

	for result := range results {
		if result.Error != nil {
			errors = append(errors, fmt.Errorf("failed to process %s: %w", result.Path, result.Error))
			slog.Debug("failed to process file", "path", result.Path, "error", result.Error)
			continue
		}

		absRoot, _ := filepath.Abs(root)
		relSource, _ := filepath.Rel(absRoot, result.Path)
		relOut, _ := filepath.Rel(absRoot, result.OutPath)

		generateResults = append(generateResults, GenerateResult{
			Path:      relSource,
			OutPath:   relOut,
			WeavePath: result.WeavePath,
		})

		slog.Debug("file processed",
			"source", relSource,
			"output", relOut,
			"weave", result.WeavePath,
		)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("encountered %d errors during generation. Please rerun with -debug to see trace", len(errors))
	}

	slog.Debug("generation completed", "duration", time.Since(startTime), "processed", len(generateResults))
	return generateResults, nil
}

func (p *Processor) processFile(path string) processResult {
	startTime := time.Now()
	var result processResult

	absPath, err := filepath.Abs(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve absolute path: %w", err)
		return result
	}

	result.Path = absPath

	slog.Debug("processing file", "path", absPath)

	if !strings.HasSuffix(absPath, litweave.DocExtension) {
		result.Error = fmt.Errorf("invalid file extension, expected %s", litweave.DocExtension)
		return result
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		result.Error = fmt.Errorf("error reading file: %w", err)
		return result
	}

	if !p.opts.NoTangle {
		src := transformer.DocumentSource{
			Content: bytes.NewReader(content),
			Metadata: litweave.MetaData{
				Source:    path,
				AbsSource: absPath,
			},
		}

		outPath, err := p.transformer.Transform(src)
		if err != nil {
			result.Error = err
			return result
		}
		result.OutPath = outPath
	}

	if p.opts.Weave {
		src := transformer.DocumentSource{
			Content: bytes.NewReader(content),
			Metadata: litweave.MetaData{
				Source:    path,
				AbsSource: absPath,
			},
		}

		weavePath, err := p.transformer.Weave(src)
		if err != nil {
			result.Error = err
			return result
		}
		result.WeavePath = weavePath
	}

	slog.Debug("file processed",
		"path", absPath,
		"duration", time.Since(startTime))

	return result
}
