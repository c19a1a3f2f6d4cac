package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jwtly10/litweave"
	"github.com/jwtly10/litweave/internal/cli"
	"github.com/jwtly10/litweave/internal/config"
	"github.com/jwtly10/litweave/internal/preview"
	"github.com/jwtly10/litweave/internal/transformer"
	"github.com/jwtly10/litweave/internal/watcher"
)

func main() {
	var (
		inPath        string
		weave         bool
		noTangle      bool
		annotate      bool
		noBackup      bool
		requireOutput bool
		watch         bool
		serve         bool
		debug         bool
	)
	flag.StringVar(&inPath, "in", "", "Input document or directory")
	flag.BoolVar(&weave, "weave", false, "Also render documents to hypertext")
	flag.BoolVar(&noTangle, "no-tangle", false, "Skip code generation (weave only)")
	flag.BoolVar(&annotate, "annotate", false, "Add source position comments to generated code")
	flag.BoolVar(&noBackup, "no-backup", false, "Do not back up existing output files")
	flag.BoolVar(&requireOutput, "require-output", false, "Fail documents without an output pragma")
	flag.BoolVar(&watch, "watch", false, "Keep running, regenerating documents as they change")
	flag.BoolVar(&serve, "serve", false, "Serve woven hypertext over HTTP")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if inPath == "" {
		fmt.Println("Please provide an input file or directory with -in")
		os.Exit(1)
	}

	// Optional .env for the long-running modes
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		runPreview(ctx, inPath, cfg)
		return
	}

	opts := cli.Options{
		Transform: transformer.TransformOptions{
			WriterMode:          litweave.ModeTangle,
			NoBackup:            noBackup,
			Annotate:            annotate,
			RequirePragmaOutput: requireOutput,
		},
		Weave:    weave,
		NoTangle: noTangle,
	}
	processor := cli.NewProcessor(opts)

	results, err := processor.ProcessPath(inPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, r := range results {
		if r.OutPath != "" {
			fmt.Printf("Wrote %s to %s\n", r.Path, r.OutPath)
		}
		if r.WeavePath != "" {
			fmt.Printf("Wove %s to %s\n", r.Path, r.WeavePath)
		}
	}

	if watch {
		runWatch(ctx, inPath, processor, cfg)
	}
}

func runWatch(ctx context.Context, inPath string, processor *cli.Processor, cfg config.Config) {
	files := []string{inPath}
	if info, err := os.Stat(inPath); err == nil && info.IsDir() {
		found, err := processor.FindFiles(inPath)
		if err != nil {
			fmt.Printf("Error finding files to watch: %v\n", err)
			os.Exit(1)
		}
		files = found
	}

	w := watcher.New(func(path string) error {
		_, err := processor.ProcessPath(path)
		return err
	}, watcher.Options{
		Interval: cfg.WatchInterval,
		Window:   cfg.WatchWindow,
	})

	fmt.Printf("Watching %d file(s). Ctrl+C to stop.\n", len(files))
	if err := w.Watch(ctx, files); err != nil {
		fmt.Printf("Watch error: %v\n", err)
		os.Exit(1)
	}
}

func runPreview(ctx context.Context, root string, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.PreviewAddr,
		Handler: preview.NewServer(root),
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	fmt.Printf("Serving woven hypertext for %s on %s\n", root, cfg.PreviewAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Printf("Preview server error: %v\n", err)
		os.Exit(1)
	}
}
