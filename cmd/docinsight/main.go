package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"docinsight/internal/config"
	"docinsight/internal/extractor"
	"docinsight/internal/inputs"
	"docinsight/internal/sections"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "docinsight",
		Usage: "Find and summarize the PDF sections that matter to a persona and their task",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Rank and summarize the sections of PDFs for a persona and task",
				ArgsUsage: "PATH...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "persona",
						Usage:    "who the analysis is for, e.g. \"Travel Planner\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "task",
						Usage:    "what the persona wants to get done",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "number of sections to return (defaults to TOP_K)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: text, json or yaml",
						Value: formatText,
					},
				},
				Action: analyzeAction,
			},
			{
				Name:      "extract",
				Usage:     "Show the chunks and sections found in one PDF",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: text or json",
						Value: formatText,
					},
				},
				Action: extractAction,
			},
		},
	}
}

// setupLogging configures the default logger; logs go to stderr so results can be piped.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
		return err
	}
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("at least one PDF or directory is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg)

	if topK := cmd.Int("top-k"); topK > 0 {
		cfg.TopK = topK
	}

	docs, err := inputs.Collect(ctx, cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no PDF files found")
	}

	pipeline, cleanup, err := buildAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipeline.Analyze(ctx, docs, cmd.String("persona"), cmd.String("task"))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return renderResult(os.Stdout, result, format)
}

func extractAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format, formatText, formatJSON); err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("exactly one PDF is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg)

	docs, err := inputs.Collect(ctx, cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(docs) != 1 {
		return fmt.Errorf("exactly one PDF is required, found %d", len(docs))
	}

	chunks, err := extractor.New().Extract(ctx, docs[0])
	if err != nil {
		return err
	}
	secs := sections.NewGrouper(groupingOptions(cfg)).Group(chunks)

	return renderExtraction(os.Stdout, docs[0].Name(), chunks, secs, format)
}
