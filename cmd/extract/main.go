// Command extract runs the extraction pipeline over L5X files from the
// command line, without the HTTP server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/l5x-extractor/backend/internal/extract"
	"github.com/l5x-extractor/backend/internal/models"
	"github.com/l5x-extractor/backend/internal/report"
)

var (
	flagOutputDir   string
	flagConventions string
	flagJSON        bool
	flagCSV         bool
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract sequence metadata from RSLogix L5X exports",
		Long: `Extract parses RSLogix 5000 .L5X exports and writes one workbook per
fixture and sequence routine, covering sequences, actuators, transitions,
digital inputs and valve mappings.

With no arguments, every .L5X file in the current directory is processed.`,
		RunE: runExtract,
	}

	root.Flags().StringVarP(&flagOutputDir, "output-dir", "o", "output", "folder for generated reports")
	root.Flags().StringVar(&flagConventions, "conventions", "", "YAML file overriding naming conventions")
	root.Flags().BoolVar(&flagJSON, "json", false, "also write JSON exports")
	root.Flags().BoolVar(&flagCSV, "csv", false, "also write CSV exports")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := resolveInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .L5X files found")
	}

	conv := extract.DefaultConventions()
	if flagConventions != "" {
		conv, err = extract.LoadConventions(flagConventions)
		if err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	renderer := report.NewRenderer(report.Options{WriteJSON: flagJSON, WriteCSV: flagCSV})
	pipeline := extract.New(conv, renderer, log)

	failed := 0
	for _, file := range files {
		outDir := documentOutputDir(flagOutputDir, file)

		fmt.Printf("Processing %s\n", filepath.Base(file))
		result, err := pipeline.Run(file, outDir)
		if err != nil {
			// A broken file skips, the rest of the batch continues.
			fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
			failed++
			continue
		}
		printSummary(result)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// resolveInputs expands explicit arguments, or scans the working directory
// for .L5X files when none are given.
func resolveInputs(args []string) ([]string, error) {
	if len(args) > 0 {
		for _, a := range args {
			if _, err := os.Stat(a); err != nil {
				return nil, fmt.Errorf("input file: %w", err)
			}
		}
		return args, nil
	}

	entries, err := os.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("scanning working directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".l5x") {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// documentOutputDir picks a per-document folder under base. An existing
// folder from an earlier run gets a timestamp suffix instead of being
// overwritten.
func documentOutputDir(base, file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	dir := filepath.Join(base, stem)
	if _, err := os.Stat(dir); err == nil {
		dir = filepath.Join(base, fmt.Sprintf("%s_%s", stem, time.Now().Format("20060102_150405")))
	}
	return dir
}

func printSummary(result *models.RunResult) {
	fixtures := make(map[string]struct{})
	for _, b := range result.Bundles {
		fixtures[b.FixtureName] = struct{}{}
	}
	mode := "single-fixture"
	if result.MultiFixture {
		mode = "multi-fixture"
	}
	fmt.Printf("  %s: %d fixture(s), %d routine(s), %d workbook(s), %d warning(s)\n",
		mode, len(fixtures), len(result.Bundles), len(result.Outputs), len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Printf("    warning [%s] %s: %s\n", w.Kind, w.Unit, w.Message)
	}
}
