package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lexstruct/pkg/analysis"
	"github.com/coolbeans/lexstruct/pkg/api"
	"github.com/coolbeans/lexstruct/pkg/bulk"
	"github.com/coolbeans/lexstruct/pkg/config"
	"github.com/coolbeans/lexstruct/pkg/fetch"
	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/htmldoc"
	"github.com/coolbeans/lexstruct/pkg/library"
	"github.com/coolbeans/lexstruct/pkg/pattern"
	"github.com/coolbeans/lexstruct/pkg/render"
)

var version = "0.1.0"

// cfgFile is the --config flag, shared by all subcommands.
var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexstruct",
		Short: "Legislation structure reconstruction",
		Long: `Lexstruct rebuilds the Part/Chapter/Section hierarchy of
legislation from flat extracted section records and the plain-text
outline that rendered pages carry in a hidden field.

It downloads legislation pages, extracts their sections, reconstructs
the document tree, and maintains a reviewable library of results:
  - Deterministic section routing with full diagnostics
  - Missing and repealed section analysis
  - Markdown and HTML renderings
  - Batch processing with resumable runs`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./lexstruct.yaml)")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(reconstructCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(bulkCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the tool configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// loadPattern selects the outline pattern set: a named pattern from the
// configured patterns directory, or the built-in default.
func loadPattern(cfg *config.Config, name string) (*pattern.OutlinePattern, error) {
	registry := pattern.NewRegistry()
	if err := registry.LoadDirectory(cfg.PatternsDir); err != nil {
		return nil, err
	}
	if name == "" {
		return pattern.Default(), nil
	}
	selected, ok := registry.Get(name)
	if !ok {
		known := make([]string, 0, registry.Count())
		for _, registered := range registry.List() {
			known = append(known, registered.FormatID)
		}
		return nil, fmt.Errorf("unknown outline pattern %q (have: %s)",
			name, strings.Join(known, ", "))
	}
	return selected, nil
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Download a legislation page",
		Long: `Download a legislation page and save it to the HTML directory.

Example:
  lexstruct fetch https://legislation.example.org/cap/1
  lexstruct fetch https://legislation.example.org/cap/1 --name penal-code`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := fetch.NewClient(cfg.Fetch.ToFetchConfig())
			if err != nil {
				return err
			}

			result, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if name == "" {
				name = filepath.Base(args[0])
			}
			pagePath, err := client.SavePage(result, cfg.HTMLDir, name)
			if err != nil {
				return err
			}

			origin := "network"
			if result.FromCache {
				origin = "cache"
			}
			fmt.Printf("Saved %s (%d bytes, from %s)\n", pagePath, len(result.Body), origin)
			return nil
		},
	}

	cmd.Flags().String("name", "", "base name for the saved page (default: last URL segment)")
	return cmd
}

func reconstructCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconstruct [page.html]",
		Short: "Reconstruct a document's hierarchy from a saved page",
		Long: `Extract sections and the hidden outline from a saved page, rebuild
the Part/Chapter/Section hierarchy, and store the result in the library.

Example:
  lexstruct reconstruct html/penal-code.html
  lexstruct reconstruct html/penal-code.html --pattern hk-bilingual --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patternName, _ := cmd.Flags().GetString("pattern")
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			outlinePattern, err := loadPattern(cfg, patternName)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening page: %w", err)
			}
			defer file.Close()

			extracted, err := htmldoc.NewExtractor(outlinePattern).Extract(file)
			if err != nil {
				return err
			}

			title := extracted.Title
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), ".html")
			}

			result := hierarchy.NewEngine(outlinePattern).
				Reconstruct(extracted.OutlineText, extracted.Sections)

			document := &library.Document{
				ID:              library.MakeID(title),
				Title:           title,
				Tree:            result.Tree,
				Diagnostics:     result.Diagnostics,
				Completeness:    result.Completeness,
				ReconstructedAt: time.Now().UTC(),
			}

			lib, err := library.OpenOrInit(cfg.LibraryPath)
			if err != nil {
				return err
			}
			if err := lib.Put(document); err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(document)
			}

			stats := document.Stats()
			fmt.Printf("Stored %s: %d parts, %d chapters, %d sections (%s)\n",
				document.ID, stats.Parts, stats.Chapters, stats.Sections, document.Status())
			for _, diagnostic := range result.Diagnostics {
				fmt.Printf("  [%s] %s\n", diagnostic.Kind, diagnostic.Message)
			}
			if !result.Completeness.Clean() {
				fmt.Printf("  completeness: missing %v, duplicates %v\n",
					result.Completeness.Missing, result.Completeness.Duplicates)
			}
			return nil
		},
	}

	cmd.Flags().String("pattern", "", "outline pattern name from the patterns directory")
	cmd.Flags().Bool("json", false, "print the stored document as JSON")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return err
			}

			entries := lib.List()
			if len(entries) == 0 {
				fmt.Println("Library is empty.")
				return nil
			}

			fmt.Printf("%-30s %-10s %6s %8s %10s\n", "ID", "STATUS", "PARTS", "SECTIONS", "UNASSIGNED")
			for _, entry := range entries {
				fmt.Printf("%-30s %-10s %6d %8d %10d\n",
					entry.ID, entry.Status, entry.Stats.Parts, entry.Stats.Sections, entry.Stats.Unassigned)
			}
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [document-id...]",
		Short: "Analyze documents for missing and repealed sections",
		Long: `Analyze stored documents for gaps in their section numbering.
Repealed sections are recognized and not reported as missing.

With no arguments, every document in the library is analyzed.

Example:
  lexstruct analyze
  lexstruct analyze penal-code --format csv --output report.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			showDiff, _ := cmd.Flags().GetBool("diff")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				for _, entry := range lib.List() {
					ids = append(ids, entry.ID)
				}
			}

			var analyses []*analysis.DocumentAnalysis
			for _, id := range ids {
				document, err := lib.Get(id)
				if err != nil {
					return err
				}
				analyses = append(analyses, analysis.AnalyzeDocument(document.ID, document.Title, document.Tree))
			}

			out := os.Stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer file.Close()
				out = file
			}

			switch format {
			case "", "text":
				if err := analysis.WriteTextReport(out, analyses); err != nil {
					return err
				}
			case "json":
				if err := analysis.WriteJSONReport(out, analyses); err != nil {
					return err
				}
			case "csv":
				if err := analysis.WriteCSVReport(out, analyses); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want text, json or csv)", format)
			}

			if showDiff {
				for _, documentAnalysis := range analyses {
					diff, err := analysis.SequenceDiff(documentAnalysis)
					if err != nil {
						return err
					}
					if diff != "" {
						fmt.Fprintf(out, "\n%s\n%s", documentAnalysis.Name, diff)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().String("format", "text", "report format: text, json or csv")
	cmd.Flags().String("output", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("diff", false, "append a unified diff of expected vs found sections")
	return cmd
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [document-id]",
		Short: "Render a stored document as Markdown or HTML",
		Long: `Render a document from the library.

Example:
  lexstruct render penal-code --format html --output penal-code.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return err
			}
			document, err := lib.Get(args[0])
			if err != nil {
				return err
			}

			var rendered []byte
			switch format {
			case "", "markdown", "md":
				rendered = []byte(render.ToMarkdown(document))
			case "html":
				rendered, err = render.ToHTML(document)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want markdown or html)", format)
			}

			if output == "" {
				_, err = os.Stdout.Write(rendered)
				return err
			}
			if err := os.WriteFile(output, rendered, 0o644); err != nil {
				return fmt.Errorf("writing output file: %w", err)
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("format", "markdown", "output format: markdown or html")
	cmd.Flags().String("output", "", "write to a file instead of stdout")
	return cmd
}

func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk [pages-dir]",
		Short: "Reconstruct every page in a directory",
		Long: `Process all .html pages in a directory into the library. Already
processed pages are skipped on resumed runs unless --no-resume is set.

Example:
  lexstruct bulk html/
  lexstruct bulk html/ --workers 8 --no-resume`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			noResume, _ := cmd.Flags().GetBool("no-resume")
			patternName, _ := cmd.Flags().GetString("pattern")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Bulk.Workers
			}

			outlinePattern, err := loadPattern(cfg, patternName)
			if err != nil {
				return err
			}

			lib, err := library.OpenOrInit(cfg.LibraryPath)
			if err != nil {
				return err
			}

			runner := bulk.NewRunner(bulk.RunConfig{
				Workers: workers,
				Pattern: outlinePattern,
				Resume:  cfg.Bulk.Resume && !noResume,
			}, lib)

			report, err := runner.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Print(report.Summary())
			if report.Failed > 0 {
				return fmt.Errorf("%d pages failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().Int("workers", 0, "concurrent workers (default from config)")
	cmd.Flags().Bool("no-resume", false, "reprocess pages recorded in the run manifest")
	cmd.Flags().String("pattern", "", "outline pattern name from the patterns directory")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP",
		Long: `Start a read-only HTTP server over the library.

Endpoints:
  GET /healthz
  GET /documents
  GET /documents/{id}
  GET /documents/{id}/html
  GET /documents/{id}/analysis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}

			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return err
			}

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			server := api.NewServer(lib, log)

			log.Info("serving library", "addr", addr, "documents", len(lib.List()))
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}
