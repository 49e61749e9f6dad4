package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"aotbridge/internal/config"
	"aotbridge/internal/pipeline"
	"aotbridge/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "aotbridge",
		Short: "Ahead-of-time dependency resolver and native callback bridge generator",
	}
	configPath string
	dbPath     string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run ledger database (SQLite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	graphCmd.Flags().StringVar(&graphRoot, "root", "", "Only show the neighbourhood of this type")
	graphCmd.Flags().IntVar(&graphHops, "hops", 2, "Neighbourhood radius used with --root")
	inspectCmd.Flags().StringVar(&inspectRun, "run", "", "Run id (defaults to the latest run)")
	inspectCmd.Flags().BoolVar(&inspectList, "list", false, "List recent runs")
	impactCmd.Flags().StringVar(&impactBase, "base", "HEAD", "Git ref to diff against")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "types.yaml", "Where to write the catalog manifest")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadConfig applies flags and the optional path argument on top of the
// configuration file.
func loadConfig(args []string) *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(args) > 0 {
		cfg.Project.Root = args[0]
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	lvl, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Resolve the project and write the managed adapters and native glue",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(args)
		ctx, cancel := signalContext()
		defer cancel()

		fmt.Printf("🚀 Generating bridge for %s...\n", cfg.Project.Root)
		start := time.Now()

		res, err := pipeline.New(cfg, pipeline.WithLogger(newLogger(cfg))).Generate(ctx)
		if err != nil {
			printDiagnostic(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("✅ %d adapters, %d worker factories in %v (run %s)\n",
			len(res.Handles), len(res.Results)-len(res.Handles), time.Since(start).Round(time.Millisecond), res.RunID)
		fmt.Printf("  -> %s\n  -> %s\n", res.ManagedPath, res.NativePath)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Report every unresolved dependency without writing output",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(args)
		ctx, cancel := signalContext()
		defer cancel()

		res, err := pipeline.New(cfg, pipeline.WithLogger(newLogger(cfg))).Check(ctx)
		if err != nil {
			log.Fatalf("Check failed: %v", err)
		}

		if len(res.Problems) == 0 {
			fmt.Printf("✅ %d types, %d bridge requests, no problems\n", res.Catalog.Len(), len(res.Requests))
			fmt.Printf("  -> edges: %s\n", edgeSummary(res.Graph))
			return
		}
		for _, p := range res.Problems {
			printDiagnostic(os.Stderr, errors.New(p))
		}
		if res.Graph != nil {
			var parts []string
			for reason, n := range res.Graph.UnresolvedReasonCounts() {
				parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
			}
			if len(parts) > 0 {
				fmt.Printf("  -> unresolved: %s\n", strings.Join(sortedStrings(parts), ", "))
			}
		}
		fmt.Printf("❌ %d problems found\n", len(res.Problems))
		os.Exit(1)
	},
}

var (
	graphRoot string
	graphHops int
)

var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Print the dependency graph as a Mermaid class diagram",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(args)
		ctx, cancel := signalContext()
		defer cancel()

		res, err := pipeline.New(cfg, pipeline.WithLogger(newLogger(cfg))).Check(ctx)
		if err != nil {
			log.Fatalf("Failed to build graph: %v", err)
		}
		if res.Graph == nil {
			for _, p := range res.Problems {
				printDiagnostic(os.Stderr, errors.New(p))
			}
			os.Exit(1)
		}

		g := res.Graph
		if graphRoot != "" {
			if _, ok := g.Nodes[graphRoot]; !ok {
				log.Fatalf("Unknown type: %s", graphRoot)
			}
			g = g.Subgraph(graphRoot, graphHops)
		}
		fmt.Fprintf(os.Stderr, "%d types, edges: %s\n", len(g.Nodes), edgeSummary(g))
		fmt.Print(g.Mermaid())
	},
}

var (
	inspectRun  string
	inspectList bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show a recorded generation run",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(nil)
		ctx := context.Background()

		path := cfg.ResolvePath(cfg.Store.Path)
		if _, err := os.Stat(path); err != nil {
			log.Fatalf("No ledger at %s", filepath.Clean(path))
		}
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			log.Fatalf("Failed to open ledger: %v", err)
		}
		defer store.Close()

		if inspectList {
			runs, err := store.ListRuns(ctx, 20)
			if err != nil {
				log.Fatalf("Failed to list runs: %v", err)
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %-9s  %s\n", r.StartedAt.Local().Format(time.DateTime), r.ID, r.Status, r.Root)
			}
			return
		}

		var run *storage.Run
		if inspectRun != "" {
			run, err = store.LoadRun(ctx, inspectRun)
		} else {
			run, err = store.LatestRun(ctx)
		}
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}
		printRun(run)
	},
}

var scanOutput string

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan C# sources and write the type catalog as a YAML manifest",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(args)
		ctx, cancel := signalContext()
		defer cancel()

		fmt.Printf("🚀 Scanning %s...\n", cfg.Project.Root)
		idx, err := pipeline.New(cfg, pipeline.WithLogger(newLogger(cfg))).Indexer()
		if err != nil {
			log.Fatalf("Failed to create indexer: %v", err)
		}
		c, err := idx.BuildCatalog(ctx, cfg.Project.Root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		if err := idx.SaveManifest(c, scanOutput); err != nil {
			log.Fatalf("Failed to save manifest: %v", err)
		}
		fmt.Printf("✅ %d types written to %s\n", c.Len(), scanOutput)
	},
}

var impactBase string

var impactCmd = &cobra.Command{
	Use:   "impact [path]",
	Short: "Show which types and generated adapters a git change affects",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(args)
		ctx, cancel := signalContext()
		defer cancel()

		fmt.Printf("🔍 Analyzing changes against %s...\n", impactBase)
		res, err := pipeline.New(cfg, pipeline.WithLogger(newLogger(cfg))).Impact(ctx, impactBase)
		if err != nil {
			log.Fatalf("Impact analysis failed: %v", err)
		}

		if len(res.Report.DirectlyAffected) == 0 {
			fmt.Printf("✅ %d changed files, no declared types affected\n", len(res.Changes))
			return
		}
		fmt.Println("\nChanged types:")
		for _, n := range res.Report.DirectlyAffected {
			fmt.Printf("  - %s (%s:%d)\n", n.ID(), n.Type.Pos.File, n.Type.Pos.Line)
		}
		if len(res.Report.IndirectlyAffected) > 0 {
			fmt.Println("\nDependent types:")
			for _, n := range res.Report.IndirectlyAffected {
				fmt.Printf("  - %s\n", n.ID())
			}
		}
		if res.BaselineRun == "" {
			fmt.Println("\n⚠️  No successful run recorded; adapters unknown")
			return
		}
		fmt.Printf("\nAdapters affected since run %s:\n", res.BaselineRun)
		for _, a := range res.Adapters {
			fmt.Printf("  %3d  %s\n", a.Handle, a.Adapter)
		}
		if len(res.Adapters) == 0 {
			fmt.Println("  (none)")
		}
	},
}

func printRun(r *storage.Run) {
	fmt.Printf("Run:      %s\n", r.ID)
	fmt.Printf("Root:     %s\n", r.Root)
	fmt.Printf("Started:  %s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Printf("Duration: %v\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("Status:   %s\n", r.Status)
	if r.Error != "" {
		fmt.Printf("Error:    %s\n", r.Error)
	}
	if r.ManagedPath != "" {
		fmt.Printf("Outputs:  %s, %s\n", r.ManagedPath, r.NativePath)
	}
	fmt.Printf("Types:    %d\n", len(r.Types))
	if len(r.Registrations) > 0 {
		fmt.Println("\nHandles:")
		for _, reg := range r.Registrations {
			fmt.Printf("  %3d  %-32s %s.%s  %s\n", reg.Handle, reg.Adapter, reg.Owner, reg.Method, reg.Template)
		}
	}
	if len(r.Workers) > 0 {
		fmt.Println("\nWorkers:")
		for _, w := range r.Workers {
			fmt.Printf("  %-32s %s\n", w.Factory, w.Type)
		}
	}
}
