package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/aisflow/aisflow/internal/pipeline"
	"github.com/aisflow/aisflow/internal/scan"
	"github.com/aisflow/aisflow/internal/store"
	"github.com/aisflow/aisflow/internal/telemetry"
	"github.com/aisflow/aisflow/pkg/config"
	"github.com/aisflow/aisflow/pkg/validate"
)

var (
	runInputDir string
	runBackend  string
	runDSN      string
	runErrDir   string
	runSource   int
	runQueueCap int
	runVerbose  bool
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest all files from the input directory",
	Long: `Run one ingestion pass: every supported file in the input directory is
parsed, validated, and bulk-loaded. Files with an existing ingestion
record are skipped, so re-running after adding files is safe.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runInputDir, "input", "i", "", "Input directory (overrides config)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "Storage backend: postgres, duckdb")
	runCmd.Flags().StringVar(&runDSN, "dsn", "", "Storage DSN / database path")
	runCmd.Flags().StringVar(&runErrDir, "errors", "", "Error log directory")
	runCmd.Flags().IntVar(&runSource, "source", 0, "Provenance tag for ingested records")
	runCmd.Flags().IntVar(&runQueueCap, "queue", 0, "Queue capacity per sink")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Debug logging")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	level := slog.LevelInfo
	if runVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx, telemetry.Config{
			Endpoint:       cfg.Telemetry.Endpoint,
			ServiceVersion: version,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	st, err := store.Open(ctx, store.Options{
		Backend: store.Backend(cfg.Storage.Backend),
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	files, err := scan.Files(cfg.Input.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println(mutedStyle.Render("No input files found in " + cfg.Input.Dir))
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	p := pipeline.New(st, pipeline.Config{
		QueueCapacity: cfg.Pipeline.QueueCapacity,
		ErrorLogDir:   cfg.Pipeline.ErrorLogDir,
		Source:        cfg.Input.Source,
		Rules:         validate.DefaultRules(),
		OnFileDone: func(pipeline.FileReport) {
			bar.Add(1)
		},
	}, log)

	start := time.Now()
	if err := p.Run(ctx, files); err != nil {
		return err
	}
	bar.Finish()

	m := p.Metrics()
	fmt.Println(okStyle.Render("✓ ingestion complete"))
	fmt.Printf("  %s %d files (%d skipped) in %s\n",
		mutedStyle.Render("Processed:"),
		m.FilesProcessed.Load(), m.FilesSkipped.Load(),
		time.Since(start).Round(time.Millisecond))
	fmt.Printf("  %s %d clean / %d dirty / %d invalid\n",
		mutedStyle.Render("Records:"),
		m.Clean.Load(), m.Dirty.Load(), m.Invalid.Load())
	fmt.Printf("  %s %d clean / %d dirty",
		mutedStyle.Render("Persisted:"),
		m.CleanPersisted.Load(), m.DirtyPersisted.Load())
	if n := m.PersistFailures.Load(); n > 0 {
		fmt.Printf("  (%d batches dropped)", n)
	}
	fmt.Println()
	return nil
}

func applyRunFlags(cfg *config.Config) {
	if runInputDir != "" {
		cfg.Input.Dir = runInputDir
	}
	if runBackend != "" {
		cfg.Storage.Backend = runBackend
	}
	if runDSN != "" {
		cfg.Storage.DSN = runDSN
	}
	if runErrDir != "" {
		cfg.Pipeline.ErrorLogDir = runErrDir
	}
	if runSource != 0 {
		cfg.Input.Source = runSource
	}
	if runQueueCap > 0 {
		cfg.Pipeline.QueueCapacity = runQueueCap
	}
}
