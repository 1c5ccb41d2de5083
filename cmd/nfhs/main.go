package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/audit"
	"github.com/nfhs-dash/internal/config"
	"github.com/nfhs-dash/internal/db"
	"github.com/nfhs-dash/internal/etl"
	"github.com/nfhs-dash/internal/logging"
	"github.com/nfhs-dash/internal/reconcile"
	"github.com/nfhs-dash/internal/source"
	"github.com/nfhs-dash/internal/web"
)

var (
	configFile string
	debugFlag  bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nfhs",
		Short: "NFHS district indicator dashboard",
		Long:  `Reconciles NFHS survey names against district boundaries, cleans indicator values and serves the comparison views`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(); err != nil {
				return err
			}
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return err
			}
			if debugFlag {
				cfg.Debug = true
				cfg.Logging.Level = "debug"
			}
			logger, _, err = logging.New(cfg.Logging)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "nfhs.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug output")

	rootCmd.AddCommand(createBuildCmd())
	rootCmd.AddCommand(createReconcileCmd())
	rootCmd.AddCommand(createRejectionsCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newStore wires the pipeline, file loader and override table from config
func newStore() (*etl.Store, error) {
	table, err := cfg.LoadOverrides()
	if err != nil {
		return nil, err
	}
	opts := cfg.PipelineOptions()
	opts.Logger = logger.Named("etl")
	pipeline, err := etl.NewPipeline(opts)
	if err != nil {
		return nil, err
	}
	return etl.NewStore(pipeline, etl.NewFileLoader(cfg.Sources), table, logger.Named("store")), nil
}

// buildSnapshot runs one build and records it when an audit store is set
func buildSnapshot(ctx context.Context) (*etl.Snapshot, error) {
	store, err := newStore()
	if err != nil {
		return nil, err
	}
	snap, err := store.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := recordAudit(snap); err != nil {
		logger.Warn("failed to record audit trail", zap.Error(err))
	}
	return snap, nil
}

func openStore() (*db.Connection, error) {
	if cfg.Store.Driver == "" {
		return nil, nil
	}
	return db.Open(cfg.Store.Driver, cfg.Store.DSN)
}

func recordAudit(snap *etl.Snapshot) error {
	conn, err := openStore()
	if err != nil || conn == nil {
		return err
	}
	defer conn.Close()

	tracker := audit.NewTracker(conn)
	if err := tracker.EnsureSchema(); err != nil {
		return err
	}
	return tracker.RecordSnapshot(cfg.Debug, snap)
}

func createBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build a snapshot and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := buildSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			sum := snap.Summary()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Snapshot %s (%s)\n", sum.ID, sum.BuiltAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Boundary features: %d\n", sum.Features)
			fmt.Fprintf(out, "Overrides: %d entries (%s %s)\n", sum.Overrides, sum.OverridesSource, sum.OverridesVersion)
			fmt.Fprintf(out, "Districts keyed: %d of %d\n", sum.Reconciliation.Keyed, len(snap.Reconciliation.SubRegions))
			for name, rows := range sum.Rows {
				fmt.Fprintf(out, "%-10s %d rows in, %d kept, %d cells rejected\n", name, rows.Input, rows.Kept, rows.Rejected)
			}
			for kind, n := range sum.Anomalies {
				fmt.Fprintf(out, "Anomalies %s: %d\n", kind, n)
			}
			for _, name := range snap.FailedSources() {
				fmt.Fprintf(out, "Source %s unavailable: %s\n", name, snap.SourceErrors[name])
			}
			return nil
		},
	}
}

func createReconcileCmd() *cobra.Command {
	var anomaliesOnly bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Print the region and district match tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := buildSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			rec := snap.Reconciliation
			out := cmd.OutOrStdout()

			if !anomaliesOnly {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "REGION\tDISTRICT\tKEY\tMETHOD\tSCORE")
				for _, m := range rec.SubRegions {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\n", m.Region, m.SubRegion, m.Key, m.Method, m.Score)
				}
				tw.Flush()
				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "%d anomalies (%d unmatched, %d ambiguous, %d unknown override targets)\n",
				len(rec.Report.Anomalies),
				rec.Report.Count(reconcile.KindUnmatched),
				rec.Report.Count(reconcile.KindAmbiguous),
				rec.Report.Count(reconcile.KindUnknownTarget))
			for _, a := range rec.Report.Anomalies {
				fmt.Fprintf(out, "  %s\n", a)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&anomaliesOnly, "anomalies-only", false, "print only the anomaly report")
	return cmd
}

func createRejectionsCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "rejections",
		Short: "Print the indicator cleaning report",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := buildSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "districts: %s", snap.District.Report())
			if snap.Trend != nil {
				fmt.Fprintf(out, "trend: %s", snap.Trend.Report())
			}
			if snap.Equity != nil {
				fmt.Fprintf(out, "equity: %s", snap.Equity.Report())
			}
			if verbose {
				for _, r := range snap.Rejections() {
					fmt.Fprintf(out, "  %s\n", r)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every rejected cell")
	return cmd
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build a snapshot and serve the query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := newStore()
			if err != nil {
				return err
			}
			store.OnSwap(func(snap *etl.Snapshot) {
				if err := recordAudit(snap); err != nil {
					logger.Warn("failed to record audit trail", zap.Error(err))
				}
			})
			if _, err := store.Refresh(ctx); err != nil {
				return fmt.Errorf("failed to build initial snapshot: %w", err)
			}

			server := web.NewServer(cfg.Web, store, logger.Named("web"))
			return server.Start(ctx)
		},
	}
}

func createExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [workbook.xlsx | directory]",
		Short: "Write the match tables and reports to a workbook or CSV directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := buildSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := args[0]
			if strings.EqualFold(filepath.Ext(out), ".xlsx") {
				if err := source.WriteXLSX(out, snap.Tables()...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				return nil
			}
			n, err := source.WriteCSVDir(out, snap.Tables()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", n, out)
			return nil
		},
	}
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test audit database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openStore()
			if err != nil {
				return err
			}
			if conn == nil {
				if conn, err = db.NewConnection(); err != nil {
					return err
				}
			}
			defer conn.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database connection successful! (%s)\n", conn.Driver)

			tracker := audit.NewTracker(conn)
			if err := tracker.EnsureSchema(); err != nil {
				return err
			}
			runs, err := tracker.RecentRuns(5)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded snapshots: %d shown\n", len(runs))
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  %d rejections, %d anomalies\n",
					r.ID, r.BuiltAt.Format("2006-01-02 15:04"), r.Rejections, r.Anomalies)
			}
			return nil
		},
	}
}
