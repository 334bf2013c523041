package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/espn"
	"github.com/WessleyAI/courtside/engine/ingest"
)

var (
	ingestForce    bool
	ingestRecreate bool
	ingestDir      string

	syncSchedule    string
	syncMetricsAddr string
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build cards from cached feed files and upsert them",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestForce, "force", false, "Re-embed cards whose content is unchanged")
	cmd.Flags().BoolVar(&ingestRecreate, "recreate", false, "Drop the collection before ingesting (implies --force)")
	cmd.Flags().StringVar(&ingestDir, "dir", "", "Feed directory (overrides files.data_dir)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	orch, err := a.orchestrator(ctx, ingestRecreate)
	if err != nil {
		return err
	}
	dir := a.cfg.Files.DataDir
	if ingestDir != "" {
		dir = ingestDir
	}
	rep, err := orch.Run(ctx, &ingest.FileSource{Dir: dir, Files: a.cfg.Files.Paths}, runOptions(ingestForce, ingestRecreate))
	printReport(cmd.OutOrStdout(), rep)
	return err
}

// runOptions forces a run into a recreated collection: the ledger still
// remembers hashes for points that no longer exist.
func runOptions(force, recreate bool) ingest.Options {
	return ingest.Options{Force: force || recreate}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch live ESPN feeds and upsert them, once or on a schedule",
		Args:  cobra.NoArgs,
		RunE:  runSync,
	}
	cmd.Flags().BoolVar(&ingestForce, "force", false, "Re-embed cards whose content is unchanged")
	cmd.Flags().StringVar(&syncSchedule, "schedule", "", "Cron spec, e.g. \"*/15 * * * *\" (overrides schedule)")
	cmd.Flags().StringVar(&syncMetricsAddr, "metrics-addr", "", "Serve /metrics on this address (overrides metrics.addr)")
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	orch, err := a.orchestrator(ctx, false)
	if err != nil {
		return err
	}
	src := &ingest.LiveSource{
		Fetcher: espn.NewClient(a.cfg.ClientConfig(), a.log),
		Feeds:   a.cfg.Feeds(),
		Metrics: a.metrics,
		Logger:  a.log,
	}

	addr := a.cfg.Metrics.Addr
	if syncMetricsAddr != "" {
		addr = syncMetricsAddr
	}
	if addr != "" {
		go func() {
			a.log.Info("metrics listening", zap.String("addr", addr))
			if err := a.metrics.Serve(addr); err != nil {
				a.log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	spec := a.cfg.Schedule
	if syncSchedule != "" {
		spec = syncSchedule
	}
	if spec == "" {
		rep, err := orch.Run(ctx, src, ingest.Options{Force: ingestForce})
		printReport(cmd.OutOrStdout(), rep)
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(spec, func() {
		if _, err := orch.Run(ctx, src, ingest.Options{Force: ingestForce}); err != nil {
			a.log.Error("scheduled sync failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	a.log.Info("sync scheduled", zap.String("schedule", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func printReport(w io.Writer, rep ingest.Report) {
	fmt.Fprintln(w, "Ingestion complete.")
	fmt.Fprintf(w, "  Records processed: %d\n", rep.Processed)
	fmt.Fprintf(w, "  Cards built:       %d\n", rep.Cards)
	fmt.Fprintf(w, "  Upserted:          %d\n", rep.Upserted)
	fmt.Fprintf(w, "  Unchanged:         %d\n", rep.Unchanged)
	fmt.Fprintf(w, "  Malformed:         %d\n", rep.Malformed)
	fmt.Fprintf(w, "  Embed failures:    %d\n", rep.EmbedFailures)
	if len(rep.SkippedSources) > 0 {
		fmt.Fprintf(w, "\nSkipped sources (%d):\n", len(rep.SkippedSources))
		for _, s := range rep.SkippedSources {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
