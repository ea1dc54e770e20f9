package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/app"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/config"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncctl failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer runtime.Close()

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "One-shot catalog sync operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		jobCommand(ctx, runtime),
		searchCommand(ctx, runtime),
		importCommand(ctx, runtime),
		purgeCommand(runtime),
		cleanupCommand(runtime),
		topCommand(runtime),
	)
	root.SetArgs(os.Args[1:])

	return root.ExecuteContext(ctx)
}

// jobCommand runs a single configured job by id.
func jobCommand(ctx context.Context, runtime *app.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Run one configured sync job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runtime.RunJobByID(ctx, args[0])
			printJSON(report)
			return err
		},
	}
}

// searchCommand performs a read-only catalog search without persisting.
func searchCommand(ctx context.Context, runtime *app.Runtime) *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the catalog without writing to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := runtime.Engine().SearchWithoutPersist(ctx, args[0], maxResults)
			if err != nil {
				return err
			}
			printJSON(results)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxResults, "max", 50, "maximum results to fetch")
	return cmd
}

// importCommand imports the results of a search term.
func importCommand(ctx context.Context, runtime *app.Runtime) *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "import <term>",
		Short: "Import catalog records matching a search term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, report, err := runtime.Engine().ImportBySearchTerm(ctx, args[0], maxResults)
			if report != nil {
				printJSON(report)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&maxResults, "max", 50, "maximum results to import")
	return cmd
}

// purgeCommand removes aggregates below the vote threshold.
func purgeCommand(runtime *app.Runtime) *cobra.Command {
	var minVotes int64
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete aggregates below a vote-count threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := runtime.Engine().PurgeLowQuality(minVotes)
			if err != nil {
				return err
			}
			fmt.Printf("purged %d aggregates\n", removed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&minVotes, "min-votes", 10, "minimum rating count to keep")
	return cmd
}

// cleanupCommand strips stale numeric slug suffixes across the store.
func cleanupCommand(runtime *app.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-slugs",
		Short: "Re-derive clean slugs for previously suffixed identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := runtime.Engine().CleanupSlugs()
			if err != nil {
				return err
			}
			fmt.Printf("cleaned %d slugs\n", changed)
			return nil
		},
	}
}

// topCommand prints the deduplicated ranked list.
func topCommand(runtime *app.Runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the top ranked games with variants collapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := runtime.TopRanked(limit)
			if err != nil {
				return err
			}
			printJSON(games)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "number of entries to show")
	return cmd
}

func printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return
	}
	fmt.Println(string(encoded))
}
