package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/ports"
)

var cacheListLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the feedback cache",
	Long:  `List, inspect and summarise cached evaluations.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent cached evaluations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			entries, err := store.ListFeedback(cmd.Context(), cacheListLimit)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No cached evaluations.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLEVEL\tSENTENCE\tVERDICT\tHITS\tMODEL\tCREATED\tSUBMISSION")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
					e.ID, e.Level, e.SentenceID, e.Verdict, e.HitCount, e.ModelID,
					e.CreatedAt.Format("2006-01-02 15:04"), snippet(e.NormalizedSubmission, 40))
			}
			return w.Flush()
		})
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			fmt.Printf("Total entries: %d\n", stats.Entries)
			fmt.Printf("Total hits:    %d\n", stats.TotalHits)

			verdicts := make([]core.Verdict, 0, len(stats.ByVerdict))
			for v := range stats.ByVerdict {
				verdicts = append(verdicts, v)
			}
			slices.Sort(verdicts)
			for _, v := range verdicts {
				fmt.Printf("  %-10s %d\n", v, stats.ByVerdict[v])
			}
			return nil
		})
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one cached evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}

		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			entry, err := store.GetFeedback(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get entry %d: %w", id, err)
			}
			ev, err := entry.Evaluation()
			if err != nil {
				return err
			}

			fmt.Printf("Signature: %s\n", entry.Signature)
			fmt.Printf("Sentence:  %d (%s)\n", entry.SentenceID, entry.Level)
			fmt.Printf("Model:     %s / %s\n", entry.ModelID, entry.PromptVersion)
			fmt.Printf("Hits:      %d\n", entry.HitCount)
			fmt.Printf("Created:   %s\n\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
			printEvaluation(os.Stdout, ev, nil)
			return nil
		})
	},
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheListCmd.Flags().IntVarP(&cacheListLimit, "limit", "n", 20, "Maximum number of entries")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
