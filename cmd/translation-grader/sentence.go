package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/ports"
)

var (
	nextLevel string
	nextAvoid int64
)

var sentenceCmd = &cobra.Command{
	Use:   "sentence",
	Short: "Work with curated source sentences",
}

var sentenceNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Pick a practice sentence at a level",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := core.ParseLevel(strings.ToUpper(nextLevel))
		if err != nil {
			return err
		}

		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			s, err := store.RandomSentence(cmd.Context(), level, nextAvoid)
			if err != nil {
				return fmt.Errorf("failed to pick a sentence: %w", err)
			}
			fmt.Printf("#%d [%s] %s\n", s.ID, s.Level, s.Sentence)
			return nil
		})
	},
}

var sentenceGoldCmd = &cobra.Command{
	Use:   "gold <sentence id> [translation]",
	Short: "List the gold translations of a sentence, or add one",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscan(args[0], &id); err != nil {
			return fmt.Errorf("invalid sentence id %q", args[0])
		}

		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			if len(args) == 2 {
				added, err := store.AddTranslation(cmd.Context(), id, args[1])
				if err != nil {
					return fmt.Errorf("failed to add translation: %w", err)
				}
				if !added {
					fmt.Println("Translation already present.")
					return nil
				}
				fmt.Println("Translation added.")
				return nil
			}

			golds, err := store.GoldTranslations(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to list translations: %w", err)
			}
			for _, g := range golds {
				fmt.Println(g)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sentenceCmd)

	sentenceNextCmd.Flags().StringVarP(&nextLevel, "level", "l", "A1", "Proficiency level (A1-C2)")
	sentenceNextCmd.Flags().Int64Var(&nextAvoid, "avoid", 0, "Sentence id to avoid repeating")

	sentenceCmd.AddCommand(sentenceNextCmd)
	sentenceCmd.AddCommand(sentenceGoldCmd)
}
