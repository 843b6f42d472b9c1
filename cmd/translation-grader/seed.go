package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/adapters/storage"
	"github.com/mikey/translation-grader/internal/ports"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load curated sentences and gold translations",
	Long:  `Loads a YAML seed file into the store. Seeding is idempotent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := storage.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}

		return invokeCLI(func(store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)

			report, err := storage.Seed(cmd.Context(), store, file, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d new sentences and %d new translations.\n", report.Sentences, report.Translations)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "sentences.yaml", "Seed file path")
}
