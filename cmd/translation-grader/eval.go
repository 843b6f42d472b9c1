package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/harness"
	"github.com/mikey/translation-grader/internal/ports"
)

var (
	evalDataset     string
	evalOutdir      string
	evalLabel       string
	evalStopOnFail  bool
	evalConcurrency int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the regression dataset through the grading pipeline",
	Long: `Runs every case of a JSONL dataset, checks the evaluations against their
expectations and writes a run artifact. Exits 1 when a case fails and 2 when
the dataset is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := harness.LoadCases(evalDataset)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return &exitError{code: 2, msg: fmt.Sprintf("no cases found in %s", evalDataset)}
		}

		return invokeCLI(func(svc *core.Service, grader core.Grader, store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)
			defer closeGrader(grader, logger)

			runner := harness.NewRunner(svc, os.Stdout, logger.Named("harness"))
			report, err := runner.Run(cmd.Context(), cases, harness.Options{
				Dataset:     evalDataset,
				Label:       evalLabel,
				Concurrency: evalConcurrency,
				StopOnFail:  evalStopOnFail,
			})
			if err != nil {
				return err
			}

			path, err := harness.WriteArtifact(evalOutdir, report)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote run artifact: %s\n", path)

			if code := report.ExitCode(); code != 0 {
				return &exitError{code: code, msg: fmt.Sprintf("%d of %d cases failed", report.Summary.Failed, len(report.Results))}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "Path to the JSONL dataset")
	evalCmd.Flags().StringVarP(&evalOutdir, "outdir", "o", "runs", "Directory for run artifacts")
	evalCmd.Flags().StringVar(&evalLabel, "label", "", "Label appended to the artifact name")
	evalCmd.Flags().BoolVar(&evalStopOnFail, "stop-on-fail", false, "Stop at the first failing case")
	evalCmd.Flags().IntVarP(&evalConcurrency, "concurrency", "j", 1, "Number of cases graded in parallel")
	_ = evalCmd.MarkFlagRequired("dataset")
}
