package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/ports"
)

var (
	gradeLevel      string
	gradeEnglish    string
	gradeSentenceID int64
	gradeJSON       bool
)

var gradeCmd = &cobra.Command{
	Use:   "grade <norwegian text>",
	Short: "Grade one submission",
	Long: `Grades one Norwegian submission. Pass --sentence-id to grade against a
curated sentence (the English text is then optional and results are cached),
or --english for an ad hoc sentence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &core.GradingRequest{
			Level:         core.Level(strings.ToUpper(gradeLevel)),
			English:       gradeEnglish,
			UserNorwegian: strings.Join(args, " "),
		}
		if gradeSentenceID != 0 {
			req.SentenceID = &gradeSentenceID
		}

		return invokeCLI(func(svc *core.Service, grader core.Grader, store ports.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer closeStore(store, logger)
			defer closeGrader(grader, logger)

			ev, id, err := svc.Evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}

			if gradeJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Evaluation *core.Evaluation `json:"evaluation"`
					FeedbackID *int64           `json:"feedback_id"`
				}{ev, id})
			}

			printEvaluation(os.Stdout, ev, id)
			return nil
		})
	},
}

func printEvaluation(w io.Writer, ev *core.Evaluation, id *int64) {
	fmt.Fprintf(w, "Verdict:   %s\n", ev.Verdict)
	fmt.Fprintf(w, "Meaning:   %s\n", ev.Meaning)
	fmt.Fprintf(w, "Corrected: %s\n", ev.Corrected)
	if len(ev.Issues) > 0 {
		fmt.Fprintln(w, "Issues:")
		for i, iss := range ev.Issues {
			fmt.Fprintf(w, "  %d. [%s/%s] %s → %s\n", i+1, iss.Severity, iss.Category, iss.Explanation, iss.Fix)
		}
	}
	fmt.Fprintf(w, "Rule:      %s\n", ev.ShortRule)
	if id != nil {
		fmt.Fprintf(w, "Feedback:  #%d\n", *id)
	}
}

func init() {
	rootCmd.AddCommand(gradeCmd)

	gradeCmd.Flags().StringVarP(&gradeLevel, "level", "l", "A1", "Proficiency level (A1-C2)")
	gradeCmd.Flags().StringVarP(&gradeEnglish, "english", "e", "", "English source sentence")
	gradeCmd.Flags().Int64VarP(&gradeSentenceID, "sentence-id", "s", 0, "Curated sentence id")
	gradeCmd.Flags().BoolVar(&gradeJSON, "json", false, "Print the evaluation as JSON")
}
