package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/di"
	"github.com/mikey/translation-grader/internal/factory"
	"github.com/mikey/translation-grader/internal/ports"
)

var version = "0.1.0"

var flags = &di.CLIFlags{}

var rootCmd = &cobra.Command{
	Use:   "translation-grader",
	Short: "Grade English to Norwegian translations",
	Long: `Grades a learner's Norwegian (bokmål) translation of an English sentence.

Submissions are checked against curated gold translations, a LanguageTool
grammar signal and an LLM grader, then merged into one verdict. Results for
curated sentences are cached by content signature.`,
	Version:      version,
	SilenceUsage: true,
}

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

// invokeCLI runs fn with dependencies from the one-shot container
func invokeCLI(fn interface{}) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}

func closeStore(store ports.Store, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}
}

func closeGrader(grader core.Grader, logger *zap.Logger) {
	if err := factory.CloseGrader(grader); err != nil {
		logger.Error("Failed to close grader", zap.Error(err))
	}
}
