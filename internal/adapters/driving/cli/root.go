// Package cli implements the command-line driving adapter.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Wired lazily by ensureServices; tests
// inject their own and skip the wiring entirely.
var (
	ingestService    driving.IngestService
	askService       driving.AskService
	retrievalService Retriever
	corpusStore      driven.CorpusStore
	chunkStore       driven.ChunkStore
	configStore      driven.ConfigStore
	promptStore      PromptSource
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kroniek",
	Short: "Question answering over historical text collections",
	Long: `Kroniek indexes historical source texts and answers questions
about them, grounded in the actual documents.

Each corpus is chunked, embedded and indexed four ways (semantic,
keyword, fuzzy and phonetic). Questions retrieve the best-matching
passages across all four signals and every answer cites the passages
it was grounded in.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
