package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
)

var (
	askCorpus    string
	askSession   string
	askMaxChunks int
	askMinScore  float64
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a corpus",
	Long: `Answers a question grounded in a corpus's source text.

The question is matched against the corpus with all four retrieval
signals and the answer cites the passages it was grounded in. Pass
--session to continue an earlier conversation; follow-up questions
are interpreted in the context of the recent exchanges.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCorpus, "corpus", "c", "", "corpus ID to query (required)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID to continue a conversation")
	askCmd.Flags().IntVarP(&askMaxChunks, "max-chunks", "n", 0, "maximum context chunks (default: corpus setting)")
	askCmd.Flags().Float64Var(&askMinScore, "min-score", 0, "minimum fused relevance score")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output response as JSON")
	_ = askCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	resp, err := askService.Ask(context.Background(), driving.AskRequest{
		CorpusID:  askCorpus,
		Question:  args[0],
		SessionID: askSession,
		MaxChunks: askMaxChunks,
		MinScore:  askMinScore,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAskResponse(cmd, resp)
	return nil
}

func printAskResponse(cmd *cobra.Command, resp *driving.AskResponse) {
	cmd.Println(resp.Answer)

	if len(resp.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range resp.Citations {
			cmd.Printf("  [%s] (%.4f)\n", c.Provenance, c.Score)
		}
	}
	if resp.NoContext {
		cmd.Println()
		cmd.Println("Note: no relevant passages were found; the answer is not grounded in the corpus.")
	}
	if len(resp.Degraded) > 0 {
		cmd.Printf("\nWarning: retrieval ran without %d signal(s):", len(resp.Degraded))
		for _, sig := range resp.Degraded {
			cmd.Printf(" %s", sig)
		}
		cmd.Println()
	}

	cmd.Println()
	cmd.Printf("Session: %s (turn %d)\n", resp.SessionID, resp.TurnSeq)
}
