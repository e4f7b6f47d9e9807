package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

var (
	queryCorpus   string
	queryLimit    int
	queryMinScore float64
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve matching passages without generating an answer",
	Long: `Runs hybrid retrieval against a corpus and prints the fused
candidate passages. Combines semantic, keyword, fuzzy and phonetic
matching; useful for inspecting what 'ask' would ground its answer in.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCorpus, "corpus", "c", "", "corpus ID to query (required)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of passages (default: corpus setting)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "minimum fused relevance score")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	_ = queryCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if retrievalService == nil || chunkStore == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	result, err := retrievalService.Retrieve(ctx, queryCorpus, args[0], domain.RetrievalOptions{
		Limit:    queryLimit,
		MinScore: queryMinScore,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.Empty() {
		cmd.Println("No matching passages.")
		return nil
	}

	seqs := make([]int, len(result.Chunks))
	for i, c := range result.Chunks {
		seqs[i] = c.Seq
	}
	chunks, err := chunkStore.GetChunks(ctx, queryCorpus, seqs)
	if err != nil {
		return fmt.Errorf("load passages: %w", err)
	}
	bySeq := make(map[int]domain.Chunk, len(chunks))
	for _, chunk := range chunks {
		bySeq[chunk.Seq] = chunk
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i, candidate := range result.Chunks {
		chunk, ok := bySeq[candidate.Seq]
		if !ok {
			continue
		}
		cmd.Printf("  [%d] %s (%.4f, %d signals)\n", i+1, chunk.Provenance(), candidate.Score, candidate.Signals)
		cmd.Printf("      %s\n\n", snippet(chunk.Text, 160))
	}

	if len(result.Degraded) > 0 {
		names := make([]string, len(result.Degraded))
		for i, sig := range result.Degraded {
			names[i] = string(sig)
		}
		cmd.Printf("Warning: retrieval ran without: %s\n", strings.Join(names, ", "))
	}
	return nil
}

// snippet collapses whitespace and truncates text for display.
func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
