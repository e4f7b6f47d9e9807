package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage text corpora",
	Long:  `Add, inspect, reprocess or remove indexed text corpora.`,
}

var (
	corpusAddFile         string
	corpusAddName         string
	corpusAddDescription  string
	corpusAddSource       string
	corpusAddModel        string
	corpusAddChunkSize    int
	corpusAddChunkOverlap int
	corpusAddWait         bool
)

var corpusAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a corpus from a text file",
	Long: `Reads a document, splits it into chunks, embeds them and builds
the retrieval indexes. Processing runs in the background; use --wait
to block until the corpus is ready, or 'corpus status' to poll.

Use --file - to read the document from stdin. Form-feed characters
in the input mark page boundaries for citation purposes.`,
	RunE: runCorpusAdd,
}

var corpusStatusJSON bool

var corpusStatusCmd = &cobra.Command{
	Use:   "status [corpus-id]",
	Short: "Show corpus processing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusStatus,
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all corpora",
	RunE:  runCorpusList,
}

var corpusCancelCmd = &cobra.Command{
	Use:   "cancel [corpus-id]",
	Short: "Cancel in-flight corpus processing",
	Long: `Aborts a running processing job. The corpus is marked failed and
no partially indexed chunks become visible to queries.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusCancel,
}

var corpusReprocessWait bool

var corpusReprocessCmd = &cobra.Command{
	Use:   "reprocess [corpus-id]",
	Short: "Rebuild a corpus from its stored document text",
	Long: `Re-runs chunking, embedding and indexing for an existing corpus.
Queries keep seeing the old chunk set until the new one is ready.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusReprocess,
}

var corpusDeleteCmd = &cobra.Command{
	Use:   "delete [corpus-id]",
	Short: "Delete a corpus and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusDelete,
}

func init() {
	corpusAddCmd.Flags().StringVarP(&corpusAddFile, "file", "f", "", "document file to ingest, or - for stdin (required)")
	corpusAddCmd.Flags().StringVarP(&corpusAddName, "name", "n", "", "corpus display name (required)")
	corpusAddCmd.Flags().StringVarP(&corpusAddDescription, "description", "d", "", "corpus description")
	corpusAddCmd.Flags().StringVar(&corpusAddSource, "source", "", "provenance label for citations (default: name)")
	corpusAddCmd.Flags().StringVar(&corpusAddModel, "model", "", "embedding model (default: configured model)")
	corpusAddCmd.Flags().IntVar(&corpusAddChunkSize, "chunk-size", 0, "chunk size in characters")
	corpusAddCmd.Flags().IntVar(&corpusAddChunkOverlap, "chunk-overlap", 0, "chunk overlap in characters")
	corpusAddCmd.Flags().BoolVarP(&corpusAddWait, "wait", "w", false, "block until processing finishes")
	_ = corpusAddCmd.MarkFlagRequired("file")
	_ = corpusAddCmd.MarkFlagRequired("name")

	corpusStatusCmd.Flags().BoolVar(&corpusStatusJSON, "json", false, "output status as JSON")
	corpusReprocessCmd.Flags().BoolVarP(&corpusReprocessWait, "wait", "w", false, "block until processing finishes")

	corpusCmd.AddCommand(corpusAddCmd)
	corpusCmd.AddCommand(corpusStatusCmd)
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusCancelCmd)
	corpusCmd.AddCommand(corpusReprocessCmd)
	corpusCmd.AddCommand(corpusDeleteCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusAdd(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	text, err := readDocument(corpusAddFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id, err := ingestService.SubmitCorpus(ctx, driving.SubmitRequest{
		Name:           corpusAddName,
		Description:    corpusAddDescription,
		Text:           text,
		Source:         corpusAddSource,
		EmbeddingModel: corpusAddModel,
		ChunkSize:      corpusAddChunkSize,
		ChunkOverlap:   corpusAddChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("submit corpus: %w", err)
	}

	cmd.Printf("Corpus %s submitted.\n", id)

	if !corpusAddWait {
		cmd.Printf("Check progress with: kroniek corpus status %s\n", id)
		return nil
	}

	cmd.Println("Processing...")
	ingestService.Wait(id)

	status, err := ingestService.Status(ctx, id)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	if status.Status == domain.StatusFailed {
		return fmt.Errorf("processing failed: %s", status.ErrorDetail)
	}
	cmd.Printf("Corpus ready: %d chunks indexed.\n", status.ChunkCount)
	return nil
}

func runCorpusStatus(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestService.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	if corpusStatusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Status: %s\n", status.Status)
	cmd.Printf("Chunks: %d\n", status.ChunkCount)
	cmd.Printf("Embedding model: %s\n", status.EmbeddingModel)
	if status.ErrorDetail != "" {
		cmd.Printf("Error: %s\n", status.ErrorDetail)
	}
	return nil
}

func runCorpusList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if corpusStore == nil {
		return errors.New("corpus store not configured")
	}

	corpora, err := corpusStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("list corpora: %w", err)
	}

	if len(corpora) == 0 {
		cmd.Println("No corpora. Add one with: kroniek corpus add")
		return nil
	}

	for i := range corpora {
		c := &corpora[i]
		cmd.Printf("  %s  %-10s  %s\n", c.ID, c.Status, c.Name)
		if c.Description != "" {
			cmd.Printf("      %s\n", c.Description)
		}
	}
	return nil
}

func runCorpusCancel(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Cancel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	cmd.Printf("Cancelled processing for corpus %s.\n", args[0])
	return nil
}

func runCorpusReprocess(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	if err := ingestService.Reprocess(ctx, args[0]); err != nil {
		return fmt.Errorf("reprocess: %w", err)
	}
	cmd.Printf("Reprocessing corpus %s.\n", args[0])

	if !corpusReprocessWait {
		return nil
	}

	ingestService.Wait(args[0])
	status, err := ingestService.Status(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	if status.Status == domain.StatusFailed {
		return fmt.Errorf("processing failed: %s", status.ErrorDetail)
	}
	cmd.Printf("Corpus ready: %d chunks indexed.\n", status.ChunkCount)
	return nil
}

func runCorpusDelete(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if corpusStore == nil {
		return errors.New("corpus store not configured")
	}

	if err := corpusStore.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete corpus: %w", err)
	}
	cmd.Printf("Deleted corpus %s.\n", args[0])
	return nil
}

// readDocument loads the document text from a file or stdin.
func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}
