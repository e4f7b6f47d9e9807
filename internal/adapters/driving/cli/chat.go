package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
)

var chatCorpus string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question session against a corpus",
	Long: `Starts an interactive session. Each question is answered in the
context of the previous exchanges, so follow-ups like "and where?"
work. Type 'exit' or press Ctrl-D to leave.

Prompt templates are watched while the session runs; edits to the
template files apply to the next question without a restart.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCorpus, "corpus", "c", "", "corpus ID to query (required)")
	_ = chatCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if promptStore != nil {
		if err := promptStore.Watch(ctx); err != nil {
			logger.Warn("Prompt watching unavailable: %v", err)
		} else {
			cmd.Printf("Watching prompt templates in %s\n", promptStore.Dir())
		}
	}

	cmd.Println("Interactive session. Type 'exit' to leave.")
	cmd.Println()

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		cmd.Print("? ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		resp, err := askService.Ask(ctx, driving.AskRequest{
			CorpusID:  chatCorpus,
			Question:  question,
			SessionID: sessionID,
		})
		if err != nil {
			cmd.Printf("Error: %v\n\n", err)
			continue
		}
		sessionID = resp.SessionID

		cmd.Println()
		cmd.Println(resp.Answer)
		if len(resp.Citations) > 0 {
			for _, c := range resp.Citations {
				cmd.Printf("  [%s]\n", c.Provenance)
			}
		}
		cmd.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if sessionID != "" {
		cmd.Printf("Session %s saved.\n", sessionID)
	}
	return nil
}
