package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"nairobi-rag/llm/rag"
	"nairobi-rag/tui/chat"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// defaultChatLog keeps log output off the alternate screen.
const defaultChatLog = "nairobi-rag.log"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat",
	Long: `Loads the vector index once and opens a terminal chat. Each question
shows the answer and the source files of the retrieved chunks.

Logs go to log.file (nairobi-rag.log when unset).

Controls:
  Enter    - Ask
  Ctrl+L   - Clear the history
  Esc      - Quit
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat UI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx, log, err := commandContext(cmd, defaultChatLog)
	if err != nil {
		return err
	}
	defer log.Sync()

	stopTracing := setupTracing(ctx, log)
	defer stopTracing()

	svc, err := rag.Load(ctx, appConfig)
	if err != nil {
		return explain(err)
	}
	defer svc.Close()

	session := rag.NewSession(svc, appConfig.Chat.History)
	defer session.Close()

	stats := svc.Stats()
	banner := fmt.Sprintf("Nairobi attractions assistant\nIndex: %s (%d chunks, %s)\nType a question and press Enter.",
		stats.Location, stats.Chunks, appConfig.Chat.Model)

	p := tea.NewProgram(chat.InitialModel(ctx, session, banner), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
