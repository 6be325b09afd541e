package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"nairobi-rag/llm"
	"nairobi-rag/llm/rag"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Long: `Loads the vector index, answers a single question from it and prints
the answer followed by the source files of the retrieved chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, log, err := commandContext(cmd, "")
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

	result, err := svc.Answer(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if askJSON {
		return outputAnswerJSON(cmd, result)
	}
	outputAnswer(cmd, result)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, result *llm.AnswerResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, result *llm.AnswerResult) {
	cmd.Println("Answer:")
	cmd.Println(result.Answer)
	cmd.Println()
	cmd.Println("Sources:")
	if len(result.Sources) == 0 {
		cmd.Println("  (none)")
	}
	for _, s := range result.Sources {
		cmd.Printf("  - %s\n", s)
	}
}
