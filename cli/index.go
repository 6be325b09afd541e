package cli

import (
	"errors"
	"fmt"
	"time"

	"nairobi-rag/llm/indexer"
	"nairobi-rag/llm/parser"
	"nairobi-rag/llm/providers"
	"nairobi-rag/llm/vector"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the data directories",
	Long: `Splits every .txt and .md file under the data directories into
overlapping chunks, embeds them with the configured embedding model and
replaces the persisted vector index. Each chunk keeps the name of the file
it came from so answers can cite it.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx, log, err := commandContext(cmd, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	stopTracing := setupTracing(ctx, log)
	defer stopTracing()

	embedder, err := providers.NewEmbedder(ctx, appConfig.Embedding)
	if err != nil {
		return explain(err)
	}

	storeCfg := vector.NewStoreConfig(appConfig.Index)
	store, err := vector.Create(ctx, storeCfg)
	if err != nil {
		return fmt.Errorf("open index %s: %w", storeCfg.Location(), err)
	}
	defer store.Close()

	ix := indexer.New(indexer.Options{
		Dirs: appConfig.Data.Dirs(),
		Chunk: vector.ChunkConfig{
			ChunkSize:    appConfig.Chunker.Size,
			ChunkOverlap: appConfig.Chunker.Overlap,
			MinChunkSize: appConfig.Chunker.MinSize,
		},
		Model: appConfig.Embedding.Model,
	}, parser.DefaultRegistry(), vector.NewEmbeddingService(embedder, appConfig.Embedding.BatchSize), store)

	result, err := ix.Run(ctx)
	if errors.Is(err, indexer.ErrNothingToIndex) {
		return fmt.Errorf("%w: run `nairobi-rag ingest` first", err)
	}
	if err != nil {
		return err
	}

	for _, f := range result.Failed() {
		cmd.Printf("skipped %s: %v\n", f.Path, f.Err)
	}
	for _, f := range result.Empty() {
		cmd.Printf("no text in %s\n", f.Path)
	}
	cmd.Printf("Indexed %d chunks from %d files into %s in %s.\n",
		result.Chunks, len(result.Files)-len(result.Failed())-len(result.Empty()), storeCfg.Location(), result.Elapsed.Round(time.Millisecond))
	return nil
}
