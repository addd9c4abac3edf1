package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/papergraph/papergraph/internal/util"
	"github.com/papergraph/papergraph/pkg/ai"
	"github.com/papergraph/papergraph/pkg/ai/ollama"
	"github.com/papergraph/papergraph/pkg/ai/openai"
	"github.com/papergraph/papergraph/pkg/config"
	"github.com/papergraph/papergraph/pkg/logger"
	"github.com/papergraph/papergraph/pkg/logger/console"
	"github.com/papergraph/papergraph/pkg/pipeline"
	"github.com/papergraph/papergraph/pkg/progress"
	progressconsole "github.com/papergraph/papergraph/pkg/progress/console"
	"github.com/papergraph/papergraph/pkg/store"

	"github.com/spf13/cobra"
)

var (
	flagDir     string
	flagConfig  string
	flagResume  bool
	flagVizOnly bool
	flagNoViz   bool
	flagQuery   string
	flagTopK    int
)

var buildVersion = "dev"

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	root := &cobra.Command{
		Use:           "papergraph",
		Short:         "Build a concept knowledge graph from a directory of research papers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDir, "dir", "", "target directory holding the papers and build artifacts")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "optional YAML config file")

	build := &cobra.Command{
		Use:   "build",
		Short: "Run the ingest, extract and merge stages and write the graph snapshot",
		RunE:  runBuild,
	}
	build.Flags().BoolVar(&flagResume, "resume", false, "fold into the prior snapshot instead of rebuilding")
	build.Flags().BoolVar(&flagVizOnly, "viz-only", false, "regenerate the HTML visualization from the existing snapshot")
	build.Flags().BoolVar(&flagNoViz, "no-viz", false, "skip writing the HTML visualization")

	search := &cobra.Command{
		Use:   "search",
		Short: "Find the indexed passages nearest to a query",
		RunE:  runSearch,
	}
	search.Flags().StringVar(&flagQuery, "query", "", "query text to embed and match")
	search.Flags().IntVarP(&flagTopK, "top", "k", 5, "number of passages to return")
	search.MarkFlagRequired("query")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the papergraph version",
		Run: func(*cobra.Command, []string) {
			fmt.Println("papergraph " + buildVersion)
		},
	}

	root.AddCommand(build, search, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		if errors.Is(err, pipeline.ErrConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if flagDir == "" {
		return fmt.Errorf("%w: --dir is required", pipeline.ErrConfig)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	sink := progress.Multi{progressconsole.NewConsoleSink()}
	report, err := pipeline.New(cfg, client, sink).Run(cmd.Context(), flagDir, pipeline.Options{
		Resume:  flagResume,
		VizOnly: flagVizOnly,
		Viz:     !flagNoViz,
	})
	if err != nil {
		return err
	}

	fmt.Print(report.String())
	return nil
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if flagDir == "" {
		return fmt.Errorf("%w: --dir is required", pipeline.ErrConfig)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	index, err := store.OpenVectorIndex(filepath.Join(flagDir, "index.db"))
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}
	defer index.Close()

	vector, err := client.GenerateEmbedding(cmd.Context(), []byte(flagQuery))
	if err != nil {
		return err
	}
	hits, err := index.Query(vector, flagTopK)
	if err != nil {
		return err
	}

	for i, hit := range hits {
		fmt.Printf("%d. [%.3f] %s chunk %d\n%s\n\n", i+1, hit.Score, hit.Chunk.DocID, hit.Chunk.Index, hit.Chunk.Text)
	}
	if len(hits) == 0 {
		fmt.Println("no results")
	}
	return nil
}

// newClient builds the AI adapter named by the config. Credentials and
// endpoints come from the environment.
func newClient(cfg *config.Config) (ai.ConceptAIClient, error) {
	switch cfg.AI.Adapter {
	case "openai":
		return openai.NewConceptOpenAIClient(openai.NewConceptOpenAIClientParams{
			EmbeddingModel:  cfg.AI.EmbeddingModel,
			ExtractionModel: cfg.AI.ExtractionModel,
			EmbeddingDim:    cfg.AI.EmbeddingDim,

			EmbeddingURL: util.GetEnv("OPENAI_EMBED_URL"),
			EmbeddingKey: util.GetEnvString("OPENAI_EMBED_KEY", util.GetEnv("OPENAI_API_KEY")),
			ChatURL:      util.GetEnv("OPENAI_CHAT_URL"),
			ChatKey:      util.GetEnvString("OPENAI_CHAT_KEY", util.GetEnv("OPENAI_API_KEY")),

			TimeoutMinutes:        cfg.AI.TimeoutMinutes,
			MaxConcurrentRequests: int64(cfg.AI.MaxConcurrent),
		}), nil
	case "ollama":
		return ollama.NewConceptOllamaClient(ollama.NewConceptOllamaClientParams{
			EmbeddingModel:  cfg.AI.EmbeddingModel,
			ExtractionModel: cfg.AI.ExtractionModel,
			EmbeddingDim:    cfg.AI.EmbeddingDim,

			BaseURL: util.GetEnv("OLLAMA_BASE_URL"),
			ApiKey:  util.GetEnv("OLLAMA_API_KEY"),

			TimeoutMinutes:        cfg.AI.TimeoutMinutes,
			MaxConcurrentRequests: int64(cfg.AI.MaxConcurrent),
		})
	default:
		return nil, fmt.Errorf("unknown AI adapter %q", cfg.AI.Adapter)
	}
}
