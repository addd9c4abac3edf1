package openai

import (
	"sync"

	"github.com/papergraph/papergraph/internal/util"
	"github.com/papergraph/papergraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// ConceptOpenAIClient talks to OpenAI-compatible endpoints for the two
// operations the pipeline needs: structured concept extraction and text
// embeddings. Separate clients allow routing embeddings and chat to
// different providers.
//
// A ConceptOpenAIClient should be created using NewConceptOpenAIClient.
type ConceptOpenAIClient struct {
	embeddingModel  string
	extractionModel string
	embeddingDim    int

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin    int
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewConceptOpenAIClientParams defines the configuration parameters for
// creating a new ConceptOpenAIClient. Empty URLs fall back to the official
// OpenAI endpoint.
type NewConceptOpenAIClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	EmbeddingDim    int

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	TimeoutMinutes        int
	MaxConcurrentRequests int64
}

// NewConceptOpenAIClient creates and returns a new ConceptOpenAIClient
// configured with the provided parameters.
func NewConceptOpenAIClient(
	params NewConceptOpenAIClientParams,
) *ConceptOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	timeoutMin := params.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = 5
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	dim := params.EmbeddingDim
	if dim <= 0 {
		dim = util.GetEnvInt("AI_EMBED_DIM", defaultDimensions)
	}

	return &ConceptOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		embeddingDim:    dim,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin:    timeoutMin,
		embeddingLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &client
}

func (c *ConceptOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *ConceptOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a copy of the accumulated usage metrics.
func (c *ConceptOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
