package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/papergraph/papergraph/internal/util"
	"github.com/papergraph/papergraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// ConceptOllamaClient implements the ai.ConceptAIClient interface using
// locally-hosted Ollama models for extraction and embeddings.
type ConceptOllamaClient struct {
	embeddingModel  string
	extractionModel string
	embeddingDim    int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	timeoutMin int

	Client *api.Client
}

// NewConceptOllamaClientParams contains configuration options for creating
// a new ConceptOllamaClient.
type NewConceptOllamaClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	EmbeddingDim    int

	BaseURL string
	ApiKey  string

	TimeoutMinutes        int
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewConceptOllamaClient creates a new Ollama-based AI client. It connects to
// the Ollama server at the given BaseURL (or the default if empty) and uses
// the configured models for extraction and embeddings.
func NewConceptOllamaClient(
	params NewConceptOllamaClientParams,
) (*ConceptOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	timeoutMin := params.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = 5
	}
	dim := params.EmbeddingDim
	if dim <= 0 {
		dim = util.GetEnvInt("AI_EMBED_DIM", defaultDimensions)
	}

	return &ConceptOllamaClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		embeddingDim:    dim,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,
		timeoutMin: timeoutMin,

		Client: cli,
	}, nil
}

func (c *ConceptOllamaClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *ConceptOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a copy of the accumulated usage metrics.
func (c *ConceptOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
