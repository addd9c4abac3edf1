package extract

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/papergraph/papergraph/internal/util"
	"github.com/papergraph/papergraph/pkg/ai"
	"github.com/papergraph/papergraph/pkg/common"
	"github.com/papergraph/papergraph/pkg/config"
	"github.com/papergraph/papergraph/pkg/logger"
	"github.com/papergraph/papergraph/pkg/progress"
	"github.com/papergraph/papergraph/pkg/store"

	"golang.org/x/sync/errgroup"
)

const (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 60 * time.Second

	// contextTail is how much of the previous chunk is shown to the model
	// for continuity across chunk boundaries.
	contextTail = 300
)

// FailedChunk records a chunk whose extraction still failed after all
// retries. The chunk is skipped; the rest of the stage proceeds.
type FailedChunk struct {
	Key    common.ChunkKey
	Reason string
}

// Result summarizes one extraction run: validated per-chunk results plus
// bookkeeping for the build report.
type Result struct {
	Results     []common.ExtractionResult
	Failed      []FailedChunk
	CacheHits   int
	Extracted   int
	Quarantined int
}

// chunkResponse is the structured output schema requested from the model.
type chunkResponse struct {
	Concepts []common.Mention `json:"concepts" jsonschema_description:"Mathematical concepts found in the passage"`
}

// Stage extracts concept mentions from every chunk in the vector index,
// consulting the extraction cache first and writing fresh results back to
// it. Chunks run concurrently under the configured limit.
type Stage struct {
	cfg    *config.Config
	client ai.ConceptAIClient
	index  *store.VectorIndex
	cache  *store.ExtractionCache
	sink   progress.Sink
	titles map[string]string
}

// NewStage creates an extraction stage. titles maps document ids to display
// titles used for prompt context; unknown ids fall back to the bare id.
func NewStage(cfg *config.Config, client ai.ConceptAIClient, index *store.VectorIndex, cache *store.ExtractionCache, sink progress.Sink, titles map[string]string) *Stage {
	return &Stage{
		cfg:    cfg,
		client: client,
		index:  index,
		cache:  cache,
		sink:   sink,
		titles: titles,
	}
}

// Run extracts mentions for all chunks. Cached results are reused when the
// chunk's content hash still matches; everything else goes to the model.
// Individual chunk failures are recorded and skipped.
func (s *Stage) Run(ctx context.Context) (*Result, error) {
	chunks, err := s.index.AllChunks()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if len(chunks) == 0 {
		return result, nil
	}

	// Previous-chunk context must come from the same document.
	prev := make(map[string]string, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && chunks[i-1].DocID == chunk.DocID {
			prev[chunk.ID] = tail(chunks[i-1].Text, contextTail)
		}
	}

	var mu sync.Mutex
	var done int

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.AI.MaxConcurrent)

	for _, chunk := range chunks {
		chunk := chunk
		group.Go(func() error {
			res, cached, err := s.extractChunk(groupCtx, chunk, prev[chunk.ID])

			mu.Lock()
			defer mu.Unlock()
			done++
			s.sink.Update(progress.StageExtracting,
				fmt.Sprintf("%s chunk %d", chunk.DocID, chunk.Index),
				float64(done)/float64(len(chunks))*100)

			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				s.sink.Error(fmt.Sprintf("extraction failed for %s chunk %d: %v", chunk.DocID, chunk.Index, err))
				result.Failed = append(result.Failed, FailedChunk{Key: chunk.Key(), Reason: err.Error()})
				return nil
			}

			if cached {
				result.CacheHits++
			} else {
				result.Extracted++
			}
			result.Quarantined += res.Quarantined
			result.Results = append(result.Results, *res)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Concurrency scrambles completion order; restore a stable one.
	sort.Slice(result.Results, func(i, j int) bool {
		a, b := result.Results[i].Key, result.Results[j].Key
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		return a.Index < b.Index
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		a, b := result.Failed[i].Key, result.Failed[j].Key
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		return a.Index < b.Index
	})

	return result, nil
}

// extractChunk returns the validated extraction for one chunk, from cache
// when possible.
func (s *Stage) extractChunk(ctx context.Context, chunk common.Chunk, prevTail string) (*common.ExtractionResult, bool, error) {
	key := chunk.Key()

	cached, err := s.cache.Get(key)
	if err != nil {
		logger.Warn("extraction cache read failed, re-extracting", "doc", key.DocID, "chunk", key.Index, "error", err)
	}
	if cached != nil {
		return cached, true, nil
	}

	prompt := s.buildPrompt(chunk, prevTail)

	response, err := util.RetryWithBackoff(ctx, s.cfg.AI.MaxRetries, retryBaseDelay, retryMaxDelay,
		func(ctx context.Context) (*chunkResponse, error) {
			var out chunkResponse
			err := s.client.GenerateCompletionWithFormat(ctx,
				"concept_extraction",
				"Mathematical concepts and relations found in a paper passage",
				prompt,
				&out,
				ai.WithModel(s.cfg.AI.ExtractionModel),
				ai.WithSystemPrompts(ai.ExtractPrompt),
				ai.WithTemperature(0),
			)
			if err != nil {
				return nil, err
			}
			return &out, nil
		})
	if err != nil {
		return nil, false, err
	}

	result := validate(key, response.Concepts)
	if err := s.cache.Put(*result); err != nil {
		logger.Warn("extraction cache write failed", "doc", key.DocID, "chunk", key.Index, "error", err)
	}

	return result, false, nil
}

func (s *Stage) buildPrompt(chunk common.Chunk, prevTail string) string {
	title := s.titles[chunk.DocID]
	if title == "" {
		title = chunk.DocID
	}

	prompt := fmt.Sprintf("Paper: %s\n", title)
	if prevTail != "" {
		prompt += fmt.Sprintf("\nEnd of previous passage (context only, do not extract from it):\n%s\n", prevTail)
	}
	prompt += fmt.Sprintf("\nPassage:\n%s", chunk.Text)
	return prompt
}

// validate drops mentions with empty names or types outside the closed
// enum. Quarantined mentions are counted, never merged into the graph.
func validate(key common.ChunkKey, mentions []common.Mention) *common.ExtractionResult {
	result := &common.ExtractionResult{Key: key}
	for _, mention := range mentions {
		if mention.Name == "" {
			result.Quarantined++
			continue
		}
		if !mention.Type.Valid() {
			logger.Debug("quarantined mention", "name", mention.Name, "type", mention.Type)
			result.Quarantined++
			continue
		}
		result.Mentions = append(result.Mentions, mention)
	}
	return result
}

// tail returns the last max bytes of s, cut at a rune boundary.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := len(s) - max
	for cut < len(s) && s[cut]&0xC0 == 0x80 {
		cut++
	}
	return s[cut:]
}
