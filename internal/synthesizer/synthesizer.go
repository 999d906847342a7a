// Package synthesizer turns ranked retrieval results into a grounded
// natural-language answer via a chat model.
package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/docquery/docquery/internal/llm"
	"github.com/docquery/docquery/internal/vectorindex"
)

// ErrSynthesis indicates answer generation failed. Retrieval results are
// still valid when this is returned; callers degrade to results-only.
var ErrSynthesis = errors.New("answer synthesis failed")

// Context assembly parameters. The most similar chunks are considered
// first, then the longest of those are kept: length is a crude proxy for
// how much supporting detail a chunk carries.
const (
	DefaultSimilarityTop = 5
	DefaultContextSize   = 3
)

const systemPromptFormat = "You are a helpful AI assistant that answers questions based on the provided context. Context: %s"

// Config holds context assembly bounds. Zero values fall back to defaults.
type Config struct {
	// SimilarityTop is how many of the most similar results are context
	// candidates.
	SimilarityTop int

	// ContextSize is how many candidates survive the length re-rank.
	ContextSize int
}

// Synthesizer assembles a context window from search results and asks the
// chat model to answer with it.
type Synthesizer struct {
	model         llm.ChatModel
	similarityTop int
	contextSize   int
	logger        *slog.Logger
}

// New creates a Synthesizer, filling unset config with defaults.
func New(model llm.ChatModel, cfg Config, logger *slog.Logger) *Synthesizer {
	if cfg.SimilarityTop <= 0 {
		cfg.SimilarityTop = DefaultSimilarityTop
	}
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = DefaultContextSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		model:         model,
		similarityTop: cfg.SimilarityTop,
		contextSize:   cfg.ContextSize,
		logger:        logger,
	}
}

// Synthesize answers the query using the given results, which must already
// be sorted by descending similarity. With no results it returns an answer
// stating that nothing relevant was found, without calling the model.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []vectorindex.Result) (string, error) {
	if len(results) == 0 {
		return "No relevant documents found to answer the question.", nil
	}

	contextText := s.buildContext(results)

	messages := []llm.Message{
		llm.System(fmt.Sprintf(systemPromptFormat, contextText)),
		llm.User(query),
	}

	answer, err := s.model.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	s.logger.Debug("synthesized answer",
		"query_length", len(query),
		"context_chunks", min(s.contextSize, min(s.similarityTop, len(results))),
		"answer_length", len(answer))

	return answer, nil
}

// buildContext keeps the similarityTop most similar chunks, re-ranks those
// by content length descending, keeps contextSize of them, and joins the
// texts with blank lines.
func (s *Synthesizer) buildContext(results []vectorindex.Result) string {
	top := results
	if len(top) > s.similarityTop {
		top = top[:s.similarityTop]
	}

	byLength := make([]vectorindex.Result, len(top))
	copy(byLength, top)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].Text) > len(byLength[j].Text)
	})

	if len(byLength) > s.contextSize {
		byLength = byLength[:s.contextSize]
	}

	texts := make([]string, len(byLength))
	for i, r := range byLength {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n\n")
}
