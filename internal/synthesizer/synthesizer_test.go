package synthesizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery/docquery/internal/llm"
	"github.com/docquery/docquery/internal/vectorindex"
)

// fakeChatModel records the messages it receives and returns a canned
// answer or error.
type fakeChatModel struct {
	messages []llm.Message
	answer   string
	err      error
}

func (f *fakeChatModel) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func result(text string, score float64) vectorindex.Result {
	return vectorindex.Result{
		ChunkRef: vectorindex.ChunkRef{Text: text},
		Score:    score,
	}
}

func TestSynthesize_NoResults(t *testing.T) {
	model := &fakeChatModel{answer: "should not be called"}
	s := New(model, Config{}, nil)

	answer, err := s.Synthesize(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found to answer the question.", answer)
	assert.Nil(t, model.messages, "model must not be called without results")
}

func TestSynthesize_BuildsPrompt(t *testing.T) {
	model := &fakeChatModel{answer: "the answer"}
	s := New(model, Config{}, nil)

	results := []vectorindex.Result{
		result("short", 0.9),
		result("a much longer chunk with detail", 0.8),
	}

	answer, err := s.Synthesize(context.Background(), "what is it?", results)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llm.RoleSystem, model.messages[0].Role)
	assert.Contains(t, model.messages[0].Content, "answers questions based on the provided context")
	assert.Contains(t, model.messages[0].Content, "a much longer chunk with detail")
	assert.Contains(t, model.messages[0].Content, "short")
	assert.Equal(t, llm.RoleUser, model.messages[1].Role)
	assert.Equal(t, "what is it?", model.messages[1].Content)
}

func TestSynthesize_ContextPrefersLongestOfMostSimilar(t *testing.T) {
	model := &fakeChatModel{answer: "ok"}
	s := New(model, Config{}, nil)

	// Six results: only the five most similar are candidates, and of
	// those only the three longest make the context.
	results := []vectorindex.Result{
		result("aa", 0.95),
		result("bbbbbbbb", 0.90),
		result("cccc", 0.85),
		result("dddddd", 0.80),
		result("e", 0.75),
		result("ffffffffffffffffffffffff", 0.70), // longest, but outside top 5
	}

	_, err := s.Synthesize(context.Background(), "q", results)
	require.NoError(t, err)

	system := model.messages[0].Content
	assert.NotContains(t, system, "ffffffffffffffffffffffff")
	assert.NotContains(t, system, "e\n")
	assert.Contains(t, system, "bbbbbbbb")
	assert.Contains(t, system, "dddddd")
	assert.Contains(t, system, "cccc")

	// Longest first, joined with blank lines.
	contextPart := strings.SplitN(system, "Context: ", 2)[1]
	parts := strings.Split(contextPart, "\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "bbbbbbbb", parts[0])
	assert.Equal(t, "dddddd", parts[1])
	assert.Equal(t, "cccc", parts[2])
}

func TestSynthesize_ModelFailure(t *testing.T) {
	model := &fakeChatModel{err: errors.New("rate limited")}
	s := New(model, Config{}, nil)

	_, err := s.Synthesize(context.Background(), "q", []vectorindex.Result{result("text", 0.9)})
	require.ErrorIs(t, err, ErrSynthesis)
	assert.Contains(t, err.Error(), "rate limited")
}
