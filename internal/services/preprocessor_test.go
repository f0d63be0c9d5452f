package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkRetryConfig() RetryConfig {
	return RetryConfig{
		Stage:        "chunk summarization",
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
		Timeout:      time.Second,
	}
}

// longResume builds a paragraph-structured text comfortably over the
// preprocessing threshold.
func longResume(paragraphs int) string {
	var sb strings.Builder
	for i := 0; i < paragraphs; i++ {
		sb.WriteString(fmt.Sprintf("Paragraph %03d: ", i))
		sb.WriteString(strings.Repeat("worked on backend systems and shipped features. ", 10))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func TestPreprocess_ShortTextPassesThrough(t *testing.T) {
	model := &stubModel{}
	pre := NewPreprocessor(model, chunkRetryConfig())

	text := "A short resume.\n\nSkills: Go, SQL."
	got := pre.Preprocess(context.Background(), text)

	assert.Equal(t, text, got)
	textCalls, _, _ := model.counts()
	assert.Zero(t, textCalls, "short input must not trigger model calls")
}

func TestPreprocess_ChunksAndPreservesOrder(t *testing.T) {
	// Summaries resolve out of order; reassembly must still follow document
	// order.
	model := &stubModel{
		textFn: func(ctx context.Context, prompt string) (string, error) {
			time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
			// Echo the first paragraph marker found in the chunk.
			idx := strings.Index(prompt, "Paragraph ")
			return "SUMMARY " + prompt[idx:idx+13], nil
		},
	}
	pre := NewPreprocessor(model, chunkRetryConfig())

	text := longResume(30)
	require.Greater(t, len(text), MaxTextLength)

	got := pre.Preprocess(context.Background(), text)

	textCalls, _, _ := model.counts()
	assert.Greater(t, textCalls, 1, "oversized input must be chunked")

	parts := strings.Split(got, "\n\n")
	require.Greater(t, len(parts), 1)
	var lastMarker string
	for _, part := range parts {
		marker := strings.TrimPrefix(part, "SUMMARY ")
		assert.True(t, strings.HasPrefix(part, "SUMMARY "), "unexpected section %q", part)
		if lastMarker != "" {
			assert.Greater(t, marker, lastMarker, "chunk order must match document order")
		}
		lastMarker = marker
	}
}

func TestPreprocess_FallsBackToSequentialExtraction(t *testing.T) {
	var mu sync.Mutex
	var summaryCalls, extractionCalls int
	model := &stubModel{
		textFn: func(ctx context.Context, prompt string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if strings.Contains(prompt, "Summarize this section") {
				summaryCalls++
				return "", fmt.Errorf("summarization unavailable")
			}
			extractionCalls++
			return fmt.Sprintf("extracted facts %d", extractionCalls), nil
		},
	}
	pre := NewPreprocessor(model, chunkRetryConfig())

	got := pre.Preprocess(context.Background(), longResume(30))

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, summaryCalls, 0)
	assert.Greater(t, extractionCalls, 0, "sequential fallback must run after parallel path fails")
	assert.Contains(t, got, "extracted facts 1")
}

func TestPreprocess_FailedFallbackChunkUsesExcerpt(t *testing.T) {
	model := &stubModel{
		textFn: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "Summarize this section") {
				return "", fmt.Errorf("summarization unavailable")
			}
			if strings.Contains(prompt, "Paragraph 000") {
				return "", fmt.Errorf("extraction unavailable")
			}
			return "extracted facts", nil
		},
	}
	pre := NewPreprocessor(model, chunkRetryConfig())

	got := pre.Preprocess(context.Background(), longResume(30))

	assert.Contains(t, got, "[Section 1 excerpt]", "failed chunk must contribute a labeled raw excerpt")
	assert.Contains(t, got, "Paragraph 000")
}

func TestPreprocess_TruncatesWhenEverythingFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &stubModel{
		textFn: func(ctx context.Context, prompt string) (string, error) {
			return "", ctx.Err()
		},
	}
	pre := NewPreprocessor(model, chunkRetryConfig())

	text := longResume(30)
	got := pre.Preprocess(ctx, text)

	assert.Contains(t, got, "[Note: resume was truncated for analysis due to length]")
	assert.LessOrEqual(t, len(got), MaxTextLength+100)
}

func TestSplitIntoChunks_PacksParagraphsGreedily(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
	chunks := SplitIntoChunks(text, 40)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}
	assert.Equal(t, strings.ReplaceAll(text, "\n\n", " "),
		strings.ReplaceAll(strings.Join(chunks, " "), "\n\n", " "),
		"no content may be lost or reordered")
}

func TestSplitIntoChunks_HardSplitsOversizedParagraph(t *testing.T) {
	para := strings.Repeat("x", 95)
	chunks := SplitIntoChunks(para, 40)

	require.Len(t, chunks, 3)
	assert.Equal(t, para, strings.Join(chunks, ""))
}

func TestSplitIntoChunks_HardSplitKeepsRunesIntact(t *testing.T) {
	// 120 bytes of 2-byte runes; an odd max size lands mid-rune unless the
	// split snaps back to a rune boundary.
	para := strings.Repeat("é", 60)
	chunks := SplitIntoChunks(para, 41)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk must not split a rune: %q", chunk)
	}
	assert.Equal(t, 40, len(chunks[0]))
	assert.Equal(t, para, strings.Join(chunks, ""))
}

func TestPreprocess_TruncationKeepsRunesIntact(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &stubModel{
		textFn: func(ctx context.Context, prompt string) (string, error) {
			return "", ctx.Err()
		},
	}
	pre := NewPreprocessor(model, chunkRetryConfig())

	// The leading byte misaligns every following 2-byte rune so the
	// truncation cut lands inside one.
	text := "x" + strings.Repeat("é", 4000)
	got := pre.Preprocess(ctx, text)

	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "[Note: resume was truncated for analysis due to length]")
	assert.LessOrEqual(t, len(got), MaxTextLength+100)
}
