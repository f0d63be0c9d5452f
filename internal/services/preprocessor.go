package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxTextLength is the working-text budget handed to the analyzer.
	MaxTextLength = 7000
	// ChunkSize bounds a semantic chunk during summarization.
	ChunkSize = 3500
	// fallbackChunkSize is used by the sequential character-offset fallback.
	fallbackChunkSize = 5000
	// excerptLength is how much raw text stands in for a failed chunk call.
	excerptLength = 1000
)

// Preprocessor bounds resume text to the analyzer's working budget. Oversized
// input is chunked and summarized; the result always fits MaxTextLength-scale
// limits and Preprocess never fails its caller.
type Preprocessor interface {
	Preprocess(ctx context.Context, text string) string
}

type preprocessor struct {
	model   ModelService
	prompts *PromptBuilder
	retry   RetryConfig
}

func NewPreprocessor(model ModelService, retry RetryConfig) Preprocessor {
	return &preprocessor{
		model:   model,
		prompts: NewPromptBuilder(),
		retry:   retry,
	}
}

// Preprocess implements Preprocessor.
func (p *preprocessor) Preprocess(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= MaxTextLength {
		return text
	}

	log.Printf("📄 Resume text is %d chars, summarizing in chunks...\n", len(text))

	summarized, err := p.summarizeChunks(ctx, text)
	if err == nil {
		return summarized
	}
	log.Printf("⚠️ Chunked summarization failed: %v. Falling back to sequential extraction.\n", err)

	extracted, err := p.sequentialExtract(ctx, text)
	if err == nil {
		return extracted
	}
	log.Printf("⚠️ Sequential extraction failed: %v. Truncating input.\n", err)

	return cutAtRuneBoundary(text, MaxTextLength) + "\n\n[Note: resume was truncated for analysis due to length]"
}

// summarizeChunks splits on paragraph boundaries and summarizes all chunks in
// parallel, reassembling in original order.
func (p *preprocessor) summarizeChunks(ctx context.Context, text string) (string, error) {
	chunks := SplitIntoChunks(text, ChunkSize)
	if len(chunks) == 0 {
		return "", fmt.Errorf("no chunks produced")
	}

	// Indexed result slice keeps document order regardless of which call
	// finishes first.
	summaries := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		g.Go(func() error {
			summary, err := WithBackoff(gctx, p.retry, func(ctx context.Context) (string, error) {
				return p.model.GenerateText(ctx, p.prompts.BuildChunkSummaryPrompt(chunk), TierFast, 0.2)
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			summaries[i] = strings.TrimSpace(summary)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	log.Printf("✅ Summarized %d chunks\n", len(chunks))
	return strings.Join(summaries, "\n\n"), nil
}

// sequentialExtract is the degraded path: fixed-size character chunks, one
// call at a time, with a simpler prompt. A chunk whose call fails contributes
// a truncated raw excerpt instead of being dropped.
func (p *preprocessor) sequentialExtract(ctx context.Context, text string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var sections []string
	for start := 0; start < len(text); {
		chunk := cutAtRuneBoundary(text[start:], fallbackChunkSize)
		start += len(chunk)
		index := len(sections) + 1

		extracted, err := WithBackoff(ctx, p.retry, func(ctx context.Context) (string, error) {
			return p.model.GenerateText(ctx, p.prompts.BuildSimpleExtractionPrompt(chunk), TierFast, 0.2)
		})
		if err != nil {
			log.Printf("⚠️ Section %d extraction failed: %v. Using raw excerpt.\n", index, err)
			extracted = fmt.Sprintf("[Section %d excerpt]\n%s", index, cutAtRuneBoundary(chunk, excerptLength))
		}
		sections = append(sections, strings.TrimSpace(extracted))
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("no sections produced")
	}
	return strings.Join(sections, "\n\n"), nil
}

// SplitIntoChunks greedily packs paragraphs into chunks of at most maxSize
// bytes, preserving paragraph order. A single paragraph larger than maxSize
// is hard-split, with each cut snapped to a rune boundary.
func SplitIntoChunks(text string, maxSize int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > maxSize {
			flush()
			for start := 0; start < len(para); {
				piece := cutAtRuneBoundary(para[start:], maxSize)
				chunks = append(chunks, piece)
				start += len(piece)
			}
			continue
		}

		if current.Len()+len(para)+2 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// cutAtRuneBoundary truncates s to at most limit bytes without splitting a
// multi-byte rune at the cut point.
func cutAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return s[:cut]
}
