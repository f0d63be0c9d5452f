package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"resume-analyzer/internal/models"
)

const (
	defaultInitialDelay      = 2 * time.Second
	defaultExtractionTimeout = 45 * time.Second
	defaultAnalysisTimeout   = 90 * time.Second
)

// AnalyzerService is the orchestration core: preprocess, check cache, run the
// two model stages, validate and repair, cache the finished result.
type AnalyzerService interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// AnalyzerOptions carries the per-stage retry budgets. The extraction stage
// is cheap and retried generously; the deep stage is expensive and gets a
// tight budget.
type AnalyzerOptions struct {
	ExtractionRetry RetryConfig
	AnalysisRetry   RetryConfig
}

func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		ExtractionRetry: RetryConfig{Stage: "fact extraction", MaxRetries: 3, InitialDelay: defaultInitialDelay, Timeout: defaultExtractionTimeout},
		AnalysisRetry:   RetryConfig{Stage: "deep analysis", MaxRetries: 1, InitialDelay: defaultInitialDelay, Timeout: defaultAnalysisTimeout},
	}
}

type analyzerService struct {
	model        ModelService
	preprocessor Preprocessor
	cache        CacheLayer
	validator    *Validator
	prompts      *PromptBuilder
	opts         AnalyzerOptions
}

func NewAnalyzerService(
	model ModelService,
	preprocessor Preprocessor,
	cache CacheLayer,
	opts AnalyzerOptions,
) AnalyzerService {
	return &analyzerService{
		model:        model,
		preprocessor: preprocessor,
		cache:        cache,
		validator:    NewValidator(),
		prompts:      NewPromptBuilder(),
		opts:         opts,
	}
}

// Analyze implements AnalyzerService.
func (a *analyzerService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	resumeText := strings.TrimSpace(req.ResumeText)
	if resumeText == "" {
		return nil, ErrEmptyResume
	}

	key := BuildCacheKey(resumeText, req.JobDescription)
	if cached, ok := a.cache.Get(key); ok {
		log.Println("⚡ Cache hit, returning stored analysis")
		return cached, nil
	}

	working := a.preprocessor.Preprocess(ctx, resumeText)

	log.Println("🤖 Stage 1: extracting resume facts...")
	extraction, err := a.extractFacts(ctx, working)
	if err != nil {
		return nil, err
	}

	log.Println("🤖 Stage 2: running deep analysis...")
	result, cacheable, err := a.deepAnalyze(ctx, working, extraction, req.JobDescription)
	if err != nil {
		return nil, err
	}

	if cacheable {
		a.cache.Put(key, result)
	}
	return result, nil
}

// extractFacts runs stage 1. A malformed or failed extraction degrades to an
// empty one so stage 2 can still run; rate limits and timeouts propagate.
func (a *analyzerService) extractFacts(ctx context.Context, resumeText string) (models.InitialExtraction, error) {
	var extraction models.InitialExtraction

	response, err := WithBackoff(ctx, a.opts.ExtractionRetry, func(ctx context.Context) (string, error) {
		return a.model.GenerateJSON(ctx, a.prompts.BuildExtractionPrompt(resumeText), TierFast, 0.1)
	})
	if err != nil {
		if isTaxonomyError(err) {
			return extraction, err
		}
		log.Printf("⚠️ Fact extraction failed, continuing without it: %v\n", err)
		return extraction, nil
	}

	if err := json.Unmarshal([]byte(extractJSON(response)), &extraction); err != nil {
		log.Printf("⚠️ Fact extraction returned malformed JSON, continuing without it: %v\n", err)
		return models.InitialExtraction{}, nil
	}
	return extraction, nil
}

// deepAnalyze runs stage 2 and pushes the raw output through the validator.
// Rate limits and timeouts propagate so the caller can surface a retryable
// error. Other upstream failures degrade to the safe fallback result, which
// is returned but marked non-cacheable: a degraded result must not suppress
// a healthy retry for the same input.
func (a *analyzerService) deepAnalyze(ctx context.Context, resumeText string, extraction models.InitialExtraction, jobDesc *models.JobDescription) (*models.AnalysisResult, bool, error) {
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		extractionJSON = []byte("{}")
	}

	var prompt string
	if jobDesc != nil {
		prompt = a.prompts.BuildJobComparisonPrompt(resumeText, string(extractionJSON), jobDesc)
	} else {
		prompt = a.prompts.BuildResumeAnalysisPrompt(resumeText, string(extractionJSON))
	}

	response, err := WithBackoff(ctx, a.opts.AnalysisRetry, func(ctx context.Context) (string, error) {
		return a.model.GenerateJSON(ctx, prompt, TierDeep, 0.1)
	})
	if err != nil {
		if isTaxonomyError(err) {
			return nil, false, err
		}
		log.Printf("⚠️ Deep analysis failed, returning fallback result: %v\n", err)
		return a.validator.FallbackResult(extraction, jobDesc), false, nil
	}

	return a.validator.ValidateAndRepair(response, extraction, jobDesc), true, nil
}

func isTaxonomyError(err error) bool {
	var rl *RateLimitError
	var to *TimeoutError
	return errors.As(err, &rl) || errors.As(err, &to) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
