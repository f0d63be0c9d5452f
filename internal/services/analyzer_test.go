package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/internal/models"
)

func testAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		ExtractionRetry: RetryConfig{Stage: "fact extraction", MaxRetries: 2, InitialDelay: time.Millisecond, Timeout: time.Second},
		AnalysisRetry:   RetryConfig{Stage: "deep analysis", MaxRetries: 1, InitialDelay: time.Millisecond, Timeout: time.Second},
	}
}

func newTestAnalyzer(model *stubModel) (AnalyzerService, CacheLayer) {
	cache := NewMemoryCache(time.Hour, 100)
	pre := NewPreprocessor(model, RetryConfig{Stage: "chunk summarization", MaxRetries: 1, InitialDelay: time.Millisecond, Timeout: time.Second})
	return NewAnalyzerService(model, pre, cache, testAnalyzerOptions()), cache
}

func healthyModel(withJob bool) *stubModel {
	return &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if tier == TierFast {
				return extractionJSON, nil
			}
			return analysisJSON(withJob), nil
		},
	}
}

func TestAnalyze_EmptyResumeFailsFast(t *testing.T) {
	model := healthyModel(false)
	analyzer, _ := newTestAnalyzer(model)

	_, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{ResumeText: "   \n\t "})

	require.ErrorIs(t, err, ErrEmptyResume)
	_, fast, deep := model.counts()
	assert.Zero(t, fast+deep, "invalid input must fail before any model call")
}

func TestAnalyze_ShortResumeWithoutJobDescription(t *testing.T) {
	model := healthyModel(false)
	analyzer, _ := newTestAnalyzer(model)

	result, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText: strings.TrimSpace(strings.Repeat("Backend engineer with Go experience. ", 14))[:500],
	})

	require.NoError(t, err)
	assert.Nil(t, result.JobAnalysis)
	assert.GreaterOrEqual(t, result.Score, 0)
	assert.LessOrEqual(t, result.Score, 100)
	for _, cat := range result.Scores.Categories() {
		assert.Equal(t, models.MaxCategoryScore, cat.MaxScore)
	}
}

func TestAnalyze_CacheHitSkipsModelCalls(t *testing.T) {
	model := healthyModel(false)
	analyzer, _ := newTestAnalyzer(model)
	req := models.AnalysisRequest{ResumeText: "Backend engineer with Go experience."}

	first, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)
	_, fastAfterFirst, deepAfterFirst := model.counts()

	second, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)
	_, fastAfterSecond, deepAfterSecond := model.counts()

	assert.Equal(t, first, second)
	assert.Equal(t, fastAfterFirst, fastAfterSecond, "cache hit must not re-run extraction")
	assert.Equal(t, deepAfterFirst, deepAfterSecond, "cache hit must not re-run deep analysis")
}

func TestAnalyze_JobDescriptionChangesCacheKey(t *testing.T) {
	model := healthyModel(true)
	analyzer, _ := newTestAnalyzer(model)
	resume := "Backend engineer with Go experience."

	_, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{ResumeText: resume})
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText:     resume,
		JobDescription: models.RawJobDescription("Senior Go developer"),
	})
	require.NoError(t, err)

	_, _, deep := model.counts()
	assert.Equal(t, 2, deep, "same resume with and without job description must be analyzed independently")
}

func TestAnalyze_JobDescriptionYieldsJobAnalysis(t *testing.T) {
	model := healthyModel(true)
	analyzer, _ := newTestAnalyzer(model)

	result, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText:     "Backend engineer with Go experience.",
		JobDescription: models.RawJobDescription("Senior Go developer, Kubernetes"),
	})

	require.NoError(t, err)
	require.NotNil(t, result.JobAnalysis)
	assert.NotEmpty(t, result.JobAnalysis.AlignmentAndStrengths)
	assert.NotEmpty(t, result.JobAnalysis.OverallFit)
}

func TestAnalyze_LongResumeIsPreprocessed(t *testing.T) {
	model := healthyModel(true)
	model.textFn = func(ctx context.Context, prompt string) (string, error) {
		return "condensed section", nil
	}
	analyzer, _ := newTestAnalyzer(model)

	result, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText:     longResume(120)[:20000],
		JobDescription: models.RawJobDescription("Senior Go developer"),
	})

	require.NoError(t, err)
	textCalls, _, _ := model.counts()
	assert.Greater(t, textCalls, 1, "a 20k-char resume must be summarized in multiple chunks")
	require.NotNil(t, result.JobAnalysis)
	assert.NotEmpty(t, result.JobAnalysis.AlignmentAndStrengths)
}

func TestAnalyze_RateLimitOnDeepStage(t *testing.T) {
	deepAttempts := 0
	model := &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if tier == TierFast {
				return extractionJSON, nil
			}
			deepAttempts++
			return "", fmt.Errorf("googleapi: Error 429: RESOURCE_EXHAUSTED")
		},
	}
	analyzer, cache := newTestAnalyzer(model)
	req := models.AnalysisRequest{ResumeText: "Backend engineer with Go experience."}

	_, err := analyzer.Analyze(context.Background(), req)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 1, deepAttempts, "rate limits must not be retried")

	_, ok := cache.Get(BuildCacheKey(req.ResumeText, nil))
	assert.False(t, ok, "failed attempts must not be cached")
}

func TestAnalyze_ExpiredDeadlineSurfacesError(t *testing.T) {
	model := &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return "", ctx.Err()
		},
	}
	analyzer, cache := newTestAnalyzer(model)
	req := models.AnalysisRequest{ResumeText: "Backend engineer with Go experience."}

	ctx, cancel := context.WithTimeout(context.Background(), -time.Millisecond)
	defer cancel()

	_, err := analyzer.Analyze(ctx, req)

	require.Error(t, err, "an expired deadline must not be reported as a completed analysis")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Your document may be too large or complex; try trimming it and retrying",
		userFacingMessage(err))

	_, ok := cache.Get(BuildCacheKey(req.ResumeText, nil))
	assert.False(t, ok)
}

func TestAnalyze_ExtractionFailureDegradesGracefully(t *testing.T) {
	model := &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if tier == TierFast {
				return "", fmt.Errorf("upstream 500")
			}
			return analysisJSON(false), nil
		},
	}
	analyzer, _ := newTestAnalyzer(model)

	result, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText: "Backend engineer with Go experience.",
	})

	require.NoError(t, err, "a failed extraction must not fail the request")
	assert.Equal(t, 68, result.Score)
}

func TestAnalyze_DeepFailureReturnsFallbackUncached(t *testing.T) {
	model := &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if tier == TierFast {
				return extractionJSON, nil
			}
			return "", fmt.Errorf("upstream 500")
		},
	}
	analyzer, cache := newTestAnalyzer(model)
	jd := models.RawJobDescription("Senior Go developer")
	req := models.AnalysisRequest{ResumeText: "Backend engineer.", JobDescription: jd}

	result, err := analyzer.Analyze(context.Background(), req)

	require.NoError(t, err, "content failures degrade to the fallback result")
	assert.Equal(t, 50, result.Score)
	require.NotNil(t, result.JobAnalysis, "fallback must still honor the job description")

	_, ok := cache.Get(BuildCacheKey(req.ResumeText, jd))
	assert.False(t, ok, "degraded results must not be cached")
}

func TestAnalyze_MalformedDeepOutputIsRepaired(t *testing.T) {
	model := &stubModel{
		jsonFn: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if tier == TierFast {
				return extractionJSON, nil
			}
			return "I'm sorry, I cannot produce JSON today.", nil
		},
	}
	analyzer, _ := newTestAnalyzer(model)

	result, err := analyzer.Analyze(context.Background(), models.AnalysisRequest{
		ResumeText: "Backend engineer with Go experience.",
	})

	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	require.NoError(t, ValidateResultSchema(result))
}
