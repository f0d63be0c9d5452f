package services

import (
	"context"
	"fmt"
	"sync"
)

// stubModel is a hand-rolled ModelService double. Function fields configure
// behavior per test; call counters are safe for the preprocessor's parallel
// dispatch.
type stubModel struct {
	mu        sync.Mutex
	textCalls int
	fastJSON  int
	deepJSON  int

	textFn func(ctx context.Context, prompt string) (string, error)
	jsonFn func(ctx context.Context, prompt string, tier ModelTier) (string, error)
}

func (s *stubModel) GenerateText(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error) {
	s.mu.Lock()
	s.textCalls++
	s.mu.Unlock()
	if s.textFn != nil {
		return s.textFn(ctx, prompt)
	}
	return "summary", nil
}

func (s *stubModel) GenerateJSON(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error) {
	s.mu.Lock()
	if tier == TierDeep {
		s.deepJSON++
	} else {
		s.fastJSON++
	}
	s.mu.Unlock()
	if s.jsonFn != nil {
		return s.jsonFn(ctx, prompt, tier)
	}
	return "{}", nil
}

func (s *stubModel) counts() (text, fast, deep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textCalls, s.fastJSON, s.deepJSON
}

// extractionJSON is a well-formed stage-1 response.
const extractionJSON = `{
  "technicalSkills": ["Go", "PostgreSQL", "Docker"],
  "softSkills": ["Communication"],
  "keywords": ["backend", "microservices"],
  "achievements": ["Cut p99 latency by 40%"],
  "education": ["BSc Computer Science"],
  "experience": ["Backend Engineer at Acme, 2019-2024"]
}`

// analysisJSON builds a well-formed stage-2 response.
func analysisJSON(withJob bool) string {
	job := "null"
	if withJob {
		job = `{
      "alignmentAndStrengths": ["Strong Go background", "Production PostgreSQL experience", "Ownership of services end to end"],
      "gapsAndConcerns": ["No Kubernetes exposure", "Limited team leadership evidence", "No mention of on-call experience"],
      "recommendationsToTailor": ["Mention container orchestration work", "Quantify service scale", "Surface incident response experience"],
      "overallFit": "Around 70% match; worth tailoring this resume for the role."
    }`
	}
	return fmt.Sprintf(`{
  "score": 68,
  "scores": {
    "keywordsRelevance":    { "score": 7, "maxScore": 10, "feedback": "Solid keyword coverage.", "keywords": ["Go", "backend"] },
    "achievementsMetrics":  { "score": 6, "maxScore": 10, "feedback": "Some metrics present.", "highlights": ["Cut p99 latency by 40%%"] },
    "structureReadability": { "score": 7, "maxScore": 10, "feedback": "Clear structure." },
    "summaryClarity":       { "score": 6, "maxScore": 10, "feedback": "Summary could be sharper." },
    "overallPolish":        { "score": 7, "maxScore": 10, "feedback": "Well polished overall." }
  },
  "identifiedSkills": ["Go", "PostgreSQL", "Docker"],
  "primaryKeywords": ["backend", "microservices"],
  "suggestedImprovements": ["Add more metrics", "Tighten the summary", "List certifications"],
  "generalFeedback": { "overall": "A solid backend resume with room for sharper metrics." },
  "jobAnalysis": %s
}`, job)
}
