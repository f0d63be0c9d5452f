package models

// MaxCategoryScore is the fixed ceiling for every category score.
const MaxCategoryScore = 10

type CategoryScore struct {
	Score      int      `json:"score"`
	MaxScore   int      `json:"maxScore"`
	Feedback   string   `json:"feedback"`
	Keywords   []string `json:"keywords,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

type CategoryScores struct {
	KeywordsRelevance    CategoryScore `json:"keywordsRelevance"`
	AchievementsMetrics  CategoryScore `json:"achievementsMetrics"`
	StructureReadability CategoryScore `json:"structureReadability"`
	SummaryClarity       CategoryScore `json:"summaryClarity"`
	OverallPolish        CategoryScore `json:"overallPolish"`
}

type GeneralFeedback struct {
	Overall string `json:"overall"`
}

// JobAnalysis is present only when a job description accompanied the request.
type JobAnalysis struct {
	AlignmentAndStrengths   []string `json:"alignmentAndStrengths"`
	GapsAndConcerns         []string `json:"gapsAndConcerns"`
	RecommendationsToTailor []string `json:"recommendationsToTailor"`
	OverallFit              string   `json:"overallFit"`
}

// AnalysisResult is the durable output of the analysis pipeline. It is
// immutable once the validator has finished with it.
type AnalysisResult struct {
	Score                 int             `json:"score"`
	Scores                CategoryScores  `json:"scores"`
	IdentifiedSkills      []string        `json:"identifiedSkills"`
	PrimaryKeywords       []string        `json:"primaryKeywords"`
	SuggestedImprovements []string        `json:"suggestedImprovements"`
	GeneralFeedback       GeneralFeedback `json:"generalFeedback"`
	JobAnalysis           *JobAnalysis    `json:"jobAnalysis"`
}

// InitialExtraction is the stage-1 output: raw facts pulled from the resume
// by the fast model. It feeds stage-2 prompt construction and the repair
// backfills; it is never persisted.
type InitialExtraction struct {
	TechnicalSkills []string `json:"technicalSkills"`
	SoftSkills      []string `json:"softSkills"`
	Keywords        []string `json:"keywords"`
	Achievements    []string `json:"achievements"`
	Education       []string `json:"education"`
	Experience      []string `json:"experience"`
}

// Categories returns the five category scores in their canonical order.
func (s *CategoryScores) Categories() []*CategoryScore {
	return []*CategoryScore{
		&s.KeywordsRelevance,
		&s.AchievementsMetrics,
		&s.StructureReadability,
		&s.SummaryClarity,
		&s.OverallPolish,
	}
}
