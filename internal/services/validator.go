package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"resume-analyzer/internal/models"
)

// Validator turns raw model output into a schema-valid AnalysisResult.
// Malformed or incomplete output is repaired, never rejected: the pipeline
// promises its callers a complete result for every parseable request.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Shadow types with pointer fields so absence is distinguishable from zero.
type rawCategory struct {
	Score      *float64 `json:"score"`
	MaxScore   *float64 `json:"maxScore"`
	Feedback   string   `json:"feedback"`
	Keywords   []string `json:"keywords"`
	Highlights []string `json:"highlights"`
}

type rawScores struct {
	KeywordsRelevance    *rawCategory `json:"keywordsRelevance"`
	AchievementsMetrics  *rawCategory `json:"achievementsMetrics"`
	StructureReadability *rawCategory `json:"structureReadability"`
	SummaryClarity       *rawCategory `json:"summaryClarity"`
	OverallPolish        *rawCategory `json:"overallPolish"`
}

type rawAnalysis struct {
	Score                 *float64                `json:"score"`
	Scores                *rawScores              `json:"scores"`
	IdentifiedSkills      []string                `json:"identifiedSkills"`
	PrimaryKeywords       []string                `json:"primaryKeywords"`
	SuggestedImprovements []string                `json:"suggestedImprovements"`
	GeneralFeedback       *models.GeneralFeedback `json:"generalFeedback"`
	JobAnalysis           *models.JobAnalysis     `json:"jobAnalysis"`
}

var genericImprovements = []string{
	"Quantify achievements with concrete metrics (numbers, percentages, timeframes)",
	"Lead bullet points with strong action verbs and measurable outcomes",
	"Tailor the skills section to the roles you are targeting",
	"Keep formatting consistent: dates, headings, and bullet styles should match throughout",
}

var genericTailoring = []string{
	"Mirror the job posting's key terminology in your skills and experience sections",
	"Move the most relevant experience for this role to the top of each section",
	"Add measurable results that speak directly to the job's stated responsibilities",
}

const neutralFeedback = "The resume was analyzed successfully. Review the category feedback for specific strengths and improvement areas."

// ValidateAndRepair parses raw model output and repairs every missing or
// invalid field. On unparseable output it synthesizes the safe fallback
// result instead of failing the request.
func (v *Validator) ValidateAndRepair(raw string, extraction models.InitialExtraction, jobDesc *models.JobDescription) *models.AnalysisResult {
	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		log.Printf("❌ Failed to parse analysis response, using fallback: %v\n", err)
		return v.FallbackResult(extraction, jobDesc)
	}

	result := &models.AnalysisResult{
		IdentifiedSkills:      parsed.IdentifiedSkills,
		PrimaryKeywords:       parsed.PrimaryKeywords,
		SuggestedImprovements: parsed.SuggestedImprovements,
		JobAnalysis:           parsed.JobAnalysis,
	}

	result.Scores = repairScores(parsed.Scores)

	if parsed.Score != nil {
		result.Score = clampInt(int(*parsed.Score+0.5), 0, 100)
	} else {
		result.Score = deriveOverallScore(&result.Scores)
	}

	if len(result.IdentifiedSkills) == 0 {
		result.IdentifiedSkills = union(extraction.TechnicalSkills, extraction.SoftSkills)
	}
	if len(result.PrimaryKeywords) == 0 {
		result.PrimaryKeywords = extraction.Keywords
	}
	if len(result.SuggestedImprovements) == 0 {
		result.SuggestedImprovements = genericImprovements
	}
	if parsed.GeneralFeedback != nil && strings.TrimSpace(parsed.GeneralFeedback.Overall) != "" {
		result.GeneralFeedback = *parsed.GeneralFeedback
	} else {
		result.GeneralFeedback = models.GeneralFeedback{Overall: neutralFeedback}
	}

	// jobAnalysis must track the presence of a job description exactly:
	// null without one, fully populated with one.
	if jobDesc == nil {
		result.JobAnalysis = nil
	} else if !jobAnalysisComplete(result.JobAnalysis) {
		result.JobAnalysis = v.synthesizeJobAnalysis(extraction, jobDesc)
	}

	ensureArrays(result)

	if err := ValidateResultSchema(result); err != nil {
		// Repair is supposed to make this impossible; treat as an internal
		// bug and surface the safe fallback instead of crashing the request.
		log.Printf("❌ Repaired result failed schema validation: %v\n", err)
		return v.FallbackResult(extraction, jobDesc)
	}

	return result
}

// FallbackResult is the complete, schema-valid result returned when the
// model output is unusable or the upstream call failed entirely.
func (v *Validator) FallbackResult(extraction models.InitialExtraction, jobDesc *models.JobDescription) *models.AnalysisResult {
	const errFeedback = "An error occurred during analysis. This is a neutral placeholder assessment; please try again for a full evaluation."

	category := func() models.CategoryScore {
		return models.CategoryScore{Score: 5, MaxScore: models.MaxCategoryScore, Feedback: errFeedback}
	}

	result := &models.AnalysisResult{
		Score: 50,
		Scores: models.CategoryScores{
			KeywordsRelevance:    category(),
			AchievementsMetrics:  category(),
			StructureReadability: category(),
			SummaryClarity:       category(),
			OverallPolish:        category(),
		},
		IdentifiedSkills:      union(extraction.TechnicalSkills, extraction.SoftSkills),
		PrimaryKeywords:       extraction.Keywords,
		SuggestedImprovements: genericImprovements,
		GeneralFeedback:       models.GeneralFeedback{Overall: errFeedback},
	}

	if jobDesc != nil {
		result.JobAnalysis = v.synthesizeJobAnalysis(extraction, jobDesc)
	}

	ensureArrays(result)
	return result
}

// synthesizeJobAnalysis builds a usable job comparison when the model
// omitted one, by matching extracted skills against skill-like tokens from
// the job description. Matching is case-insensitive substring containment in
// both directions.
func (v *Validator) synthesizeJobAnalysis(extraction models.InitialExtraction, jobDesc *models.JobDescription) *models.JobAnalysis {
	skills := union(extraction.TechnicalSkills, extraction.SoftSkills)
	tokens := jobDesc.SkillTokens()

	var matched, missing []string
	for _, token := range tokens {
		if containsSkill(skills, token) {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}

	analysis := &models.JobAnalysis{
		RecommendationsToTailor: genericTailoring,
	}

	for _, m := range matched {
		analysis.AlignmentAndStrengths = append(analysis.AlignmentAndStrengths,
			fmt.Sprintf("Your resume demonstrates %s, which this role asks for", m))
	}
	if len(analysis.AlignmentAndStrengths) == 0 {
		analysis.AlignmentAndStrengths = []string{
			"Your experience section shows transferable background worth highlighting for this role",
		}
	}

	for _, m := range missing {
		analysis.GapsAndConcerns = append(analysis.GapsAndConcerns,
			fmt.Sprintf("The job asks for %q, which is not evident in your resume", m))
	}
	if len(analysis.GapsAndConcerns) == 0 {
		analysis.GapsAndConcerns = []string{
			"No obvious requirement gaps were detected, but verify each responsibility in the posting is reflected in your experience",
		}
	}

	if len(tokens) > 0 {
		pct := len(matched) * 100 / len(tokens)
		verdict := "Focus your search on roles that better match your current skill set while addressing the gaps above."
		if pct >= 50 {
			verdict = "Tailoring this resume for the role is worthwhile; address the gaps above directly."
		}
		analysis.OverallFit = fmt.Sprintf(
			"Approximately %d of %d (%d%%) of the skills mentioned in the job description appear in your resume. %s",
			len(matched), len(tokens), pct, verdict)
	} else {
		analysis.OverallFit = "The job description did not yield comparable skill requirements; review it manually against your experience before deciding whether to tailor further."
	}

	return analysis
}

func repairScores(scores *rawScores) models.CategoryScores {
	if scores == nil {
		scores = &rawScores{}
	}
	return models.CategoryScores{
		KeywordsRelevance:    repairCategory(scores.KeywordsRelevance),
		AchievementsMetrics:  repairCategory(scores.AchievementsMetrics),
		StructureReadability: repairCategory(scores.StructureReadability),
		SummaryClarity:       repairCategory(scores.SummaryClarity),
		OverallPolish:        repairCategory(scores.OverallPolish),
	}
}

func repairCategory(cat *rawCategory) models.CategoryScore {
	repaired := models.CategoryScore{
		Score:    5,
		MaxScore: models.MaxCategoryScore,
		Feedback: "No specific feedback was generated for this category.",
	}
	if cat == nil {
		return repaired
	}
	if cat.Score != nil {
		repaired.Score = clampInt(int(*cat.Score+0.5), 1, models.MaxCategoryScore)
	}
	if strings.TrimSpace(cat.Feedback) != "" {
		repaired.Feedback = cat.Feedback
	}
	repaired.Keywords = cat.Keywords
	repaired.Highlights = cat.Highlights
	return repaired
}

func deriveOverallScore(scores *models.CategoryScores) int {
	total := 0
	for _, cat := range scores.Categories() {
		total += cat.Score
	}
	return clampInt(total*100/(5*models.MaxCategoryScore), 0, 100)
}

func jobAnalysisComplete(ja *models.JobAnalysis) bool {
	return ja != nil &&
		len(ja.AlignmentAndStrengths) > 0 &&
		len(ja.GapsAndConcerns) > 0 &&
		len(ja.RecommendationsToTailor) > 0 &&
		strings.TrimSpace(ja.OverallFit) != ""
}

// ensureArrays guarantees array fields are non-absent in serialized output:
// consumers rely on empty arrays, never JSON null.
func ensureArrays(result *models.AnalysisResult) {
	if result.IdentifiedSkills == nil {
		result.IdentifiedSkills = []string{}
	}
	if result.PrimaryKeywords == nil {
		result.PrimaryKeywords = []string{}
	}
	if result.SuggestedImprovements == nil {
		result.SuggestedImprovements = []string{}
	}
}

func containsSkill(skills []string, token string) bool {
	needle := strings.ToLower(strings.TrimSpace(token))
	if needle == "" {
		return false
	}
	for _, skill := range skills {
		have := strings.ToLower(strings.TrimSpace(skill))
		if have == "" {
			continue
		}
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// extractJSON pulls the JSON object out of text that may carry markdown
// fences or commentary around it.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
