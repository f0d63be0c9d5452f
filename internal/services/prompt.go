package services

import (
	"fmt"
	"strings"

	"resume-analyzer/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildChunkSummaryPrompt creates the prompt used to compress one chunk of an
// oversized resume while keeping everything the analyzer scores on.
func (pb *PromptBuilder) BuildChunkSummaryPrompt(chunk string) string {
	return fmt.Sprintf(`Summarize this section of a resume concisely. You MUST preserve:
- All skills and technologies mentioned
- Job titles, company names, and employment dates
- Quantified achievements and metrics (numbers, percentages, amounts)
- Industry keywords and certifications

Keep the summary under 800 characters. Return plain text only, no commentary.

RESUME SECTION:
%s`, chunk)
}

// BuildSimpleExtractionPrompt is the cheaper fallback used when semantic
// chunking fails and sections are processed sequentially.
func (pb *PromptBuilder) BuildSimpleExtractionPrompt(chunk string) string {
	return fmt.Sprintf(`List the skills, job titles, dates, and notable achievements found in the following text. Return plain text, one item per line.

TEXT:
%s`, chunk)
}

// BuildExtractionPrompt creates the stage-1 prompt: raw facts as strict JSON.
func (pb *PromptBuilder) BuildExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are a resume parser. Extract raw facts from the resume below.

Return your result as a single JSON object in exactly this format:
{
  "technicalSkills": [string],
  "softSkills": [string],
  "keywords": [string],
  "achievements": [string],
  "education": [string],
  "experience": [string]
}

Rules:
- Extract only content that is explicitly present in the resume.
- "achievements" must contain concrete accomplishments, preferably with metrics.
- "experience" must contain one entry per role: title, company, and dates.
- Return only valid JSON. No markdown, no explanations, no text before or after the JSON.

RESUME:
%s`, resumeText)
}

const analysisFormatContract = `{
  "score": <0-100>,
  "scores": {
    "keywordsRelevance":    { "score": <1-10>, "maxScore": 10, "feedback": string, "keywords": [string] },
    "achievementsMetrics":  { "score": <1-10>, "maxScore": 10, "feedback": string, "highlights": [string] },
    "structureReadability": { "score": <1-10>, "maxScore": 10, "feedback": string },
    "summaryClarity":       { "score": <1-10>, "maxScore": 10, "feedback": string },
    "overallPolish":        { "score": <1-10>, "maxScore": 10, "feedback": string }
  },
  "identifiedSkills": [string],
  "primaryKeywords": [string],
  "suggestedImprovements": [string],
  "generalFeedback": { "overall": string }
}`

// BuildResumeAnalysisPrompt creates the stage-2 prompt when no job
// description was supplied.
func (pb *PromptBuilder) BuildResumeAnalysisPrompt(resumeText, extractionJSON string) string {
	return fmt.Sprintf(`You are an expert resume reviewer and career coach. Analyze the resume below and score it.

PREVIOUSLY EXTRACTED FACTS (use these as context):
%s

RESUME:
%s

Return your result as a single JSON object in exactly this format:
%s

Scoring rules:
- Be conservative: most resumes score 60-75 overall unless content is exceptional.
- Every array must be populated with real content extracted from the resume; never leave an array empty when matching content exists.
- "suggestedImprovements" must contain specific, actionable items referencing the resume's actual content.
- "generalFeedback.overall" must be 3-5 sentences summarizing strengths and the most important gaps.
- Return only valid JSON. No markdown, no explanations.`,
		extractionJSON, resumeText, analysisFormatContract)
}

// BuildJobComparisonPrompt creates the stage-2 prompt when a job description
// was supplied: resume-only fields plus the jobAnalysis block.
func (pb *PromptBuilder) BuildJobComparisonPrompt(resumeText, extractionJSON string, jobDesc *models.JobDescription) string {
	contract := strings.TrimSuffix(analysisFormatContract, "\n}")
	contract += `,
  "jobAnalysis": {
    "alignmentAndStrengths": [string],
    "gapsAndConcerns": [string],
    "recommendationsToTailor": [string],
    "overallFit": string
  }
}`

	return fmt.Sprintf(`You are an expert resume reviewer and career coach. Analyze the resume below against the target job and score it.

PREVIOUSLY EXTRACTED FACTS (use these as context):
%s

TARGET JOB:
%s

RESUME:
%s

Return your result as a single JSON object in exactly this format:
%s

Scoring rules:
- Be conservative: most resumes score 60-75 overall unless content is exceptional.
- Every array must be populated with real content; never leave an array empty when matching content exists.
- Each of the four jobAnalysis fields must contain 3-5 concrete, actionable items specific to this resume and this job. Never use generic placeholders.
- When the resume is a poor match for the job (overall score below 70), be maximally specific about which requirements are missing and why.
- "overallFit" must state an explicit fit estimate (qualitative or percentage) and a clear recommendation: keep tailoring this resume for this role, or focus on better-matched roles.
- Return only valid JSON. No markdown, no explanations.`,
		extractionJSON, pb.RenderJobDescription(jobDesc), resumeText, contract)
}

// RenderJobDescription flattens either form of the job description into
// prompt text.
func (pb *PromptBuilder) RenderJobDescription(jobDesc *models.JobDescription) string {
	if jobDesc == nil {
		return ""
	}

	switch jobDesc.Kind {
	case models.JobDescriptionRaw:
		return jobDesc.Text
	default:
		f := jobDesc.Fields
		var sb strings.Builder
		if f.RoleTitle != "" {
			sb.WriteString(fmt.Sprintf("Role: %s\n", f.RoleTitle))
		}
		if f.Experience != "" {
			sb.WriteString(fmt.Sprintf("Experience required: %s\n", f.Experience))
		}
		if f.Industry != "" {
			sb.WriteString(fmt.Sprintf("Industry: %s\n", f.Industry))
		}
		if f.Company != "" {
			sb.WriteString(fmt.Sprintf("Company: %s\n", f.Company))
		}
		if len(f.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("Required skills: %s\n", strings.Join(f.Skills, ", ")))
		}
		if len(f.Requirements) > 0 {
			sb.WriteString("Requirements:\n")
			for _, req := range f.Requirements {
				sb.WriteString(fmt.Sprintf("- %s\n", req))
			}
		}
		return sb.String()
	}
}
