package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

type JobDescriptionKind string

const (
	JobDescriptionRaw        JobDescriptionKind = "raw"
	JobDescriptionStructured JobDescriptionKind = "structured"
)

// JobFields is the structured form of a job description.
type JobFields struct {
	RoleTitle    string   `json:"roleTitle"`
	Experience   string   `json:"yearsOfExperience"`
	Industry     string   `json:"industry"`
	Company      string   `json:"companyName"`
	Skills       []string `json:"skills"`
	Requirements []string `json:"requirements"`
}

// JobDescription is a tagged union: callers supply either free-form text or
// structured fields, and every consumer switches on Kind explicitly.
type JobDescription struct {
	Kind   JobDescriptionKind `json:"kind"`
	Text   string             `json:"text,omitempty"`
	Fields JobFields          `json:"fields,omitempty"`
}

func RawJobDescription(text string) *JobDescription {
	return &JobDescription{Kind: JobDescriptionRaw, Text: text}
}

func StructuredJobDescription(fields JobFields) *JobDescription {
	return &JobDescription{Kind: JobDescriptionStructured, Fields: fields}
}

// UnmarshalJSON accepts either a JSON string (raw description) or an object
// (structured fields), mirroring what clients actually send.
func (jd *JobDescription) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("failed to decode job description string: %w", err)
		}
		jd.Kind = JobDescriptionRaw
		jd.Text = text
		return nil
	}

	var fields JobFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode job description object: %w", err)
	}
	jd.Kind = JobDescriptionStructured
	jd.Fields = fields
	return nil
}

func (jd *JobDescription) MarshalJSON() ([]byte, error) {
	if jd == nil {
		return []byte("null"), nil
	}
	switch jd.Kind {
	case JobDescriptionRaw:
		return json.Marshal(jd.Text)
	default:
		return json.Marshal(jd.Fields)
	}
}

// Fingerprint returns a bounded-length digest input for cache keying. Field
// order is fixed by explicit extraction so semantically identical structured
// descriptions always fingerprint the same way.
func (jd *JobDescription) Fingerprint() string {
	if jd == nil {
		return ""
	}
	switch jd.Kind {
	case JobDescriptionRaw:
		text := jd.Text
		if len(text) > 100 {
			cut := 100
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		return text
	default:
		parts := []string{jd.Fields.RoleTitle, jd.Fields.Company}
		parts = append(parts, jd.Fields.Skills...)
		return strings.Join(parts, "|")
	}
}

// SkillTokens derives skill-like tokens from the description for the
// heuristic matching fallback.
func (jd *JobDescription) SkillTokens() []string {
	if jd == nil {
		return nil
	}

	var tokens []string
	switch jd.Kind {
	case JobDescriptionRaw:
		for _, field := range strings.FieldsFunc(jd.Text, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == '/' || r == '•'
		}) {
			field = strings.TrimSpace(field)
			if field != "" && len(field) <= 40 {
				tokens = append(tokens, field)
			}
		}
	default:
		tokens = append(tokens, jd.Fields.Skills...)
		tokens = append(tokens, jd.Fields.Requirements...)
	}
	return tokens
}

// AnalysisRequest is the transient pipeline input. It is never persisted as
// its own entity.
type AnalysisRequest struct {
	ResumeText     string
	JobDescription *JobDescription
}
