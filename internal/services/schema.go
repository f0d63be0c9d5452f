package services

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-analyzer/internal/models"
)

// analysisResultSchema is the final contract every result must satisfy after
// repair. A violation here is a repair bug, not a user-facing error.
const analysisResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["score", "scores", "identifiedSkills", "primaryKeywords", "suggestedImprovements", "generalFeedback", "jobAnalysis"],
  "properties": {
    "score": { "type": "number", "minimum": 0, "maximum": 100 },
    "scores": {
      "type": "object",
      "required": ["keywordsRelevance", "achievementsMetrics", "structureReadability", "summaryClarity", "overallPolish"],
      "properties": {
        "keywordsRelevance":    { "$ref": "#/definitions/category" },
        "achievementsMetrics":  { "$ref": "#/definitions/category" },
        "structureReadability": { "$ref": "#/definitions/category" },
        "summaryClarity":       { "$ref": "#/definitions/category" },
        "overallPolish":        { "$ref": "#/definitions/category" }
      }
    },
    "identifiedSkills":      { "type": "array", "items": { "type": "string" } },
    "primaryKeywords":       { "type": "array", "items": { "type": "string" } },
    "suggestedImprovements": { "type": "array", "items": { "type": "string" } },
    "generalFeedback": {
      "type": "object",
      "required": ["overall"],
      "properties": { "overall": { "type": "string", "minLength": 1 } }
    },
    "jobAnalysis": {
      "oneOf": [
        { "type": "null" },
        {
          "type": "object",
          "required": ["alignmentAndStrengths", "gapsAndConcerns", "recommendationsToTailor", "overallFit"],
          "properties": {
            "alignmentAndStrengths":   { "type": "array", "items": { "type": "string" }, "minItems": 1 },
            "gapsAndConcerns":         { "type": "array", "items": { "type": "string" }, "minItems": 1 },
            "recommendationsToTailor": { "type": "array", "items": { "type": "string" }, "minItems": 1 },
            "overallFit":              { "type": "string", "minLength": 1 }
          }
        }
      ]
    }
  },
  "definitions": {
    "category": {
      "type": "object",
      "required": ["score", "maxScore", "feedback"],
      "properties": {
        "score":    { "type": "number", "minimum": 1, "maximum": 10 },
        "maxScore": { "type": "number", "enum": [10] },
        "feedback": { "type": "string", "minLength": 1 }
      }
    }
  }
}`

var analysisSchema = gojsonschema.NewStringLoader(analysisResultSchema)

// ValidateResultSchema checks a finished result against the output contract.
func ValidateResultSchema(result *models.AnalysisResult) error {
	res, err := gojsonschema.Validate(analysisSchema, gojsonschema.NewGoLoader(result))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if res.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("analysis result violates schema:")
	for _, desc := range res.Errors() {
		sb.WriteString(fmt.Sprintf("\n  - %s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%s", sb.String())
}
