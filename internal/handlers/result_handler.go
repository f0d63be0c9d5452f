package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/repositories"
)

type ResultHandler struct {
	analysisRepo repositories.AnalysisRepository
}

func NewResultHandler(analysisRepo repositories.AnalysisRepository) *ResultHandler {
	return &ResultHandler{analysisRepo: analysisRepo}
}

// HandleGetAnalysis handles GET /analyses/:id
func (h *ResultHandler) HandleGetAnalysis(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	analysis, err := h.analysisRepo.FindByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Analysis not found",
		})
	}

	return c.JSON(toResponse(analysis))
}

// HandleListAnalyses handles GET /analyses?user_id=...
func (h *ResultHandler) HandleListAnalyses(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id query parameter is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	analyses, err := h.analysisRepo.FindByUser(userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list analyses",
		})
	}

	responses := make([]models.AnalysisResponse, 0, len(analyses))
	for i := range analyses {
		responses = append(responses, toResponse(&analyses[i]))
	}
	return c.JSON(responses)
}

func toResponse(analysis *models.Analysis) models.AnalysisResponse {
	resp := models.AnalysisResponse{
		ID:           analysis.ID.String(),
		Status:       string(analysis.Status),
		Score:        analysis.Score,
		ErrorMessage: analysis.ErrorMessage,
		CreatedAt:    analysis.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    analysis.UpdatedAt.Format(time.RFC3339),
	}

	if analysis.Result != nil {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(*analysis.Result), &result); err != nil {
			log.Printf("⚠️ Stored result for %s is unreadable: %v\n", analysis.ID, err)
		} else {
			resp.Result = &result
		}
	}

	if analysis.JobDescription != nil {
		var jd models.JobDescription
		if err := json.Unmarshal([]byte(*analysis.JobDescription), &jd); err == nil {
			resp.JobDescription = &jd
		}
	}

	return resp
}
