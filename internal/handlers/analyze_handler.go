package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/repositories"
	"resume-analyzer/internal/services"
)

// requestDeadline bounds a synchronous analysis request end to end.
const requestDeadline = 180 * time.Second

type AnalyzeHandler struct {
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	pdfParser    services.PDFParserService
	analyzer     services.AnalyzerService
	worker       services.Worker
}

func NewAnalyzeHandler(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	pdfParser services.PDFParserService,
	analyzer services.AnalyzerService,
	worker services.Worker,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		pdfParser:    pdfParser,
		analyzer:     analyzer,
		worker:       worker,
	}
}

// HandleAnalyze handles POST /analyze: runs the pipeline inline and returns
// the persisted result.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	req, resumeText, err := h.parseRequest(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestDeadline)
	defer cancel()

	result, err := h.analyzer.Analyze(ctx, models.AnalysisRequest{
		ResumeText:     resumeText,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		return mapAnalysisError(c, err)
	}

	record, err := h.persistCompleted(req, resumeText, result)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store analysis",
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.AnalyzeResponse{
		ID:     record.ID.String(),
		Status: string(models.StatusCompleted),
		Result: result,
	})
}

// HandleEnqueue handles POST /analyses: creates a queued analysis job and
// returns immediately. Results are fetched via GET /analyses/:id.
func (h *AnalyzeHandler) HandleEnqueue(c *fiber.Ctx) error {
	req, resumeText, err := h.parseRequest(c)
	if err != nil {
		return err
	}

	analysis := &models.Analysis{
		ID:      uuid.New(),
		UserID:  req.UserID,
		Content: resumeText,
		Status:  models.StatusQueued,
	}
	if req.JobDescription != nil {
		jdJSON, err := json.Marshal(req.JobDescription)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid job description",
			})
		}
		jd := string(jdJSON)
		analysis.JobDescription = &jd
	}

	if err := h.analysisRepo.Create(analysis); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create analysis job",
		})
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.AnalyzeResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// parseRequest decodes the payload and resolves the resume text, either
// inline or from an uploaded document. Failures surface as fiber errors for
// the app-level error handler to serialize.
func (h *AnalyzeHandler) parseRequest(c *fiber.Ctx) (*models.AnalyzeRequest, string, error) {
	var req models.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	resumeText := req.ResumeText
	if resumeText == "" && req.DocumentID != "" {
		docID, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid document_id format")
		}
		doc, err := h.docRepo.FindByID(docID)
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		content, err := h.pdfParser.ExtractText(doc.FilePath)
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusUnprocessableEntity, "Could not extract text from the uploaded document")
		}
		resumeText = content.Text
	}

	return &req, resumeText, nil
}

func (h *AnalyzeHandler) persistCompleted(req *models.AnalyzeRequest, resumeText string, result *models.AnalysisResult) (*models.Analysis, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	record := &models.Analysis{
		ID:      uuid.New(),
		UserID:  req.UserID,
		Content: resumeText,
		Status:  models.StatusCompleted,
		Score:   &result.Score,
	}
	resultStr := string(resultJSON)
	record.Result = &resultStr

	if req.JobDescription != nil {
		jdJSON, err := json.Marshal(req.JobDescription)
		if err != nil {
			return nil, err
		}
		jd := string(jdJSON)
		record.JobDescription = &jd
	}

	if err := h.analysisRepo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// mapAnalysisError translates the pipeline's error taxonomy into status
// codes and the only user-visible failure messages.
func mapAnalysisError(c *fiber.Ctx, err error) error {
	var rl *services.RateLimitError
	var to *services.TimeoutError

	switch {
	case errors.Is(err, services.ErrEmptyResume):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please provide resume content",
		})
	case errors.As(err, &rl):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "The analysis service is busy, please try again shortly",
			"retry_after": rl.RetryAfter.Seconds(),
		})
	case errors.As(err, &to), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Your document may be too large or complex; try trimming it and retrying",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Analysis failed, please try again",
		})
	}
}
