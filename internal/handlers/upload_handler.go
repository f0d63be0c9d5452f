package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/repositories"
	"resume-analyzer/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	pdfParser      services.PDFParserService
	maxFileSize    int64
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	pdfParser services.PDFParserService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		pdfParser:      pdfParser,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /upload: stores a resume PDF and verifies that
// text can be extracted from it before accepting it.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file is required",
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	filename, filePath, err := h.storageService.SaveFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume file: %v", err),
		})
	}

	content, err := h.pdfParser.ExtractText(filePath)
	if err != nil {
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Could not extract text from the uploaded PDF",
		})
	}

	doc := models.Document{
		ID:               uuid.New(),
		UserID:           c.FormValue("user_id", "anonymous"),
		Filename:         filename,
		OriginalFileName: file.Filename,
		FilePath:         filePath,
		PageCount:        content.PageCount,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save document record: %v", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:           doc.ID.String(),
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
		PageCount:    doc.PageCount,
	})
}
