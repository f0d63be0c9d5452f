package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService persists uploaded resume files on local disk.
type StorageService interface {
	SaveFile(file *multipart.FileHeader) (string, string, error)
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{uploadPath: uploadPath}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveFile(file *multipart.FileHeader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return "", "", fmt.Errorf("invalid file extension: %s", ext)
	}

	uniqueFilename := fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return uniqueFilename, filePath, nil
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := filepath.Join(s.uploadPath, filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
