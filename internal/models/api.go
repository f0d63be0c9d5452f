package models

type AnalyzeRequest struct {
	UserID         string          `json:"user_id"`
	ResumeText     string          `json:"resume_text"`
	DocumentID     string          `json:"document_id,omitempty"`
	JobDescription *JobDescription `json:"job_description,omitempty"`
}

type AnalyzeResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result *AnalysisResult `json:"result,omitempty"`
}

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	PageCount    int    `json:"page_count"`
}

type AnalysisResponse struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	Score          *int            `json:"score,omitempty"`
	Result         *AnalysisResult `json:"result,omitempty"`
	JobDescription *JobDescription `json:"job_description,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}
