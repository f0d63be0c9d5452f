package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/repositories"
)

// requestDeadline bounds one queued analysis end to end. Each model call has
// its own tighter sub-timeout inside the backoff client.
const requestDeadline = 180 * time.Second

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

type worker struct {
	analysisRepo repositories.AnalysisRepository
	analyzer     AnalyzerService
	jobQueue     chan uuid.UUID
	concurrency  int
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analyzer AnalyzerService,
	concurrency int,
) Worker {
	return &worker{
		analysisRepo: analysisRepo,
		analyzer:     analyzer,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	select {
	case w.jobQueue <- analysisID:
		log.Printf("📥 Analysis %s enqueued\n", analysisID)
	case <-w.stopChan:
		log.Printf("⚠️ Worker stopped, cannot enqueue analysis %s\n", analysisID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case analysisID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing analysis %s\n", workerID, analysisID)
			if err := w.runAnalysis(ctx, analysisID); err != nil {
				log.Printf("❌ Worker #%d failed analysis %s: %v\n", workerID, analysisID, err)
			} else {
				log.Printf("✅ Worker #%d completed analysis %s\n", workerID, analysisID)
			}
		}
	}
}

// runAnalysis executes the pipeline for a queued record and persists the
// outcome, including degraded fallback results.
func (w *worker) runAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	if err := w.analysisRepo.UpdateStatus(analysisID, models.StatusProcessing); err != nil {
		return err
	}

	analysis, err := w.analysisRepo.FindByID(analysisID)
	if err != nil {
		w.analysisRepo.UpdateError(analysisID, err.Error())
		return err
	}

	req := models.AnalysisRequest{ResumeText: analysis.Content}
	if analysis.JobDescription != nil {
		var jobDesc models.JobDescription
		if err := json.Unmarshal([]byte(*analysis.JobDescription), &jobDesc); err != nil {
			w.analysisRepo.UpdateError(analysisID, "stored job description is unreadable: "+err.Error())
			return err
		}
		req.JobDescription = &jobDesc
	}

	runCtx, cancel := context.WithTimeout(ctx, requestDeadline)
	defer cancel()

	result, err := w.analyzer.Analyze(runCtx, req)
	if err != nil {
		w.analysisRepo.UpdateError(analysisID, userFacingMessage(err))
		return err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		w.analysisRepo.UpdateError(analysisID, "failed to serialize analysis result")
		return err
	}

	return w.analysisRepo.UpdateResult(analysisID, result.Score, string(resultJSON))
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ticker.C:
			pending, err := w.analysisRepo.FindPendingJobs(10)
			if err != nil {
				log.Printf("⚠️ Failed to fetch pending analyses: %v\n", err)
				continue
			}
			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

// userFacingMessage maps taxonomy errors to the three messages end users are
// allowed to see.
func userFacingMessage(err error) string {
	var rl *RateLimitError
	var to *TimeoutError
	switch {
	case errors.Is(err, ErrEmptyResume):
		return "Please provide resume content"
	case errors.As(err, &rl):
		return "The analysis service is busy, please try again shortly"
	case errors.As(err, &to), errors.Is(err, context.DeadlineExceeded):
		return "Your document may be too large or complex; try trimming it and retrying"
	default:
		return "Analysis failed, please try again"
	}
}
