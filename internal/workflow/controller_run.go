package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vidsub/internal/backend"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/media"
	"vidsub/internal/services"
)

// runTicket identifies one upload/process attempt.
type runTicket struct {
	id         string
	generation uint64
	asset      media.Asset
	target     string
	startedAt  time.Time
}

func newRunID() string {
	return uuid.NewString()
}

// StartUpload runs the selected asset through upload and processing and
// blocks until the run ends. Outside Selected it changes nothing and returns
// ErrNotSelected or services.ErrBusy.
func (c *Controller) StartUpload(ctx context.Context) error {
	ticket, err := c.begin()
	if err != nil {
		return err
	}
	defer c.runs.Done()
	return c.execute(ctx, ticket)
}

// StartUploadAsync enters Uploading synchronously and finishes the run in a
// goroutine. The returned channel yields the run's result and is then closed.
func (c *Controller) StartUploadAsync(ctx context.Context) (<-chan error, error) {
	ticket, err := c.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer c.runs.Done()
		done <- c.execute(ctx, ticket)
	}()
	return done, nil
}

// Wait blocks until every started run has returned, including runs whose
// results were abandoned by Reset. Callers cancel the run context first.
func (c *Controller) Wait() {
	c.runs.Wait()
}

func (c *Controller) begin() (*runTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected, ok := c.state.(Selected)
	if !ok {
		switch c.state.(type) {
		case Uploading, Processing:
			return nil, services.Wrap(services.ErrBusy, services.StageUpload, "start upload", "a run is already in flight", nil)
		default:
			return nil, ErrNotSelected
		}
	}

	ticket := &runTicket{
		id:         c.newRunID(),
		generation: c.generation,
		asset:      selected.Asset,
		target:     c.target,
		startedAt:  c.now(),
	}
	c.run = ticket
	c.lastRunID = ""
	c.runs.Add(1)
	c.transitionLocked(Uploading{Asset: selected.Asset}, nil)
	return ticket, nil
}

func (c *Controller) execute(ctx context.Context, ticket *runTicket) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRunID(ctx, ticket.id)
	ctx = services.WithRequestID(ctx, ticket.id)
	logger := logging.WithContext(ctx, c.logger)

	logger.Info("upload started",
		logging.String("file", ticket.asset.Name),
		logging.Int64("size_bytes", ticket.asset.SizeBytes),
		logging.String("target_language", ticket.target),
	)

	sampler := logging.NewProgressSampler(float64(c.progressBucket))
	uploadCtx := services.WithStage(ctx, services.StageUpload)
	reply, err := c.service.Upload(uploadCtx, ticket.asset, func(percent int) {
		if c.applyProgress(ticket, percent) && sampler.ShouldLog(float64(percent), services.StageUpload) {
			logger.Info("upload progress", logging.Int("percent", percent))
		}
	})
	if err != nil {
		return c.fail(uploadCtx, ticket, services.StageUpload, err, MessageUploadFailed)
	}
	if !c.enterProcessing(ticket, reply.FileID) {
		return ErrRunAbandoned
	}
	logger.Info("upload complete", logging.String("file_id", reply.FileID))

	processCtx := services.WithStage(ctx, services.StageProcess)
	result, err := c.service.Process(processCtx, reply.FileID, ticket.target)
	if err != nil {
		return c.fail(processCtx, ticket, services.StageProcess, err, MessageProcessingFailed)
	}
	if !c.complete(ticket, result) {
		return ErrRunAbandoned
	}
	logger.Info("processing complete",
		logging.String("srt_file", result.SubtitleFile),
		logging.String("language_detected", result.DetectedLanguage),
		logging.Int("segments", result.SegmentCount),
	)
	c.record(ticket, history.StatusComplete, "", &result)
	return nil
}

// currentLocked reports whether ticket still owns the controller.
func (c *Controller) currentLocked(ticket *runTicket) bool {
	return c.run == ticket && c.generation == ticket.generation
}

// applyProgress records percent if it advances the upload. Returns true when
// the value was applied.
func (c *Controller) applyProgress(ticket *runTicket, percent int) bool {
	percent = min(max(percent, 0), 100)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(ticket) {
		return false
	}
	uploading, ok := c.state.(Uploading)
	if !ok || percent <= uploading.Progress {
		return false
	}
	uploading.Progress = percent
	c.state = uploading
	c.publishLocked(Event{Type: EventTypeProgress, Progress: percent})
	return true
}

func (c *Controller) enterProcessing(ticket *runTicket, fileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(ticket) {
		return false
	}
	c.transitionLocked(Processing{Asset: ticket.asset, FileID: fileID}, nil)
	return true
}

func (c *Controller) complete(ticket *runTicket, result backend.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(ticket) {
		return false
	}
	c.transitionLocked(Complete{Result: result}, nil)
	c.lastRunID = ticket.id
	c.run = nil
	return true
}

// fail returns to Selected with the asset kept and the file id dropped.
func (c *Controller) fail(ctx context.Context, ticket *runTicket, stage string, err error, fallback string) error {
	message := services.UserMessage(err, fallback)

	c.mu.Lock()
	if !c.currentLocked(ticket) {
		c.mu.Unlock()
		return ErrRunAbandoned
	}
	c.transitionLocked(Selected{Asset: ticket.asset}, &Failure{Stage: stage, Message: message, At: c.now()})
	c.run = nil
	c.mu.Unlock()

	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "workflow run failed", stage+"_failed",
		logging.String("message", message),
		logging.Error(err),
		logging.String(logging.FieldImpact, "no subtitles produced; the video stays selected for retry"),
	)
	c.record(ticket, history.StatusFailed, message, nil)
	return err
}

func (c *Controller) record(ticket *runTicket, status history.Status, message string, result *backend.Result) {
	if c.recorder == nil || ticket == nil {
		return
	}
	entry := history.Entry{
		RunID:          ticket.id,
		FileName:       ticket.asset.Name,
		FilePath:       ticket.asset.Path,
		SizeBytes:      ticket.asset.SizeBytes,
		MediaType:      ticket.asset.MediaType,
		TargetLanguage: ticket.target,
		Status:         status,
		ErrorMessage:   message,
		StartedAt:      ticket.startedAt,
		FinishedAt:     c.now(),
	}
	if result != nil {
		entry.FileID = result.FileID
		entry.DetectedLanguage = result.DetectedLanguage
		entry.SegmentCount = result.SegmentCount
		entry.SubtitleFile = result.SubtitleFile
	}
	if err := c.recorder.Record(context.Background(), entry); err != nil {
		logging.WarnWithContext(c.logger, "run journal write failed", "history_write_failed",
			logging.String(logging.FieldRunID, ticket.id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not appear in history"),
		)
	}
}
