package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vidsub/internal/backend"
	"vidsub/internal/history"
	"vidsub/internal/language"
	"vidsub/internal/logging"
	"vidsub/internal/media"
	"vidsub/internal/services"
)

// User-facing fallbacks when the backend supplies no detail.
const (
	MessageUploadFailed     = "Upload failed"
	MessageProcessingFailed = "Processing failed"
)

var (
	// ErrNotSelected is returned by StartUpload when no file is selected.
	ErrNotSelected = errors.New("no video selected")
	// ErrRunAbandoned is returned by a run whose results were discarded by Reset.
	ErrRunAbandoned = errors.New("run abandoned by reset")
)

// Service is the backend surface the controller drives.
type Service interface {
	Upload(ctx context.Context, asset media.Asset, progress backend.ProgressFunc) (backend.UploadReply, error)
	Process(ctx context.Context, fileID, targetLanguage string) (backend.Result, error)
}

// TargetCatalog maps user input onto the backend's own target codes.
// catalog.Catalog satisfies it.
type TargetCatalog interface {
	Resolve(code string) (string, bool)
}

// Recorder receives terminal run outcomes. history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Controller owns the workflow state machine.
type Controller struct {
	service  Service
	catalog  TargetCatalog
	recorder Recorder
	bus      *EventBus
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
	inspect  func(paths []string, mediaType string) (media.Asset, error)

	progressBucket int

	runs sync.WaitGroup

	mu         sync.Mutex
	state      State
	target     string
	failure    *Failure
	generation uint64
	run        *runTicket
	lastRunID  string
}

// Option configures optional Controller behavior.
type Option func(*Controller)

// WithCatalog sets the catalog used to validate target languages. Without
// one only "original" is accepted.
func WithCatalog(catalog TargetCatalog) Option {
	return func(c *Controller) {
		c.catalog = catalog
	}
}

// WithRecorder journals terminal run outcomes.
func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) {
		c.recorder = recorder
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.NewComponentLogger(logger, "workflow")
	}
}

// WithEventBuffer sets how many events the bus retains.
func WithEventBuffer(size int) Option {
	return func(c *Controller) {
		c.bus = NewEventBus(size)
	}
}

// WithDefaultTargetLanguage sets the initial target language. With a
// catalog the value is resolved to the catalog's key when construction
// finishes.
func WithDefaultTargetLanguage(code string) Option {
	return func(c *Controller) {
		if trimmed := strings.TrimSpace(code); trimmed != "" {
			c.target = trimmed
		}
	}
}

// WithProgressLogBucket sets the percentage step between upload progress log
// lines.
func WithProgressLogBucket(step int) Option {
	return func(c *Controller) {
		if step > 0 {
			c.progressBucket = step
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithInspector overrides file inspection during Select (used in tests).
func WithInspector(fn func(paths []string, mediaType string) (media.Asset, error)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.inspect = fn
		}
	}
}

// WithRunIDGenerator overrides run identifier generation (used in tests).
func WithRunIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newRunID = fn
		}
	}
}

// NewController constructs a controller in the Idle state.
func NewController(service Service, opts ...Option) *Controller {
	c := &Controller{
		service:        service,
		logger:         logging.NewComponentLogger(nil, "workflow"),
		now:            time.Now,
		newRunID:       newRunID,
		inspect:        media.Select,
		progressBucket: 10,
		state:          Idle{},
		target:         language.Original,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = NewEventBus(0)
	}
	if resolved, ok := c.resolveTarget(c.target); ok {
		c.target = resolved
	} else if c.catalog == nil {
		c.target = language.NormalizeTarget(c.target)
	}
	return c
}

// Events exposes the controller's event bus.
func (c *Controller) Events() *EventBus {
	return c.bus
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current tagged-union state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TargetLanguage returns the language the next run will request.
func (c *Controller) TargetLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Select validates the first of paths and makes it the selected asset.
// A rejected file leaves the state as it was and sets the error annotation.
// Selection is refused while a run is in flight or a result is shown. The
// file is inspected without holding the lock, so the phase is checked again
// before the transition.
func (c *Controller) Select(paths []string, mediaType string) (media.Asset, error) {
	c.mu.Lock()
	err := c.selectableLocked()
	c.mu.Unlock()
	if err != nil {
		return media.Asset{}, err
	}

	asset, selectErr := c.inspect(paths, mediaType)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.selectableLocked(); err != nil {
		return media.Asset{}, err
	}
	if selectErr != nil {
		c.setFailureLocked(services.StageSelect, services.UserMessage(selectErr, media.MessageNotVideo))
		c.logger.Info("video rejected", logging.Error(selectErr))
		return media.Asset{}, selectErr
	}

	c.transitionLocked(Selected{Asset: asset}, nil)
	c.logger.Info("video selected",
		logging.String("file", asset.Name),
		logging.Int64("size_bytes", asset.SizeBytes),
		logging.String("media_type", asset.MediaType),
	)
	return asset, nil
}

func (c *Controller) selectableLocked() error {
	switch c.state.(type) {
	case Uploading, Processing:
		return services.Wrap(services.ErrBusy, services.StageSelect, "select", "a video is being processed", nil)
	case Complete:
		return services.Wrap(services.ErrBusy, services.StageSelect, "select", "reset before selecting another video", nil)
	}
	return nil
}

// SetTargetLanguage changes the language requested by the next run. It is
// accepted only before a run starts; input that resolves to no catalog key is
// rejected. The stored target is always the catalog's own spelling.
func (c *Controller) SetTargetLanguage(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.(type) {
	case Idle, Selected:
	default:
		return services.Wrap(services.ErrBusy, "", "set target language", "target language is fixed once a run starts", nil)
	}
	resolved, ok := c.resolveTarget(code)
	if !ok {
		msg := fmt.Sprintf("Unsupported target language: %s", strings.TrimSpace(code))
		c.setFailureLocked("", msg)
		return services.Wrap(services.ErrValidation, "", "set target language", "", services.NewUserError(msg))
	}
	if resolved == c.target {
		return nil
	}
	c.target = resolved
	c.clearFailureLocked()
	c.publishLocked(Event{Type: EventTypeTarget, Target: resolved})
	return nil
}

func (c *Controller) resolveTarget(code string) (string, bool) {
	if language.IsOriginal(code) {
		return language.Original, true
	}
	if c.catalog == nil {
		return "", false
	}
	return c.catalog.Resolve(code)
}

// Dismiss clears the error annotation without touching the state.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure == nil {
		return
	}
	c.failure = nil
	c.publishLocked(Event{Type: EventTypeError})
}

// Reset returns to Idle from any state, discards every payload and restores
// the "original" target. An in-flight run keeps going on the backend but its
// results are ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	abandoned := c.run
	c.generation++
	c.run = nil
	c.lastRunID = ""
	c.failure = nil
	c.target = language.Original
	_, wasIdle := c.state.(Idle)
	c.state = Idle{}
	c.publishLocked(Event{Type: EventTypeState})
	c.mu.Unlock()

	if !wasIdle {
		c.logger.Info("workflow reset")
	}
	if abandoned != nil {
		c.record(abandoned, history.StatusReset, "", nil)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	runID := c.lastRunID
	if c.run != nil {
		runID = c.run.id
	}
	return newSnapshot(c.state, c.target, c.failure, runID)
}

// transitionLocked moves to next, replaces the error annotation with failure
// (nil clears it) and publishes the change.
func (c *Controller) transitionLocked(next State, failure *Failure) {
	prev := c.state
	c.state = next
	c.failure = failure
	event := Event{Type: EventTypeState}
	if failure != nil {
		event.Message = failure.Message
	}
	c.publishLocked(event)
	c.logger.Debug("workflow transition",
		logging.String("from", string(prev.Phase())),
		logging.String("to", string(next.Phase())),
	)
}

func (c *Controller) setFailureLocked(stage, message string) {
	c.failure = &Failure{Stage: stage, Message: message, At: c.now()}
	c.publishLocked(Event{Type: EventTypeError, Message: message})
}

func (c *Controller) clearFailureLocked() {
	c.failure = nil
}

func (c *Controller) publishLocked(event Event) {
	event.Phase = c.state.Phase()
	if event.Target == "" {
		event.Target = c.target
	}
	if c.run != nil && event.RunID == "" {
		event.RunID = c.run.id
	}
	if u, ok := c.state.(Uploading); ok && event.Progress == 0 {
		event.Progress = u.Progress
	}
	c.bus.Publish(event)
}
