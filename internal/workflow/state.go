package workflow

import (
	"time"

	"vidsub/internal/backend"
	"vidsub/internal/media"
)

// Phase names the live variant of State.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSelected   Phase = "selected"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
)

// State is the workflow state. Exactly one of the variant types below
// implements it at any time.
type State interface {
	Phase() Phase
	isState()
}

// Idle means no file is selected.
type Idle struct{}

// Selected holds a validated asset ready for upload.
type Selected struct {
	Asset media.Asset
}

// Uploading streams Asset to the backend; Progress never decreases.
type Uploading struct {
	Asset    media.Asset
	Progress int
}

// Processing waits for the backend to transcribe FileID. Asset is retained
// only so a failure can fall back to Selected.
type Processing struct {
	Asset  media.Asset
	FileID string
}

// Complete holds the processing result.
type Complete struct {
	Result backend.Result
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Selected) Phase() Phase   { return PhaseSelected }
func (Uploading) Phase() Phase  { return PhaseUploading }
func (Processing) Phase() Phase { return PhaseProcessing }
func (Complete) Phase() Phase   { return PhaseComplete }

func (Idle) isState()       {}
func (Selected) isState()   {}
func (Uploading) isState()  {}
func (Processing) isState() {}
func (Complete) isState()   {}

// Failure is the error annotation shown next to the current state.
type Failure struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Snapshot is a flattened, JSON-friendly copy of the controller state.
type Snapshot struct {
	Phase          Phase           `json:"phase"`
	Asset          *media.Asset    `json:"asset,omitempty"`
	Progress       int             `json:"progress"`
	FileID         string          `json:"file_id,omitempty"`
	Result         *backend.Result `json:"result,omitempty"`
	TargetLanguage string          `json:"target_language"`
	Error          *Failure        `json:"error,omitempty"`
	RunID          string          `json:"run_id,omitempty"`

	state State
}

// State returns the tagged union the snapshot was built from.
func (s Snapshot) State() State {
	if s.state == nil {
		return Idle{}
	}
	return s.state
}

// Busy reports whether a network call is in flight.
func (s Snapshot) Busy() bool {
	return s.Phase == PhaseUploading || s.Phase == PhaseProcessing
}

func newSnapshot(state State, target string, failure *Failure, runID string) Snapshot {
	snap := Snapshot{
		Phase:          state.Phase(),
		TargetLanguage: target,
		RunID:          runID,
		state:          state,
	}
	if failure != nil {
		copied := *failure
		snap.Error = &copied
	}
	switch s := state.(type) {
	case Selected:
		asset := s.Asset
		snap.Asset = &asset
	case Uploading:
		asset := s.Asset
		snap.Asset = &asset
		snap.Progress = s.Progress
	case Processing:
		asset := s.Asset
		snap.Asset = &asset
		snap.Progress = 100
		snap.FileID = s.FileID
	case Complete:
		result := s.Result
		snap.Result = &result
		snap.Progress = 100
		snap.FileID = s.Result.FileID
	}
	return snap
}
