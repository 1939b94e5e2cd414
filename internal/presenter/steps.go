package presenter

import "vidsub/internal/workflow"

// StepLabel returns the progress caption shown for phase.
func StepLabel(phase workflow.Phase) string {
	switch phase {
	case workflow.PhaseSelected:
		return "Ready to process"
	case workflow.PhaseUploading:
		return "Uploading video..."
	case workflow.PhaseProcessing:
		return "Extracting audio and transcribing..."
	case workflow.PhaseComplete:
		return "Complete!"
	default:
		return "Select a video"
	}
}
