package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"vidsub/internal/logging"
	"vidsub/internal/presenter"
	"vidsub/internal/workflow"
)

// progressReporter renders controller events: a progress bar on terminals,
// sampled percentage lines everywhere else.
type progressReporter struct {
	out         io.Writer
	interactive bool
	sampler     *logging.ProgressSampler
	bar         *progressbar.ProgressBar
	phase       workflow.Phase
	done        chan struct{}
}

func newProgressReporter(out io.Writer, interactive bool, bucket int) *progressReporter {
	return &progressReporter{
		out:         out,
		interactive: interactive,
		sampler:     logging.NewProgressSampler(float64(bucket)),
		done:        make(chan struct{}),
	}
}

// follow consumes events until the channel closes.
func (r *progressReporter) follow(events <-chan workflow.Event) {
	go func() {
		defer close(r.done)
		for event := range events {
			r.handle(event)
		}
		r.stopBar(false)
	}()
}

func (r *progressReporter) wait() {
	<-r.done
}

func (r *progressReporter) handle(event workflow.Event) {
	switch event.Type {
	case workflow.EventTypeState:
		if event.Phase == r.phase {
			return
		}
		r.phase = event.Phase
		switch event.Phase {
		case workflow.PhaseUploading:
			r.sampler.Reset()
			r.startBar()
		case workflow.PhaseProcessing:
			r.stopBar(true)
			fmt.Fprintln(r.out, presenter.StepLabel(event.Phase))
		case workflow.PhaseComplete:
			r.stopBar(true)
			fmt.Fprintln(r.out, presenter.StepLabel(event.Phase))
		default:
			r.stopBar(false)
		}
	case workflow.EventTypeProgress:
		if r.bar != nil {
			_ = r.bar.Set(event.Progress)
			return
		}
		if r.sampler.ShouldLog(float64(event.Progress), "upload") {
			fmt.Fprintf(r.out, "  upload %d%%\n", event.Progress)
		}
	}
}

func (r *progressReporter) startBar() {
	label := presenter.StepLabel(workflow.PhaseUploading)
	if !r.interactive {
		fmt.Fprintln(r.out, label)
		return
	}
	out := r.out
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)
}

func (r *progressReporter) stopBar(finished bool) {
	if r.bar == nil {
		return
	}
	if finished {
		_ = r.bar.Finish()
	} else {
		_ = r.bar.Exit()
		fmt.Fprintln(r.out)
	}
	r.bar = nil
}
