package workflow

import (
	"testing"
	"time"
)

func TestEventBusSequencesAndTrims(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: EventTypeProgress, Progress: i * 10})
	}

	events := bus.Since(0)
	if len(events) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	if events[0].Seq != 3 || events[2].Seq != 5 {
		t.Fatalf("unexpected sequence numbers %+v", events)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be assigned")
	}
	if got := bus.Since(4); len(got) != 1 || got[0].Progress != 40 {
		t.Fatalf("unexpected Since(4): %+v", got)
	}
	if got := bus.Since(5); len(got) != 0 {
		t.Fatalf("expected nothing after last seq, got %+v", got)
	}
	if bus.LastSeq() != 5 {
		t.Fatalf("unexpected last seq %d", bus.LastSeq())
	}
}

func TestEventBusSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	ch, cancel := bus.Subscribe(1)

	bus.Publish(Event{Type: EventTypeState, Phase: PhaseSelected})
	bus.Publish(Event{Type: EventTypeState, Phase: PhaseUploading})

	select {
	case event := <-ch:
		if event.Phase != PhaseSelected {
			t.Fatalf("unexpected first event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
	select {
	case event := <-ch:
		t.Fatalf("full subscriber should have dropped the second event, got %+v", event)
	default:
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	bus.Publish(Event{Type: EventTypeState})
}

func TestSnapshotFlattensState(t *testing.T) {
	snap := newSnapshot(Processing{FileID: "abc123"}, "es", &Failure{Message: "x"}, "run-1")
	if snap.Phase != PhaseProcessing || snap.FileID != "abc123" || snap.Progress != 100 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.Busy() || snap.Error == nil || snap.RunID != "run-1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, ok := snap.State().(Processing); !ok {
		t.Fatalf("expected Processing state, got %T", snap.State())
	}
	if (Snapshot{}).State().Phase() != PhaseIdle {
		t.Fatal("zero snapshot should read as Idle")
	}
}
