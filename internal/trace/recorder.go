package trace

import "sync"

// Sink receives case and stage events from the orchestrator. Record never
// fails the run; a sink that cannot keep an event drops it.
type Sink interface {
	Record(event Event)
}

// NopSink is the sink of a run without --report.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord hands event to s. A nil sink is skipped and a panicking one is
// contained.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder keeps the events of one run in memory until the report is
// written.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Snapshot returns a copy of the events recorded so far, oldest first.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Report folds the events recorded so far into the run report.
func (r *Recorder) Report(runID, compiler string) Report {
	return BuildReport(runID, compiler, r.Snapshot())
}
