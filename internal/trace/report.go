// Package trace records what happened to each test case of a run and writes
// it out as a JSON report.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EventKind is the stable discriminator of Event. The string values appear in
// reports; do not rename.
type EventKind string

const (
	EventCasePassed     EventKind = "CasePassed"
	EventCaseFailed     EventKind = "CaseFailed"
	EventCaseUpdated    EventKind = "CaseUpdated"
	EventStageCompleted EventKind = "StageCompleted"
	EventRunAborted     EventKind = "RunAborted"
)

// Event is a single outcome observed by the orchestrator.
type Event struct {
	Kind EventKind

	// Stage is the stage name. Empty only for EventRunAborted raised
	// outside any stage.
	Stage string

	// Input is the case's input path, for case events.
	Input string

	// Reason is the failure or abort message.
	Reason string
}

// Report is the JSON document written by --report.
type Report struct {
	RunID    string        `json:"runId"`
	Compiler string        `json:"compiler"`
	Stages   []StageReport `json:"stages"`
	Passed   int           `json:"passed"`
	Total    int           `json:"total"`
	Aborted  string        `json:"aborted,omitempty"`
}

type StageReport struct {
	Stage     string       `json:"stage"`
	Completed bool         `json:"completed"`
	Cases     []CaseReport `json:"cases"`
}

type CaseReport struct {
	Input   string `json:"input"`
	Passed  bool   `json:"passed"`
	Updated bool   `json:"updated,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// BuildReport folds events, in recording order, into a Report. Stages appear
// in the order their first event was recorded.
func BuildReport(runID, compiler string, events []Event) Report {
	rep := Report{RunID: runID, Compiler: compiler, Stages: []StageReport{}}
	index := make(map[string]int)

	stage := func(name string) *StageReport {
		i, ok := index[name]
		if !ok {
			i = len(rep.Stages)
			index[name] = i
			rep.Stages = append(rep.Stages, StageReport{Stage: name, Cases: []CaseReport{}})
		}
		return &rep.Stages[i]
	}

	for _, e := range events {
		switch e.Kind {
		case EventCasePassed, EventCaseUpdated:
			sr := stage(e.Stage)
			sr.Cases = append(sr.Cases, CaseReport{Input: e.Input, Passed: true, Updated: e.Kind == EventCaseUpdated})
			rep.Passed++
			rep.Total++
		case EventCaseFailed:
			sr := stage(e.Stage)
			sr.Cases = append(sr.Cases, CaseReport{Input: e.Input, Reason: e.Reason})
			rep.Total++
		case EventStageCompleted:
			stage(e.Stage).Completed = true
		case EventRunAborted:
			if e.Stage != "" {
				stage(e.Stage)
			}
			rep.Aborted = e.Reason
		}
	}
	return rep
}

// WriteReport writes rep to path as indented JSON. The file is replaced
// atomically: readers see either the previous report or the new one.
func WriteReport(path string, rep Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	b = append(b, '\n')
	if err := writeFileAtomic(path, b, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
