package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	events := []Event{
		{Kind: EventCasePassed, Stage: "lexer", Input: "Lexer/001.in"},
		{Kind: EventCaseFailed, Stage: "lexer", Input: "Lexer/002.in", Reason: "output mismatch"},
		{Kind: EventStageCompleted, Stage: "lexer"},
		{Kind: EventCaseUpdated, Stage: "parser", Input: "Parser/001.in"},
		{Kind: EventRunAborted, Stage: "semantic", Reason: "golden file missing"},
	}

	rep := BuildReport("run-1", "/bin/compiler", events)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, "/bin/compiler", rep.Compiler)
	assert.Equal(t, 2, rep.Passed)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, "golden file missing", rep.Aborted)

	require.Len(t, rep.Stages, 3)
	assert.Equal(t, StageReport{
		Stage:     "lexer",
		Completed: true,
		Cases: []CaseReport{
			{Input: "Lexer/001.in", Passed: true},
			{Input: "Lexer/002.in", Reason: "output mismatch"},
		},
	}, rep.Stages[0])
	assert.Equal(t, StageReport{
		Stage: "parser",
		Cases: []CaseReport{{Input: "Parser/001.in", Passed: true, Updated: true}},
	}, rep.Stages[1])
	assert.Equal(t, StageReport{Stage: "semantic", Cases: []CaseReport{}}, rep.Stages[2])
}

func TestBuildReport_NoEvents(t *testing.T) {
	rep := BuildReport("run-1", "c", nil)
	assert.NotNil(t, rep.Stages)
	assert.Zero(t, rep.Total)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	rep := BuildReport(NewRunID(), "c", []Event{
		{Kind: EventCasePassed, Stage: "lexer", Input: "Lexer/001.in"},
		{Kind: EventStageCompleted, Stage: "lexer"},
	})

	require.NoError(t, WriteReport(path, rep))
	require.NoError(t, WriteReport(path, rep), "an existing report is replaced")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1])

	var got Report
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, rep, got)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "aborted")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}
