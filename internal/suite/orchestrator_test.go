package suite

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagecheck/internal/core"
	"stagecheck/internal/trace"
)

// fakeInvoker returns canned output keyed by "<stage dir>/<file name>".
type fakeInvoker struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeInvoker) Invoke(_ context.Context, stage core.Stage, inputPath string) ([]byte, error) {
	key := stage.Dir + "/" + filepath.Base(inputPath)
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return []byte(f.outputs[key]), nil
}

// writeTree creates files under root from a map of slash-separated relative
// paths to contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func newOrchestrator(root string, inv Invoker, out *bytes.Buffer) *Orchestrator {
	return &Orchestrator{
		Root:       root,
		Invoker:    inv,
		Comparator: &core.Comparator{},
		Reporter:   &Reporter{W: out},
	}
}

func TestOrchestrator_Run(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Lexer/001.in":   "",
		"Lexer/001.out":  "IDENT x\nNUM 1\n",
		"Lexer/002.in":   "",
		"Lexer/002.out":  "IDENT y\n",
		"Parser/001.in":  "",
		"Parser/001.out": "OK\n",
		// 002 is missing: 003 is never discovered.
		"Parser/003.in":    "",
		"Parser/003.out":   "OK\n",
		"Semantic/001.in":  "",
		"Semantic/001.out": "table\n",
	})
	inv := &fakeInvoker{outputs: map[string]string{
		"Lexer/001.in":    "NUM 1\nIDENT x\n",
		"Lexer/002.in":    "IDENT z\n",
		"Parser/001.in":   "OK\n",
		"Semantic/001.in": "table\r\n",
	}}

	var out bytes.Buffer
	rec := trace.NewRecorder()
	o := newOrchestrator(root, inv, &out)
	o.Trace = rec

	sum, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 4, Passed: 3}, sum)

	want := strings.Join([]string{
		"Test " + filepath.Join(root, "Lexer", "002.in") + " failed",
		Separator,
		Separator,
		Separator,
		Separator,
		"Result: 3/4",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())

	assert.Equal(t, []string{"Lexer/001.in", "Lexer/002.in", "Parser/001.in", "Semantic/001.in"}, inv.calls)

	rep := trace.BuildReport("id", "compiler", rec.Snapshot())
	assert.Equal(t, 3, rep.Passed)
	assert.Equal(t, 4, rep.Total)
	require.Len(t, rep.Stages, 4)
	for _, s := range rep.Stages {
		assert.True(t, s.Completed, s.Stage)
	}
}

func TestOrchestrator_Run_EmptyTree(t *testing.T) {
	var out bytes.Buffer
	sum, err := newOrchestrator(t.TempDir(), &fakeInvoker{}, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Equal(t, strings.Repeat(Separator+"\n", 4)+"Result: 0/0\n", out.String())
}

func TestOrchestrator_Run_MissingGoldenAborts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Lexer/001.in":  "",
		"Lexer/001.out": "A\n",
		"Parser/001.in": "",
		"Parser/002.in": "",
	})
	inv := &fakeInvoker{outputs: map[string]string{"Lexer/001.in": "A\n"}}

	var out bytes.Buffer
	rec := trace.NewRecorder()
	o := newOrchestrator(root, inv, &out)
	o.Trace = rec

	sum, err := o.Run(context.Background())
	var cfgErr *core.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, Summary{Total: 1, Passed: 1}, sum)

	// The aborted stage prints neither its separator nor the result line.
	assert.Equal(t, Separator+"\n", out.String())
	assert.Equal(t, []string{"Lexer/001.in"}, inv.calls)

	rep := trace.BuildReport("id", "compiler", rec.Snapshot())
	assert.NotEmpty(t, rep.Aborted)
}

func TestOrchestrator_Run_FatalInvokerErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Lexer/001.in":  "",
		"Lexer/001.out": "A\n",
		"Lexer/002.in":  "",
		"Lexer/002.out": "A\n",
	})
	inv := &fakeInvoker{errs: map[string]error{
		"Lexer/001.in": &core.ConfigurationError{Message: "compiler cannot be executed"},
	}}

	var out bytes.Buffer
	sum, err := newOrchestrator(root, inv, &out).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, out.String())
	assert.Len(t, inv.calls, 1)
}

func TestOrchestrator_Run_CaseErrorsAreFailures(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"CodeGen/001.in":  "",
		"CodeGen/001.out": "OK\n",
		"CodeGen/002.in":  "",
		"CodeGen/002.out": "OK\n",
		"CodeGen/003.in":  "",
		"CodeGen/003.out": "OK\n",
	})
	inv := &fakeInvoker{
		outputs: map[string]string{"CodeGen/003.in": "OK\n"},
		errs: map[string]error{
			"CodeGen/001.in": &core.BuildPipelineError{Step: core.StepAssemble, Cause: errors.New("no obj")},
			"CodeGen/002.in": &core.TimeoutError{Command: "compiler", Timeout: 1},
		},
	}

	var out bytes.Buffer
	o := newOrchestrator(root, inv, &out)
	o.Stages = []core.Stage{core.CodeGeneration}

	sum, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Passed: 1}, sum)
	assert.Equal(t, 2, sum.Failed())
	assert.Contains(t, out.String(), "002.in failed")
	assert.True(t, strings.HasSuffix(out.String(), Separator+"\nResult: 1/3\n"))
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Lexer/001.in":  "",
		"Lexer/001.out": "A\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &fakeInvoker{}
	var out bytes.Buffer
	_, err := newOrchestrator(root, inv, &out).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inv.calls)
	assert.Empty(t, out.String())
}

func TestOrchestrator_Run_Update(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Lexer/001.in":  "",
		"Lexer/001.out": "stale\n",
		"Lexer/002.in":  "",
	})
	inv := &fakeInvoker{outputs: map[string]string{
		"Lexer/001.in": "A\r\n",
		"Lexer/002.in": "B\nC\n",
	}}

	var out bytes.Buffer
	rec := trace.NewRecorder()
	o := newOrchestrator(root, inv, &out)
	o.Stages = []core.Stage{core.Lexing}
	o.Update = true
	o.Trace = rec

	sum, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Passed: 2}, sum)

	for name, want := range map[string]string{"001.out": "A\n", "002.out": "B\nC\n"} {
		b, err := os.ReadFile(filepath.Join(root, "Lexer", name))
		require.NoError(t, err)
		assert.Equal(t, want, string(b), name)
	}

	for _, e := range rec.Snapshot()[:2] {
		assert.Equal(t, trace.EventCaseUpdated, e.Kind)
	}
}

func TestOrchestrator_RunStage_Verbose(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Parser/001.in":  "",
		"Parser/001.out": "OK\n",
	})
	inv := &fakeInvoker{outputs: map[string]string{"Parser/001.in": "OK\n"}}

	var out bytes.Buffer
	o := newOrchestrator(root, inv, &out)
	o.Reporter.Verbose = true

	sum, err := o.RunStage(context.Background(), core.Parsing)
	require.NoError(t, err)
	assert.Equal(t, "1/1", sum.String())
	assert.Equal(t, "Test "+filepath.Join(root, "Parser", "001.in")+" passed\n", out.String())
}
