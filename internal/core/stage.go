package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Pipeline is the invocation recipe kind of a stage.
type Pipeline int

const (
	// PipelineNone runs the compiler and compares its stdout.
	PipelineNone Pipeline = iota
	// PipelineExecute runs a produced program without building it first.
	// No stage uses it yet.
	PipelineExecute
	// PipelineExecuteAndBuild compiles, assembles, links, executes and cleans up.
	PipelineExecuteAndBuild
)

func (p Pipeline) String() string {
	switch p {
	case PipelineNone:
		return "none"
	case PipelineExecute:
		return "execute"
	case PipelineExecuteAndBuild:
		return "execute-and-build"
	default:
		return fmt.Sprintf("pipeline(%d)", int(p))
	}
}

// Stage describes one compiler phase under test.
//
// Stages are static configuration: the recognised set is Stages, in the
// order a run visits them.
type Stage struct {
	// Name is the stable identifier used on the command line and in reports.
	Name string

	// Dir is the stage directory relative to the test root.
	Dir string

	// Flag is passed before the input path. Empty means no flag.
	Flag string

	Pipeline Pipeline
}

var (
	Lexing         = Stage{Name: "lexer", Dir: "Lexer"}
	Parsing        = Stage{Name: "parser", Dir: "Parser", Flag: "-e"}
	Semantic       = Stage{Name: "semantic", Dir: "Semantic", Flag: "-table"}
	CodeGeneration = Stage{Name: "codegen", Dir: "CodeGen", Flag: "-code", Pipeline: PipelineExecuteAndBuild}
)

// Stages returns the recognised stages in run order.
func Stages() []Stage {
	return []Stage{Lexing, Parsing, Semantic, CodeGeneration}
}

// Args returns the compiler arguments for an input file.
func (s Stage) Args(inputPath string) []string {
	if s.Flag == "" {
		return []string{inputPath}
	}
	return []string{s.Flag, inputPath}
}

// Path returns the stage directory under the test root.
func (s Stage) Path(root string) string {
	return filepath.Join(root, s.Dir)
}

func (s Stage) String() string { return s.Name }

// LookupStage finds a stage by name, case-insensitively.
func LookupStage(name string) (Stage, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Stages() {
		if s.Name == n {
			return s, true
		}
	}
	return Stage{}, false
}

// SelectStages returns the named stages in canonical run order, without
// duplicates. An empty selection yields every stage.
func SelectStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return Stages(), nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		s, ok := LookupStage(name)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q (expected lexer|parser|semantic|codegen)", name)
		}
		want[s.Name] = true
	}
	var out []Stage
	for _, s := range Stages() {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
