// Package core provides the staged test-execution pipeline for a multi-stage
// compiler under test.
//
// # Components
//
// Stage: one phase of the compiler (lexing, parsing, semantic analysis,
// code generation) with its test directory, invocation flag and pipeline kind.
//
// CaseScanner: lazy discovery of numbered NNN.in / NNN.out test cases.
//
// Toolchain: runs the compiler, and for code generation also the assembler,
// linker and the built program, removing every temporary artifact before
// returning.
//
// Compare: the set-difference comparison of actual output against a golden
// file.
//
// Everything outside this package treats the compiler, assembler and linker as
// opaque executables.
package core
