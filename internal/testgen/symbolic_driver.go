// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultPointerBufferSize is the buffer length, in elements of the pointee
// type, that the symbolic harness allocates for every pointer parameter.
// There is no contract from the symbolic engine on what size a function
// under test actually needs; 8 is a guess large enough for typical
// fixed-size array idioms, made configurable via WithPointerBufferSize.
const DefaultPointerBufferSize = 8

// SymbolicDriver drives an external symbolic-execution engine (a KLEE-style
// tool) over one function at a time: emit a harness, compile both the
// harness and the main-stripped source to LLVM bitcode, link, run the
// engine, and decode its per-path test artifacts.
type SymbolicDriver struct {
	clangPath         string
	kleePath          string
	ktestToolPath     string
	llvmLinkPath      string
	timeout           time.Duration
	maxTests          int
	pointerBufferSize int
	extraClangArgs    []string
	extraKleeArgs     []string
	kleeIncludeDirs   []string
}

// SymbolicOption configures a SymbolicDriver.
type SymbolicOption func(*SymbolicDriver)

// WithPointerBufferSize overrides the element count allocated for every
// pointer parameter's symbolic buffer.
func WithPointerBufferSize(n int) SymbolicOption {
	return func(d *SymbolicDriver) {
		if n > 0 {
			d.pointerBufferSize = n
		}
	}
}

// WithSymbolicTimeout sets the engine's per-function wall-clock budget.
func WithSymbolicTimeout(timeout time.Duration) SymbolicOption {
	return func(d *SymbolicDriver) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithMaxTests caps how many paths the engine is asked to explore.
func WithMaxTests(n int) SymbolicOption {
	return func(d *SymbolicDriver) {
		if n > 0 {
			d.maxTests = n
		}
	}
}

// WithToolPaths overrides the executable names/paths used for the compiler,
// the symbolic engine, its artifact-dumping companion tool, and the bitcode
// linker. An empty string leaves the current value unchanged.
func WithToolPaths(clang, klee, ktestTool, llvmLink string) SymbolicOption {
	return func(d *SymbolicDriver) {
		if clang != "" {
			d.clangPath = clang
		}
		if klee != "" {
			d.kleePath = klee
		}
		if ktestTool != "" {
			d.ktestToolPath = ktestTool
		}
		if llvmLink != "" {
			d.llvmLinkPath = llvmLink
		}
	}
}

// NewSymbolicDriver creates a driver with environment-aware defaults,
// mirroring the tool-path environment variables of the original Python
// wrapper (CLANG_PATH, KLEE_PATH, KTEST_TOOL_PATH).
func NewSymbolicDriver(opts ...SymbolicOption) *SymbolicDriver {
	d := &SymbolicDriver{
		clangPath:         envOr("CLANG_PATH", "clang"),
		kleePath:          envOr("KLEE_PATH", "klee"),
		ktestToolPath:     envOr("KTEST_TOOL_PATH", "ktest-tool"),
		llvmLinkPath:      "llvm-link",
		timeout:           60 * time.Second,
		maxTests:          100,
		pointerBufferSize: DefaultPointerBufferSize,
		kleeIncludeDirs:   detectKleeIncludeDirs(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func detectKleeIncludeDirs() []string {
	candidates := []string{"/usr/local/include", "/usr/include", "/opt/homebrew/include"}
	if env := os.Getenv("KLEE_INCLUDE_DIR"); env != "" {
		candidates = append([]string{env}, candidates...)
	}
	var dirs []string
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			dirs = append(dirs, c)
		}
	}
	return dirs
}

// Available probes the engine with --version; unavailability is reported,
// never treated as an error.
func (d *SymbolicDriver) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, d.kleePath, "--version")
	return cmd.Run() == nil
}

var mainDeclPattern = regexp.MustCompile(`^\s*(int|void)\s+main\s*\(`)
var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// StripMain removes the `main` function from source by scanning line-wise
// for a line matching a return-type-then-`main(` declaration, then
// tracking brace depth until it returns to zero.
// Multi-line blank runs left behind are collapsed to a single blank line.
func StripMain(source string) string {
	lines := strings.Split(source, "\n")
	var kept []string
	inMain := false
	braceDepth := 0

	for _, line := range lines {
		if !inMain && mainDeclPattern.MatchString(line) {
			inMain = true
			braceDepth = strings.Count(line, "{") - strings.Count(line, "}")
			continue
		}
		if inMain {
			braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
			if braceDepth <= 0 {
				inMain = false
			}
			continue
		}
		kept = append(kept, line)
	}

	result := strings.Join(kept, "\n")
	return blankRunPattern.ReplaceAllString(result, "\n\n")
}

// GenerateTests runs the full symbolic pipeline for one function: emit
// harness, compile, link, run the engine, and decode its test artifacts
// into TestCases. An unavailable engine yields an empty, non-error result
// so callers can fall back to boundary/edge/random generation.
func (d *SymbolicDriver) GenerateTests(ctx context.Context, fn model.Function, program *model.CProgram, programID string) ([]model.TestCase, error) {
	if !d.Available(ctx) {
		return nil, nil
	}

	workDir, err := os.MkdirTemp("", "symbolic_")
	if err != nil {
		return nil, fmt.Errorf("create symbolic work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	harnessPath := filepath.Join(workDir, "harness.c")
	if err := os.WriteFile(harnessPath, []byte(d.emitHarness(fn)), 0644); err != nil {
		return nil, fmt.Errorf("write symbolic harness: %w", err)
	}

	origPath := filepath.Join(workDir, "orig.c")
	if err := os.WriteFile(origPath, []byte(StripMain(program.RawSource)), 0644); err != nil {
		return nil, fmt.Errorf("write main-stripped source: %w", err)
	}

	bcPath, err := d.compileAndLink(ctx, workDir, harnessPath, origPath)
	if err != nil {
		return nil, err
	}

	outDir, err := d.runEngine(ctx, workDir, bcPath)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		return nil, nil
	}

	return d.parseArtifacts(ctx, outDir, fn, programID)
}

// emitHarness renders a KLEE-style harness: declare each parameter (a small
// buffer plus a binding pointer for pointer parameters), mark it symbolic,
// and call the function under test once.
func (d *SymbolicDriver) emitHarness(fn model.Function) string {
	var b strings.Builder
	b.WriteString("#include <klee/klee.h>\n#include <assert.h>\n#include <stdio.h>\n#include <stdlib.h>\n\n")

	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = fmt.Sprintf("%s%s %s", p.DataType, strings.Repeat("*", p.PointerLevel), p.Name)
	}
	fmt.Fprintf(&b, "%s %s(%s);\n\n", fn.ReturnType, fn.Name, strings.Join(params, ", "))

	b.WriteString("int main(void) {\n")
	for _, p := range fn.Parameters {
		pointerType := p.DataType + strings.Repeat("*", p.PointerLevel)
		if p.IsPointer() {
			bufName := p.Name + "_buf"
			fmt.Fprintf(&b, "    %s %s[%d];\n", p.DataType, bufName, d.pointerBufferSize)
			fmt.Fprintf(&b, "    %s %s = (%s)%s;\n", pointerType, p.Name, pointerType, bufName)
		} else {
			fmt.Fprintf(&b, "    %s %s;\n", pointerType, p.Name)
		}
	}
	b.WriteString("\n")
	for _, p := range fn.Parameters {
		if p.IsPointer() {
			fmt.Fprintf(&b, "    klee_make_symbolic(%s, sizeof(*%s) * %d, \"%s\");\n", p.Name, p.Name, d.pointerBufferSize, p.Name)
		} else {
			fmt.Fprintf(&b, "    klee_make_symbolic(&%s, sizeof(%s), \"%s\");\n", p.Name, p.Name, p.Name)
		}
	}
	b.WriteString("\n")

	names := fn.ParamNames()
	if strings.ToLower(fn.ReturnType) != "void" && fn.ReturnType != "" {
		fmt.Fprintf(&b, "    %s result = %s(%s);\n", fn.ReturnType, fn.Name, strings.Join(names, ", "))
	} else {
		fmt.Fprintf(&b, "    %s(%s);\n", fn.Name, strings.Join(names, ", "))
	}
	b.WriteString("\n    return 0;\n}\n")
	return b.String()
}

func (d *SymbolicDriver) compileAndLink(ctx context.Context, workDir, harnessPath, origPath string) (string, error) {
	compileCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	harnessBC := filepath.Join(workDir, "harness.bc")
	if err := d.compileToBitcode(compileCtx, harnessPath, harnessBC); err != nil {
		return "", fmt.Errorf("compile symbolic harness: %w", err)
	}
	origBC := filepath.Join(workDir, "orig.bc")
	if err := d.compileToBitcode(compileCtx, origPath, origBC); err != nil {
		return "", fmt.Errorf("compile main-stripped source: %w", err)
	}

	bcFile := filepath.Join(workDir, "combined.bc")
	args := []string{harnessBC, origBC, "-o", bcFile}
	cmd := exec.CommandContext(compileCtx, d.llvmLinkPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("link bitcode: %w: %s", err, string(out))
	}
	return bcFile, nil
}

func (d *SymbolicDriver) compileToBitcode(ctx context.Context, src, dst string) error {
	args := []string{"-emit-llvm", "-c", "-g", "-O0", "-Xclang", "-disable-O0-optnone"}
	for _, inc := range d.kleeIncludeDirs {
		args = append(args, "-I", inc)
	}
	args = append(args, d.extraClangArgs...)
	args = append(args, src, "-o", dst)
	cmd := exec.CommandContext(ctx, d.clangPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func (d *SymbolicDriver) runEngine(ctx context.Context, workDir, bcFile string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout+10*time.Second)
	defer cancel()

	args := []string{
		"--optimize",
		"--max-time", fmt.Sprintf("%d", int(d.timeout.Seconds())),
		"--max-tests", fmt.Sprintf("%d", d.maxTests),
		"--libc=uclibc",
		"--posix-runtime",
	}
	args = append(args, d.extraKleeArgs...)
	args = append(args, filepath.Base(bcFile))

	cmd := exec.CommandContext(runCtx, d.kleePath, args...)
	cmd.Dir = workDir
	_ = cmd.Run() // timeout and non-zero exit are tolerated; partial output is still parsed

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return "", fmt.Errorf("read symbolic work dir: %w", err)
	}
	var outDirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "klee-out-") {
			outDirs = append(outDirs, e.Name())
		}
	}
	if len(outDirs) == 0 {
		return "", nil
	}
	sort.Strings(outDirs)
	return filepath.Join(workDir, outDirs[len(outDirs)-1]), nil
}

func (d *SymbolicDriver) parseArtifacts(ctx context.Context, outDir string, fn model.Function, programID string) ([]model.TestCase, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read symbolic output dir: %w", err)
	}
	var ktestFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".ktest") {
			ktestFiles = append(ktestFiles, filepath.Join(outDir, e.Name()))
		}
	}
	sort.Strings(ktestFiles)

	var cases []model.TestCase
	for idx, path := range ktestFiles {
		inputs, err := d.dumpAndParse(ctx, path, fn)
		if err != nil || len(inputs) == 0 {
			continue
		}
		cases = append(cases, model.TestCase{
			ID:           fmt.Sprintf("%s_symbolic_%d", fn.Name, idx+1),
			ProgramID:    programID,
			FunctionName: fn.Name,
			Inputs:       inputs,
			Category:     model.CategorySymbolic,
			Description:  fmt.Sprintf("symbolic execution path %d", idx+1),
		})
	}
	return cases, nil
}

func (d *SymbolicDriver) dumpAndParse(ctx context.Context, ktestFile string, fn model.Function) (map[string]any, error) {
	dumpCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(dumpCtx, d.ktestToolPath, ktestFile)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseKtestDump(string(out), fn)
}

// parseKtestDump parses ktest-tool's textual dump: an "object N: name 'x'"
// line followed eventually by a "hex bytes: 0x.." line, mapped by parameter
// name to a typed value via little-endian decoding.
func parseKtestDump(dump string, fn model.Function) (map[string]any, error) {
	paramsByName := make(map[string]model.Variable, len(fn.Parameters))
	for _, p := range fn.Parameters {
		paramsByName[p.Name] = p
	}

	inputs := make(map[string]any)
	currentObj := ""
	scanner := bufio.NewScanner(strings.NewReader(dump))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "object") {
			if parts := strings.Split(line, "'"); len(parts) >= 2 {
				currentObj = parts[1]
			}
			continue
		}
		if strings.HasPrefix(line, "hex") && currentObj != "" {
			idx := strings.Index(line, ":")
			if idx < 0 {
				currentObj = ""
				continue
			}
			hexPart := strings.TrimSpace(line[idx+1:])
			hexPart = strings.ReplaceAll(hexPart, "0x", "")
			hexPart = strings.ReplaceAll(hexPart, " ", "")
			if param, ok := paramsByName[currentObj]; ok {
				if v, err := hexToValue(hexPart, param.DataType); err == nil {
					inputs[currentObj] = v
				}
			}
			currentObj = ""
		}
	}
	return inputs, scanner.Err()
}

// hexToValue decodes a hex byte string into a typed Go value using the
// little-endian widths: char=1, short=2, int/float=4,
// long/double=8. Unknown types fall back to integer.
func hexToValue(hexStr, dataType string) (any, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}
	width := bitWidth(dataType)
	if len(raw) < width {
		padded := make([]byte, width)
		copy(padded, raw)
		raw = padded
	}

	cls := classify(dataType)
	switch cls {
	case classFloat:
		if width <= 4 {
			bits := binary.LittleEndian.Uint32(raw[:4])
			return float64(math.Float32frombits(bits)), nil
		}
		bits := binary.LittleEndian.Uint64(raw[:8])
		return math.Float64frombits(bits), nil
	case classUnsignedInt, classBool:
		return decodeUnsigned(raw, width), nil
	default:
		return decodeSigned(raw, width), nil
	}
}

func decodeUnsigned(raw []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(raw[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(raw[:2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(raw[:4]))
	default:
		return binary.LittleEndian.Uint64(raw[:8])
	}
}

func decodeSigned(raw []byte, width int) int64 {
	switch width {
	case 1:
		return int64(int8(raw[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(raw[:2])))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(raw[:4])))
	default:
		return int64(binary.LittleEndian.Uint64(raw[:8]))
	}
}

