// Command nytrixc is the Nytrix compiler driver: it parses Ny source,
// lowers it straight to LLVM IR through internal/codegen, and either JITs
// the result immediately or emits it for a downstream linker, the same
// two-mode split the teacher's cmd/malphas offers for build vs run.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/codegen"
	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/nyparser"
	"github.com/nytrix-lang/nytrix/internal/value"
)

var formatter = diag.NewFormatter()

func main() {
	var (
		o0         = flag.Bool("O0", false, "disable optimizations")
		o1         = flag.Bool("O1", false, "basic optimizations")
		o2         = flag.Bool("O2", false, "standard optimizations (default)")
		o3         = flag.Bool("O3", false, "aggressive optimizations")
		passes     = flag.String("passes", "", "custom LLVM pass pipeline spec (overrides -O0..-O3)")
		runFlag    = flag.Bool("run", true, "JIT-execute the compiled program (default)")
		emitOnly   = flag.Bool("emit-only", false, "emit LLVM IR/object code instead of running")
		output     = flag.String("o", "", "output path for -emit-only (LLVM IR text, or a .o file)")
		outputLong = flag.String("output", "", "long form of -o")
		inlineSrc  = flag.String("c", "", "compile an inline source string instead of a file")
		std        = flag.String("std", "prelude", "stdlib inclusion: none, prelude, lazy, full, use:mod1,mod2")
		verbosity  = flag.Int("v", 0, "verbosity level 0-3 (also settable via -vv/-vvv)")
		vv         = flag.Bool("vv", false, "verbose diagnostics (secondary messages)")
		vvv        = flag.Bool("vvv", false, "trace diagnostics (secondary messages plus source snippets)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nytrixc [flags] <file.ny>\n")
		fmt.Fprintf(os.Stderr, "   or: nytrixc [flags] -c '<source>'\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = std // stdlib inclusion mode is parsed and accepted but not consulted by anything yet

	budget := diag.BudgetQuiet
	switch {
	case *vvv:
		budget = diag.BudgetTrace
	case *vv:
		budget = diag.BudgetVerbose
	case *verbosity > 0:
		budget = diag.Budget(*verbosity)
	}

	var src, filename string
	if *inlineSrc != "" {
		src = *inlineSrc
		filename = "<inline>"
	} else {
		if flag.NArg() < 1 {
			flag.Usage()
			os.Exit(2)
		}
		filename = flag.Arg(0)
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nytrixc: %v\n", err)
			os.Exit(1)
		}
		src = string(data)
	}

	outPath := *output
	if outPath == "" {
		outPath = *outputLong
	}

	p := nyparser.New(src, filename)
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		for _, perr := range p.Errors() {
			d := diag.Diagnostic{
				Stage:    diag.StageParser,
				Severity: perr.Severity,
				Code:     diag.CodeParserUnexpectedToken,
				Message:  perr.Message,
			}.WithPrimarySpan(diag.Span{
				Filename: perr.Span.Filename,
				Line:     perr.Span.Line,
				Column:   perr.Span.Column,
				Start:    perr.Span.Start,
				End:      perr.Span.End,
			}, "")
			formatter.Format(d)
		}
		os.Exit(1)
	}

	cfg := config.FromEnv()
	sink := diag.NewSink(budget)
	driver, err := codegen.NewDriver(moduleNameFor(filename), cfg, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nytrixc: %v\n", err)
		os.Exit(1)
	}

	driver.CompileModule(prog)
	for _, d := range sink.All() {
		formatter.Format(d)
	}
	if sink.HadError() {
		os.Exit(1)
	}

	if *emitOnly || outPath != "" {
		if err := emit(driver, optLevelFromFlags(*o0, *o1, *o2, *o3), *passes, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "nytrixc: %v\n", err)
			os.Exit(1)
		}
		if cfg.MemStats {
			memory.Default.DumpStats()
		}
		return
	}

	if !*runFlag {
		return
	}
	result := driver.Run()
	if cfg.MemStats {
		memory.Default.DumpStats()
	}
	printResult(result)
}

// moduleNameFor derives a stable LLVM module identifier from the source
// filename, matching the teacher's convention of naming a module after
// the file it was compiled from.
func moduleNameFor(filename string) string {
	name := filename
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".ny")
}

// emit lowers optLevel/passes into an LLVM pass pipeline, runs it over the
// compiled module, and writes textual IR (to stdout when outPath is empty,
// to the file when outPath ends in .ll) or, for any other outPath, a
// native object file, mirroring §6.1's -O/-passes/-o surface.
func emit(d *codegen.Driver, optLevel int, passSpec, outPath string) error {
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("resolving target %q: %w", triple, err)
	}
	tm := target.CreateTargetMachine(triple, "", "", llvm.CodeGenLevelDefault,
		llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	pipeline := passSpec
	if pipeline == "" {
		pipeline = fmt.Sprintf("default<O%d>", clampOptLevel(optLevel))
	}
	opts := llvm.NewPassBuilderOptions()
	defer opts.Dispose()
	if err := d.Module.RunPasses(pipeline, tm, opts); err != nil {
		return fmt.Errorf("running pass pipeline %q: %w", pipeline, err)
	}

	if outPath == "" {
		fmt.Println(d.Module.String())
		return nil
	}
	if strings.HasSuffix(outPath, ".ll") {
		return os.WriteFile(outPath, []byte(d.Module.String()), 0o644)
	}
	return tm.EmitToFile(d.Module, outPath, llvm.ObjectFile)
}

func clampOptLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 3 {
		return 3
	}
	return level
}

// optLevelFromFlags resolves the mutually-exclusive -O0..-O3 switches to a
// single level, the highest one set, defaulting to 2 when none are given.
func optLevelFromFlags(o0, o1, o2, o3 bool) int {
	switch {
	case o3:
		return 3
	case o2:
		return 2
	case o1:
		return 1
	case o0:
		return 0
	default:
		return 2
	}
}

// printResult renders __script_top's return value for a -run invocation,
// matching the teacher REPL's convention of echoing the last expression.
func printResult(v value.V) {
	switch {
	case v == value.None:
		return
	case v == value.True:
		fmt.Println("true")
	case v == value.False:
		fmt.Println("false")
	case v.IsTaggedInt():
		fmt.Println(v.Untag())
	case memory.Default.IsString(v):
		if s, ok := memory.GoString(v); ok {
			fmt.Println(s)
			return
		}
		fmt.Println(int64(v))
	default:
		fmt.Println(int64(v))
	}
}
