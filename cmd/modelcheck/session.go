// Command modelcheck is the CLI/REPL front end for the bounded
// symbolic model checker: it parses a model file into a
// *symtab.Model, wires the compiler/encoding/SAT-kernel pipeline
// behind it, and drives internal/algorithms against the result.
// Grounded on cmd/ailang/main.go's flag-then-subcommand dispatch and
// internal/repl's liner-driven interactive loop.
package main

import (
	"fmt"
	"os"

	"github.com/sunholo/ailang/internal/algorithms"
	"github.com/sunholo/ailang/internal/analyzer"
	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/parser"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/tmap"
	"github.com/sunholo/ailang/internal/types"
)

// Session owns one loaded model and every pool/engine needed to run
// algorithms against it. A fresh Session is built every time a model
// is (re-)loaded, since the pools and SAT kernel carry accumulated
// state that a different model must not see.
type Session struct {
	ModelPath string

	Atoms *atom.Pool
	Exprs *expr.Pool
	Types *types.Mgr

	Model    *symtab.Model
	Main     *symtab.Module
	Ctx      *symtab.Context
	Resolver *symtab.ResolverProxy
	Analyzer *analyzer.Analyzer

	DD       *dd.Mgr
	Encoding *encoding.Mgr
	Compiler *compiler.Compiler

	Kernel    *satkernel.Kernel
	TimeMap   *tmap.TimeMapper
	Microcode *microcode.Cache
	Engine    *tmap.Engine

	Log *diag.Logger
}

// NewSession parses src (from filename, for diagnostics) and builds a
// fresh pipeline around the result. microcodeDir is passed straight
// to microcode.NewCache; an empty string disables on-disk caching.
func NewSession(src, filename, microcodeDir string, log *diag.Logger) (*Session, error) {
	s := &Session{
		ModelPath: filename,
		Atoms:     atom.NewPool(),
		Exprs:     expr.NewPool(),
		Types:     types.NewMgr(),
		Log:       log,
	}

	p := parser.New(src, filename, s.Atoms, s.Exprs, s.Types)
	model, err := p.ParseModel()
	if err != nil {
		return nil, err
	}
	main := model.Main()
	if main == nil {
		return nil, diag.New(diag.CodeCmdIllFormed, nil,
			fmt.Sprintf("%s: model has no module named \"main\"", filename), nil)
	}

	s.Model = model
	s.Main = main
	s.Resolver = symtab.NewResolverProxy(model)
	s.Analyzer = analyzer.New(s.Types, s.Resolver)
	s.Ctx = symtab.RootContext(main)

	s.DD = dd.NewMgr()
	s.Encoding = encoding.NewMgr()
	s.Compiler = compiler.New(s.DD, s.Encoding, s.Types, s.Resolver, s.Analyzer)

	s.Kernel = satkernel.NewKernel()
	s.TimeMap = tmap.NewTimeMapper(s.Kernel)
	s.Microcode = microcode.NewCache(microcodeDir)
	s.Engine = tmap.NewEngine(s.Kernel, s.TimeMap, s.Microcode, s.DD, s.Encoding)

	return s, nil
}

// LoadSessionFile reads modelPath off disk and builds a Session from
// its contents.
func LoadSessionFile(modelPath, microcodeDir string, log *diag.Logger) (*Session, error) {
	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return NewSession(string(data), modelPath, microcodeDir, log)
}

// Driver builds a fresh algorithms.Driver over the session's shared
// pipeline. The underlying SAT kernel is not reset between commands —
// re-pushing the same INIT/INVAR/TRANS fragments as permanent clauses
// on a second command is logically idempotent (conjoining a formula
// with itself changes nothing), so sharing the kernel across an
// entire session costs some wasted clauses but never changes an
// outcome. A fresh model load (LoadSessionFile) always starts a new
// kernel.
func (s *Session) Driver(cancel func() bool) *algorithms.Driver {
	return &algorithms.Driver{
		Ctx:      s.Ctx,
		Compiler: s.Compiler,
		Engine:   s.Engine,
		Pool:     s.Exprs,
		Cancel:   cancel,
		Log:      s.Log,
	}
}
