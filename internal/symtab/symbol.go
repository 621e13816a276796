// Package symtab implements the model checker's hierarchical symbol
// table: modules, their local variables/parameters/defines/constants,
// and the resolver that maps a plain identifier in a module context to
// the symbol it denotes (spec.md §3 "Symbol", §4.3).
package symtab

import (
	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/types"
)

// Flag is a bitset of the variable flags spec.md §3/§4.3 names.
type Flag uint8

const (
	FlagInput Flag = 1 << iota
	FlagFrozen
	FlagInertial
	FlagTemp
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Kind discriminates the five symbol variants from spec.md §3.
type Kind int

const (
	KindConstant Kind = iota
	KindLiteral
	KindVariable
	KindParameter
	KindDefine
)

// Symbol is one binding in a module's namespace. Fields not relevant
// to Kind are left zero.
type Symbol struct {
	Kind   Kind
	Module *Module
	Name   *atom.Atom
	Type   *types.Type

	// KindConstant, KindLiteral
	Value *expr.Expr

	// KindVariable
	Flags Flag

	// KindVariable of Instance type: the actual parameters bound at
	// instantiation, and the context (module) they were written in.
	InstanceActuals []*expr.Expr
	InstanceCtx     *Context

	// KindDefine
	Body    *expr.Expr
	Formals []*atom.Atom
}

func (s *Symbol) QualifiedName() string {
	if s.Module == nil {
		return s.Name.String()
	}
	return s.Module.Name.String() + "." + s.Name.String()
}
