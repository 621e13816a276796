package symtab

import (
	"fmt"
	"sync"

	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/expr"
)

// Module is a named container of local symbols plus its three ordered
// FSM sections. Duplicate local names within one module are forbidden
// (spec.md §3 "Module").
type Module struct {
	Name *atom.Atom

	mu     sync.Mutex
	locals map[*atom.Atom]*Symbol
	order  []*atom.Atom

	formals []*atom.Atom // declared parameter names, in declaration order

	// instantiatedBy records the single Variable symbol that
	// instantiated this module, set via BindInstance. A module used as
	// more than one instance needs a richer binding scheme; single
	// instantiation is what the model checker's worked examples need.
	instantiatedBy *Symbol

	Init  []*expr.Expr
	Invar []*expr.Expr
	Trans []*expr.Expr
}

// NewModule creates an empty module named name.
func NewModule(name *atom.Atom) *Module {
	return &Module{Name: name, locals: make(map[*atom.Atom]*Symbol)}
}

// ErrDuplicateLocal is returned by Declare when name is already bound.
type ErrDuplicateLocal struct {
	Module *Module
	Name   *atom.Atom
}

func (e *ErrDuplicateLocal) Error() string {
	return fmt.Sprintf("duplicate local name %q in module %q", e.Name, e.Module.Name)
}

// Declare binds sym.Name within the module. Returns ErrDuplicateLocal
// if the name is already bound.
func (m *Module) Declare(sym *Symbol) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.locals[sym.Name]; ok {
		return &ErrDuplicateLocal{Module: m, Name: sym.Name}
	}
	sym.Module = m
	m.locals[sym.Name] = sym
	m.order = append(m.order, sym.Name)
	if sym.Kind == KindParameter {
		m.formals = append(m.formals, sym.Name)
	}
	return nil
}

// Lookup returns the symbol bound to name in this module's own
// namespace (no climbing).
func (m *Module) Lookup(name *atom.Atom) (*Symbol, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.locals[name]
	return s, ok
}

// Locals returns the module's local symbols in declaration order.
func (m *Module) Locals() []*Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Symbol, len(m.order))
	for i, n := range m.order {
		out[i] = m.locals[n]
	}
	return out
}

// Formals returns the module's declared parameter names, in
// declaration order.
func (m *Module) Formals() []*atom.Atom {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*atom.Atom(nil), m.formals...)
}

// Variables returns the module's local KindVariable symbols.
func (m *Module) Variables() []*Symbol {
	var out []*Symbol
	for _, s := range m.Locals() {
		if s.Kind == KindVariable {
			out = append(out, s)
		}
	}
	return out
}
