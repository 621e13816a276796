package symtab

import (
	"fmt"

	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/types"
)

// Context is a point in the module-instantiation hierarchy: the chain
// of modules from the root down to the module whose body is currently
// being resolved. Current() is the innermost module.
type Context struct {
	stack []*Module
}

// RootContext builds a context containing only mod (e.g. "main").
func RootContext(mod *Module) *Context {
	return &Context{stack: []*Module{mod}}
}

// Current returns the innermost module of the context.
func (c *Context) Current() *Module { return c.stack[len(c.stack)-1] }

// Descend returns a new context one level deeper, inside the module
// instantiated by the Instance-typed variable named by instanceVar.
func (c *Context) Descend(inner *Module) *Context {
	next := append(append([]*Module(nil), c.stack...), inner)
	return &Context{stack: next}
}

// parent returns the context with the innermost module popped, and
// whether one existed.
func (c *Context) parent() (*Context, bool) {
	if len(c.stack) <= 1 {
		return nil, false
	}
	return &Context{stack: c.stack[:len(c.stack)-1]}, true
}

// ErrUnresolvedSymbol reports that no module in ctx's climb bound id.
type ErrUnresolvedSymbol struct{ Name *atom.Atom }

func (e *ErrUnresolvedSymbol) Error() string {
	return fmt.Sprintf("unresolved symbol %q", e.Name)
}

// ResolverProxy resolves plain identifiers and qualified (DOT) names
// against a Model, per spec.md §4.3.
type ResolverProxy struct {
	Model *Model
}

func NewResolverProxy(model *Model) *ResolverProxy {
	return &ResolverProxy{Model: model}
}

// Resolve climbs the module hierarchy starting at ctx's innermost
// module, consuming one context level at a time, until id is found or
// the stack empties.
func (r *ResolverProxy) Resolve(ctx *Context, id *atom.Atom) (*Symbol, *Context, error) {
	cur := ctx
	for {
		if sym, ok := cur.Current().Lookup(id); ok {
			return sym, cur, nil
		}
		next, ok := cur.parent()
		if !ok {
			return nil, nil, &ErrUnresolvedSymbol{Name: id}
		}
		cur = next
	}
}

// ResolveDot resolves a left-associated DOT chain (qname) to the
// symbol it denotes and the context in which that symbol's body
// should be further compiled. The left side of each DOT must resolve
// to a Variable of Instance type; the right side is then looked up in
// that instance's own module.
func (r *ResolverProxy) ResolveDot(ctx *Context, qname *expr.Expr) (*Symbol, *Context, error) {
	if qname.Tag() != expr.TagDot {
		if qname.Tag() != expr.TagIdent {
			return nil, nil, fmt.Errorf("symtab: ResolveDot on non-identifier, non-dot node %s", qname)
		}
		return r.Resolve(ctx, qname.Atom())
	}

	lhsSym, lhsCtx, err := r.resolveQualifier(ctx, qname.LHS())
	if err != nil {
		return nil, nil, err
	}
	if lhsSym.Kind != KindVariable || lhsSym.Type == nil || lhsSym.Type.Kind() != types.KindInstance {
		return nil, nil, fmt.Errorf("symtab: %q does not resolve to a module instance", qname.LHS())
	}

	innerModName := lhsSym.Type.InstanceModule()
	innerMod, ok := r.Model.Module(innerModName)
	if !ok {
		return nil, nil, fmt.Errorf("symtab: instance module %q not found", innerModName)
	}
	innerCtx := lhsCtx.Descend(innerMod)

	rhs := qname.RHS()
	if rhs.Tag() != expr.TagIdent {
		return nil, nil, fmt.Errorf("symtab: DOT right-hand side must be an identifier, got %s", rhs)
	}
	sym, ok := innerMod.Lookup(rhs.Atom())
	if !ok {
		return nil, nil, &ErrUnresolvedSymbol{Name: rhs.Atom()}
	}
	return sym, innerCtx, nil
}

// resolveQualifier resolves the (possibly dotted) left-hand side of a
// DOT chain, which may itself be nested (a.b.c).
func (r *ResolverProxy) resolveQualifier(ctx *Context, e *expr.Expr) (*Symbol, *Context, error) {
	if e.Tag() == expr.TagIdent {
		return r.Resolve(ctx, e.Atom())
	}
	return r.ResolveDot(ctx, e)
}

// RewriteParameter implements spec.md §4.3's rewrite_parameter: given
// a symbol that turned out to be a module's formal Parameter, return
// the context the instantiation's actual argument was written in and
// the actual expression itself, so the compiler can recurse into it
// instead of treating the parameter as a variable.
func (r *ResolverProxy) RewriteParameter(sym *Symbol) (*Context, *expr.Expr, error) {
	if sym.Kind != KindParameter {
		return nil, nil, fmt.Errorf("symtab: RewriteParameter on non-parameter symbol %q", sym.Name)
	}
	formals := sym.Module.Formals()
	idx := -1
	for i, f := range formals {
		if f == sym.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("symtab: %q is not a formal of module %q", sym.Name, sym.Module.Name)
	}

	// The instance binding lives on the Variable symbol whose module is
	// the *caller's* module and whose InstanceActuals supplies the
	// actual-argument list for this formal position.
	inst := findInstanceFor(sym.Module)
	if inst == nil {
		return nil, nil, fmt.Errorf("symtab: no instantiation of module %q found", sym.Module.Name)
	}
	if idx >= len(inst.InstanceActuals) {
		return nil, nil, fmt.Errorf("symtab: instantiation of %q is missing actual for parameter %q", sym.Module.Name, sym.Name)
	}
	return inst.InstanceCtx, inst.InstanceActuals[idx], nil
}

// findInstanceFor is a placeholder hook: in this implementation the
// caller supplies the instantiating Variable symbol directly (see
// compiler.Compiler.compileDot), so RewriteParameter is invoked with
// that symbol pre-attached via BindInstance. Kept as a narrow seam so
// alternate resolution strategies (e.g. multiple instances of the
// same module) can be swapped in without touching callers.
func findInstanceFor(mod *Module) *Symbol {
	return mod.instantiatedBy
}

// BindInstance records that variable inst (of Instance type, naming
// module mod) was instantiated with the given actuals, written in
// callerCtx. Must be called once per instantiation before any
// RewriteParameter call against mod's formals.
func BindInstance(mod *Module, inst *Symbol, callerCtx *Context, actuals []*expr.Expr) {
	inst.InstanceActuals = actuals
	inst.InstanceCtx = callerCtx
	mod.instantiatedBy = inst
}
