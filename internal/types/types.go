// Package types implements the model checker's type system: a
// canonical, interned type registry plus the inference/checking rules
// applied by the analyzer. Two type descriptions with equal shape
// share identity, the same way internal/expr hash-conses expressions.
package types

import (
	"fmt"
	"math/bits"
	"strings"
	"sync"

	"github.com/sunholo/ailang/internal/atom"
)

// Kind discriminates the type variants named by the spec.
type Kind int

const (
	KindBoolean Kind = iota
	KindIntConst
	KindSignedAlgebraic
	KindUnsignedAlgebraic
	KindEnum
	KindArray
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindIntConst:
		return "int-const"
	case KindSignedAlgebraic:
		return "signed"
	case KindUnsignedAlgebraic:
		return "unsigned"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindInstance:
		return "instance"
	default:
		return "?"
	}
}

// Type is a canonical, interned type descriptor.
type Type struct {
	kind     Kind
	width    uint         // declared bit width for algebraic types
	length   uint         // element count for arrays
	elem     *Type        // element type for arrays
	literals []*atom.Atom // canonical literal order for enums
	instance *atom.Atom   // module name for instances
}

// Kind reports the type's variant.
func (t *Type) Kind() Kind { return t.kind }

// Width returns the bit width of the type: 1 for boolean, ⌈log2|lits|⌉
// for enums (minimum 1), the declared width for algebraic types,
// length×element.width for arrays, and 0 for IntConst/Instance (which
// are not directly bit-encodable — IntConst must first be promoted to
// an algebraic type, Instance variables are module instantiations).
func (t *Type) Width() uint {
	switch t.kind {
	case KindBoolean:
		return 1
	case KindSignedAlgebraic, KindUnsignedAlgebraic:
		return t.width
	case KindEnum:
		n := len(t.literals)
		if n <= 1 {
			return 1
		}
		return uint(bits.Len(uint(n - 1)))
	case KindArray:
		return t.length * t.elem.Width()
	default:
		return 0
	}
}

// Signed reports whether an algebraic type is signed.
func (t *Type) Signed() bool { return t.kind == KindSignedAlgebraic }

// Elem returns the element type of an array type.
func (t *Type) Elem() *Type { return t.elem }

// Length returns the element count of an array type.
func (t *Type) Length() uint { return t.length }

// Literals returns the canonical literal order of an enum type.
func (t *Type) Literals() []*atom.Atom { return t.literals }

// LiteralCode returns the integer code for lit in an enum type and
// whether it was found.
func (t *Type) LiteralCode(lit *atom.Atom) (int, bool) {
	for i, l := range t.literals {
		if l == lit {
			return i, true
		}
	}
	return -1, false
}

// InstanceModule returns the instantiated module name for an instance type.
func (t *Type) InstanceModule() *atom.Atom { return t.instance }

// IsAlgebraic reports whether t is a fixed-width signed or unsigned type.
func (t *Type) IsAlgebraic() bool {
	return t.kind == KindSignedAlgebraic || t.kind == KindUnsignedAlgebraic
}

func (t *Type) String() string {
	switch t.kind {
	case KindBoolean:
		return "boolean"
	case KindIntConst:
		return "int-const"
	case KindSignedAlgebraic:
		return fmt.Sprintf("signed word[%d]", t.width)
	case KindUnsignedAlgebraic:
		return fmt.Sprintf("unsigned word[%d]", t.width)
	case KindEnum:
		names := make([]string, len(t.literals))
		for i, l := range t.literals {
			names[i] = l.String()
		}
		return fmt.Sprintf("{%s}", strings.Join(names, ", "))
	case KindArray:
		return fmt.Sprintf("array %d of %s", t.length, t.elem)
	case KindInstance:
		return fmt.Sprintf("instance(%s)", t.instance)
	default:
		return "?"
	}
}

// Equals reports whether two canonical types are the same type. Since
// types are interned, this is pointer equality, but kept explicit so
// callers never compare types structurally by accident.
func (t *Type) Equals(o *Type) bool { return t == o }

// typeKey is the hash-consing key for non-enum types (enums carry a
// literal slice, handled separately by FindEnum since slices are not
// comparable map keys).
type typeKey struct {
	kind     Kind
	width    uint
	length   uint
	elem     *Type
	instance *atom.Atom
}

func literalsKey(lits []*atom.Atom) string {
	var sb strings.Builder
	for i, l := range lits {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(l.String())
	}
	return sb.String()
}

// Mgr is the canonical type registry. All Type values returned by its
// constructors are interned: equal shapes share identity for the
// lifetime of the Mgr.
type Mgr struct {
	mu        sync.Mutex
	types     map[typeKey]*Type
	enumTypes map[string]*Type // keyed by literalsKey

	boolean  *Type
	intConst *Type
}

// NewMgr creates an empty type registry, pre-populating the two
// singleton types (Boolean, IntConst).
func NewMgr() *Mgr {
	m := &Mgr{
		types:     make(map[typeKey]*Type),
		enumTypes: make(map[string]*Type),
	}
	m.boolean = m.intern(typeKey{kind: KindBoolean})
	m.intConst = m.intern(typeKey{kind: KindIntConst})
	return m
}

func (m *Mgr) intern(k typeKey) *Type {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.types[k]; ok {
		return t
	}
	t := &Type{kind: k.kind, width: k.width, length: k.length, elem: k.elem, instance: k.instance}
	m.types[k] = t
	return t
}

// Boolean returns the canonical boolean type.
func (m *Mgr) Boolean() *Type { return m.boolean }

// IntConst returns the canonical unsized-integer-constant type.
func (m *Mgr) IntConst() *Type { return m.intConst }

// FindSigned returns the canonical signed algebraic type of width w.
func (m *Mgr) FindSigned(w uint) *Type {
	return m.intern(typeKey{kind: KindSignedAlgebraic, width: w})
}

// FindUnsigned returns the canonical unsigned algebraic type of width w.
func (m *Mgr) FindUnsigned(w uint) *Type {
	return m.intern(typeKey{kind: KindUnsignedAlgebraic, width: w})
}

// ErrDuplicateLiteral is returned by FindEnum when the literal set
// contains a repeated name.
type ErrDuplicateLiteral struct{ Literal *atom.Atom }

func (e *ErrDuplicateLiteral) Error() string {
	return fmt.Sprintf("duplicate enum literal %q", e.Literal)
}

// FindEnum returns the canonical enum type for the given literal set.
// The literal order passed in becomes the canonical order (callers
// must pass the order literals appeared in the declaration; reordering
// would change literal integer codes).
func (m *Mgr) FindEnum(lits []*atom.Atom) (*Type, error) {
	seen := make(map[*atom.Atom]bool, len(lits))
	for _, l := range lits {
		if seen[l] {
			return nil, &ErrDuplicateLiteral{Literal: l}
		}
		seen[l] = true
	}

	key := literalsKey(lits)

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.enumTypes[key]; ok {
		return t, nil
	}
	t := &Type{kind: KindEnum, literals: append([]*atom.Atom(nil), lits...)}
	m.enumTypes[key] = t
	return t, nil
}

// FindArray returns the canonical array type of nelems elements of elem.
func (m *Mgr) FindArray(elem *Type, nelems uint) *Type {
	return m.intern(typeKey{kind: KindArray, elem: elem, length: nelems})
}

// FindInstance returns the canonical instance type for a module name.
func (m *Mgr) FindInstance(moduleName *atom.Atom) *Type {
	return m.intern(typeKey{kind: KindInstance, instance: moduleName})
}
