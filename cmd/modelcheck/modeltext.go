package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

// typeText renders a canonical types.Type back into the surface
// grammar internal/parser accepts, which is not the same text
// types.Type.String() produces (that one reads "signed word[4]" for
// debugging output; the grammar wants "signed[4]"). Module-instance
// types are never rendered here — parseVarDecl recognizes an
// instantiation by the bare module-name identifier in a var decl's
// type position, not through parseTypeExpr, so writeVar special-cases
// KindInstance symbols directly.
func typeText(t *types.Type) string {
	switch t.Kind() {
	case types.KindBoolean:
		return "boolean"
	case types.KindSignedAlgebraic:
		return fmt.Sprintf("signed[%d]", t.Width())
	case types.KindUnsignedAlgebraic:
		return fmt.Sprintf("unsigned[%d]", t.Width())
	case types.KindEnum:
		names := make([]string, len(t.Literals()))
		for i, l := range t.Literals() {
			names[i] = l.String()
		}
		return fmt.Sprintf("enum { %s }", strings.Join(names, ", "))
	case types.KindArray:
		return fmt.Sprintf("array[%d] of %s", t.Length(), typeText(t.Elem()))
	default:
		return t.String()
	}
}

func flagsText(f symtab.Flag) string {
	var parts []string
	if f.Has(symtab.FlagInput) {
		parts = append(parts, "input")
	}
	if f.Has(symtab.FlagFrozen) {
		parts = append(parts, "frozen")
	}
	if f.Has(symtab.FlagInertial) {
		parts = append(parts, "inertial")
	}
	if f.Has(symtab.FlagTemp) {
		parts = append(parts, "temp")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

// WriteModule renders one module back to source text. Module-instance
// variables render their declared actual parameters, not the formal
// names, so the text is a faithful round-trip of what the parser
// staged as a pendingInstance.
func WriteModule(w io.Writer, mod *symtab.Module) {
	formals := mod.Formals()
	if len(formals) == 0 {
		fmt.Fprintf(w, "MODULE %s {\n", mod.Name)
	} else {
		names := make([]string, len(formals))
		for i, f := range formals {
			names[i] = f.String()
		}
		fmt.Fprintf(w, "MODULE %s(%s) {\n", mod.Name, strings.Join(names, ", "))
	}

	for _, sym := range mod.Locals() {
		switch sym.Kind {
		case symtab.KindVariable:
			if sym.Type.Kind() == types.KindInstance {
				actuals := make([]string, len(sym.InstanceActuals))
				for i, a := range sym.InstanceActuals {
					actuals[i] = a.String()
				}
				fmt.Fprintf(w, "    VAR %s%s : %s(%s);\n", flagsText(sym.Flags), sym.Name,
					sym.Type.InstanceModule(), strings.Join(actuals, ", "))
				continue
			}
			fmt.Fprintf(w, "    VAR %s%s : %s;\n", flagsText(sym.Flags), sym.Name, typeText(sym.Type))
		case symtab.KindDefine:
			fmt.Fprintf(w, "    DEFINE %s := %s;\n", sym.Name, sym.Body)
		case symtab.KindParameter:
			// rendered in the MODULE header, nothing to emit here
		}
	}

	for _, e := range mod.Init {
		fmt.Fprintf(w, "    INIT %s;\n", e)
	}
	for _, e := range mod.Invar {
		fmt.Fprintf(w, "    INVAR %s;\n", e)
	}
	for _, e := range mod.Trans {
		fmt.Fprintf(w, "    TRANS %s;\n", e)
	}

	fmt.Fprintln(w, "}")
}

// WriteModel renders every module of model, main module first.
func WriteModel(w io.Writer, model *symtab.Model) {
	mods := model.Modules()
	sort.Slice(mods, func(i, j int) bool {
		if mods[i] == model.Main() {
			return true
		}
		if mods[j] == model.Main() {
			return false
		}
		return mods[i].Name.String() < mods[j].Name.String()
	})
	for i, mod := range mods {
		if i > 0 {
			fmt.Fprintln(w)
		}
		WriteModule(w, mod)
	}
}

// DumpModel prints a short human-readable summary of every module:
// variable count/names, and section sizes. Distinct from WriteModel,
// which round-trips to the surface grammar; this is a glance-at-a-model
// report for the `dump-model` CLI command.
func DumpModel(w io.Writer, model *symtab.Model) {
	for _, mod := range model.Modules() {
		tag := ""
		if mod == model.Main() {
			tag = " (main)"
		}
		fmt.Fprintf(w, "module %s%s\n", mod.Name, tag)
		for _, sym := range mod.Variables() {
			fmt.Fprintf(w, "  var  %-12s %s%s\n", sym.Name, flagsText(sym.Flags), typeText(sym.Type))
		}
		for _, sym := range mod.Locals() {
			if sym.Kind == symtab.KindDefine {
				fmt.Fprintf(w, "  def  %-12s := %s\n", sym.Name, sym.Body)
			}
		}
		fmt.Fprintf(w, "  init: %d  invar: %d  trans: %d\n", len(mod.Init), len(mod.Invar), len(mod.Trans))
	}
}
