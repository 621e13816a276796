// Package diag provides the model checker's structured error taxonomy
// and a small leveled console logger. All error builders return
// *Report, wrapped as *ReportError so errors.As recovers the
// structured report at the CLI boundary.
package diag

// Code names a single error condition. Codes are grouped by phase
// following spec.md §7: parser, resolution, type, semantic, encoding,
// solver, format, command.
type Code struct {
	Name  string
	Phase string
	Desc  string
}

func NewCode(name, desc string) *Code {
	return &Code{Name: name, Phase: phaseOf(name), Desc: desc}
}

func phaseOf(name string) string {
	if len(name) < 3 {
		return "unknown"
	}
	switch name[:3] {
	case "PAR":
		return "parser"
	case "RES":
		return "resolution"
	case "TYP":
		return "type"
	case "SEM":
		return "semantic"
	case "ENC":
		return "encoding"
	case "SAT":
		return "solver"
	case "FMT":
		return "format"
	case "CMD":
		return "command"
	default:
		return "unknown"
	}
}

// Registry lists every code known to the system, for CLI introspection
// (e.g. `ailang-mc explain TYP002`).
var Registry = map[string]*Code{}

func register(c *Code) *Code {
	Registry[c.Name] = c
	return c
}

var (
	// Parser (PAR###).
	CodeParUnexpectedToken = register(NewCode("PAR001", "unexpected token"))
	CodeParMissingDelim    = register(NewCode("PAR002", "missing closing delimiter"))
	CodeParBadSection      = register(NewCode("PAR003", "malformed INIT/INVAR/TRANS section"))

	// Resolution (RES###).
	CodeResUnresolved = register(NewCode("RES001", "unresolved symbol"))
	CodeResDuplicate  = register(NewCode("RES002", "duplicate local name in module"))

	// Type (TYP###).
	CodeTypBadType      = register(NewCode("TYP001", "bad type"))
	CodeTypMismatch     = register(NewCode("TYP002", "type mismatch"))
	CodeTypIdentExpect  = register(NewCode("TYP003", "identifier expected"))
	CodeTypDuplicateLit = register(NewCode("TYP004", "duplicate enum literal"))

	// Semantic (SEM###).
	CodeSemFlagConflict  = register(NewCode("SEM001", "conflicting variable flags"))
	CodeSemBadAssignment = register(NewCode("SEM002", "assignment to input or frozen variable"))
	CodeSemBadSection    = register(NewCode("SEM003", "guard or assignment outside TRANS"))
	CodeSemNotLvalue     = register(NewCode("SEM004", "left-hand side is not an lvalue"))
	CodeSemLTLStub       = register(NewCode("SEM900", "unbounded LTL algorithm is not implemented"))

	// Encoding (ENC###).
	CodeEncTooWide = register(NewCode("ENC001", "constant too large for declared width"))

	// Solver (SAT###).
	CodeSatAbnormal = register(NewCode("SAT001", "SAT kernel terminated abnormally"))

	// Format (FMT###).
	CodeFmtUnsupported = register(NewCode("FMT001", "unsupported trace dump format"))

	// Command (CMD###).
	CodeCmdIllFormed = register(NewCode("CMD001", "ill-formed command"))
	CodeCmdUnknown   = register(NewCode("CMD002", "unknown command"))
	CodeCmdNoModel   = register(NewCode("CMD003", "no model loaded"))
)
