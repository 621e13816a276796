// Package parser implements the model checker's minimal recursive-descent
// front end: modules, typed variable declarations, INIT/INVAR/TRANS
// sections, parameters, defines, LTL operators, arrays, and enums
// (spec.md §10 "Minimal front end"). It deliberately does not attempt
// full original-language fidelity: no macros, no preprocessor, no
// multiple file includes.
package parser

import (
	"fmt"

	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/lexer"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

// Parser turns model source text into a *symtab.Model, wiring every
// module's declarations, sections, and (via a post-pass) instance
// bindings against the atom, expr, and types pools supplied by the
// caller.
type Parser struct {
	lex  *lexer.Lexer
	file string

	atoms *atom.Pool
	exprs *expr.Pool
	types *types.Mgr

	cur, peek lexer.Token

	pending []pendingInstance
}

// pendingInstance records a module-instance variable declaration
// until every module has been parsed and BindInstance can be called
// against the actual target *symtab.Module.
type pendingInstance struct {
	declModule *symtab.Module
	varSym     *symtab.Symbol
	target     *atom.Atom
	actuals    []*expr.Expr
	tok        lexer.Token
}

// New creates a Parser over src. ap/ep/tm are the shared pools the
// resulting model's expressions and types are interned against.
func New(src, filename string, ap *atom.Pool, ep *expr.Pool, tm *types.Mgr) *Parser {
	p := &Parser{
		lex:   lexer.New(src, filename),
		file:  filename,
		atoms: ap,
		exprs: ep,
		types: tm,
	}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) curPos() diag.Pos {
	return diag.Pos{File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errAt(code *diag.Code, tok lexer.Token, format string, args ...interface{}) error {
	pos := diag.Pos{File: tok.File, Line: tok.Line, Column: tok.Column}
	return diag.New(code, &diag.Span{Start: pos, End: pos}, fmt.Sprintf(format, args...), nil)
}

func (p *Parser) unexpected(want string) error {
	if err := p.checkIllegal(); err != nil {
		return err
	}
	return p.errAt(diag.CodeParUnexpectedToken, p.cur,
		"expected %s, got %s %q", want, p.cur.Type, p.cur.Literal)
}

// expect consumes the current token if it matches tt, otherwise
// reports PAR001.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur.Type != tt {
		return lexer.Token{}, p.unexpected(tt.String())
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur.Type == tt }

// checkIllegal turns a lexer ILLEGAL token into a reported PAR001
// error carrying the lexer's own unexpected-character diagnosis.
func (p *Parser) checkIllegal() error {
	if p.cur.Type != lexer.ILLEGAL {
		return nil
	}
	lexErr := &lexer.ErrUnexpectedChar{Ch: p.cur.Literal, Pos: p.cur.Position()}
	return p.errAt(diag.CodeParUnexpectedToken, p.cur, "%s", lexErr)
}

// ParseModel parses the entire source as a sequence of MODULE
// definitions and returns the assembled model, with every
// module-instance variable bound via symtab.BindInstance.
func (p *Parser) ParseModel() (*symtab.Model, error) {
	model := symtab.NewModel()

	for !p.at(lexer.EOF) {
		mod, err := p.parseModule()
		if err != nil {
			return nil, err
		}
		if err := model.AddModule(mod); err != nil {
			return nil, err
		}
	}

	if err := p.wireInstances(model); err != nil {
		return nil, err
	}
	return model, nil
}

func (p *Parser) parseModule() (*symtab.Module, error) {
	if _, err := p.expect(lexer.MODULE); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	mod := symtab.NewModule(p.atoms.Intern(nameTok.Literal))

	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) {
			ptok, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			sym := &symtab.Symbol{Kind: symtab.KindParameter, Name: p.atoms.Intern(ptok.Literal)}
			if err := mod.Declare(sym); err != nil {
				return nil, err
			}
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.EOF) {
			return nil, p.errAt(diag.CodeParMissingDelim, p.cur, "unexpected EOF, module %q is missing a closing '}'", mod.Name)
		}
		if err := p.parseModuleItem(mod); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return mod, nil
}

func (p *Parser) parseModuleItem(mod *symtab.Module) error {
	switch p.cur.Type {
	case lexer.VAR:
		p.advance()
		return p.parseVarDecl(mod)
	case lexer.DEFINE:
		p.advance()
		return p.parseDefine(mod)
	case lexer.INIT:
		return p.parseSectionStatement(mod, lexer.INIT)
	case lexer.INVAR:
		return p.parseSectionStatement(mod, lexer.INVAR)
	case lexer.TRANS:
		return p.parseSectionStatement(mod, lexer.TRANS)
	default:
		return p.errAt(diag.CodeParBadSection, p.cur,
			"expected VAR, DEFINE, INIT, INVAR, or TRANS, got %s %q", p.cur.Type, p.cur.Literal)
	}
}

func (p *Parser) parseSectionStatement(mod *symtab.Module, kw lexer.TokenType) error {
	p.advance()
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return err
	}
	switch kw {
	case lexer.INIT:
		mod.Init = append(mod.Init, e)
	case lexer.INVAR:
		mod.Invar = append(mod.Invar, e)
	case lexer.TRANS:
		mod.Trans = append(mod.Trans, e)
	}
	return nil
}

func (p *Parser) parseFlags() symtab.Flag {
	var flags symtab.Flag
	for {
		switch p.cur.Type {
		case lexer.INPUT:
			flags |= symtab.FlagInput
		case lexer.FROZEN:
			flags |= symtab.FlagFrozen
		case lexer.INERTIAL:
			flags |= symtab.FlagInertial
		case lexer.TEMP:
			flags |= symtab.FlagTemp
		default:
			return flags
		}
		p.advance()
	}
}

// parseVarDecl parses "[flags] name : typeexpr ;" or, for module
// instantiation, "[flags] name : ModuleName(actual, ...) ;". The
// latter is staged as a pendingInstance and resolved once every
// module has been parsed.
func (p *Parser) parseVarDecl(mod *symtab.Module) error {
	flags := p.parseFlags()
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return err
	}

	if p.at(lexer.IDENT) {
		modTok := p.cur
		p.advance()
		var actuals []*expr.Expr
		if p.at(lexer.LPAREN) {
			p.advance()
			for !p.at(lexer.RPAREN) {
				a, err := p.parseExpr()
				if err != nil {
					return err
				}
				actuals = append(actuals, a)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return err
			}
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return err
		}
		targetAtom := p.atoms.Intern(modTok.Literal)
		sym := &symtab.Symbol{
			Kind:  symtab.KindVariable,
			Name:  p.atoms.Intern(nameTok.Literal),
			Type:  p.types.FindInstance(targetAtom),
			Flags: flags,
		}
		if err := mod.Declare(sym); err != nil {
			return err
		}
		p.pending = append(p.pending, pendingInstance{
			declModule: mod,
			varSym:     sym,
			target:     targetAtom,
			actuals:    actuals,
			tok:        modTok,
		})
		return nil
	}

	typ, err := p.parseTypeExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return err
	}
	sym := &symtab.Symbol{
		Kind:  symtab.KindVariable,
		Name:  p.atoms.Intern(nameTok.Literal),
		Type:  typ,
		Flags: flags,
	}
	return mod.Declare(sym)
}

// parseDefine parses "name [(params)] := expr ;". Parameterized
// defines are accepted syntactically (Formals is recorded on the
// Symbol) but the compiler rejects calling one: internal/compiler
// only evaluates a KindDefine body directly, never through a
// TagParams application.
func (p *Parser) parseDefine(mod *symtab.Module) error {
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return err
	}
	var formals []*atom.Atom
	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) {
			ftok, err := p.expect(lexer.IDENT)
			if err != nil {
				return err
			}
			formals = append(formals, p.atoms.Intern(ftok.Literal))
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return err
	}
	body, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return err
	}
	sym := &symtab.Symbol{
		Kind:    symtab.KindDefine,
		Name:    p.atoms.Intern(nameTok.Literal),
		Body:    body,
		Formals: formals,
	}
	return mod.Declare(sym)
}

// parseTypeExpr parses boolean, signed[w], unsigned[w], enum{...}, or
// array[n] of T. Module-instance type references are handled directly
// by parseVarDecl, not here, since they need the declaring Symbol to
// stage a pendingInstance.
func (p *Parser) parseTypeExpr() (*types.Type, error) {
	switch p.cur.Type {
	case lexer.BOOLEAN:
		p.advance()
		return p.types.Boolean(), nil

	case lexer.SIGNED:
		p.advance()
		w, err := p.parseBracketedWidth()
		if err != nil {
			return nil, err
		}
		return p.types.FindSigned(w), nil

	case lexer.UNSIGNED:
		p.advance()
		w, err := p.parseBracketedWidth()
		if err != nil {
			return nil, err
		}
		return p.types.FindUnsigned(w), nil

	case lexer.ENUM:
		p.advance()
		if _, err := p.expect(lexer.LBRACE); err != nil {
			return nil, err
		}
		var lits []*atom.Atom
		for !p.at(lexer.RBRACE) {
			ltok, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			lits = append(lits, p.atoms.Intern(ltok.Literal))
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
		t, err := p.types.FindEnum(lits)
		if err != nil {
			return nil, p.errAt(diag.CodeTypDuplicateLit, p.cur, "%s", err)
		}
		return t, nil

	case lexer.ARRAY:
		p.advance()
		if _, err := p.expect(lexer.LBRACKET); err != nil {
			return nil, err
		}
		ntok, err := p.expect(lexer.INT)
		if err != nil {
			return nil, err
		}
		n, err := parseIntLiteral(ntok.Literal)
		if err != nil {
			return nil, p.errAt(diag.CodeTypBadType, ntok, "%s", err)
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.OF); err != nil {
			return nil, err
		}
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return p.types.FindArray(elem, uint(n)), nil

	default:
		return nil, p.unexpected("a type (boolean, signed[N], unsigned[N], enum{...}, or array[N] of T)")
	}
}

func (p *Parser) parseBracketedWidth() (uint, error) {
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return 0, err
	}
	wtok, err := p.expect(lexer.INT)
	if err != nil {
		return 0, err
	}
	w, err := parseIntLiteral(wtok.Literal)
	if err != nil {
		return 0, p.errAt(diag.CodeTypBadType, wtok, "%s", err)
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return 0, err
	}
	return uint(w), nil
}

// wireInstances binds every staged module-instance declaration to its
// target module, building the Context chain BindInstance and
// RewriteParameter need. Declaring modules are resolved to a Context
// lazily, starting each never-before-seen module at its own
// RootContext; the first module to instantiate a given target wins if
// more than one tries to (symtab.Module supports a single
// instantiator, per its own documented limitation).
func (p *Parser) wireInstances(model *symtab.Model) error {
	ctxOf := make(map[*symtab.Module]*symtab.Context)
	resolve := func(mod *symtab.Module) *symtab.Context {
		if c, ok := ctxOf[mod]; ok {
			return c
		}
		c := symtab.RootContext(mod)
		ctxOf[mod] = c
		return c
	}

	for _, pi := range p.pending {
		target, ok := model.Module(pi.target)
		if !ok {
			return p.errAt(diag.CodeResUnresolved, pi.tok, "instantiated module %q is not defined", pi.target)
		}
		callerCtx := resolve(pi.declModule)
		symtab.BindInstance(target, pi.varSym, callerCtx, pi.actuals)
		ctxOf[target] = callerCtx.Descend(target)
	}
	return nil
}
