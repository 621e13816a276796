package parser

import (
	"strconv"

	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/lexer"
)

// precedence levels for the binary operator table, low to high. U/R
// bind tighter than && and || but looser than bitwise and relational
// operators; write parens around a temporal operand that should
// extend further.
const (
	precLowest = iota
	precIff    // <->
	precImplies
	precOr      // ||
	precAnd     // &&
	precLTLBin  // U, R
	precBitOr   // | ^ xnor
	precBitAnd  // &
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

func binPrec(tt lexer.TokenType) (int, bool) {
	switch tt {
	case lexer.DARROW:
		return precIff, true
	case lexer.ARROW:
		return precImplies, true
	case lexer.OROR:
		return precOr, true
	case lexer.ANDAND:
		return precAnd, true
	case lexer.LTL_U, lexer.LTL_R:
		return precLTLBin, true
	case lexer.PIPE, lexer.CARET, lexer.XNOR:
		return precBitOr, true
	case lexer.AMP:
		return precBitAnd, true
	case lexer.EQ, lexer.NEQ:
		return precEquality, true
	case lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		return precRelational, true
	case lexer.LSHIFT, lexer.RSHIFT:
		return precShift, true
	case lexer.PLUS, lexer.MINUS:
		return precAdditive, true
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return precMultiplicative, true
	default:
		return 0, false
	}
}

func binTag(tt lexer.TokenType) expr.Tag {
	switch tt {
	case lexer.DARROW:
		return expr.TagIff
	case lexer.ARROW:
		return expr.TagImplies
	case lexer.OROR:
		return expr.TagOr
	case lexer.ANDAND:
		return expr.TagAnd
	case lexer.LTL_U:
		return expr.TagU
	case lexer.LTL_R:
		return expr.TagR
	case lexer.PIPE:
		return expr.TagBWOr
	case lexer.CARET:
		return expr.TagBWXor
	case lexer.XNOR:
		return expr.TagBWXnor
	case lexer.AMP:
		return expr.TagBWAnd
	case lexer.EQ:
		return expr.TagEQ
	case lexer.NEQ:
		return expr.TagNE
	case lexer.LT:
		return expr.TagLT
	case lexer.GT:
		return expr.TagGT
	case lexer.LTE:
		return expr.TagLE
	case lexer.GTE:
		return expr.TagGE
	case lexer.LSHIFT:
		return expr.TagLShift
	case lexer.RSHIFT:
		return expr.TagRShift
	case lexer.PLUS:
		return expr.TagPlus
	case lexer.MINUS:
		return expr.TagSub
	case lexer.STAR:
		return expr.TagMul
	case lexer.SLASH:
		return expr.TagDiv
	case lexer.PERCENT:
		return expr.TagMod
	default:
		panic("parser: binTag on non-binary token")
	}
}

// parseExpr parses a full expression, including the ternary
// cond ? then : else form, which binds looser than every binary
// operator.
func (p *Parser) parseExpr() (*expr.Expr, error) {
	cond, err := p.parseBinary(precLowest)
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.QMARK) {
		return cond, nil
	}
	p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.exprs.MakeITE(cond, then, els), nil
}

// parseBinary implements precedence climbing over the binary operator
// table; every level is left-associative.
func (p *Parser) parseBinary(minPrec int) (*expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binPrec(p.cur.Type)
		if !ok || prec < minPrec {
			return left, nil
		}
		opType := p.cur.Type
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = p.exprs.MakeBinary(binTag(opType), left, right)
	}
}

// parseUnary handles prefix operators: arithmetic/bitwise/logical
// negation, next(...), and the LTL unary operators G/F/X. LTL unary
// operators bind as tightly as any other prefix operator, so "G p & q"
// parses as "(G p) & q" — write "G(p & q)" for the other grouping.
func (p *Parser) parseUnary() (*expr.Expr, error) {
	switch p.cur.Type {
	case lexer.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagNeg, operand), nil

	case lexer.NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagNot, operand), nil

	case lexer.TILDE:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagBWNot, operand), nil

	case lexer.LTL_G:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagG, operand), nil

	case lexer.LTL_F:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagF, operand), nil

	case lexer.LTL_X:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagX, operand), nil

	case lexer.NEXT:
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return p.exprs.MakeUnary(expr.TagNext, inner), nil

	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles the left-recursive suffix forms: qualified
// names (a.b.c) and array subscripting (a[i]).
func (p *Parser) parsePostfix() (*expr.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case lexer.DOT:
			p.advance()
			rtok, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			rhs := p.exprs.MakeIdent(p.atoms.Intern(rtok.Literal))
			e = p.exprs.LeftAssociateDot(p.exprs.MakeBinary(expr.TagDot, e, rhs))

		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET); err != nil {
				return nil, err
			}
			e = p.exprs.MakeBinary(expr.TagSubscr, e, idx)

		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (*expr.Expr, error) {
	switch p.cur.Type {
	case lexer.INT:
		tok := p.cur
		p.advance()
		c, err := parseConstLiteral(tok.Literal)
		if err != nil {
			return nil, p.errAt(diag.CodeParUnexpectedToken, tok, "malformed numeric literal %q: %s", tok.Literal, err)
		}
		return p.exprs.MakeConst(c), nil

	case lexer.TRUE:
		p.advance()
		return p.exprs.MakeConst(expr.Const{Radix: expr.RadixBoolean, Value: 1}), nil

	case lexer.FALSE:
		p.advance()
		return p.exprs.MakeConst(expr.Const{Radix: expr.RadixBoolean, Value: 0}), nil

	case lexer.UNDEF:
		p.advance()
		return p.exprs.MakeLeaf(expr.TagUndef), nil

	case lexer.IDENT:
		tok := p.cur
		p.advance()
		return p.exprs.MakeIdent(p.atoms.Intern(tok.Literal)), nil

	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil

	case lexer.LBRACE:
		return p.parseSetLiteral()

	default:
		return nil, p.unexpected("an expression")
	}
}

// parseSetLiteral parses "{ e1, e2, ..., en }" (n >= 2) into a
// right-folded chain of binary TagSet nodes: {a,b,c} becomes
// TagSet(a, TagSet(b,c)). internal/compiler's compileNonDet and
// internal/analyzer's Infer both only ever read a TagSet node's two
// immediate children, resolving a single nondeterministic choice per
// node, so an n-ary set literal is represented as nested two-way
// choices rather than a flat list.
func (p *Parser) parseSetLiteral() (*expr.Expr, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var members []*expr.Expr
	for {
		m, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if len(members) < 2 {
		return nil, p.errAt(diag.CodeParUnexpectedToken, p.cur, "a set literal needs at least two members")
	}
	result := members[len(members)-1]
	for i := len(members) - 2; i >= 0; i-- {
		result = p.exprs.MakeBinary(expr.TagSet, members[i], result)
	}
	return result, nil
}

func parseIntLiteral(lit string) (int64, error) {
	if len(lit) > 2 && (lit[:2] == "0x" || lit[:2] == "0X") {
		return strconv.ParseInt(lit[2:], 16, 64)
	}
	return strconv.ParseInt(lit, 10, 64)
}

func parseConstLiteral(lit string) (expr.Const, error) {
	if len(lit) > 2 && (lit[:2] == "0x" || lit[:2] == "0X") {
		v, err := strconv.ParseInt(lit[2:], 16, 64)
		if err != nil {
			return expr.Const{}, err
		}
		return expr.Const{Radix: expr.RadixHex, Value: v}, nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return expr.Const{}, err
	}
	return expr.Const{Radix: expr.RadixDecimal, Value: v}, nil
}
