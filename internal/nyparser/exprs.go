package nyparser

import (
	"strconv"
	"strings"

	"github.com/nytrix-lang/nytrix/internal/lexer"
	"github.com/nytrix-lang/nytrix/internal/nyast"
)

// parseExpr is the Pratt entry point: parse a prefix production, then fold
// in infix/postfix operators while the next token binds tighter than prec.
func (p *Parser) parseExpr(prec int) nyast.Expr {
	prefix, ok := p.prefixFns[p.curTok.Type]
	if !ok {
		p.reportError("unexpected token '"+string(p.curTok.Type)+"' in expression", p.curTok.Span)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}
	for prec < peekPrecedence(p) {
		infix, ok := p.infixFns[p.peekTok.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentExpr() nyast.Expr {
	return nyast.NewIdent(p.curTok.Value, p.curTok.Span)
}

func (p *Parser) parseIntLiteral() nyast.Expr {
	tok := p.curTok
	text := strings.ReplaceAll(tok.Value, "_", "")
	var v int64
	var err error
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		var u uint64
		u, err = strconv.ParseUint(text[2:], 16, 64)
		v = int64(u)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		var u uint64
		u, err = strconv.ParseUint(text[2:], 2, 64)
		v = int64(u)
	default:
		v, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		p.reportError("invalid integer literal '"+tok.Value+"'", tok.Span)
		v = 0
	}
	return nyast.NewLiteralInt(v, tok.Span)
}

func (p *Parser) parseFloatLiteral() nyast.Expr {
	tok := p.curTok
	text := strings.ReplaceAll(tok.Value, "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.reportError("invalid float literal '"+tok.Value+"'", tok.Span)
		f = 0
	}
	return nyast.NewLiteralFloat(f, tok.Span)
}

func (p *Parser) parseStringLiteral() nyast.Expr {
	return nyast.NewLiteralStr(p.curTok.Value, p.curTok.Span)
}

func (p *Parser) parseBoolLiteral() nyast.Expr {
	return nyast.NewLiteralBool(p.curTok.Type == lexer.TRUE, p.curTok.Span)
}

func (p *Parser) parseNoneLiteral() nyast.Expr {
	return nyast.NewLiteralNone(p.curTok.Span)
}

func (p *Parser) parsePrefixExpr() nyast.Expr {
	tok := p.curTok
	op := string(tok.Type)
	p.nextToken()
	operand := p.parseExpr(precPrefix)
	if operand == nil {
		return nil
	}
	n := &nyast.Unary{Op: op, X: operand}
	n.SetSpan(mergeSpan(tok.Span, operand.Span()))
	return n
}

func (p *Parser) parseBinaryExpr(left nyast.Expr) nyast.Expr {
	tok := p.curTok
	op := string(tok.Type)
	prec := curPrecedence(p)
	p.nextToken()
	right := p.parseExpr(prec)
	if right == nil {
		return left
	}
	n := &nyast.Binary{Op: op, X: left, Y: right}
	n.SetSpan(mergeSpan(left.Span(), right.Span()))
	return n
}

func (p *Parser) parseLogicalExpr(left nyast.Expr) nyast.Expr {
	tok := p.curTok
	op := string(tok.Type)
	prec := curPrecedence(p)
	p.nextToken()
	right := p.parseExpr(prec)
	if right == nil {
		return left
	}
	n := &nyast.Logical{Op: op, X: left, Y: right}
	n.SetSpan(mergeSpan(left.Span(), right.Span()))
	return n
}

// parseAssignExpr is right-associative: `a = b = c` parses as `a = (b = c)`.
func (p *Parser) parseAssignExpr(target nyast.Expr) nyast.Expr {
	if !isAssignableTarget(target) {
		p.reportError("invalid assignment target", target.Span())
	}
	p.nextToken()
	value := p.parseExpr(precAssign - 1)
	if value == nil {
		return target
	}
	n := &nyast.Assign{Target: target, Value: value}
	n.SetSpan(mergeSpan(target.Span(), value.Span()))
	return n
}

func isAssignableTarget(e nyast.Expr) bool {
	switch e.(type) {
	case *nyast.Ident, *nyast.Index:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTernaryExpr(cond nyast.Expr) nyast.Expr {
	p.nextToken()
	then := p.parseExpr(precAssign)
	if then == nil {
		return cond
	}
	if !p.expectPeek(lexer.COLON) {
		return cond
	}
	p.nextToken()
	elseExpr := p.parseExpr(precTernary - 1)
	if elseExpr == nil {
		return cond
	}
	n := &nyast.Ternary{Cond: cond, Then: then, Else: elseExpr}
	n.SetSpan(mergeSpan(cond.Span(), elseExpr.Span()))
	return n
}

// parseGroupedOrTupleExpr handles `(expr)` as plain grouping and
// `(e1, e2, ...)` as a tuple literal.
func (p *Parser) parseGroupedOrTupleExpr() nyast.Expr {
	start := p.curTok.Span
	p.nextToken()
	if p.curIs(lexer.RPAREN) {
		end := p.curTok.Span
		n := &nyast.Tuple{Elems: nil}
		n.SetSpan(mergeSpan(start, end))
		return n
	}
	first := p.parseExpr(precLowest)
	if first == nil {
		return nil
	}
	if p.peekIs(lexer.COMMA) {
		elems := []nyast.Expr{first}
		for p.peekIs(lexer.COMMA) {
			p.nextToken() // consume ','
			if p.peekIs(lexer.RPAREN) {
				break
			}
			p.nextToken()
			e := p.parseExpr(precLowest)
			if e == nil {
				return nil
			}
			elems = append(elems, e)
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		n := &nyast.Tuple{Elems: elems}
		n.SetSpan(mergeSpan(start, p.curTok.Span))
		return n
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return first
}

func (p *Parser) parseListExpr() nyast.Expr {
	start := p.curTok.Span
	var elems []nyast.Expr
	if p.peekIs(lexer.RBRACKET) {
		p.nextToken()
		n := &nyast.List{Elems: nil}
		n.SetSpan(mergeSpan(start, p.curTok.Span))
		return n
	}
	p.nextToken()
	for {
		e := p.parseExpr(precLowest)
		if e == nil {
			return nil
		}
		elems = append(elems, e)
		if p.peekIs(lexer.COMMA) {
			p.nextToken()
			if p.peekIs(lexer.RBRACKET) {
				break
			}
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	n := &nyast.List{Elems: elems}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseDictOrSetExpr disambiguates `{}` / `{a, b}` / `{k: v, ...}`. Ny never
// reaches this prefix fn from statement position (blocks are parsed
// directly by the statement grammar), so there is no ambiguity with brace
// blocks.
func (p *Parser) parseDictOrSetExpr() nyast.Expr {
	start := p.curTok.Span
	if p.peekIs(lexer.RBRACE) {
		p.nextToken()
		n := &nyast.Dict{Pairs: nil}
		n.SetSpan(mergeSpan(start, p.curTok.Span))
		return n
	}
	p.nextToken()
	first := p.parseExpr(precLowest)
	if first == nil {
		return nil
	}
	if p.peekIs(lexer.COLON) {
		pairs := []nyast.DictPair{}
		p.nextToken() // consume ':'
		p.nextToken()
		val := p.parseExpr(precLowest)
		if val == nil {
			return nil
		}
		pairs = append(pairs, nyast.DictPair{Key: first, Value: val})
		for p.peekIs(lexer.COMMA) {
			p.nextToken()
			if p.peekIs(lexer.RBRACE) {
				break
			}
			p.nextToken()
			k := p.parseExpr(precLowest)
			if k == nil {
				return nil
			}
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpr(precLowest)
			if v == nil {
				return nil
			}
			pairs = append(pairs, nyast.DictPair{Key: k, Value: v})
		}
		if !p.expectPeek(lexer.RBRACE) {
			return nil
		}
		n := &nyast.Dict{Pairs: pairs}
		n.SetSpan(mergeSpan(start, p.curTok.Span))
		return n
	}
	elems := []nyast.Expr{first}
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		if p.peekIs(lexer.RBRACE) {
			break
		}
		p.nextToken()
		e := p.parseExpr(precLowest)
		if e == nil {
			return nil
		}
		elems = append(elems, e)
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	n := &nyast.Set{Elems: elems}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseParamList parses a `(` already-consumed parameter list up to and
// including the closing `)`.
func (p *Parser) parseParamList() []nyast.Param {
	var params []nyast.Param
	if p.peekIs(lexer.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	for {
		name := p.curTok.Value
		param := nyast.Param{Name: name}
		if p.peekIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			param.Type = p.curTok.Value
		}
		if p.peekIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Def = p.parseExpr(precAssign)
		}
		params = append(params, param)
		if p.peekIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	p.expectPeek(lexer.RPAREN)
	return params
}

// parseLambdaExpr parses `|params| expr` or `|params| { block }`.
func (p *Parser) parseLambdaExpr() nyast.Expr {
	start := p.curTok.Span
	var params []nyast.Param
	if p.peekIs(lexer.PIPE) {
		p.nextToken()
	} else {
		p.nextToken()
		for {
			name := p.curTok.Value
			param := nyast.Param{Name: name}
			if p.peekIs(lexer.COLON) {
				p.nextToken()
				p.nextToken()
				param.Type = p.curTok.Value
			}
			params = append(params, param)
			if p.peekIs(lexer.COMMA) {
				p.nextToken()
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(lexer.PIPE) {
			return nil
		}
	}
	p.nextToken()
	if p.curIs(lexer.LBRACE) {
		block := p.parseBlock()
		n := &nyast.Lambda{Params: params, IsBlock: true, BlockBody: block}
		n.SetSpan(mergeSpan(start, block.Span()))
		return n
	}
	body := p.parseExpr(precAssign)
	if body == nil {
		return nil
	}
	n := &nyast.Lambda{Params: params, Body: body}
	n.SetSpan(mergeSpan(start, body.Span()))
	return n
}

// parseFnExpr parses an anonymous or named function value used in
// expression position: `fn (params) { block }` / `fn name(params) { block }`.
func (p *Parser) parseFnExpr() nyast.Expr {
	start := p.curTok.Span
	name := ""
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		name = p.curTok.Value
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	n := &nyast.Fn{Name: name, Params: params, Body: body}
	n.SetSpan(mergeSpan(start, body.Span()))
	return n
}

func (p *Parser) parseInferredMemberExpr() nyast.Expr {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	n := &nyast.InferredMember{Name: name}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

func (p *Parser) parseComptimeExpr() nyast.Expr {
	start := p.curTok.Span
	p.nextToken()
	x := p.parseExpr(precPrefix)
	if x == nil {
		return nil
	}
	n := &nyast.Comptime{X: x}
	n.SetSpan(mergeSpan(start, x.Span()))
	return n
}

func (p *Parser) parseEmbedExpr() nyast.Expr {
	start := p.curTok.Span
	if p.peekIs(lexer.LPAREN) {
		p.nextToken()
		if !p.expectPeek(lexer.STRING) {
			return nil
		}
		path := p.curTok.Value
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		n := &nyast.Embed{Path: path}
		n.SetSpan(mergeSpan(start, p.curTok.Span))
		return n
	}
	if !p.expectPeek(lexer.STRING) {
		return nil
	}
	n := &nyast.Embed{Path: p.curTok.Value}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseAsmExpr parses `asm(constraint, body, operand, ...)`, a rarely
// used escape hatch passed through to LLVM inline asm at codegen time.
func (p *Parser) parseAsmExpr() nyast.Expr {
	start := p.curTok.Span
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.STRING) {
		return nil
	}
	constraint := p.curTok.Value
	if !p.expectPeek(lexer.COMMA) {
		return nil
	}
	if !p.expectPeek(lexer.STRING) {
		return nil
	}
	body := p.curTok.Value
	var operands []nyast.Expr
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		e := p.parseExpr(precLowest)
		if e == nil {
			return nil
		}
		operands = append(operands, e)
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	n := &nyast.Asm{Constraint: constraint, Body: body, Operands: operands}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

func (p *Parser) parseCallArgs() []nyast.CallArg {
	var args []nyast.CallArg
	if p.peekIs(lexer.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	for {
		arg := nyast.CallArg{}
		if p.curIs(lexer.IDENT) && p.peekIs(lexer.COLON) {
			arg.Name = p.curTok.Value
			p.nextToken() // consume ':'
			p.nextToken()
		}
		val := p.parseExpr(precLowest)
		if val == nil {
			return nil
		}
		arg.Val = val
		args = append(args, arg)
		if p.peekIs(lexer.COMMA) {
			p.nextToken()
			if p.peekIs(lexer.RPAREN) {
				break
			}
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseCallExpr(callee nyast.Expr) nyast.Expr {
	start := callee.Span()
	args := p.parseCallArgs()
	n := &nyast.Call{Callee: callee, Args: args}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

func (p *Parser) parseIndexExpr(target nyast.Expr) nyast.Expr {
	start := target.Span()
	p.nextToken()
	idx := p.parseExpr(precLowest)
	if idx == nil {
		return nil
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	n := &nyast.Index{Target: target, Index: idx}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseMemCallExpr lowers `target.name(args)` to a MemCall. Ny has no bare
// field-access expression: every layout field read goes through the
// generated `L.field(obj)` accessor call, so a dot not followed by a call
// is a parse error.
func (p *Parser) parseMemCallExpr(target nyast.Expr) nyast.Expr {
	start := target.Span()
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	if !p.expectPeek(lexer.LPAREN) {
		p.reportError("expected '(' after method name '"+name+"'", p.curTok.Span)
		return nil
	}
	args := p.parseCallArgs()
	n := &nyast.MemCall{Target: target, Name: name, Args: args}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseMatchExpr parses `match subject { pat, pat2 => expr, _ => expr }`
// used in expression position.
func (p *Parser) parseMatchExpr() nyast.Expr {
	start := p.curTok.Span
	p.nextToken()
	subject := p.parseExpr(precLowest)
	if subject == nil {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var arms []nyast.MatchArm
	p.nextToken()
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		var pats []nyast.Expr
		if p.curIs(lexer.IDENT) && p.curTok.Value == "_" {
			pats = append(pats, nyast.NewIdent("_", p.curTok.Span))
			p.nextToken()
		} else {
			for {
				pat := p.parseExpr(precAssign)
				if pat == nil {
					return nil
				}
				pats = append(pats, pat)
				if p.peekIs(lexer.COMMA) {
					p.nextToken()
					p.nextToken()
					continue
				}
				p.nextToken()
				break
			}
		}
		if !p.curIs(lexer.FATARROW) {
			p.reportError("expected '=>' in match arm", p.curTok.Span)
			return nil
		}
		p.nextToken()
		conseq := p.parseExpr(precLowest)
		if conseq == nil {
			return nil
		}
		arms = append(arms, nyast.MatchArm{Patterns: pats, Conseq: conseq})
		p.nextToken()
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	if !p.curIs(lexer.RBRACE) {
		p.reportError("expected '}' to close match", p.curTok.Span)
		return nil
	}
	n := &nyast.Match{Subject: subject, Arms: arms}
	n.SetSpan(mergeSpan(start, p.curTok.Span))
	return n
}

// parseFStringLiteral splits the raw FSTRING token text into literal text
// runs and `{expr}` interpolations, recursively invoking the parser on
// each embedded expression.
func (p *Parser) parseFStringLiteral() nyast.Expr {
	tok := p.curTok
	src := tok.Value
	var parts []nyast.FStringPart
	var textBuf strings.Builder
	i := 0
	for i < len(src) {
		ch := src[i]
		if ch == '{' && i+1 < len(src) && src[i+1] == '{' {
			textBuf.WriteByte('{')
			i += 2
			continue
		}
		if ch == '}' && i+1 < len(src) && src[i+1] == '}' {
			textBuf.WriteByte('}')
			i += 2
			continue
		}
		if ch == '{' {
			if textBuf.Len() > 0 {
				parts = append(parts, nyast.FStringPart{Kind: nyast.FStringText, S: textBuf.String()})
				textBuf.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(src) && depth > 0 {
				if src[j] == '{' {
					depth++
				} else if src[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if depth != 0 {
				p.reportError("unterminated '{' in f-string", tok.Span)
				break
			}
			sub := src[i+1 : j]
			subParser := New(sub, p.filename)
			e := subParser.parseExpr(precLowest)
			if e != nil {
				parts = append(parts, nyast.FStringPart{Kind: nyast.FStringExpr, E: e})
			}
			p.errors = append(p.errors, subParser.Errors()...)
			i = j + 1
			continue
		}
		textBuf.WriteByte(ch)
		i++
	}
	if textBuf.Len() > 0 {
		parts = append(parts, nyast.FStringPart{Kind: nyast.FStringText, S: textBuf.String()})
	}
	n := &nyast.FString{Parts: parts}
	n.SetSpan(tok.Span)
	return n
}
