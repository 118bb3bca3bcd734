package nyparser

import (
	"github.com/nytrix-lang/nytrix/internal/lexer"
	"github.com/nytrix-lang/nytrix/internal/nyast"
)

// parseStmtsUntil parses statements until curTok is the given closing token
// (or EOF), which is left unconsumed for the caller to check/consume.
func (p *Parser) parseStmtsUntil(closing lexer.TokenType) []nyast.Stmt {
	var stmts []nyast.Stmt
	for !p.curIs(closing) && !p.curIs(lexer.EOF) {
		prev := p.curTok
		s := p.parseStmt()
		if s == nil {
			p.recoverStatement(prev)
			continue
		}
		stmts = append(stmts, s)
		if p.curTok.Type == prev.Type && p.curTok.Span.Start == prev.Span.Start {
			// parseStmt made no progress; force advance to avoid looping.
			p.nextToken()
		}
	}
	return stmts
}

// parseBlock parses a brace-delimited statement list; curTok must be '{'.
func (p *Parser) parseBlock() *nyast.Block {
	start := p.curTok.Span
	p.nextToken()
	stmts := p.parseStmtsUntil(lexer.RBRACE)
	end := p.curTok.Span
	if !p.curIs(lexer.RBRACE) {
		p.reportError("expected '}' to close block", p.curTok.Span)
	} else {
		p.nextToken()
	}
	return nyast.NewBlock(stmts, mergeSpan(start, end))
}

func (p *Parser) parseStmt() nyast.Stmt {
	switch p.curTok.Type {
	case lexer.VAR, lexer.CONST:
		return p.parseVarStmt()
	case lexer.FN:
		return p.parseFuncStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.BREAK:
		return p.parseBreakStmt()
	case lexer.CONTINUE:
		return p.parseContinueStmt()
	case lexer.DEFER:
		return p.parseDeferStmt()
	case lexer.GOTO:
		return p.parseGotoStmt()
	case lexer.TRY:
		return p.parseTryStmt()
	case lexer.MATCH:
		return p.parseMatchStmt()
	case lexer.MODULE:
		return p.parseModuleStmt()
	case lexer.EXPORT:
		return p.parseExportStmt()
	case lexer.USE:
		return p.parseUseStmt()
	case lexer.LAYOUT:
		return p.parseLayoutStmt()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IDENT:
		if p.peekIs(lexer.COLON) {
			return p.parseLabelStmt()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseLabelStmt parses `name: stmt`, a goto target attached to the
// statement it precedes. curTok is the label's IDENT.
func (p *Parser) parseLabelStmt() nyast.Stmt {
	start := p.curTok.Span
	name := p.curTok.Value
	p.nextToken() // consume IDENT, curTok is now ':'
	p.nextToken() // consume ':', curTok is now the target statement
	target := p.parseStmt()
	if target == nil {
		p.reportError("expected a statement after label '"+name+":'", p.curTok.Span)
		return nil
	}
	lbl := &nyast.LabelStmt{Name: name, Target: target}
	lbl.SetSpan(mergeSpan(start, target.Span()))
	return lbl
}

func (p *Parser) parseVarStmt() nyast.Stmt {
	start := p.curTok.Span
	isConst := p.curIs(lexer.CONST)
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	typ := ""
	if p.peekIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.curTok.Value
	}
	var value nyast.Expr
	end := p.curTok.Span
	if p.peekIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		value = p.parseExpr(precLowest)
		if value == nil {
			return nil
		}
		end = value.Span()
	}
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Var{Name: name, Type: typ, Value: value, Const: isConst}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func (p *Parser) parseFuncStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	retType := ""
	if p.peekIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		retType = p.curTok.Value
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	n := &nyast.Func{Name: name, ReturnType: retType, Params: params, Body: body}
	n.SetSpan(mergeSpan(start, body.Span()))
	return n
}

// parseIfStmt handles `if cond { } else if cond { } else { }`, desugaring
// the `else if` chain into nested If nodes.
func (p *Parser) parseIfStmt() nyast.Stmt {
	start := p.curTok.Span
	p.nextToken()
	cond := p.parseExpr(precLowest)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	then := p.parseBlock()
	var elseStmt nyast.Stmt
	end := then.Span()
	if p.curIs(lexer.ELSE) {
		if p.peekIs(lexer.IF) {
			p.nextToken()
			elseStmt = p.parseIfStmt()
		} else {
			if !p.expectPeek(lexer.LBRACE) {
				return nil
			}
			elseStmt = p.parseBlock()
		}
		if elseStmt != nil {
			end = elseStmt.Span()
		}
	}
	n := &nyast.If{Cond: cond, Then: then, Else: elseStmt}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func (p *Parser) parseWhileStmt() nyast.Stmt {
	start := p.curTok.Span
	p.nextToken()
	cond := p.parseExpr(precLowest)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	n := &nyast.While{Cond: cond, Body: body}
	n.SetSpan(mergeSpan(start, body.Span()))
	return n
}

// parseForStmt handles `for name in iter { }`.
func (p *Parser) parseForStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	if !p.expectPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	iter := p.parseExpr(precLowest)
	if iter == nil {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	n := &nyast.For{Var: name, Iter: iter, Body: body}
	n.SetSpan(mergeSpan(start, body.Span()))
	return n
}

func (p *Parser) parseReturnStmt() nyast.Stmt {
	start := p.curTok.Span
	end := start
	var value nyast.Expr
	if !p.peekIs(lexer.SEMICOLON) && !p.peekIs(lexer.RBRACE) && !p.peekIs(lexer.EOF) {
		p.nextToken()
		value = p.parseExpr(precLowest)
		if value != nil {
			end = value.Span()
		}
	}
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Return{Value: value}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func (p *Parser) parseBreakStmt() nyast.Stmt {
	start := p.curTok.Span
	label := ""
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		label = p.curTok.Value
	}
	end := p.curTok.Span
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Break{Label: label}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func (p *Parser) parseContinueStmt() nyast.Stmt {
	start := p.curTok.Span
	label := ""
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		label = p.curTok.Value
	}
	end := p.curTok.Span
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Continue{Label: label}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func (p *Parser) parseDeferStmt() nyast.Stmt {
	start := p.curTok.Span
	p.nextToken()
	call := p.parseExpr(precLowest)
	if call == nil {
		return nil
	}
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Defer{Call: call}
	n.SetSpan(mergeSpan(start, call.Span()))
	return n
}

func (p *Parser) parseGotoStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	label := p.curTok.Value
	end := p.curTok.Span
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Goto{Label: label}
	n.SetSpan(mergeSpan(start, end))
	return n
}

// parseTryStmt parses `try { } catch e { } catch e2 { } finally { }`.
func (p *Parser) parseTryStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	var arms []nyast.TryArm
	for p.curIs(lexer.CATCH) {
		p.nextToken()
		var pattern nyast.Expr
		if !p.curIs(lexer.LBRACE) {
			pattern = p.parseExpr(precLowest)
			if pattern == nil {
				return nil
			}
			p.nextToken()
		}
		if !p.curIs(lexer.LBRACE) {
			p.reportError("expected '{' in catch clause", p.curTok.Span)
			return nil
		}
		arm := p.parseBlock()
		arms = append(arms, nyast.TryArm{Pattern: pattern, Body: arm})
	}
	var finally *nyast.Block
	end := body.Span()
	if len(arms) > 0 {
		end = arms[len(arms)-1].Body.Span()
	}
	if p.curIs(lexer.FINALLY) {
		p.nextToken()
		if !p.curIs(lexer.LBRACE) {
			p.reportError("expected '{' in finally clause", p.curTok.Span)
			return nil
		}
		finally = p.parseBlock()
		end = finally.Span()
	}
	n := &nyast.Try{Body: body, Arms: arms, Finally: finally}
	n.SetSpan(mergeSpan(start, end))
	return n
}

// parseMatchStmt parses `match subject { pat => stmt, _ => stmt }` used in
// statement position. Arm bodies may be a block or a single statement.
func (p *Parser) parseMatchStmt() nyast.Stmt {
	start := p.curTok.Span
	p.nextToken()
	subject := p.parseExpr(precLowest)
	if subject == nil {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var arms []nyast.MatchStmtArm
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
		var body nyast.Stmt
		if p.curIs(lexer.LBRACE) {
			body = p.parseBlock()
		} else {
			body = p.parseExprStmt()
		}
		if body == nil {
			return nil
		}
		arms = append(arms, nyast.MatchStmtArm{Patterns: pats, Body: body})
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	end := p.curTok.Span
	if !p.curIs(lexer.RBRACE) {
		p.reportError("expected '}' to close match", p.curTok.Span)
		return nil
	}
	p.nextToken()
	n := &nyast.MatchStmt{Subject: subject, Arms: arms}
	n.SetSpan(mergeSpan(start, end))
	return n
}

// parseModuleStmt parses `module Name { ... }`.
func (p *Parser) parseModuleStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()
	body := p.parseStmtsUntil(lexer.RBRACE)
	end := p.curTok.Span
	if !p.curIs(lexer.RBRACE) {
		p.reportError("expected '}' to close module", p.curTok.Span)
		return nil
	}
	p.nextToken()
	n := nyast.NewModule(name, body, mergeSpan(start, end))
	return n
}

// parseExportStmt parses `export a, b, c;`.
func (p *Parser) parseExportStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	names := []string{p.curTok.Value}
	end := p.curTok.Span
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		names = append(names, p.curTok.Value)
		end = p.curTok.Span
	}
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Export{Names: names}
	n.SetSpan(mergeSpan(start, end))
	return n
}

// parseUseStmt parses `use module;`, `use module as alias;`, and
// `use module { a, b as c };`.
func (p *Parser) parseUseStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	module := p.curTok.Value
	for p.peekIs(lexer.DOT) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		module = module + "." + p.curTok.Value
	}
	end := p.curTok.Span
	alias := ""
	var items []nyast.UseItem
	if p.peekIs(lexer.AS) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		alias = p.curTok.Value
		end = p.curTok.Span
	} else if p.peekIs(lexer.LBRACE) {
		p.nextToken()
		p.nextToken()
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			if !p.curIs(lexer.IDENT) {
				p.reportError("expected identifier in use list", p.curTok.Span)
				return nil
			}
			item := nyast.UseItem{Name: p.curTok.Value}
			if p.peekIs(lexer.AS) {
				p.nextToken()
				if !p.expectPeek(lexer.IDENT) {
					return nil
				}
				item.Alias = p.curTok.Value
			}
			items = append(items, item)
			p.nextToken()
			if p.curIs(lexer.COMMA) {
				p.nextToken()
			}
		}
		end = p.curTok.Span
		if !p.curIs(lexer.RBRACE) {
			p.reportError("expected '}' to close use list", p.curTok.Span)
			return nil
		}
	}
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.Use{Module: module, Items: items, Alias: alias}
	n.SetSpan(mergeSpan(start, end))
	return n
}

// parseLayoutStmt parses `layout Name { field: width, ... }`.
func (p *Parser) parseLayoutStmt() nyast.Stmt {
	start := p.curTok.Span
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := p.curTok.Value
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var fields []nyast.LayoutField
	p.nextToken()
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if !p.curIs(lexer.IDENT) {
			p.reportError("expected field name in layout", p.curTok.Span)
			return nil
		}
		field := nyast.LayoutField{Name: p.curTok.Value}
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		if p.curIs(lexer.INT) {
			field.Width = parseIntLiteralWidth(p.curTok.Value)
		} else {
			field.Type = p.curTok.Value
		}
		fields = append(fields, field)
		p.nextToken()
		if p.curIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	end := p.curTok.Span
	if !p.curIs(lexer.RBRACE) {
		p.reportError("expected '}' to close layout", p.curTok.Span)
		return nil
	}
	p.nextToken()
	n := &nyast.Layout{Name: name, Fields: fields}
	n.SetSpan(mergeSpan(start, end))
	return n
}

func parseIntLiteralWidth(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return n
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

func (p *Parser) parseExprStmt() nyast.Stmt {
	start := p.curTok.Span
	x := p.parseExpr(precLowest)
	if x == nil {
		return nil
	}
	end := x.Span()
	p.nextToken()
	p.skipOptionalSemicolon()
	n := &nyast.ExprStmt{X: x}
	n.SetSpan(mergeSpan(start, end))
	return n
}
