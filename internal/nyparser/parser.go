// Package nyparser implements a Pratt-style recursive descent parser for
// Ny, grounded in the teacher's internal/parser architecture (prefix/infix
// dispatch tables, a two-token curTok/peekTok lookahead window, monotonic
// span composition, append-only diagnostic accumulation with panic-mode
// statement recovery) but targeting internal/nyast instead of the
// teacher's own ast package.
package nyparser

import (
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/lexer"
	"github.com/nytrix-lang/nytrix/internal/nyast"
)

type (
	prefixParseFn func() nyast.Expr
	infixParseFn  func(nyast.Expr) nyast.Expr
)

const (
	precLowest = iota
	precAssign
	precTernary
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precShift
	precSum
	precProduct
	precPrefix
	precPostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:    precAssign,
	lexer.QUESTION:  precTernary,
	lexer.OR:        precOr,
	lexer.AND:       precAnd,
	lexer.PIPE:      precBitOr,
	lexer.CARET:     precBitXor,
	lexer.AMPERSAND: precBitAnd,
	lexer.EQ:        precEquality,
	lexer.NOT_EQ:    precEquality,
	lexer.LT:        precComparison,
	lexer.LE:        precComparison,
	lexer.GT:        precComparison,
	lexer.GE:        precComparison,
	lexer.SHL:       precShift,
	lexer.SHR:       precShift,
	lexer.PLUS:      precSum,
	lexer.MINUS:     precSum,
	lexer.ASTERISK:  precProduct,
	lexer.SLASH:     precProduct,
	lexer.PERCENT:   precProduct,
	lexer.LPAREN:    precPostfix,
	lexer.LBRACKET:  precPostfix,
	lexer.DOT:       precPostfix,
}

// ParseError captures a recoverable parsing error with location context,
// mirroring the teacher's own ParseError shape.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Severity diag.Severity
}

// Parser is a Pratt-style recursive descent parser over Ny source.
//
// Invariants (kept identical to the teacher's internal/parser so the same
// mental model transfers):
//   - curTok always reflects the token under examination; peekTok mirrors
//     the next token pulled from the lexer. Both are only ever mutated
//     through nextToken.
//   - errors is an append-only accumulator; callers consult Errors() after
//     ParseProgram.
//   - node spans are monotonic and composed via mergeSpan.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	filename string
	errors   []ParseError

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialized over the given Ny source text.
func New(input string, filename string) *Parser {
	p := &Parser{
		lx:        lexer.New(input),
		filename:  filename,
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentExpr)
	p.registerPrefix(lexer.INT, p.parseIntLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.FSTRING, p.parseFStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NIL, p.parseNoneLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.TILDE, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedOrTupleExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseListExpr)
	p.registerPrefix(lexer.LBRACE, p.parseDictOrSetExpr)
	p.registerPrefix(lexer.PIPE, p.parseLambdaExpr)
	p.registerPrefix(lexer.FN, p.parseFnExpr)
	p.registerPrefix(lexer.MATCH, p.parseMatchExpr)
	p.registerPrefix(lexer.DOT, p.parseInferredMemberExpr)
	p.registerPrefix(lexer.COMPTIME, p.parseComptimeExpr)
	p.registerPrefix(lexer.EMBED, p.parseEmbedExpr)
	p.registerPrefix(lexer.ASM, p.parseAsmExpr)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	p.registerInfix(lexer.QUESTION, p.parseTernaryExpr)
	p.registerInfix(lexer.OR, p.parseLogicalExpr)
	p.registerInfix(lexer.AND, p.parseLogicalExpr)
	p.registerInfix(lexer.PLUS, p.parseBinaryExpr)
	p.registerInfix(lexer.MINUS, p.parseBinaryExpr)
	p.registerInfix(lexer.ASTERISK, p.parseBinaryExpr)
	p.registerInfix(lexer.SLASH, p.parseBinaryExpr)
	p.registerInfix(lexer.PERCENT, p.parseBinaryExpr)
	p.registerInfix(lexer.AMPERSAND, p.parseBinaryExpr)
	p.registerInfix(lexer.PIPE, p.parseBinaryExpr)
	p.registerInfix(lexer.CARET, p.parseBinaryExpr)
	p.registerInfix(lexer.SHL, p.parseBinaryExpr)
	p.registerInfix(lexer.SHR, p.parseBinaryExpr)
	p.registerInfix(lexer.EQ, p.parseBinaryExpr)
	p.registerInfix(lexer.NOT_EQ, p.parseBinaryExpr)
	p.registerInfix(lexer.LT, p.parseBinaryExpr)
	p.registerInfix(lexer.LE, p.parseBinaryExpr)
	p.registerInfix(lexer.GT, p.parseBinaryExpr)
	p.registerInfix(lexer.GE, p.parseBinaryExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpr)
	p.registerInfix(lexer.DOT, p.parseMemCallExpr)

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every recoverable parse error encountered so far.
func (p *Parser) Errors() []ParseError { return p.errors }

// ParseProgram parses a full Ny compilation unit as the body of a
// synthetic top-level module, matching what Driver.CompileModule expects.
func (p *Parser) ParseProgram() *nyast.Module {
	start := p.curTok.Span
	stmts := p.parseStmtsUntil(lexer.EOF)
	return nyast.NewModule("main", stmts, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
}

func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curTok.Type == tt }
func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekTok.Type == tt }

// expectPeek asserts the peek token matches tt; on success it advances so
// curTok becomes that token.
func (p *Parser) expectPeek(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}
	p.reportError("expected '"+string(tt)+"', found '"+string(p.peekTok.Type)+"'", p.peekTok.Span)
	return false
}

// skipOptionalSemicolon consumes a trailing semicolon if present; Ny statements do
// not require them.
func (p *Parser) skipOptionalSemicolon() {
	if p.curIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) spanWithFilename(span lexer.Span) lexer.Span {
	if span.Filename == "" {
		span.Filename = p.filename
	}
	return span
}

func (p *Parser) reportError(msg string, span lexer.Span) {
	p.errors = append(p.errors, ParseError{
		Message:  msg,
		Span:     p.spanWithFilename(span),
		Severity: diag.SeverityError,
	})
}

// recoverStatement skips tokens until a plausible statement boundary so a
// single malformed statement does not cascade into endless errors.
func (p *Parser) recoverStatement(prev lexer.Token) {
	if p.curIs(lexer.EOF) {
		return
	}
	if p.curTok.Type == prev.Type && p.curTok.Span.Start == prev.Span.Start {
		p.nextToken()
	}
	for !p.curIs(lexer.EOF) {
		switch p.curTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			return
		case lexer.RBRACE:
			return
		}
		if isStmtStart(p.curTok.Type) {
			return
		}
		p.nextToken()
	}
}

func isStmtStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.VAR, lexer.CONST, lexer.FN, lexer.IF, lexer.WHILE, lexer.FOR,
		lexer.RETURN, lexer.BREAK, lexer.CONTINUE, lexer.DEFER, lexer.TRY,
		lexer.MATCH, lexer.MODULE, lexer.EXPORT, lexer.USE, lexer.LAYOUT, lexer.GOTO:
		return true
	default:
		return false
	}
}

// mergeSpan assumes start.End <= end.End and returns a span covering both,
// matching the teacher's monotonic span composition discipline.
func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start
	if span.Filename == "" {
		span.Filename = end.Filename
	}
	if end.End > span.End {
		span.End = end.End
	}
	return span
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) { p.prefixFns[tt] = fn }
func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn)   { p.infixFns[tt] = fn }

func peekPrecedence(p *Parser) int {
	if pr, ok := precedences[p.peekTok.Type]; ok {
		return pr
	}
	return precLowest
}

func curPrecedence(p *Parser) int {
	if pr, ok := precedences[p.curTok.Type]; ok {
		return pr
	}
	return precLowest
}
