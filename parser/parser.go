// Package parser implements a parser for Lox source code.
package parser

import (
	"fmt"
	"io"
	"slices"

	"github.com/loxlang/golox/ast"
	"github.com/loxlang/golox/loxerr"
	"github.com/loxlang/golox/token"
)

const maxArgs = 255

// Parse parses the source code read from r.
// If an error is returned then an incomplete AST will still be returned along with it.
func Parse(r io.Reader) (*ast.Program, error) {
	lexer, err := newLexer(r)
	if err != nil {
		return nil, fmt.Errorf("constructing parser: %s", err)
	}

	p := &parser{lexer: lexer}
	lexer.SetErrorHandler(func(tok token.Token, msg string) {
		p.addError(tok, msg)
	})

	return p.Parse()
}

type parser struct {
	lexer   *lexer
	tok     token.Token // token currently being considered
	nextTok token.Token

	errs       loxerr.Errors
	lastErrPos token.Position
}

// Parse parses the source code and returns the root node of the abstract syntax tree.
// If an error is returned then an incomplete AST will still be returned along with it.
func (p *parser) Parse() (*ast.Program, error) {
	// Populate tok and nextTok.
	p.next()
	p.next()
	start := p.tok.Start()
	stmts := p.parseDeclsUntil(token.EOF)
	program := &ast.Program{
		StartPos: start,
		Stmts:    stmts,
		EndPos:   p.tok.End(),
	}
	return program, p.errs.Err()
}

func (p *parser) parseDeclsUntil(types ...token.Type) []ast.Stmt {
	var stmts []ast.Stmt
	for !slices.Contains(types, p.tok.Type) {
		stmts = append(stmts, p.safelyParseDecl())
	}
	return stmts
}

func (p *parser) safelyParseDecl() (stmt ast.Stmt) {
	from := p.tok
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				to := p.sync()
				stmt = &ast.IllegalStmt{From: from, To: to}
			} else {
				panic(r)
			}
		}
	}()
	return p.parseDecl()
}

// sync synchronises the parser with the next statement. This is used to recover from a parsing error.
// The final token before the next statement is returned.
func (p *parser) sync() token.Token {
	finalTok := p.tok
	for {
		switch p.tok.Type {
		case token.Semicolon:
			finalTok := p.tok
			p.next()
			return finalTok
		case token.Print, token.Var, token.If, token.LeftBrace, token.While, token.For, token.Break, token.Continue,
			token.Return, token.Fun, token.Class, token.Trait, token.EOF:
			return finalTok
		}
		finalTok = p.tok
		p.next()
	}
}

func (p *parser) parseDecl() ast.Stmt {
	switch tok := p.tok; {
	case p.match(token.Var):
		return p.parseVarDecl(tok)
	case p.tok.Type == token.Fun && p.nextTok.Type == token.Ident:
		p.match(token.Fun)
		return p.parseFunDecl(tok)
	case p.match(token.Class):
		return p.parseClassDecl(tok)
	case p.match(token.Trait):
		return p.parseTraitDecl(tok)
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseVarDecl(varTok token.Token) *ast.VarDecl {
	name := p.expectIdent("expected variable name")
	var value ast.Expr
	if p.match(token.Equal) {
		value = p.parseExpr()
	}
	semicolon := p.expect(token.Semicolon)
	return &ast.VarDecl{Var: varTok, Name: name, Initialiser: value, Semicolon: semicolon}
}

func (p *parser) parseFunDecl(funTok token.Token) *ast.FunDecl {
	name := p.expectIdent("expected function name")
	return &ast.FunDecl{
		Fun:      funTok,
		Name:     name,
		Function: p.parseFun(),
	}
}

func (p *parser) parseClassDecl(classTok token.Token) *ast.ClassDecl {
	name := p.expectIdent("expected class name")
	var superclass *ast.Ident
	if p.match(token.Less) {
		superclass = p.expectIdent("expected superclass name")
	}
	p.expect(token.LeftBrace)
	uses := p.parseUses()
	var methods []ast.Stmt
	for {
		method, ok := p.parseMethodDecl()
		if !ok {
			break
		}
		methods = append(methods, method)
	}
	rightBrace := p.expect(token.RightBrace)
	return &ast.ClassDecl{
		Class:      classTok,
		Name:       name,
		Superclass: superclass,
		Uses:       uses,
		Body:       &ast.Block{LeftBrace: classTok, Stmts: methods, RightBrace: rightBrace},
	}
}

func (p *parser) parseTraitDecl(traitTok token.Token) *ast.TraitDecl {
	name := p.expectIdent("expected trait name")
	p.expect(token.LeftBrace)
	uses := p.parseUses()
	var methods []ast.Stmt
	for {
		method, ok := p.parseMethodDecl()
		if !ok {
			break
		}
		methods = append(methods, method)
	}
	rightBrace := p.expect(token.RightBrace)
	return &ast.TraitDecl{
		Trait: traitTok,
		Name:  name,
		Uses:  uses,
		Body:  &ast.Block{LeftBrace: traitTok, Stmts: methods, RightBrace: rightBrace},
	}
}

// parseUses parses the leading "use Trait1, Trait2;" statements of a class or trait body.
func (p *parser) parseUses() []*ast.Ident {
	var uses []*ast.Ident
	for p.match(token.Use) {
		for {
			uses = append(uses, p.expectIdent("expected trait name"))
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.Semicolon)
	}
	return uses
}

func (p *parser) parseMethodDecl() (*ast.MethodDecl, bool) {
	var modifiers []token.Token
	if tok, ok := p.match2(token.Static); ok {
		modifiers = append(modifiers, tok)
	}
	if tok, ok := p.match2(token.Get); ok {
		modifiers = append(modifiers, tok)
	}

	var name *ast.Ident
	if len(modifiers) > 0 {
		name = p.expectIdent("expected method name")
	} else if tok, ok := p.match2(token.Ident); ok {
		name = &ast.Ident{Token: tok}
	} else {
		return nil, false
	}

	return &ast.MethodDecl{
		Modifiers: modifiers,
		Name:      name,
		Function:  p.parseFun(),
	}, true
}

func (p *parser) parseFun() *ast.Function {
	leftParen := p.expect(token.LeftParen)
	var params []*ast.ParamDecl
	if p.tok.Type != token.RightParen {
		params = p.parseParams()
	}
	p.expect(token.RightParen)
	leftBrace := p.expect(token.LeftBrace)
	body := p.parseBlock(leftBrace)
	return &ast.Function{
		LeftParen: leftParen,
		Params:    params,
		Body:      body,
	}
}

func (p *parser) parseParams() []*ast.ParamDecl {
	var params []*ast.ParamDecl
	for {
		name := p.expectIdent("expected parameter name")
		if len(params) >= maxArgs {
			p.addErrorf(name, "can't have more than %d parameters", maxArgs)
		}
		params = append(params, &ast.ParamDecl{Name: name})
		if !p.match(token.Comma) {
			break
		}
	}
	return params
}

func (p *parser) parseStmt() ast.Stmt {
	switch tok := p.tok; {
	case p.match(token.Print):
		return p.parsePrintStmt(tok)
	case p.match(token.LeftBrace):
		return p.parseBlock(tok)
	case p.match(token.If):
		return p.parseIfStmt(tok)
	case p.match(token.While):
		return p.parseWhileStmt(tok)
	case p.match(token.For):
		return p.parseForStmt(tok)
	case p.match(token.Break):
		return p.parseBreakStmt(tok)
	case p.match(token.Continue):
		return p.parseContinueStmt(tok)
	case p.match(token.Return):
		return p.parseReturnStmt(tok)
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	semicolon := p.expect(token.Semicolon)
	return &ast.ExprStmt{Expr: expr, Semicolon: semicolon}
}

func (p *parser) parsePrintStmt(printTok token.Token) *ast.PrintStmt {
	expr := p.parseExpr()
	semicolon := p.expect(token.Semicolon)
	return &ast.PrintStmt{Print: printTok, Expr: expr, Semicolon: semicolon}
}

func (p *parser) parseBlock(leftBrace token.Token) *ast.Block {
	stmts := p.parseDeclsUntil(token.RightBrace, token.EOF)
	rightBrace := p.expect(token.RightBrace)
	return &ast.Block{LeftBrace: leftBrace, Stmts: stmts, RightBrace: rightBrace}
}

func (p *parser) parseIfStmt(ifTok token.Token) *ast.IfStmt {
	p.expect(token.LeftParen)
	condition := p.parseExpr()
	p.expect(token.RightParen)
	thenBranch := p.parseStmt()
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch = p.parseStmt()
	}
	return &ast.IfStmt{If: ifTok, Condition: condition, Then: thenBranch, Else: elseBranch}
}

func (p *parser) parseWhileStmt(whileTok token.Token) *ast.WhileStmt {
	p.expect(token.LeftParen)
	condition := p.parseExpr()
	p.expect(token.RightParen)
	body := p.parseStmt()
	return &ast.WhileStmt{While: whileTok, Condition: condition, Body: body}
}

func (p *parser) parseForStmt(forTok token.Token) *ast.ForStmt {
	p.expect(token.LeftParen)
	var initialise ast.Stmt
	switch tok := p.tok; {
	case p.match(token.Var):
		initialise = p.parseVarDecl(tok)
	case p.match(token.Semicolon):
	default:
		initialise = p.parseExprStmt()
	}
	var condition ast.Expr
	if !p.match(token.Semicolon) {
		condition = p.parseExpr()
		p.expect(token.Semicolon)
	}
	var update ast.Expr
	if p.tok.Type != token.RightParen {
		update = p.parseExpr()
	}
	p.expect(token.RightParen)
	body := p.parseStmt()
	return &ast.ForStmt{For: forTok, Initialise: initialise, Condition: condition, Update: update, Body: body}
}

func (p *parser) parseBreakStmt(breakTok token.Token) *ast.BreakStmt {
	semicolon := p.expect(token.Semicolon)
	return &ast.BreakStmt{Break: breakTok, Semicolon: semicolon}
}

func (p *parser) parseContinueStmt(continueTok token.Token) *ast.ContinueStmt {
	semicolon := p.expect(token.Semicolon)
	return &ast.ContinueStmt{Continue: continueTok, Semicolon: semicolon}
}

func (p *parser) parseReturnStmt(returnTok token.Token) *ast.ReturnStmt {
	semicolon, ok := p.match2(token.Semicolon)
	var value ast.Expr
	if !ok {
		value = p.parseExpr()
		semicolon = p.expect(token.Semicolon)
	}
	return &ast.ReturnStmt{Return: returnTok, Value: value, Semicolon: semicolon}
}

// parseExpr parses the comma operator, the lowest precedence expression.
func (p *parser) parseExpr() ast.Expr {
	return p.parseCommaExpr()
}

func (p *parser) parseCommaExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseAssignmentExpr, token.Comma)
}

func (p *parser) parseAssignmentExpr() ast.Expr {
	expr := p.parseTernaryExpr()
	if equal, ok := p.match2(token.Equal); ok {
		switch left := expr.(type) {
		case *ast.IdentExpr:
			right := p.parseAssignmentExpr()
			expr = &ast.AssignmentExpr{
				Left:  left.Ident,
				Right: right,
			}
		case *ast.PropertyExpr:
			right := p.parseAssignmentExpr()
			expr = &ast.PropertySetExpr{
				Object: left.Object,
				Name:   left.Name,
				Value:  right,
			}
		default:
			p.addError(equal, "invalid assignment target")
		}
	}
	return expr
}

func (p *parser) parseTernaryExpr() ast.Expr {
	expr := p.parseLogicalOrExpr()
	if p.match(token.Question) {
		then := p.parseExpr()
		p.expect(token.Colon)
		elseExpr := p.parseTernaryExpr()
		expr = &ast.TernaryExpr{
			Condition: expr,
			Then:      then,
			Else:      elseExpr,
		}
	}
	return expr
}

func (p *parser) parseLogicalOrExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseLogicalAndExpr, token.Or)
}

func (p *parser) parseLogicalAndExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseEqualityExpr, token.And)
}

func (p *parser) parseEqualityExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseRelationalExpr, token.EqualEqual, token.BangEqual)
}

func (p *parser) parseRelationalExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseAdditiveExpr, token.Less, token.LessEqual, token.Greater, token.GreaterEqual)
}

func (p *parser) parseAdditiveExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseMultiplicativeExpr, token.Plus, token.Minus)
}

func (p *parser) parseMultiplicativeExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseUnaryExpr, token.Asterisk, token.Slash)
}

// parseBinaryExpr parses a binary expression which uses the given operators. next is a function which parses an
// expression of next highest precedence.
func (p *parser) parseBinaryExpr(next func() ast.Expr, operators ...token.Type) ast.Expr {
	expr := next()
	for {
		op, ok := p.match2(operators...)
		if !ok {
			break
		}
		right := next()
		expr = &ast.BinaryExpr{
			Left:  expr,
			Op:    op,
			Right: right,
		}
	}
	return expr
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if op, ok := p.match2(token.Bang, token.Minus); ok {
		right := p.parseUnaryExpr()
		return &ast.UnaryExpr{
			Op:    op,
			Right: right,
		}
	}
	return p.parseCallExpr()
}

func (p *parser) parseCallExpr() ast.Expr {
	expr := p.parsePrimaryExpr()
	for {
		switch {
		case p.match(token.LeftParen):
			var args []ast.Expr
			var commas []token.Token
			rightParen, ok := p.match2(token.RightParen)
			if !ok {
				args, commas = p.parseArgs()
				rightParen = p.expect(token.RightParen)
			}
			expr = &ast.CallExpr{
				Callee:     expr,
				Args:       args,
				Commas:     commas,
				RightParen: rightParen,
			}
		case p.match(token.Dot):
			name := p.expectIdent("expected property name")
			expr = &ast.PropertyExpr{
				Object: expr,
				Name:   name,
			}
		default:
			return expr
		}
	}
}

func (p *parser) parseArgs() ([]ast.Expr, []token.Token) {
	var args []ast.Expr
	var commas []token.Token
	for {
		args = append(args, p.parseAssignmentExpr())
		if len(args) > maxArgs {
			p.addErrorf(p.tok, "can't have more than %d arguments", maxArgs)
		}
		comma, ok := p.match2(token.Comma)
		if !ok {
			break
		}
		commas = append(commas, comma)
	}
	return args, commas
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch tok := p.tok; {
	case p.match(token.Number, token.String, token.True, token.False, token.Nil):
		return &ast.LiteralExpr{Value: tok}
	case p.match(token.Ident):
		return &ast.IdentExpr{Ident: &ast.Ident{Token: tok}}
	case p.match(token.This):
		return &ast.ThisExpr{This: tok}
	case p.match(token.Super):
		dot := p.expect(token.Dot)
		method := p.expectIdent("expected superclass method name")
		return &ast.SuperExpr{Super: tok, Dot: dot, Method: method}
	case p.match(token.Fun):
		return p.parseFunExpr(tok)
	case p.match(token.LeftParen):
		expr := p.parseExpr()
		rightParen := p.expect(token.RightParen)
		return &ast.GroupExpr{LeftParen: tok, Expr: expr, RightParen: rightParen}
	// Error productions: a binary operator with no left operand.
	case p.match(token.EqualEqual, token.BangEqual, token.Less, token.LessEqual, token.Greater, token.GreaterEqual,
		token.Asterisk, token.Slash, token.Plus):
		p.addErrorf(tok, "binary operator %m must have left and right operands", tok.Type)
		var right ast.Expr
		switch tok.Type {
		case token.EqualEqual, token.BangEqual:
			right = p.parseEqualityExpr()
		case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
			right = p.parseRelationalExpr()
		case token.Plus:
			right = p.parseMultiplicativeExpr()
		case token.Asterisk, token.Slash:
			right = p.parseUnaryExpr()
		}
		return &ast.BinaryExpr{
			Op:    tok,
			Right: right,
		}
	default:
		p.addError(tok, "expected expression")
		panic(unwind{})
	}
}

func (p *parser) parseFunExpr(funTok token.Token) *ast.FunExpr {
	return &ast.FunExpr{
		Fun:      funTok,
		Function: p.parseFun(),
	}
}

// match reports whether the current token is one of the given types and advances the parser if so.
func (p *parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.tok.Type == t {
			p.next()
			return true
		}
	}
	return false
}

// match2 is like match but also returns the matched token.
func (p *parser) match2(types ...token.Type) (token.Token, bool) {
	tok := p.tok
	return tok, p.match(types...)
}

// expect returns the current token and advances the parser if it has the given type. Otherwise, an "expected %m"
// error is added and the method panics to unwind the stack.
func (p *parser) expect(t token.Type) token.Token {
	return p.expectf(t, "expected %m", t)
}

// expectf is like expect but accepts a format string for the error message.
func (p *parser) expectf(t token.Type, format string, a ...any) token.Token {
	if p.tok.Type == t {
		tok := p.tok
		p.next()
		return tok
	}
	p.addErrorf(p.tok, format, a...)
	panic(unwind{})
}

// expectIdent expects an identifier and returns it wrapped in an *ast.Ident.
func (p *parser) expectIdent(msg string) *ast.Ident {
	tok := p.expectf(token.Ident, "%s", msg)
	return &ast.Ident{Token: tok}
}

// next advances the parser to the next token.
func (p *parser) next() {
	p.tok = p.nextTok
	p.nextTok = p.lexer.Next()
}

func (p *parser) addError(rang token.Range, message string) {
	p.addErrorf(rang, "%s", message)
}

func (p *parser) addErrorf(rang token.Range, format string, args ...any) {
	start := rang.Start()
	if len(p.errs) > 0 && start == p.lastErrPos {
		return
	}
	p.lastErrPos = start
	p.errs.Addf(rang, format, args...)
}

// unwind is used as a panic value so that we can unwind the stack and recover from a parsing error without having to
// check for errors after every call to each parsing method.
type unwind struct{}
