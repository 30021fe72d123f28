package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/clox/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Compiler: single-pass Pratt compiler from source to bytecode
// ---------------------------------------------------------------------------

// MaxNesting bounds how deeply expressions may nest through prefix
// operators, grouping and binary operands. The Pratt handlers recurse once
// per level, so deeper input would exhaust the goroutine stack.
const MaxNesting = 10000

// Compiler turns one expression into a chunk. There is no syntax tree; each
// handler emits bytecode as soon as it has consumed its tokens.
type Compiler struct {
	lexer    *Lexer
	current  Token
	previous Token
	chunk    *bytecode.Chunk
	depth    int // current parsePrecedence nesting

	hadError    bool // sticky for the whole compilation
	panicMode   bool // suppresses reports after the first one
	diagnostics []Diagnostic
}

// Compile compiles source into a chunk ending in OpReturn. On failure the
// chunk is nil and the error is a *CompileError.
func Compile(source string) (*bytecode.Chunk, error) {
	c := &Compiler{
		lexer: NewLexer(source),
		chunk: bytecode.NewChunk(),
	}

	c.advance()
	c.expression()
	c.consume(TokenEOF, "Expect end of expression.")
	c.endCompiler()

	if c.hadError {
		return nil, &CompileError{Diagnostics: c.diagnostics}
	}
	return c.chunk, nil
}

// ---------------------------------------------------------------------------
// Token window
// ---------------------------------------------------------------------------

// advance shifts the window, reporting and skipping lexical error tokens.
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lexer.NextToken()
		if c.current.Type != TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(t TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := Diagnostic{Line: tok.Line, Column: tok.Column, Message: message}
	switch tok.Type {
	case TokenEOF:
		d.Where = "at end"
	case TokenError:
		// the message already describes the lexeme
	default:
		d.Where = fmt.Sprintf("at '%s'", tok.Lexeme)
		d.Lexeme = tok.Lexeme
	}
	c.diagnostics = append(c.diagnostics, d)
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func (c *Compiler) emitOp(op bytecode.Opcode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitOps(ops ...bytecode.Opcode) {
	for _, op := range ops {
		c.emitOp(op)
	}
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	if err := c.chunk.WriteConstant(v, c.previous.Line); err != nil {
		c.error("Too many constants in one chunk.")
	}
}

func (c *Compiler) endCompiler() {
	c.emitOp(bytecode.OpReturn)
}

// ---------------------------------------------------------------------------
// Pratt engine
// ---------------------------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence compiles a prefix expression, then keeps folding infix
// operators for as long as they bind at least as tightly as prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > MaxNesting {
		c.errorAtCurrent("Expression nested too deeply.")
		return
	}

	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	prefix(c)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		getRule(c.previous.Type).infix(c)
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (c *Compiler) number() {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		// The lexer only produces digits with an optional fraction.
		panic(fmt.Sprintf("compiler: internal error: invalid number literal %q: %v", c.previous.Lexeme, err))
	}
	c.emitConstant(bytecode.Number(n))
}

func (c *Compiler) grouping() {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary() {
	operator := c.previous.Type

	c.parsePrecedence(PrecUnary)

	switch operator {
	case TokenMinus:
		c.emitOp(bytecode.OpNegate)
	case TokenBang:
		c.emitOp(bytecode.OpNot)
	}
}

// binary compiles the right operand one level tighter than the operator,
// which makes every binary operator left-associative.
func (c *Compiler) binary() {
	operator := c.previous.Type
	rule := getRule(operator)
	c.parsePrecedence(rule.precedence + 1)

	switch operator {
	case TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case TokenSlash:
		c.emitOp(bytecode.OpDivide)
	case TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case TokenBangEqual:
		c.emitOps(bytecode.OpEqual, bytecode.OpNot)
	case TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case TokenGreaterEqual:
		c.emitOps(bytecode.OpLess, bytecode.OpNot)
	case TokenLess:
		c.emitOp(bytecode.OpLess)
	case TokenLessEqual:
		c.emitOps(bytecode.OpGreater, bytecode.OpNot)
	}
}

func (c *Compiler) literal() {
	switch c.previous.Type {
	case TokenFalse:
		c.emitOp(bytecode.OpFalse)
	case TokenNil:
		c.emitOp(bytecode.OpNil)
	case TokenTrue:
		c.emitOp(bytecode.OpTrue)
	}
}
