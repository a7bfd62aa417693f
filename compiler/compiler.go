// This package contains the parser and compiler for Lox. A Pratt parser is used to parse expressions,
// Each token maps to a particular infix and prefix parsing rule with its presedence level.
package compiler

import (
	"fmt"

	"lox/token"
)

// Precedence levels for the grammar's rules, ordered from lowest to highest.
// Highest rules will be parsed and compiled before lower presedence rules.
const (
	PREC_NONE       = iota // LOWEST PRESEDENCE
	PREC_ASSIGNMENT
	PREC_OR
	PREC_AND
	PREC_EQUALITY   // ==, !=
	PREC_COMPARISON // <, >, <=, >=
	PREC_TERM       // +,-
	PREC_FACTOR     // /,*
	PREC_UNARY      // !, - // HIGHEST PRESEDENCE
)

type ParseFunc func(*Compiler)

// Defines the parsing behavior for a specific token type.
// It contains optional prefix and infix parsing functions, and the precedence level of the token.
type parseRule struct {
	prefix     ParseFunc
	infix      ParseFunc
	precedence int
}

// Compiler compiles a stream of `Token`s directly into `Bytecode`, without
// building an AST first. It only understands expressions, matching the
// bytecode path's data flow: source -> Scanner -> Compiler -> Chunk -> VM,
// with no parser or resolver stage.
type Compiler struct {
	bytecode     Bytecode
	readPosition int32

	totalTokens  int32
	tokens       []token.Token
	currentTok   token.Token
	nextTok      token.Token
	parsingRules map[token.TokenType]parseRule
}

// Creates a `Compiler` instance and returns
// a pointer to it.
func New(tokens []token.Token) *Compiler {
	c := &Compiler{
		bytecode: Bytecode{
			Instructions:  Instructions{},
			ConstantsPool: []any{},
		},
		totalTokens: int32(len(tokens)),
		tokens:      tokens,

		parsingRules: map[token.TokenType]parseRule{
			token.ADD:          {prefix: nil, infix: (*Compiler).binary, precedence: PREC_TERM},
			token.SUB:          {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PREC_TERM},
			token.DIV:          {prefix: nil, infix: (*Compiler).binary, precedence: PREC_FACTOR},
			token.MULT:         {prefix: nil, infix: (*Compiler).binary, precedence: PREC_FACTOR},
			token.BANG:         {prefix: (*Compiler).unary, infix: nil, precedence: PREC_NONE},
			token.EQUAL_EQUAL:  {prefix: nil, infix: (*Compiler).binary, precedence: PREC_EQUALITY},
			token.NOT_EQUAL:    {prefix: nil, infix: (*Compiler).binary, precedence: PREC_EQUALITY},
			token.LESS:         {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LESS_EQUAL:   {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LARGER:       {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LARGER_EQUAL: {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.AND:          {prefix: nil, infix: (*Compiler).binary, precedence: PREC_AND},
			token.OR:           {prefix: nil, infix: (*Compiler).binary, precedence: PREC_OR},
			token.INT:          {prefix: (*Compiler).number, infix: nil, precedence: PREC_NONE},
			token.FLOAT:        {prefix: (*Compiler).number, infix: nil, precedence: PREC_NONE},
			token.STRING:       {prefix: (*Compiler).stringLiteral, infix: nil, precedence: PREC_NONE},
			token.TRUE:         {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
			token.FALSE:        {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
			token.NULL:         {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
			token.LPA:          {prefix: (*Compiler).grouping, infix: nil, precedence: PREC_NONE},
		},
	}
	return c
}

// Compiles a stream of `Token`s into `Bytecode`
func (c *Compiler) Compile() (Bytecode, error) {

	err := c.expression()
	if err != nil {
		return c.bytecode, err
	}
	// Anything left over after a complete expression (e.g. "5 5") is a
	// syntax error, not trailing input to silently ignore.
	if !c.isFinished() && c.nextTok.TokenType != token.EOF {
		return c.bytecode, SemanticError{Message: "Invalid syntax"}
	}
	c.emit(OP_END)
	return c.bytecode, nil
}

// advances the parser to the next token if the next tokens type
// matches the provided `tokenType`. If it does not, a panic is raised
// which is basically a syntax error
func (c *Compiler) consume(tokenType token.TokenType, errorMsg string) {
	if c.nextTok.TokenType == tokenType {
		c.advance()
		return
	}
	panic(errorMsg)
}

// Retrieves the parsing rule associated with the given token type.
// It returns a valid `parseRuleâ€œ, or an invalid `parseRule` if a `parseRule`
// was not found for the `TokenType`.
func (c *Compiler) getParseRule(tokenType token.TokenType) parseRule {
	rule, ok := c.parsingRules[tokenType]
	if !ok {
		return parseRule{prefix: nil, infix: nil}
	}

	return rule
}

// begins parsing an expression from the assignment presedence level
// A `SemanticError` is returned if an error occurs.
func (c *Compiler) expression() (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case string:
				err = SemanticError{
					Message: v,
				}
			}
		}
	}()
	c.parsePresedence(PREC_ASSIGNMENT)
	return nil
}

// Parses expressions with the provided precedence level.
// It advances the token stream, applies the parse rule, and continues while
// the next token precedence is higher or equal.
func (c *Compiler) parsePresedence(presedence int) {
	c.advance()

	rule := c.getParseRule(c.currentTok.TokenType)
	if rule.prefix == nil {
		panic("Expected expression")
	}

	rule.prefix(c)

	for c.getParseRule(c.nextTok.TokenType).precedence >= presedence && !c.isFinished() {
		c.advance()
		rule := c.getParseRule(c.currentTok.TokenType)
		if rule.infix == nil {
			// Any token sequence without a valid infix or separator rule between them is invalid.
			// for example, two identifiers like x y or two numbers like 5 5 would be considered
			// invalid in the grammar. An infix rule is expected after a valid left-hand expression
			panic("Invalid syntax")
		}
		rule.infix(c)
	}
}

// Handles paranthesized expressions.
func (c *Compiler) grouping() {
	err := c.expression()
	if err != nil {
		panic(err.Error())
	}
	c.consume(token.RPA, "invalid syntax. Perhaps you forgot ')'?")
}

// Parses and emits code for binary operators (+, -, *, /, comparisons,
// equality and logical and/or).
// It parses the right-hand operand with higher precedence and
// emits the corresponding bytecode for the operator. The "not quite equal"
// operators (!=, <=, >=) are not compiled to OP_NOT_EQUAL, OP_LESS_EQUAL or
// OP_LARGER_EQUAL: each compiles to its strict counterpart followed by Not,
// the same way this dialect's unary "!" negates any other boolean result.
func (c *Compiler) binary() {
	operator := c.currentTok
	rule := c.getParseRule(operator.TokenType)
	// +1 because each binary operator's right-hand presedence is one
	// level higher than its own
	c.parsePresedence(rule.precedence + 1) // compile right hand expression (operand) first
	switch operator.TokenType {
	case token.SUB:
		c.emit(OP_SUBTRACT)
	case token.ADD:
		c.emit(OP_ADD)
	case token.MULT:
		c.emit(OP_MULTIPLY)
	case token.DIV:
		c.emit(OP_DIVIDE)
	case token.EQUAL_EQUAL:
		c.emit(OP_EQUALITY)
	case token.NOT_EQUAL:
		c.emit(OP_EQUALITY)
		c.emit(OP_NOT)
	case token.LESS:
		c.emit(OP_LESS)
	case token.LARGER_EQUAL:
		c.emit(OP_LESS)
		c.emit(OP_NOT)
	case token.LARGER:
		c.emit(OP_LARGER)
	case token.LESS_EQUAL:
		c.emit(OP_LARGER)
		c.emit(OP_NOT)
	case token.AND:
		c.emit(OP_AND)
	case token.OR:
		c.emit(OP_OR)
	}
}

// Parses and emits code for unary operators (!,-).
// It parses the operand and emits the appropriate bytecode for the unary operation.
func (c *Compiler) unary() {
	tokenType := c.currentTok.TokenType
	c.parsePresedence(PREC_UNARY) // compile right hand expression (oparand) first
	switch tokenType {
	case token.SUB:
		c.emit(OP_NEGATE)
	case token.BANG:
		c.emit(OP_NOT)
	default:
		return

	}
}

// stringLiteral compiles a string literal by appending it to the chunk's
// string heap and emitting a constant that references it.
func (c *Compiler) stringLiteral() {
	c.bytecode.Heap = append(c.bytecode.Heap, fmt.Sprint(c.currentTok.Literal))
	c.addConstant(HeapRef(len(c.bytecode.Heap) - 1))
}

// literal compiles the zero-operand keyword literals true, false and nil.
func (c *Compiler) literal() {
	switch c.currentTok.TokenType {
	case token.TRUE:
		c.emit(OP_TRUE)
	case token.FALSE:
		c.emit(OP_FALSE)
	case token.NULL:
		c.emit(OP_NIL)
	}
}

// parses integer and floating-point literals and emits their
// bytecode representation
func (c *Compiler) number() {
	tokenType := c.currentTok.TokenType
	switch tokenType {
	case token.INT:
		c.handleNumber(c.currentTok)
	case token.FLOAT:
		c.handleNumber(c.currentTok)
	}
}

// isFinished returns true if the parser has reached the end of token stream (EOF).
func (c *Compiler) isFinished() bool {
	return c.currentTok.TokenType == token.EOF
}

// advance moves the parser to the next token in the input stream.
// It updates currentTok and nextTok accordingly.
func (c *Compiler) advance() {

	if c.isFinished() {
		return
	}
	c.currentTok = c.tokens[c.readPosition]
	c.readPosition++
	if c.readPosition < c.totalTokens {
		c.nextTok = c.tokens[c.readPosition]
	} else {
		// currentTok is the trailing EOF token; pin nextTok there too so a
		// truncated expression fails with a syntax error, not an index panic.
		c.nextTok = c.currentTok
	}
}

// Processes a numeric token into a bytecode instruction.
func (c *Compiler) handleNumber(token token.Token) {
	switch value := token.Literal.(type) {
	case float64:
		c.addConstant(value)
	case int64:
		c.addConstant(value)
	}
}

// Appends a value to the compiler's constant pool and emits an
// `OP_CONSTANT` instruction that references the index of the newly added constant.
// This allows the constant to be used during runtime.
func (c *Compiler) addConstant(value any) {
	c.bytecode.ConstantsPool = append(c.bytecode.ConstantsPool, value)
	index := len(c.bytecode.ConstantsPool) - 1
	c.emit(OP_CONSTANT, index)
}

// Constructs a bytecode instruction from the given opcode and operands,
// then appends the resulting instruction bytes to the compiler's instruction
// stream. This is the low-level mechanism for building the VM instructions.
// Every byte of the instruction is recorded against the current token's
// source line, so a runtime error deep in the chunk can still be reported
// against a line of source.
func (c *Compiler) emit(opcode Opcode, operands ...int) {
	instruction, _ := AssembleInstruction(opcode, operands...)
	for range instruction {
		c.bytecode.Lines.Push(c.currentTok.Line)
	}
	c.bytecode.Instructions = append(c.bytecode.Instructions, instruction...)
}
