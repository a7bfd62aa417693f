package interpreter

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"lox/ast"
	"lox/token"
)

// TreeWalkInterpreter executes parsed statements and evaluates expressions.
type TreeWalkInterpreter struct {
	globals     *Environment
	environment *Environment
}

// Make creates an instance of a tree-walking interpreter with its native
// functions already installed in the global scope.
func Make() *TreeWalkInterpreter {
	globals := NewEnvironment()
	defineGlobals(globals)
	return &TreeWalkInterpreter{
		globals:     globals,
		environment: globals,
	}
}

// Interpret executes a list of statements. It recovers from panics so a
// runtime error is reported to the caller instead of crashing the process.
// The resolver rejects "return outside a function" before this ever runs,
// so a returnSignal escaping all the way here can only mean one slipped
// past resolution; per spec §7 it is reported as an ordinary runtime error
// rather than silently printed.
func (i *TreeWalkInterpreter) Interpret(statements []ast.Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(returnSignal); ok {
				err = RuntimeError{Message: "return outside function"}
				return
			}
			if runtimeErr, ok := r.(RuntimeError); ok {
				err = runtimeErr
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	i.executeStatements(statements)
	return nil
}

func (i *TreeWalkInterpreter) executeStatements(statements []ast.Stmt) {
	for _, s := range statements {
		s.Accept(i)
	}
}

func (i *TreeWalkInterpreter) executeStmt(stmt ast.Stmt) {
	stmt.Accept(i)
}

// executeBlock runs statements inside env, restoring the interpreter's
// previous environment when it's done, panic or not.
func (i *TreeWalkInterpreter) executeBlock(statements []ast.Stmt, env *Environment) {
	previous := i.environment
	i.environment = env
	defer func() { i.environment = previous }()
	i.executeStatements(statements)
}

func (i *TreeWalkInterpreter) VisitBlockStmt(blockStmt *ast.BlockStmt) any {
	i.executeBlock(blockStmt.Statements, i.environment.Descend())
	return nil
}

func (i *TreeWalkInterpreter) VisitExpressionStmt(exprStatement *ast.ExpressionStmt) any {
	i.evaluate(exprStatement.Expression)
	return nil
}

func (i *TreeWalkInterpreter) VisitIfStmt(stmt *ast.IfStmt) any {
	if i.isTrue(i.evaluate(stmt.Condition)) {
		i.executeStmt(stmt.Then)
	} else if stmt.Else != nil {
		i.executeStmt(stmt.Else)
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitWhileStmt(stmt *ast.WhileStmt) any {
	for i.isTrue(i.evaluate(stmt.Condition)) {
		i.executeStmt(stmt.Body)
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitPrintStmt(printStmt *ast.PrintStmt) any {
	value := i.evaluate(printStmt.Expression)
	if value == nil {
		fmt.Println("nil")
		return nil
	}
	fmt.Println(value)
	return nil
}

func (i *TreeWalkInterpreter) VisitVarStmt(varStmt *ast.VarStmt) any {
	var value any = nil
	if varStmt.Initializer != nil {
		value = i.evaluate(varStmt.Initializer)
	}
	i.environment.define(varStmt.Name.Lexeme, value)
	return nil
}

// VisitFunctionStmt declares a function in the current environment,
// binding its own name to a Function closing over this exact scope, so
// that a later call sees whatever the surrounding scope looks like at
// call time, including any of its own siblings declared afterward.
func (i *TreeWalkInterpreter) VisitFunctionStmt(stmt *ast.Function) any {
	function := newFunction(stmt, i.environment, false)
	i.environment.define(stmt.Name.Lexeme, function)
	return nil
}

func (i *TreeWalkInterpreter) VisitReturnStmt(stmt *ast.Return) any {
	var value any
	if stmt.Value != nil {
		value = i.evaluate(stmt.Value)
	}
	panic(returnSignal{value: value})
}

func (i *TreeWalkInterpreter) VisitClassStmt(stmt *ast.Class) any {
	i.environment.define(stmt.Name.Lexeme, nil)

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, method := range stmt.Methods {
		isInitializer := method.Name.Lexeme == initializerName
		methods[method.Name.Lexeme] = newFunction(method, i.environment, isInitializer)
	}

	class := newClass(stmt.Name.Lexeme, methods)
	if err := i.environment.assign(stmt.Name, class); err != nil {
		panic(err)
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitAssignExpression(assign *ast.Assign) any {
	value := i.evaluate(assign.Value)
	if assign.Depth != nil {
		i.environment.assignAt(*assign.Depth, assign.Name.Lexeme, value)
		return value
	}
	if err := i.globals.assign(assign.Name, value); err != nil {
		panic(err)
	}
	return value
}

func (i *TreeWalkInterpreter) VisitLogicalExpression(expr *ast.Logical) any {
	left := i.evaluate(expr.Left)
	if expr.Operator.TokenType == token.OR {
		if i.isTrue(left) {
			return left
		}
	} else if !i.isTrue(left) {
		return left
	}
	return i.evaluate(expr.Right)
}

func (i *TreeWalkInterpreter) VisitCallExpression(call *ast.Call) any {
	callee := i.evaluate(call.Callee)

	arguments := make([]any, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		arguments = append(arguments, i.evaluate(arg))
	}

	function, ok := callee.(Callable)
	if !ok {
		msg := "can only call functions and classes"
		panic(CreateRuntimeError(call.Paren.Line, call.Paren.Column, msg))
	}

	if len(arguments) != function.Arity() {
		msg := fmt.Sprintf("expected %d arguments but got %d", function.Arity(), len(arguments))
		panic(CreateRuntimeError(call.Paren.Line, call.Paren.Column, msg))
	}

	return function.Call(i, arguments)
}

func (i *TreeWalkInterpreter) VisitGetExpression(expr *ast.Get) any {
	object := i.evaluate(expr.Object)
	instance, ok := object.(*Instance)
	if !ok {
		msg := "only instances have properties"
		panic(CreateRuntimeError(expr.Name.Line, expr.Name.Column, msg))
	}
	value, found := instance.get(expr.Name.Lexeme)
	if !found {
		msg := fmt.Sprintf("undefined property '%s'", expr.Name.Lexeme)
		panic(CreateRuntimeError(expr.Name.Line, expr.Name.Column, msg))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitSetExpression(expr *ast.Set) any {
	object := i.evaluate(expr.Object)
	instance, ok := object.(*Instance)
	if !ok {
		msg := "only instances have fields"
		panic(CreateRuntimeError(expr.Name.Line, expr.Name.Column, msg))
	}
	value := i.evaluate(expr.Value)
	instance.set(expr.Name.Lexeme, value)
	return value
}

func (i *TreeWalkInterpreter) VisitThisExpression(expr *ast.This) any {
	return i.lookupVariable(expr.Keyword, expr.Depth)
}

func (i *TreeWalkInterpreter) VisitBinary(binary *ast.Binary) any {
	leftResult := i.evaluate(binary.Left)
	rightResult := i.evaluate(binary.Right)
	operator := binary.Operator.TokenType
	logrus.Tracef("binary: %v %s %v", leftResult, binary.Operator.Lexeme, rightResult)

	switch operator {
	case token.MULT:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue * rightValue

	case token.DIV:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		// Dividing by zero yields IEEE-754 infinity (or NaN for 0/0), not a
		// runtime error: the language follows ordinary float semantics here.
		return leftValue / rightValue

	case token.SUB:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue - rightValue

	case token.ADD:
		leftStr, leftIsStr := leftResult.(string)
		rightStr, rightIsStr := rightResult.(string)
		if leftIsStr && rightIsStr {
			return leftStr + rightStr
		}
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue + rightValue

	case token.EQUAL_EQUAL:
		return valuesEqual(leftResult, rightResult)

	case token.NOT_EQUAL:
		return !valuesEqual(leftResult, rightResult)

	case token.LARGER:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue > rightValue

	case token.LARGER_EQUAL:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue >= rightValue

	case token.LESS:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue < rightValue

	case token.LESS_EQUAL:
		leftValue, rightValue, err := isOperandsNumeric(operator, leftResult, rightResult, binary.Operator)
		if err != nil {
			panic(err)
		}
		return leftValue <= rightValue

	default:
		message := fmt.Sprintf("operator '%s' not supported", operator)
		panic(CreateRuntimeError(binary.Operator.Line, binary.Operator.Column, message))
	}
}

func (i *TreeWalkInterpreter) VisitUnary(unary *ast.Unary) any {
	rightResult := i.evaluate(unary.Right)
	operator := unary.Operator.TokenType
	switch operator {
	case token.SUB:
		r, err := literalToFloat64(rightResult)
		if err != nil {
			message := fmt.Sprintf("operand must be a numeric value. '%s %v' is not allowed", operator, rightResult)
			panic(CreateRuntimeError(unary.Operator.Line, unary.Operator.Column, message))
		}
		return -r
	case token.BANG:
		return !i.isTrue(rightResult)
	default:
		message := fmt.Sprintf("operator '%s' not supported for unary operations", operator)
		panic(CreateRuntimeError(unary.Operator.Line, unary.Operator.Column, message))
	}
}

func (i *TreeWalkInterpreter) isTrue(object any) bool {
	if object == nil {
		return false
	}
	value, isBool := object.(bool)
	if isBool {
		return value
	}
	return true
}

// lookupVariable resolves a name using the resolver's computed depth when
// present, falling back to a pure global lookup when depth is nil (the
// name was never found bound to any enclosing scope during resolution).
func (i *TreeWalkInterpreter) lookupVariable(name token.Token, depth *int) any {
	if depth != nil {
		return i.environment.getAt(*depth, name.Lexeme)
	}
	value, err := i.globals.get(name)
	if err != nil {
		panic(err)
	}
	return value
}

func (i *TreeWalkInterpreter) VisitVariableExpression(expression *ast.Variable) any {
	return i.lookupVariable(expression.Name, expression.Depth)
}

func (i *TreeWalkInterpreter) VisitLiteral(literal *ast.Literal) any {
	return literal.Value
}

func (i *TreeWalkInterpreter) VisitGrouping(grouping *ast.Grouping) any {
	return i.evaluate(grouping.Expression)
}

func (i *TreeWalkInterpreter) evaluate(expression ast.Expression) any {
	logrus.Tracef("eval: %T", expression)
	return expression.Accept(i)
}

// literalToFloat64 normalizes any of the lexer's numeric literal
// representations (the scanner tokenizes whole numbers as int64 and
// fractional ones as float64) down to a single float64, so every arithmetic
// operator and equality check only ever has to deal with one numeric type.
// It deliberately does not coerce strings: a string operand to an
// arithmetic operator is a type error, never an implicit parse.
func literalToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported type: %T", value)
	}
}

func isOperandsNumeric(operator token.TokenType, left any, right any, tok token.Token) (float64, float64, error) {
	l, lerr := literalToFloat64(left)
	r, rerr := literalToFloat64(right)

	if lerr == nil && rerr == nil {
		return l, r, nil
	}

	message := fmt.Sprintf("operands must be numeric values. '%v %s %v' is not allowed", left, operator, right)
	return 0, 0, CreateRuntimeError(tok.Line, tok.Column, message)
}

// valuesEqual implements the language's strict-per-tag equality: numbers
// compare by IEEE-754 value regardless of which numeric literal form
// produced them, nil equals only nil, and every other tag falls back to
// Go's own equality (which is already false across mismatched dynamic
// types, matching the cross-type-equality-is-false rule).
func valuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	leftNum, leftErr := literalToFloat64(left)
	rightNum, rightErr := literalToFloat64(right)
	if leftErr == nil && rightErr == nil {
		return leftNum == rightNum
	}
	return left == right
}
