package interpreter

import (
	"fmt"

	"lox/ast"
)

// Callable is anything that can appear on the left of a call expression:
// user-defined functions and methods, and natives such as clock.
type Callable interface {
	Arity() int
	Call(i *TreeWalkInterpreter, arguments []any) any
	String() string
}

// returnSignal is the panic payload used to unwind out of a function body
// the moment a return statement executes. It is caught at the call
// boundary in Function.Call; one that escapes to Interpret is reported
// there as a "return outside function" runtime error.
type returnSignal struct {
	value any
}

// Function is a user-defined function or method. It closes over the
// environment active where it was declared, which is what lets a function
// returned from another function keep seeing the variables of its birth
// scope after that outer call has returned.
type Function struct {
	declaration   *ast.Function
	closure       *Environment
	isInitializer bool
}

func newFunction(declaration *ast.Function, closure *Environment, isInitializer bool) *Function {
	return &Function{declaration: declaration, closure: closure, isInitializer: isInitializer}
}

func (f *Function) Arity() int {
	return len(f.declaration.Params)
}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.declaration.Name.Lexeme)
}

// bind returns a copy of the method bound to instance, by wrapping the
// method's closure in one more scope that defines "this". Each property
// access produces a fresh bound method so instances never share state.
func (f *Function) bind(instance *Instance) *Function {
	env := f.closure.Descend()
	env.define("this", instance)
	return newFunction(f.declaration, env, f.isInitializer)
}

func (f *Function) Call(i *TreeWalkInterpreter, arguments []any) (result any) {
	callEnv := f.closure.Descend()
	for idx, param := range f.declaration.Params {
		callEnv.define(param.Lexeme, arguments[idx])
	}

	defer func() {
		if r := recover(); r != nil {
			signal, ok := r.(returnSignal)
			if !ok {
				panic(r)
			}
			if f.isInitializer {
				result = f.closure.getAt(0, "this")
				return
			}
			result = signal.value
		}
	}()

	previous := i.environment
	i.environment = callEnv
	defer func() { i.environment = previous }()

	i.executeStatements(f.declaration.Body)

	if f.isInitializer {
		return f.closure.getAt(0, "this")
	}
	return nil
}
