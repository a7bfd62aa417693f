package interpreter

import (
	"math"
	"time"
)

// nativeFunction adapts a plain Go function to the Callable interface so
// it can be called like any user-defined function from within a script.
type nativeFunction struct {
	name  string
	arity int
	fn    func(arguments []any) any
}

func (n *nativeFunction) Arity() int { return n.arity }

func (n *nativeFunction) Call(i *TreeWalkInterpreter, arguments []any) any {
	return n.fn(arguments)
}

func (n *nativeFunction) String() string {
	return "<native fn " + n.name + ">"
}

// defineGlobals installs the natives every script starts with: clock,
// returning milliseconds since the Unix epoch since there's no
// scripting-level clock otherwise, and mod, since this dialect has no %
// operator and fractional remainder needs a named function instead.
func defineGlobals(env *Environment) {
	env.define("clock", &nativeFunction{
		name:  "clock",
		arity: 0,
		fn: func(arguments []any) any {
			return float64(time.Now().UnixMilli())
		},
	})

	env.define("mod", &nativeFunction{
		name:  "mod",
		arity: 2,
		fn: func(arguments []any) any {
			a, aErr := literalToFloat64(arguments[0])
			b, bErr := literalToFloat64(arguments[1])
			if aErr != nil || bErr != nil {
				panic(RuntimeError{Message: "mod expects two numbers"})
			}
			return math.Mod(a, b)
		},
	})
}
