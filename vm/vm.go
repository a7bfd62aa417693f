package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"lox/compiler"
)

// VM is a stack based virtual machine: the runtime environment where lox
// bytecode gets executed. Locals live directly on the value stack at the
// slot named by the local opcodes' operand; globals live in a name-keyed map since
// they can be declared and looked up across separately compiled chunks (the
// REPL recompiles and re-runs a chunk per line).
type VM struct {
	stack   Stack
	globals map[string]any
	ip      int
}

// New creates a new VM instance.
func New() *VM {
	return &VM{globals: make(map[string]any)}
}

// Result returns the value left on top of the stack after Run returns, if
// any. The compiler emits no print instruction (OP_PRINT is executed here
// but never produced), so a caller driving a single compiled expression —
// a REPL or a one-shot "run this file" command — reads the answer this way
// rather than from any side effect of execution.
func (vm *VM) Result() (any, bool) {
	return vm.stack.Peek()
}

// Run executes the provided bytecode on the virtual machine.
//
// It fetches and decodes each instruction starting at the VM's current
// instruction pointer (ip), processes the instruction based on its opcode,
// and modifies the VM's state accordingly (e.g. pushing constants onto the
// stack, mutating globals, jumping the instruction pointer).
//
// Execution terminates normally when an OP_END or OP_RETURN opcode is encountered, or
// returns a RuntimeError if an unknown opcode, stack underflow or type
// mismatch is encountered.
func (vm *VM) Run(bytecode compiler.Bytecode) error {
	vm.ip = 0

	for {
		opCode := compiler.Opcode(bytecode.Instructions[vm.ip])
		instructionLength := compiler.OPCODE_TOTAL_BYTES
		logrus.Tracef("vm: ip=%d opcode=%d stack=%d", vm.ip, opCode, len(vm.stack))

		switch opCode {
		case compiler.OP_END, compiler.OP_RETURN:
			return nil

		case compiler.OP_CONSTANT:
			operand := vm.readOperand(bytecode, compiler.OP_CONSTANT_TOTAL_BYTES)
			value := bytecode.ConstantsPool[operand]
			if ref, ok := value.(compiler.HeapRef); ok {
				value = bytecode.Heap[ref]
			}
			vm.stack.Push(value)
			instructionLength = compiler.OP_CONSTANT_TOTAL_BYTES

		case compiler.OP_TRUE:
			vm.stack.Push(true)
		case compiler.OP_FALSE:
			vm.stack.Push(false)
		case compiler.OP_NIL:
			vm.stack.Push(nil)

		case compiler.OP_POP:
			if _, ok := vm.stack.Pop(); !ok {
				return vm.runtimeError(bytecode, "stack underflow on pop")
			}

		case compiler.OP_NOT:
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on '!'")
			}
			vm.stack.Push(!isTruthy(value))

		case compiler.OP_NEGATE:
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on unary '-'")
			}
			number, ok := toNumber(value)
			if !ok {
				return vm.runtimeError(bytecode, "operand must be a number")
			}
			vm.stack.Push(-number)

		case compiler.OP_ADD:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on '+'")
			}
			result, err := addValues(left, right)
			if err != nil {
				return vm.runtimeError(bytecode, err.Error())
			}
			vm.stack.Push(result)

		case compiler.OP_SUBTRACT, compiler.OP_MULTIPLY, compiler.OP_DIVIDE:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on arithmetic operator")
			}
			a, aok := toNumber(left)
			b, bok := toNumber(right)
			if !aok || !bok {
				return vm.runtimeError(bytecode, "operands must be numbers")
			}
			switch opCode {
			case compiler.OP_SUBTRACT:
				vm.stack.Push(a - b)
			case compiler.OP_MULTIPLY:
				vm.stack.Push(a * b)
			case compiler.OP_DIVIDE:
				// Division by zero yields IEEE-754 infinity/NaN rather than
				// a runtime error, matching ordinary float64 semantics.
				vm.stack.Push(a / b)
			}

		case compiler.OP_EQUALITY:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on '=='")
			}
			vm.stack.Push(valuesEqual(left, right))

		case compiler.OP_NOT_EQUAL:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on '!='")
			}
			vm.stack.Push(!valuesEqual(left, right))

		case compiler.OP_LARGER, compiler.OP_LESS, compiler.OP_LARGER_EQUAL, compiler.OP_LESS_EQUAL:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on comparison operator")
			}
			a, aok := toNumber(left)
			b, bok := toNumber(right)
			if !aok || !bok {
				return vm.runtimeError(bytecode, "operands must be numbers")
			}
			switch opCode {
			case compiler.OP_LARGER:
				vm.stack.Push(a > b)
			case compiler.OP_LESS:
				vm.stack.Push(a < b)
			case compiler.OP_LARGER_EQUAL:
				vm.stack.Push(a >= b)
			case compiler.OP_LESS_EQUAL:
				vm.stack.Push(a <= b)
			}

		case compiler.OP_AND:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on 'and'")
			}
			vm.stack.Push(isTruthy(left) && isTruthy(right))

		case compiler.OP_OR:
			right, left, ok := vm.popTwo()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on 'or'")
			}
			vm.stack.Push(isTruthy(left) || isTruthy(right))

		case compiler.OP_PRINT:
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on print")
			}
			fmt.Println(stringify(value))

		case compiler.OP_DEFINE_GLOBAL, compiler.OP_SET_GLOBAL:
			operand := vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH)
			name := bytecode.NameConstants[operand]
			value, ok := vm.stack.Peek()
			if !ok {
				return vm.runtimeError(bytecode, fmt.Sprintf("no value to bind to '%s'", name))
			}
			vm.globals[name] = value
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_GET_GLOBAL:
			operand := vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH)
			name := bytecode.NameConstants[operand]
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(bytecode, fmt.Sprintf("undefined variable '%s'", name))
			}
			vm.stack.Push(value)
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_DEFINE_LOCAL, compiler.OP_SET_LOCAL:
			operand := int(vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH))
			value, ok := vm.stack.Peek()
			if !ok {
				return vm.runtimeError(bytecode, "no value to bind to local")
			}
			for len(vm.stack) <= operand {
				vm.stack.Push(nil)
			}
			vm.stack[operand] = value
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_GET_LOCAL:
			operand := int(vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH))
			if operand >= len(vm.stack) {
				return vm.runtimeError(bytecode, "local slot out of range")
			}
			vm.stack.Push(vm.stack[operand])
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_SCOPE_EXIT:
			operand := int(vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH))
			for i := 0; i < operand; i++ {
				vm.stack.Pop()
			}
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_JUMP:
			operand := vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH)
			vm.ip = int(operand)
			continue

		case compiler.OP_JUMP_IF_FALSE:
			operand := vm.readOperand(bytecode, compiler.THREE_BYTE_INSTRUCTION_LENGTH)
			value, ok := vm.stack.Peek()
			if !ok {
				return vm.runtimeError(bytecode, "stack underflow on conditional jump")
			}
			if !isTruthy(value) {
				vm.ip = int(operand)
				continue
			}
			instructionLength = compiler.THREE_BYTE_INSTRUCTION_LENGTH

		default:
			return vm.runtimeError(bytecode, fmt.Sprintf("unknown opcode %v at ip %d", opCode, vm.ip))
		}

		vm.ip += instructionLength
	}
}

// readOperand decodes the 2-byte big-endian operand that follows the opcode
// byte at the VM's current instruction pointer.
func (vm *VM) readOperand(bytecode compiler.Bytecode, width int) uint16 {
	start := vm.ip + compiler.OPCODE_TOTAL_BYTES
	end := vm.ip + width
	return binary.BigEndian.Uint16(bytecode.Instructions[start:end])
}

func (vm *VM) popTwo() (right any, left any, ok bool) {
	right, ok = vm.stack.Pop()
	if !ok {
		return nil, nil, false
	}
	left, ok = vm.stack.Pop()
	if !ok {
		return nil, nil, false
	}
	return right, left, true
}

func (vm *VM) runtimeError(bytecode compiler.Bytecode, message string) error {
	line, err := bytecode.Lines.Get(vm.ip)
	if err != nil {
		line = 0
	}
	return RuntimeError{Line: line, Message: message}
}

// isTruthy follows this dialect's truthiness rule: everything is truthy
// except nil and the boolean false.
func isTruthy(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

// toNumber coerces a stack value into a float64, the VM's single numeric
// representation, regardless of whether the constant pool stored it as an
// int64 (integer literal) or a float64 (floating-point literal).
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// addValues implements '+': numeric addition for two numbers, concatenation
// for two strings. Mixing the two is a runtime error, mirroring the
// tree-walk interpreter's behaviour for the same operator.
func addValues(left, right any) (any, error) {
	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)
	if leftIsStr && rightIsStr {
		return leftStr + rightStr, nil
	}
	a, aok := toNumber(left)
	b, bok := toNumber(right)
	if aok && bok {
		return a + b, nil
	}
	return nil, fmt.Errorf("operands must be two numbers or two strings")
}

// valuesEqual implements structural equality: two heap-backed strings are
// equal when their contents match, never by comparing identity or index.
func valuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == right
	}
	aNum, aok := toNumber(left)
	bNum, bok := toNumber(right)
	if aok && bok {
		return aNum == bNum
	}
	return left == right
}

// stringify renders a VM value the way print displays it.
func stringify(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%v", value)
}
