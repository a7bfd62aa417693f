package compiler

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// Bytecode is the compiled unit handed from a compiler to the VM: an
// instruction stream, the constant pool values it indexes into, the
// interned variable names the global/local opcodes index into, and the
// string heap that both compile-time string literals and runtime string
// concatenation populate. Line holds the run-length encoded source line
// for every instruction offset (see LineTable below).
//
// Instructions, ConstantsPool, NameConstants and Heap are all owned by
// this Bytecode value for its whole lifetime: nothing outside of
// compilation and VM execution ever mutates them, and heap indices handed
// out while compiling or running stay valid until the Bytecode itself is
// discarded.
type Bytecode struct {
	Instructions  Instructions
	ConstantsPool []any
	NameConstants []string
	Heap          []string
	Lines         LineTable
}

// HeapRef is a ConstantsPool entry that points into Bytecode.Heap instead
// of holding a value directly: the compiler's way of saying "this constant
// is a string, go fetch its bytes from the chunk's heap." The VM resolves
// it to a plain Go string the moment it loads the constant, so every other
// opcode deals with strings by value, never by reference.
type HeapRef int

type Opcode byte

type Instructions []byte

// opcodes
// iota generates a distinct byte for each bytecode
const (
	// OP_CONSTANT has a single 2-byte operand: an index into ConstantsPool.
	// NOTE: This restricts a program to 65536 constants; not a hard
	// constraint, could grow to a uint32 operand if ever needed.
	OP_CONSTANT Opcode = iota
	OP_END
	OP_RETURN

	// arithmetic
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NEGATE

	// literals with no operand
	OP_TRUE
	OP_FALSE
	OP_NIL

	// logic / comparison
	OP_NOT
	OP_AND
	OP_OR
	OP_EQUALITY
	OP_NOT_EQUAL
	OP_LARGER
	OP_LESS
	OP_LARGER_EQUAL
	OP_LESS_EQUAL

	// statements
	OP_PRINT
	OP_POP

	// globals / locals, each a 2-byte index operand
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_GET_GLOBAL
	OP_DEFINE_LOCAL
	OP_SET_LOCAL
	OP_GET_LOCAL

	// control flow, a 2-byte absolute instruction-offset operand
	OP_JUMP
	OP_JUMP_IF_FALSE

	// OP_SCOPE_EXIT's operand is the number of locals to pop off the VM
	// stack when a block scope ends.
	OP_SCOPE_EXIT
)

// OPCODE_TOTAL_BYTES is the width of the opcode byte itself.
const OPCODE_TOTAL_BYTES = 1

// OP_CONSTANT_TOTAL_BYTES is the width of an OP_CONSTANT instruction: the
// opcode byte plus its 2-byte operand.
const OP_CONSTANT_TOTAL_BYTES = 3

// THREE_BYTE_INSTRUCTION_LENGTH is the width of any instruction carrying a
// single 2-byte operand (globals, locals, jumps, scope exit).
const THREE_BYTE_INSTRUCTION_LENGTH = 3

// OpCodeDefinition describes an opcode for assembly/disassembly.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONSTANT:       {Name: "OP_CONSTANT", OperandWidths: []int{2}},
	OP_END:            {Name: "OP_END", OperandWidths: []int{}},
	OP_RETURN:         {Name: "OP_RETURN", OperandWidths: []int{}},
	OP_ADD:            {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUBTRACT:       {Name: "OP_SUBTRACT", OperandWidths: []int{}},
	OP_MULTIPLY:       {Name: "OP_MULTIPLY", OperandWidths: []int{}},
	OP_DIVIDE:         {Name: "OP_DIVIDE", OperandWidths: []int{}},
	OP_NEGATE:         {Name: "OP_NEGATE", OperandWidths: []int{}},
	OP_TRUE:           {Name: "OP_TRUE", OperandWidths: []int{}},
	OP_FALSE:          {Name: "OP_FALSE", OperandWidths: []int{}},
	OP_NIL:            {Name: "OP_NIL", OperandWidths: []int{}},
	OP_NOT:            {Name: "OP_NOT", OperandWidths: []int{}},
	OP_AND:            {Name: "OP_AND", OperandWidths: []int{}},
	OP_OR:             {Name: "OP_OR", OperandWidths: []int{}},
	OP_EQUALITY:       {Name: "OP_EQUALITY", OperandWidths: []int{}},
	OP_NOT_EQUAL:      {Name: "OP_NOT_EQUAL", OperandWidths: []int{}},
	OP_LARGER:         {Name: "OP_LARGER", OperandWidths: []int{}},
	OP_LESS:           {Name: "OP_LESS", OperandWidths: []int{}},
	OP_LARGER_EQUAL:   {Name: "OP_LARGER_EQUAL", OperandWidths: []int{}},
	OP_LESS_EQUAL:     {Name: "OP_LESS_EQUAL", OperandWidths: []int{}},
	OP_PRINT:          {Name: "OP_PRINT", OperandWidths: []int{}},
	OP_POP:            {Name: "OP_POP", OperandWidths: []int{}},
	OP_DEFINE_GLOBAL:  {Name: "OP_DEFINE_GLOBAL", OperandWidths: []int{2}},
	OP_SET_GLOBAL:     {Name: "OP_SET_GLOBAL", OperandWidths: []int{2}},
	OP_GET_GLOBAL:     {Name: "OP_GET_GLOBAL", OperandWidths: []int{2}},
	OP_DEFINE_LOCAL:   {Name: "OP_DEFINE_LOCAL", OperandWidths: []int{2}},
	OP_SET_LOCAL:      {Name: "OP_SET_LOCAL", OperandWidths: []int{2}},
	OP_GET_LOCAL:      {Name: "OP_GET_LOCAL", OperandWidths: []int{2}},
	OP_JUMP:           {Name: "OP_JUMP", OperandWidths: []int{2}},
	OP_JUMP_IF_FALSE:  {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{2}},
	OP_SCOPE_EXIT:     {Name: "OP_SCOPE_EXIT", OperandWidths: []int{2}},
}

func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// AssembleInstruction constructs a bytecode instruction from an opcode and
// its operands. Operands are encoded in Big-Endian order: for example the
// instruction for OP_CONSTANT with operand 65000 is [OP_CONSTANT, 253, 232].
func AssembleInstruction(op Opcode, operands ...int) ([]byte, error) {
	def, err := Get(op)
	if err != nil {
		return nil, DeveloperError{Message: err.Error()}
	}
	if len(operands) != len(def.OperandWidths) {
		return nil, DeveloperError{
			Message: fmt.Sprintf("%s takes %d operand(s), got %d", def.Name, len(def.OperandWidths), len(operands)),
		}
	}

	length := OPCODE_TOTAL_BYTES
	for _, width := range def.OperandWidths {
		length += width
	}

	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := OPCODE_TOTAL_BYTES
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operand))
		}
		offset += width
	}
	return instruction, nil
}

// DiassembleInstruction renders a single instruction (opcode byte plus
// whatever operand bytes follow it) to a human-readable line, with no
// knowledge of the constants/name pools it may index into.
func DiassembleInstruction(instruction []byte) (string, error) {
	op := Opcode(instruction[0])
	def, err := Get(op)
	if err != nil {
		return "", err
	}
	if len(def.OperandWidths) == 0 {
		return fmt.Sprintf("opcode: %s, operand: None, operand widths: 0 bytes", def.Name), nil
	}
	width := def.OperandWidths[0]
	operand := binary.BigEndian.Uint16(instruction[OPCODE_TOTAL_BYTES : OPCODE_TOTAL_BYTES+width])
	return fmt.Sprintf("opcode: %s, operand: %d, operand widths: %d bytes", def.Name, operand, width), nil
}

// DisassembleBytecode walks every instruction in b in emission order,
// annotating OP_CONSTANT with the constant it loads and the global name
// opcodes with the name they reference, then optionally saves the
// result to "<filePath>.dnic".
func DisassembleBytecode(b Bytecode, saveToDisk bool, filePath string) (string, error) {
	var builder strings.Builder
	ip := 0
	for ip < len(b.Instructions) {
		op := Opcode(b.Instructions[ip])
		def, err := Get(op)
		if err != nil {
			return "", err
		}
		width := OPCODE_TOTAL_BYTES
		for _, w := range def.OperandWidths {
			width += w
		}
		instruction := b.Instructions[ip : ip+width]
		line, err := DiassembleInstruction(instruction)
		if err != nil {
			return "", err
		}

		switch op {
		case OP_CONSTANT:
			index := binary.BigEndian.Uint16(instruction[OPCODE_TOTAL_BYTES:])
			if int(index) < len(b.ConstantsPool) {
				line += fmt.Sprintf(", value: %v", b.ConstantsPool[index])
			}
		case OP_DEFINE_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL:
			index := binary.BigEndian.Uint16(instruction[OPCODE_TOTAL_BYTES:])
			if int(index) < len(b.NameConstants) {
				line += fmt.Sprintf(", name: %s", b.NameConstants[index])
			}
		}

		builder.WriteString(line)
		if op != OP_END {
			builder.WriteString("\n")
		}
		ip += width
	}

	result := builder.String()
	if saveToDisk {
		if filePath == "" {
			filePath = "bytecode"
		}
		f, err := os.Create(filePath + ".dnic")
		if err != nil {
			return "", fmt.Errorf("error creating diassembled bytecode file: %s", err.Error())
		}
		defer f.Close()
		f.WriteString(result)
	}
	return result, nil
}

// DumpBytecode writes b's raw instruction stream to "<filePath>.nic",
// hex-encoded so it can be viewed in a text editor.
func DumpBytecode(b Bytecode, filePath string) error {
	if filePath == "" {
		filePath = "bytecode"
	}
	f, err := os.Create(filePath + ".nic")
	if err != nil {
		return fmt.Errorf("error creating lox bytecode file: %s", err.Error())
	}
	defer f.Close()
	_, err = f.WriteString(fmt.Sprintf("%x", b.Instructions))
	return err
}

// LineTable is the run-length encoded instruction-offset -> source-line
// mapping described by the spec's line run-length store: Push appends one
// more instruction at the given line, extending the last run if it's the
// same line, else starting a new one. Get decodes the line for a given
// instruction index by scanning the runs and accumulating their counts.
type LineTable struct {
	runs []lineRun
}

type lineRun struct {
	line  int32
	count int
}

// Push records that the next instruction emitted belongs to line.
func (t *LineTable) Push(line int32) {
	if len(t.runs) > 0 && t.runs[len(t.runs)-1].line == line {
		t.runs[len(t.runs)-1].count++
		return
	}
	t.runs = append(t.runs, lineRun{line: line, count: 1})
}

// Get returns the source line instruction index i was emitted at.
func (t *LineTable) Get(i int) (int32, error) {
	if i < 0 {
		return 0, fmt.Errorf("line table: index %d out of range", i)
	}
	remaining := i
	for _, run := range t.runs {
		if remaining < run.count {
			return run.line, nil
		}
		remaining -= run.count
	}
	return 0, fmt.Errorf("line table: index %d out of range", i)
}

// Len returns the total number of instructions the table has recorded a
// line for.
func (t *LineTable) Len() int {
	total := 0
	for _, run := range t.runs {
		total += run.count
	}
	return total
}
