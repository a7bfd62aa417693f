package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"lox/compiler"
	"lox/lexer"
	"lox/vm"
)

// runCompiledCmd implements the "runC" command: execute a source file
// through the bytecode compiler and stack VM, the compiled counterpart to
// "run"'s tree-walk path. Per spec's own data flow table this path never
// touches the parser or resolver: source -> Scanner -> Compiler -> Chunk ->
// VM. Since the compiler only understands expressions, the file's sole
// expression is compiled, run, and its value printed.
type runCompiledCmd struct{}

func (*runCompiledCmd) Name() string { return "runC" }
func (*runCompiledCmd) Synopsis() string {
	return "Execute a source file's expression through the bytecode compiler and VM"
}
func (*runCompiledCmd) Usage() string {
	return `runC:
  Execute a Lox expression through the bytecode compiler and VM.
`
}
func (r *runCompiledCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		logrus.Error("file not provided")
		return exitUsage
	}
	return runCompiledFile(args[0])
}

func runCompiledFile(filename string) subcommands.ExitStatus {
	data, err := os.ReadFile(filename)
	if err != nil {
		logrus.WithError(err).Error("failed to read file")
		return exitUsage
	}

	lex := lexer.New(string(data))
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		for _, lexErr := range lexErrs {
			logrus.Error(lexErr)
		}
		return exitDataErr
	}

	bytecode, err := compiler.New(tokens).Compile()
	if err != nil {
		logrus.Error(err)
		return exitDataErr
	}

	machine := vm.New()
	if err := machine.Run(bytecode); err != nil {
		logrus.Error(err)
		return exitSoftware
	}

	if result, ok := machine.Result(); ok {
		printValue(result)
	}
	return subcommands.ExitSuccess
}

// printValue renders a bytecode-path result the same way the tree-walk
// interpreter's print statement renders nil, keeping the two execution
// paths in agreement on a valid program's printed output (spec §8).
func printValue(value any) {
	if value == nil {
		fmt.Println("nil")
		return
	}
	fmt.Println(value)
}
