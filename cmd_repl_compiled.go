package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"lox/compiler"
	"lox/lexer"
	"lox/token"
	"lox/vm"

	"github.com/google/subcommands"
)

// replCompiledCmd implements the "cRepl" command: a REPL driving the
// bytecode compiler and VM instead of the tree-walk interpreter. Per
// spec's data flow table this path never touches the parser or resolver:
// source -> Scanner -> Compiler -> Chunk -> VM. Input lines accumulate until
// their parentheses balance; the accumulated input is then lexed, compiled
// and run as one expression.
type replCompiledCmd struct {
	diassemble   bool
	dumpBytecode bool
}

func (*replCompiledCmd) Name() string { return "cRepl" }
func (*replCompiledCmd) Synopsis() string {
	return "Start a REPL session driven by the bytecode compiler and VM"
}
func (*replCompiledCmd) Usage() string {
	return `lox cRepl`
}

func (cmd *replCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", false, "diassemble the bytecode and dump it to a .dnic file")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", false, "Writes the encoded bytecode as hexadecimal to a .nic file")
	f.BoolVar(&cmd.diassemble, "di", false, "Shorthand for diassemble.")
	f.BoolVar(&cmd.dumpBytecode, "du", false, "Shorthand for dumpBytecode")
}

func (cmd *replCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nBytecode REPL. Enter an expression, or 'exit' to quit.")
	fmt.Println("")

	scanner := bufio.NewScanner(os.Stdin)
	machine := vm.New()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			fmt.Fprintf(os.Stdout, ">>> ")
		} else {
			fmt.Fprintf(os.Stdout, "... ")
		}
		scanned := scanner.Scan()
		if !scanned {
			err := scanner.Err()
			if err != nil {
				fmt.Fprintf(os.Stderr, "💥 %s", err.Error())
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			os.Exit(0)
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()
		if strings.TrimSpace(source) == "" {
			buffer.Reset()
			continue
		}

		lex := lexer.New(source)
		tokens, lexErrs := lex.Scan()
		if len(lexErrs) > 0 {
			for _, lexErr := range lexErrs {
				fmt.Println(lexErr)
			}
			buffer.Reset()
			continue
		}

		if !parenBalanced(tokens) {
			continue
		}

		bytecode, err := compiler.New(tokens).Compile()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			buffer.Reset()
			continue
		}

		if cmd.diassemble {
			if _, err := compiler.DisassembleBytecode(bytecode, true, ""); err != nil {
				fmt.Fprintf(os.Stderr, "💥 Bytecode diassemble error:\n:\t%s", err.Error())
			}
		}
		if cmd.dumpBytecode {
			if err := compiler.DumpBytecode(bytecode, ""); err != nil {
				fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n:\t%s", err.Error())
			}
		}

		if runtimeErr := machine.Run(bytecode); runtimeErr != nil {
			fmt.Fprintln(os.Stderr, runtimeErr.Error())
			buffer.Reset()
			continue
		}

		if result, ok := machine.Result(); ok {
			printValue(result)
		}
		buffer.Reset()
	}
}

// parenBalanced reports whether every opening parenthesis in tokens has a
// matching close, the REPL's signal that an expression is ready to compile.
// The bytecode compiler is expression-only, so there is no brace-delimited
// block to balance the way the tree-walk REPL does.
func parenBalanced(tokens []token.Token) bool {
	balance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LPA:
			balance++
		case token.RPA:
			balance--
		}
	}
	return balance <= 0
}
