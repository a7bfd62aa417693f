package main

import (
	"context"
	"flag"
	"fmt"
	"lox/compiler"
	"lox/lexer"
	"lox/parser"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// emitBytecodeCmd implements the "emit" command: compile a source file's
// expression through the bytecode compiler and write out its disassembly
// and/or raw bytecode dump, without running it. The compiled path itself
// never touches the parser or resolver (source -> Scanner -> Compiler ->
// Chunk); the dumpAST flag is the one debugging extra that additionally
// parses the file and writes the AST out as JSON.
type emitBytecodeCmd struct {
	diassemble   bool
	dumpBytecode bool
	dumpAST      bool
	filePath     string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode representation from a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `lox emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", true, "diassemble the bytecode and dump it to a text file.")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "Writes the encoded bytecode as hexadecimal to a .nic file")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "Parses the file and writes its AST as prettified JSON to a .ast.json file")
	f.StringVar(&cmd.filePath, "file path", "/", "Not read: every output file is named after the source file's path up to its first '.', whatever this flag is set to.")
}

func (r *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v", err.Error())
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		fmt.Fprintf(os.Stderr, "💥 Lexing error:\n")
		for _, lexErr := range lexErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", lexErr)
		}
		return subcommands.ExitFailure
	}

	if r.dumpAST {
		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			fmt.Fprintf(os.Stderr, "💥 Parsing error:\n")
			for _, parseErr := range parseErrs {
				fmt.Fprintf(os.Stderr, "\t%v\n", parseErr)
			}
			return subcommands.ExitFailure
		}
		parts := strings.Split(sourceFile, ".")
		if err := p.PrintToFile(statements, parts[0]+".ast.json"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump AST error:\n:\t%s", err.Error())
			return subcommands.ExitFailure
		}
	}

	bytecode, cErr := compiler.New(tokens).Compile()
	if cErr != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", cErr)
		return subcommands.ExitFailure
	}

	if r.diassemble {
		parts := strings.Split(sourceFile, ".")
		fileName := parts[0]
		if _, dErr := compiler.DisassembleBytecode(bytecode, true, fileName); dErr != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode diassemble error:\n:\t%s", dErr.Error())
			return subcommands.ExitFailure
		}
	}

	if r.dumpBytecode {
		parts := strings.Split(sourceFile, ".")
		fileName := parts[0]
		if err := compiler.DumpBytecode(bytecode, fileName); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n:\t%s", err.Error())
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
