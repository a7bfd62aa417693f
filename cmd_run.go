package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"lox/interpreter"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// runCmd implements the "run" command: execute a Lox source file with the
// tree-walking interpreter.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Lox code from a source file" }
func (*runCmd) Usage() string {
	return `run:
  Execute Lox code.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		logrus.Error("file not provided")
		return exitUsage
	}
	return runFile(args[0])
}

// runFile implements spec §6's "one path argument" mode: lex, parse,
// resolve and interpret a source file with the tree-walk interpreter,
// mapping each stage's failure to the exit code taxonomy (64/65/70/0).
// Shared by the "run" subcommand and the bare `lox <file>` invocation.
func runFile(filename string) subcommands.ExitStatus {
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

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		for _, parseErr := range parseErrs {
			logrus.Error(parseErr)
		}
		return exitDataErr
	}

	res := resolver.New()
	if resolveErrs := res.Resolve(statements); len(resolveErrs) > 0 {
		for _, resolveErr := range resolveErrs {
			logrus.Error(resolveErr)
		}
		return exitDataErr
	}

	treeWalker := interpreter.Make()
	if runtimeErr := treeWalker.Interpret(statements); runtimeErr != nil {
		logrus.Error(runtimeErr)
		return exitSoftware
	}
	return subcommands.ExitSuccess
}
