package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"lox/interpreter"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// replCmd implements the REPL command: an indent-aware, multi-line session
// against the tree-walking interpreter.
type replCmd struct {
	printAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start interactive REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.printAST, "ast", false, "print each submission's AST as prettified JSON before evaluating it")
}

// replIndentPrompt renders spec §6's REPL prompt: "> " at column 0, or two
// spaces per level of unclosed '{' nesting while a block is still being
// typed.
func replIndentPrompt(indent int) string {
	if indent == 0 {
		return "> "
	}
	return strings.Repeat("  ", indent)
}

// repl drives an interactive session: input accumulates across lines until
// the brace nesting returns to zero and the line either ends with ';' or is
// blank (spec §6), at which point the accumulated buffer is lexed, parsed,
// resolved and interpreted as one unit. `{` increases the indent level,
// `}` decreases it, saturating at zero rather than going negative.
// With printAST set, each submission's AST is printed as JSON before it
// runs.
func repl(rl *readline.Instance, printAST bool) {
	treeWalker := interpreter.Make()

	var buffer strings.Builder
	indent := 0

	for {
		rl.SetPrompt(replIndentPrompt(indent))
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			return
		}
		line = strings.ReplaceAll(line, "\r\n", "\n")
		if buffer.Len() == 0 && strings.TrimSpace(line) == "exit" {
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		indent += strings.Count(line, "{") - strings.Count(line, "}")
		if indent < 0 {
			indent = 0
		}

		trimmed := strings.TrimSpace(line)
		ready := indent == 0 && (trimmed == "" || strings.HasSuffix(trimmed, ";"))
		if !ready {
			continue
		}

		source := buffer.String()
		buffer.Reset()
		indent = 0
		if strings.TrimSpace(source) == "" {
			continue
		}

		lex := lexer.New(source)
		tokens, lexErrs := lex.Scan()
		if len(lexErrs) > 0 {
			for _, lexErr := range lexErrs {
				fmt.Fprintln(rl.Stderr(), lexErr)
			}
			continue
		}
		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			for _, parseErr := range parseErrs {
				fmt.Fprintln(rl.Stderr(), parseErr)
			}
			continue
		}
		if printAST {
			p.Print(statements)
		}

		res := resolver.New()
		if resolveErrs := res.Resolve(statements); len(resolveErrs) > 0 {
			for _, resolveErr := range resolveErrs {
				fmt.Fprintln(rl.Stderr(), resolveErr)
			}
			continue
		}

		if runtimeErr := treeWalker.Interpret(statements); runtimeErr != nil {
			fmt.Fprintln(rl.Stderr(), runtimeErr)
		}
	}
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runREPL(r.printAST)
}

// runREPL implements spec §6's "zero arguments" mode: an interactive,
// indent-aware multi-line session against the tree-walk interpreter. Shared
// by the "repl" subcommand and the bare `lox` invocation with no arguments.
func runREPL(printAST bool) subcommands.ExitStatus {
	fmt.Println("\n\nWelcome to Lox!")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println(err)
		return exitSoftware
	}
	defer rl.Close()

	repl(rl, printAST)
	return subcommands.ExitSuccess
}
