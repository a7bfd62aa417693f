package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// subcommandNames lists every name registered below, so a bare invocation
// can tell "lox run foo.lox" (a subcommand) apart from "lox foo.lox" (spec
// §6's bare file-argument mode, which google/subcommands has no notion of).
var subcommandNames = map[string]bool{
	"help": true, "flags": true, "commands": true,
	"repl": true, "run": true, "cRepl": true, "runC": true, "emit": true,
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCompiledCmd{}, "")
	subcommands.Register(&runCompiledCmd{}, "")
	subcommands.Register(&emitBytecodeCmd{}, "")

	verbose := flag.Bool("v", false, "enable debug logging")
	veryVerbose := flag.Bool("vv", false, "enable trace logging (per-node resolution/evaluation)")
	flag.Parse()

	switch {
	case *veryVerbose:
		logrus.SetLevel(logrus.TraceLevel)
	case *verbose:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	ctx := context.Background()

	args := flag.Args()
	if len(args) == 0 || !subcommandNames[args[0]] {
		os.Exit(int(runBare(args)))
	}

	os.Exit(int(subcommands.Execute(ctx)))
}

// runBare implements spec §6's bare CLI contract directly: zero arguments
// starts the REPL, one argument runs that file with the tree-walk
// interpreter, and more than one positional argument is a usage error.
func runBare(args []string) subcommands.ExitStatus {
	switch len(args) {
	case 0:
		return runREPL(false)
	case 1:
		return runFile(args[0])
	default:
		logrus.Errorf("usage: lox [script]")
		return exitUsage
	}
}
