package main

import "github.com/google/subcommands"

// Exit codes follow the conventions of /usr/include/sysexits.h: 64 for a
// command-line usage error (bad arguments, missing file), 65 for bad input
// data (a lexing, parsing or compilation error), 70 for an internal/runtime
// software error, 0 for success.
const (
	exitUsage    subcommands.ExitStatus = 64
	exitDataErr  subcommands.ExitStatus = 65
	exitSoftware subcommands.ExitStatus = 70
)
