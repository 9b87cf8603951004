// Command glyph is the runtime's entry point: a REPL, a file runner,
// and a one-shot expression evaluator. Grounded on the teacher's
// cmd/sentra/main.go shape (a flat command-alias map, --help/--version
// handled before anything else, a switch over the first argument) but
// trimmed to the commands this runtime actually backs — the teacher's
// build/fmt/lint/debug/watch/lsp/completion subcommands each depended
// on a compiler, formatter, LSP server, or package manager that
// spec.md's evaluator substrate does not implement, so they are gone
// rather than stubbed out unimplemented.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/memory"
	"glyph/internal/port"
	"glyph/internal/repl"
	"glyph/internal/scanner"
	"glyph/internal/symbol"
	"glyph/internal/trampoline"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"e": "eval",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		repl.Start()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("glyph", version)
	case "repl":
		repl.Start()
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: glyph run <file>")
			os.Exit(1)
		}
		if err := runFile(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, "glyph:", err)
			os.Exit(1)
		}
	case "eval":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: glyph eval <source>")
			os.Exit(1)
		}
		if err := runSource(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, "glyph:", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "glyph: unknown command %q\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`usage: glyph [command] [args]

commands:
  repl (i)        start the interactive read-eval-print loop
  run (r) <file>  scan and evaluate a source file
  eval (e) <src>  scan and evaluate a source string
  version (-v)    print the runtime version
  help (-h)       show this message

with no command, glyph starts the repl.`)
}

func runFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return runSource(string(src))
}

func runSource(src string) error {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	pool.AddRoot(sea)
	action.RegisterNatives(pool, tbl, sea)
	action.RegisterControl(pool, tbl, sea)
	port.RegisterNatives(pool, tbl, sea)
	defer port.CloseAll(context.Background(), 5*time.Second)

	blk, err := scanner.New(tbl, src).ScanBlock()
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	v, err := trampoline.Eval(context.Background(), pool, blk, sea, sea)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	if !v.IsGhost() {
		fmt.Println(v.String())
	}
	return nil
}
