// Package repl implements the interactive read-eval-print loop:
// scanning one line of source into a block, handing it to the
// trampoline's Eval entry point, and printing whatever value comes
// back (spec.md §8). Grounded on the teacher's internal/repl/repl.go
// loop shape (bufio.Scanner over os.Stdin, an "exit" sentinel, a fresh
// parse-compile-run cycle per line), adapted to scan straight into
// cell.Cell blocks and drive the new evaluator instead of compiling to
// bytecode.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/memory"
	"glyph/internal/port"
	"glyph/internal/scanner"
	"glyph/internal/symbol"
	"glyph/internal/trampoline"
)

// Start runs the loop against stdin/stdout until "exit" or EOF. It
// shows a prompt only when stdin is a real terminal (mattn/go-isatty,
// already in the teacher's own go.mod but never wired into any of its
// entry points).
func Start() {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	pool.AddRoot(sea)
	action.RegisterNatives(pool, tbl, sea)
	action.RegisterControl(pool, tbl, sea)
	port.RegisterNatives(pool, tbl, sea)
	defer port.CloseAll(context.Background(), 5*time.Second)

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	in := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			fmt.Print(">> ")
		}
		if !in.Scan() {
			break
		}
		line := in.Text()
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}
		runLine(pool, tbl, sea, line, os.Stdout)
	}
}

func runLine(pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea, line string, out io.Writer) {
	blk, err := scanner.New(tbl, line).ScanBlock()
	if err != nil {
		fmt.Fprintf(out, "** scan error: %v\n", err)
		return
	}
	v, err := trampoline.Eval(context.Background(), pool, blk, sea, sea)
	if err != nil {
		fmt.Fprintf(out, "** eval error: %v\n", err)
		return
	}
	if v.IsGhost() {
		return
	}
	fmt.Fprintln(out, v.String())
}
