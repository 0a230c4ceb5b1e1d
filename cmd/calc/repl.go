package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scicalc/internal/expression"
	"scicalc/internal/session"
)

const helpText = `Enter keys separated by spaces, e.g. "7 * 8 =" or "sin( PI / 2 ) =".
Keys: 0-9 . + - * / ^ ( ) ! sin( cos( tan( log( log10( sqrt( PI E AC DEL =
Labels work too: ln log √ π e × ÷ −

Commands:
  :eval EXPR   evaluate EXPR without touching the display
  :history     list past calculations
  :select N    put history item N back on the display
  :clear       delete the history
  :explain     explain the most recent calculation
  :help        show this text
  :quit        exit`

type repl struct {
	sess *session.Session
	out  io.Writer
}

// handle runs one input line and reports whether the REPL should exit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, ":") {
		if err := r.sess.PressAll(ctx, strings.Fields(line)); err != nil {
			fmt.Fprintln(r.out, err)
		}
		r.printDisplay()
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "q", "quit", "exit":
		return true
	case "h", "help":
		fmt.Fprintln(r.out, helpText)
	case "eval":
		r.eval(arg)
	case "history":
		r.printHistory()
	case "select":
		r.selectItem(arg)
	case "clear":
		if err := r.sess.ClearHistory(ctx); err != nil {
			fmt.Fprintln(r.out, err)
			return false
		}
		fmt.Fprintln(r.out, "history cleared")
	case "explain":
		r.explain(ctx)
	default:
		fmt.Fprintf(r.out, "unknown command :%s (try :help)\n", cmd)
	}
	return false
}

func (r *repl) printDisplay() {
	snap := r.sess.Snapshot()
	if snap.SubDisplay != "" {
		fmt.Fprintf(r.out, "  %s\n", snap.SubDisplay)
	}
	display := snap.Display
	if display == "" {
		display = "0"
	}
	fmt.Fprintf(r.out, "%s %s\n", answerPrompt, display)
}

func (r *repl) eval(expr string) {
	if expr == "" {
		fmt.Fprintln(r.out, "usage: :eval EXPR")
		return
	}
	res, err := expression.Compute(expr)
	if err != nil {
		fmt.Fprintf(r.out, "%s %s (%v)\n", answerPrompt, expression.DisplayError, err)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", answerPrompt, res.Formatted)
}

func (r *repl) printHistory() {
	items := r.sess.History()
	if len(items) == 0 {
		fmt.Fprintln(r.out, "no history yet")
		return
	}
	for i, item := range items {
		fmt.Fprintf(r.out, "%3d  %s = %s\n", i+1, item.Expression, item.Result)
	}
}

func (r *repl) selectItem(arg string) {
	n, err := strconv.Atoi(arg)
	items := r.sess.History()
	if err != nil || n < 1 || n > len(items) {
		fmt.Fprintf(r.out, "usage: :select N with N between 1 and %d\n", len(items))
		return
	}
	if err := r.sess.SelectHistory(items[n-1].ID); err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.printDisplay()
}

func (r *repl) explain(ctx context.Context) {
	item, res, err := r.sess.Explain(ctx)
	if errors.Is(err, session.ErrNoHistory) {
		fmt.Fprintln(r.out, "nothing to explain yet")
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}

	fmt.Fprintf(r.out, "%s = %s\n\n%s\n\n", item.Expression, item.Result, res.Explanation)
	for _, step := range res.Steps {
		fmt.Fprintf(r.out, "  - %s\n", step)
	}
	if res.Context != "" {
		fmt.Fprintf(r.out, "\n%s\n", res.Context)
	}
}
