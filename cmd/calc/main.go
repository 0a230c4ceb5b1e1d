// Command calc is an interactive terminal calculator. Each input line is a
// sequence of keypad keys applied to one calculator session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"scicalc/internal/app"
	"scicalc/internal/config"
	"scicalc/internal/observability"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	prompt       = "calc> "
	answerPrompt = "=>"
)

// sessionFile remembers the session id so history follows the user between runs.
func sessionFile() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "scicalc", "cli-session")
}

func loadSessionID(fresh bool) string {
	if !fresh {
		if b, err := os.ReadFile(sessionFile()); err == nil {
			if id, err := uuid.ParseBytes(b); err == nil {
				return id.String()
			}
		}
	}
	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(sessionFile()), 0o755); err == nil {
		_ = os.WriteFile(sessionFile(), []byte(id), 0o600)
	}
	return id
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fresh := flag.Bool("new", false, "start a new session instead of resuming the last one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout belongs to the REPL; only warnings go to stderr.
	if err := observability.InitLogger("warn"); err != nil {
		return err
	}
	defer observability.SyncLogger()

	ctx := context.Background()
	rt, err := app.New(ctx, cfg, observability.Logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.Sessions.Open(ctx, loadSessionID(*fresh))
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), "scicalc-readline.tmp"),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	r := &repl{sess: sess, out: rl.Stdout()}
	fmt.Fprintf(r.out, "scicalc (explanations: %s). Type :help for keys and commands.\n", rt.Explainer.Provider())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		if r.handle(ctx, line) {
			observability.Logger.Debug("session ended", zap.String("session_id", sess.ID()))
			return nil
		}
	}
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem(":eval"),
	readline.PcItem(":history"),
	readline.PcItem(":select"),
	readline.PcItem(":clear"),
	readline.PcItem(":explain"),
	readline.PcItem(":help"),
	readline.PcItem(":quit"),
	readline.PcItem("sin("),
	readline.PcItem("sqrt("),
	readline.PcItem("log10("),
)
