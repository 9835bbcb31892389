package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dekarrin/formulon"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/eval"
)

// replSession reads formulas from stdin using readline and evaluates each
// one against a bindings map that persists across the session, in the style
// of the teacher's InteractiveCommandReader.
type replSession struct {
	rl       *readline.Instance
	bindings eval.Bindings
}

func newReplSession() (*replSession, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "formulon> ",
		HistoryFile: "",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &replSession{rl: rl, bindings: eval.Bindings{}}, nil
}

func (s *replSession) Close() error {
	return s.rl.Close()
}

// readLine blocks until a non-blank line is read, io.EOF is reached, or
// another error occurs.
func (s *replSession) readLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = s.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
	}
	return line, nil
}

func runRepl(opts formulon.Options) int {
	sess, err := newReplSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
		return int(diag.CodeInternal)
	}
	defer sess.Close()

	fmt.Println("formulon repl; :bind NAME=VALUE to set a variable, :quit to exit")

	for {
		line, err := sess.readLine()
		if errors.Is(err, io.EOF) {
			return int(diag.CodeSuccess)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
			return int(diag.CodeInternal)
		}

		switch {
		case line == ":quit" || line == ":q":
			return int(diag.CodeSuccess)
		case strings.HasPrefix(line, ":bind "):
			sess.handleBind(strings.TrimPrefix(line, ":bind "))
			continue
		}

		result := formulon.Evaluate(line, sess.bindings, opts)
		printResult(result)
	}
}

func (s *replSession) handleBind(assignment string) {
	name, rawValue, ok := strings.Cut(assignment, "=")
	if !ok {
		fmt.Fprintln(os.Stderr, "formulon: expected NAME=VALUE")
		return
	}
	name = strings.TrimSpace(name)
	result := formulon.Evaluate(strings.TrimSpace(rawValue), s.bindings, formulon.DefaultOptions())
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "formulon: %s\n", result.Errors[0])
		return
	}
	s.bindings[name] = result.Value
}
