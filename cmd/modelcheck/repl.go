package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/ailang/internal/algorithms"
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
)

// REPL is the interactive front end over a commandSet, grounded on
// internal/repl.REPL's liner-driven loop: history file under
// os.TempDir, multi-line continuation disabled (model-checker commands
// are always single-line), tab completion over the fixed command set.
type REPL struct {
	cs      *commandSet
	history []string
}

func NewREPL(cs *commandSet) *REPL {
	return &REPL{cs: cs}
}

var commandNames = []string{
	"read-model", "dump-model", "write-model",
	"check-init", "check-invar", "check-trans",
	"simulate", "verify", "pick-state", "dump-trace",
	"run-manifest", "on", "help", "quit",
}

func (r *REPL) prompt() string {
	if r.cs.sess == nil {
		return "mc> "
	}
	return fmt.Sprintf("mc[%s]> ", filepath.Base(r.cs.sess.ModelPath))
}

// Start runs the read-eval-print loop until quit or EOF.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".modelcheck_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s\n", bold("bounded model checker"))
	fmt.Fprintln(out, dim("Type help for commands, quit to exit"))

	line.SetCompleter(func(text string) (c []string) {
		for _, name := range commandNames {
			if strings.HasPrefix(name, text) {
				c = append(c, name)
			}
		}
		return
	})

	for {
		input, err := line.Prompt(r.prompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("goodbye"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		r.history = append(r.history, input)

		if input == "quit" || input == "exit" {
			fmt.Fprintln(out, green("goodbye"))
			break
		}

		if err := r.Dispatch(input, out); err != nil {
			printCommandError(out, err)
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func printCommandError(out io.Writer, err error) {
	fmt.Fprintf(out, "%s: %v\n", red("error"), err)
}

// Dispatch parses one command line and runs it against cs, shared
// between the REPL loop and the direct (non-interactive) CLI entry
// point in main.go so both surfaces stay in sync.
func (r *REPL) Dispatch(line string, out io.Writer) error {
	return dispatch(r.cs, line, out)
}

func dispatch(cs *commandSet, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	if cmd == "on" {
		return cmdOn(cs, args, out)
	}

	switch cmd {
	case "read-model":
		if len(args) != 1 {
			return diag.New(diag.CodeCmdIllFormed, nil, "usage: read-model <file>", nil)
		}
		return cmdReadModel(cs, args[0], out)
	case "dump-model":
		return cmdDumpModel(cs, out)
	case "write-model":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return cmdWriteModel(cs, path, out)
	case "check-init":
		return cmdCheckInit(cs, out)
	case "check-invar":
		return cmdCheckInvar(cs, out)
	case "check-trans":
		return cmdCheckTrans(cs, out)
	case "simulate":
		return cmdSimulate(cs, args, out)
	case "verify":
		return cmdVerify(cs, args, out)
	case "pick-state":
		return cmdPickState(cs, args, out)
	case "dump-trace":
		return cmdDumpTrace(cs, args, out)
	case "run-manifest":
		if len(args) != 1 {
			return diag.New(diag.CodeCmdIllFormed, nil, "usage: run-manifest <file>", nil)
		}
		return cmdRunManifest(cs, args[0], out)
	case "help":
		printHelp(out)
		return nil
	default:
		return diag.New(diag.CodeCmdUnknown, nil, fmt.Sprintf("unknown command %q", cmd), nil)
	}
}

// cmdOn implements `on <cond> then <command...> else <command...>`:
// evaluate cond as a state predicate against the current session (via
// pick-state's satisfiability check, the cheapest existing probe for
// "does some state matching this predicate exist"), then run the then-
// or else-branch command. The else-branch is optional; omitting it and
// the condition being false is a no-op.
func cmdOn(cs *commandSet, args []string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}

	thenIdx := indexOf(args, "then")
	if thenIdx < 0 {
		return diag.New(diag.CodeCmdIllFormed, nil, "usage: on <cond> then <command> [else <command>]", nil)
	}
	condText := strings.Join(args[:thenIdx], " ")
	rest := args[thenIdx+1:]

	elseIdx := indexOf(rest, "else")
	var thenCmd, elseCmd string
	if elseIdx < 0 {
		thenCmd = strings.Join(rest, " ")
	} else {
		thenCmd = strings.Join(rest[:elseIdx], " ")
		elseCmd = strings.Join(rest[elseIdx+1:], " ")
	}
	if condText == "" || thenCmd == "" {
		return diag.New(diag.CodeCmdIllFormed, nil, "usage: on <cond> then <command> [else <command>]", nil)
	}

	prop, err := readProperty(sess, condText)
	if err != nil {
		return err
	}

	satisfiable, err := probeSatisfiable(sess, prop)
	if err != nil {
		return err
	}
	if satisfiable {
		return dispatch(cs, thenCmd, out)
	}
	if elseCmd != "" {
		return dispatch(cs, elseCmd, out)
	}
	return nil
}

// probeSatisfiable reports whether some state matches prop, by running
// PickState with prop as the sole constraint and reading back its
// SimInitialized/SimDeadlocked verdict.
func probeSatisfiable(sess *Session, prop *expr.Expr) (bool, error) {
	result, err := sess.Driver(nil).PickState([]*expr.Expr{prop})
	if err != nil {
		return false, err
	}
	return result.Status == algorithms.SimInitialized, nil
}

func indexOf(fields []string, tok string) int {
	for i, f := range fields {
		if f == tok {
			return i
		}
	}
	return -1
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "commands:")
	for _, name := range commandNames {
		fmt.Fprintf(out, "  %s\n", name)
	}
}

var dim = color.New(color.Faint).SprintFunc()
