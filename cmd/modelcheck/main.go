// Command modelcheck is the CLI/REPL front end for the bounded
// symbolic model checker. It supports two modes: invoked with a
// subcommand it runs exactly one operation and exits (for scripting
// and CI); invoked with no arguments, or with "repl", it drops into an
// interactive session over the same command dispatcher, in the style
// of cmd/ailang's run/repl split.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sunholo/ailang/internal/diag"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		versionFlag  = flag.Bool("version", false, "Print version information")
		helpFlag     = flag.Bool("help", false, "Show help")
		modelFlag    = flag.String("model", "", "Model file to load before running the command")
		microcodeDir = flag.String("microcode-dir", "", "Directory for on-disk microcode caching (empty disables it)")
		logLevel     = flag.String("log-level", "silent", "Logger verbosity: silent, info, trace, debug")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag {
		printHelp()
		return
	}

	log := diag.NewLogger(os.Stderr, parseLogLevel(*logLevel))
	cs := &commandSet{microcodeDir: *microcodeDir, log: log}

	if *modelFlag != "" {
		sess, err := LoadSessionFile(*modelFlag, *microcodeDir, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
			os.Exit(1)
		}
		cs.sess = sess
	}

	args := flag.Args()
	if len(args) == 0 || args[0] == "repl" {
		NewREPL(cs).Start(os.Stdout)
		return
	}

	if err := dispatch(cs, strings.Join(args, " "), os.Stdout); err != nil {
		printCommandError(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func parseLogLevel(name string) diag.Level {
	switch strings.ToLower(name) {
	case "info":
		return diag.LevelInfo
	case "trace":
		return diag.LevelTrace
	case "debug":
		return diag.LevelDebug
	default:
		return diag.LevelSilent
	}
}

// exitCodeFor maps any command error to a nonzero exit code, per
// spec.md §6: "0 success; nonzero on parse/analysis/runtime error."
// The model checker does not currently distinguish exit codes by
// error phase, only success from failure.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func printVersion() {
	fmt.Printf("modelcheck %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("modelcheck - bounded symbolic model checker"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  modelcheck [flags] [command [args...]]")
	fmt.Println()
	fmt.Println("With no command, or with 'repl', starts an interactive session.")
	fmt.Println()
	printCommandList(os.Stdout)
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -model <file>          load a model before running the command")
	fmt.Println("  -microcode-dir <dir>   enable on-disk microcode caching")
	fmt.Println("  -log-level <level>     silent, info, trace, or debug")
	fmt.Println("  -version               print version information")
	fmt.Println("  -help                  show this help message")
}

func printCommandList(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandNames {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
