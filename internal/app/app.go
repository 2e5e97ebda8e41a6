package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "translate":
		return runTranslate(args[1:])
	case "providers":
		return runProviders(args[1:])
	case "prefs":
		return runPrefs(args[1:])
	case "models":
		return runModels(args[1:])
	case "stats":
		return runStats(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(stderr, "translator CLI")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  translator <command> [flags]")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Commands:")
	fmt.Fprintln(stderr, "  translate   Translate text from arguments, stdin or a web page")
	fmt.Fprintln(stderr, "  providers   List providers or change the current and default one")
	fmt.Fprintln(stderr, "  prefs       Show or edit a provider's language preferences")
	fmt.Fprintln(stderr, "  models      List the installed local engine models")
	fmt.Fprintln(stderr, "  stats       Show the most used languages of a provider")
	fmt.Fprintln(stderr, "  settings    Read or write a raw settings key")
	fmt.Fprintln(stderr, "  hash-token  Print the API_TOKEN_HASH value for a token")
	fmt.Fprintln(stderr, "  serve       Start Echo API server")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Use \"translator <command> -h\" for command-specific flags.")
}
