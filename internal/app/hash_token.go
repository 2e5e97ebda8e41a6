package app

import (
	"bufio"
	"flag"
	"fmt"
	"strings"

	"horse.fit/translator/internal/auth"
)

// runHashToken prints the bcrypt hash to store in API_TOKEN_HASH. The token is
// read from stdin when no argument is given so it stays out of shell history.
func runHashToken(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
	fs.SetOutput(stderr)

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "hash-token takes at most one argument")
		return 2
	}

	token := fs.Arg(0)
	if fs.NArg() == 0 {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			fmt.Fprintln(stderr, "hash-token requires a token argument or one line on stdin")
			return 2
		}
		token = line
	}

	hash, err := auth.HashToken(token)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	fmt.Fprintln(stdout, hash)
	return 0
}
