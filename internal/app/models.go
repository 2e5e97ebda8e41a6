package app

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/translation"
)

func runModels(args []string) int {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table, json or yaml")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := openRuntime(ctx, envLoader, runtimeOptions{})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer rt.Close()

	local, ok := rt.registry.ByName(translation.LocallyName).(*translation.LocalProvider)
	if !ok {
		fmt.Fprintf(stderr, "The local translation engine %q was not found\n", rt.cfg.LocalBinary)
		return 1
	}
	models := local.Catalog().Models()

	if outputFormat != outputFormatTable {
		if err := printStructured(outputFormat, models); err != nil {
			fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(models))
	for _, model := range models {
		rows = append(rows, []string{
			model.ID,
			model.Source,
			model.Target,
			truncateForTable(model.SourceLabel+" -> "+model.TargetLabel, 40),
			model.Type,
			strconv.Itoa(model.Version),
		})
	}
	if err := writeTable([]string{"ID", "SOURCE", "TARGET", "LANGUAGES", "TYPE", "VERSION"}, rows); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
