package app

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/stats"
)

type statsOutput struct {
	Provider string        `json:"provider" yaml:"provider"`
	Sources  []stats.Entry `json:"sources" yaml:"sources"`
	Targets  []stats.Entry `json:"targets" yaml:"targets"`
}

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	provider := fs.String("provider", "", "Provider name (default: current provider)")
	limit := fs.Int("limit", 5, "Max languages per kind")
	format := fs.String("format", outputFormatTable, "Output format: table, json or yaml")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *limit <= 0 || *limit > 100 {
		fmt.Fprintln(stderr, "--limit must be between 1 and 100")
		return 2
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

	selected, err := rt.provider(*provider)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	out := statsOutput{Provider: selected.Name()}
	out.Sources, err = rt.manager.MostUsed(ctx, selected.Name(), stats.KindSource, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read stats: %v\n", err)
		return 1
	}
	out.Targets, err = rt.manager.MostUsed(ctx, selected.Name(), stats.KindTarget, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read stats: %v\n", err)
		return 1
	}

	if outputFormat != outputFormatTable {
		if err := printStructured(outputFormat, out); err != nil {
			fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeTable([]string{"KIND", "CODE", "NAME", "COUNT", "LAST USED"}, statsRows(out)); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func statsRows(out statsOutput) [][]string {
	rows := make([][]string, 0, len(out.Sources)+len(out.Targets))
	appendRows := func(kind stats.Kind, entries []stats.Entry) {
		for _, entry := range entries {
			rows = append(rows, []string{
				string(kind),
				entry.Code,
				truncateForTable(entry.Name, 24),
				strconv.FormatInt(entry.Count, 10),
				formatUTCTimestamp(entry.LastUsedAt),
			})
		}
	}
	appendRows(stats.KindSource, out.Sources)
	appendRows(stats.KindTarget, out.Targets)
	return rows
}
