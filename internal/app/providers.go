package app

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/translation"
)

type providerRow struct {
	Name           string `json:"name" yaml:"name"`
	EngineID       string `json:"engine_id" yaml:"engine_id"`
	Available      bool   `json:"available" yaml:"available"`
	Current        bool   `json:"current" yaml:"current"`
	Default        bool   `json:"default" yaml:"default"`
	CharacterLimit int    `json:"character_limit" yaml:"character_limit"`
	Languages      int    `json:"languages" yaml:"languages"`
}

func runProviders(args []string) int {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}
	switch action {
	case "list", "current", "use", "default":
	default:
		fmt.Fprintf(stderr, "Unknown providers action: %s\n\n", action)
		printProvidersUsage()
		return 2
	}

	fs := flag.NewFlagSet("providers "+action, flag.ContinueOnError)
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

	name := ""
	switch action {
	case "use", "default":
		if fs.NArg() != 1 {
			fmt.Fprintf(stderr, "providers %s requires one provider name\n", action)
			return 2
		}
		name = strings.TrimSpace(fs.Arg(0))
	default:
		if fs.NArg() != 0 {
			fmt.Fprintf(stderr, "providers %s takes no arguments\n", action)
			return 2
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := openRuntime(ctx, envLoader, runtimeOptions{})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer rt.Close()

	registry := rt.registry
	switch action {
	case "use":
		if registry.ByName(name) == nil {
			fmt.Fprintf(stderr, "unknown provider %q\n", name)
			return 2
		}
		selected, err := registry.SetCurrent(name)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to select provider: %v\n", err)
			return 1
		}
		if !strings.EqualFold(selected.Name(), name) {
			fmt.Fprintf(stderr, "%s is not available, using %s\n", name, selected.Name())
		}
	case "default":
		if err := registry.SetDefault(name); err != nil {
			fmt.Fprintf(stderr, "Failed to set default provider: %v\n", err)
			return 1
		}
	}

	rows := providerRows(registry)
	if action == "current" {
		rows = filterCurrent(rows)
	}

	if outputFormat != outputFormatTable {
		if err := printStructured(outputFormat, rows); err != nil {
			fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Name,
			row.EngineID,
			yesNo(row.Available),
			yesNo(row.Current),
			yesNo(row.Default),
			strconv.Itoa(row.CharacterLimit),
			strconv.Itoa(row.Languages),
		})
	}
	if err := writeTable([]string{"NAME", "ENGINE", "AVAILABLE", "CURRENT", "DEFAULT", "LIMIT", "LANGUAGES"}, tableRows); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func providerRows(registry *translation.Registry) []providerRow {
	current := registry.Current()
	defaultProvider := registry.Default()

	rows := make([]providerRow, 0, len(registry.Providers()))
	for _, provider := range registry.Providers() {
		rows = append(rows, providerRow{
			Name:           provider.Name(),
			EngineID:       provider.EngineID(),
			Available:      provider.IsAvailable(),
			Current:        current != nil && current.Name() == provider.Name(),
			Default:        defaultProvider != nil && defaultProvider.Name() == provider.Name(),
			CharacterLimit: provider.CharacterLimit(),
			Languages:      len(provider.Languages()),
		})
	}
	return rows
}

func filterCurrent(rows []providerRow) []providerRow {
	for _, row := range rows {
		if row.Current {
			return []providerRow{row}
		}
	}
	return nil
}

func printProvidersUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  translator providers [list] [flags]")
	fmt.Fprintln(stderr, "  translator providers current [flags]")
	fmt.Fprintln(stderr, "  translator providers use <name> [flags]")
	fmt.Fprintln(stderr, "  translator providers default <name> [flags]")
}
