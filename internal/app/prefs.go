package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/prefs"
)

type prefsOutput struct {
	Provider         string `json:"provider" yaml:"provider"`
	DefaultSource    string `json:"default_source" yaml:"default_source"`
	DefaultTarget    string `json:"default_target" yaml:"default_target"`
	LastSource       string `json:"last_source" yaml:"last_source"`
	LastTarget       string `json:"last_target" yaml:"last_target"`
	RememberLastLang bool   `json:"remember_last_lang" yaml:"remember_last_lang"`
	EffectiveSource  string `json:"effective_source" yaml:"effective_source"`
	EffectiveTarget  string `json:"effective_target" yaml:"effective_target"`
}

func runPrefs(args []string) int {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}
	switch action {
	case "show", "set", "swap", "reset":
	default:
		fmt.Fprintf(stderr, "Unknown prefs action: %s\n\n", action)
		printPrefsUsage()
		return 2
	}

	fs := flag.NewFlagSet("prefs "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	provider := fs.String("provider", "", "Provider name (default: current provider)")
	format := fs.String("format", outputFormatTable, "Output format: table, json or yaml")
	source := fs.String("source", "", "prefs set: default source language code or auto")
	target := fs.String("target", "", "prefs set: default target language code")
	remember := fs.String("remember", "", "prefs set: remember the last used pair (true or false)")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "prefs %s takes no arguments\n", action)
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var rememberValue *bool
	if raw := strings.TrimSpace(*remember); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			fmt.Fprintln(stderr, "--remember must be true or false")
			return 2
		}
		rememberValue = &parsed
	}
	if action == "set" && strings.TrimSpace(*source) == "" && strings.TrimSpace(*target) == "" && rememberValue == nil {
		fmt.Fprintln(stderr, "prefs set requires at least one of --source, --target or --remember")
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
	p := selected.Preferences()

	switch action {
	case "set":
		err = applyPrefs(p, strings.TrimSpace(*source), strings.TrimSpace(*target), rememberValue)
	case "swap":
		_, _, err = p.Swap()
		if errors.Is(err, prefs.ErrSwapAuto) {
			fmt.Fprintln(stderr, "Cannot swap languages while the source language is auto")
			return 1
		}
	case "reset":
		_, _, err = p.Reset()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Failed to update preferences: %v\n", err)
		return 1
	}

	out := buildPrefsOutput(p)
	if outputFormat != outputFormatTable {
		if err := printStructured(outputFormat, out); err != nil {
			fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeTable([]string{"PROVIDER", "DEFAULT", "LAST", "REMEMBER", "EFFECTIVE"}, [][]string{{
		out.Provider,
		out.DefaultSource + " -> " + out.DefaultTarget,
		out.LastSource + " -> " + out.LastTarget,
		yesNo(out.RememberLastLang),
		out.EffectiveSource + " -> " + out.EffectiveTarget,
	}}); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func applyPrefs(p *prefs.Preferences, source, target string, remember *bool) error {
	if source != "" {
		if err := p.SetDefaultSource(source); err != nil {
			return err
		}
	}
	if target != "" {
		if err := p.SetDefaultTarget(target); err != nil {
			return err
		}
	}
	if remember != nil {
		if err := p.SetRememberLastLang(*remember); err != nil {
			return err
		}
	}
	return nil
}

func buildPrefsOutput(p *prefs.Preferences) prefsOutput {
	record := p.Record()
	source, target := p.EffectivePair()
	return prefsOutput{
		Provider:         p.Name(),
		DefaultSource:    record.DefaultSource,
		DefaultTarget:    record.DefaultTarget,
		LastSource:       record.LastSource,
		LastTarget:       record.LastTarget,
		RememberLastLang: record.RememberLastLang,
		EffectiveSource:  source,
		EffectiveTarget:  target,
	}
}

func printPrefsUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  translator prefs [show] [--provider NAME] [flags]")
	fmt.Fprintln(stderr, "  translator prefs set [--source CODE] [--target CODE] [--remember BOOL] [flags]")
	fmt.Fprintln(stderr, "  translator prefs swap [--provider NAME] [flags]")
	fmt.Fprintln(stderr, "  translator prefs reset [--provider NAME] [flags]")
}
