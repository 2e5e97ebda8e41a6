package app

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/settings"
	"horse.fit/translator/internal/translation"
)

var secretKeys = map[string]bool{
	settings.KeyDeeplAPIKey:  true,
	settings.KeyYandexAPIKey: true,
}

func runSettings(args []string) int {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}

	expectedArgs := 0
	switch action {
	case "list":
	case "get":
		expectedArgs = 1
	case "set":
		expectedArgs = 2
	default:
		fmt.Fprintf(stderr, "Unknown settings action: %s\n\n", action)
		printSettingsUsage()
		return 2
	}

	fs := flag.NewFlagSet("settings "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	reveal := fs.Bool("reveal", false, "Print API keys instead of masking them")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != expectedArgs {
		printSettingsUsage()
		return 2
	}

	key := strings.TrimSpace(fs.Arg(0))
	if action != "list" {
		if err := settings.ValidateKey(key); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	store, err := openSettings(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch action {
	case "get":
		fmt.Fprintln(stdout, settingValue(store, key, *reveal))
	case "set":
		if err := setSetting(store, key, fs.Arg(1)); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		logger.Info().Str("key", key).Str("path", store.Path()).Msg("setting updated")
	default:
		rows := make([][]string, 0, len(settings.Keys()))
		for _, known := range settings.Keys() {
			rows = append(rows, []string{known, truncateForTable(settingValue(store, known, *reveal), 60)})
		}
		if err := writeTable([]string{"KEY", "VALUE"}, rows); err != nil {
			fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
			return 1
		}
	}
	return 0
}

func settingValue(store settings.Store, key string, reveal bool) string {
	if settings.IsBoolKey(key) {
		return strconv.FormatBool(store.GetBool(key))
	}
	value := store.GetString(key)
	if secretKeys[key] && !reveal {
		return maskSecret(value)
	}
	return value
}

func setSetting(store settings.Store, key, raw string) error {
	if settings.IsBoolKey(key) {
		value, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		return store.SetBool(key, value)
	}

	value := strings.TrimSpace(raw)
	if key == settings.KeyDeeplAPIKey && value != "" && !translation.ValidDeeplKey(value) {
		fmt.Fprintln(stderr, "Warning: the value does not look like a DeepL API key, DeepL stays unavailable")
	}
	return store.SetString(key, value)
}

// maskSecret keeps the last four characters of a credential.
func maskSecret(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

func printSettingsUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  translator settings [list] [--reveal]")
	fmt.Fprintln(stderr, "  translator settings get [--reveal] <key>")
	fmt.Fprintln(stderr, "  translator settings set <key> <value>")
}
