package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/i18n"
	"horse.fit/translator/internal/reader"
	"horse.fit/translator/internal/translation"
)

type translateOutput struct {
	Text       string   `json:"text" yaml:"text"`
	SourceLang string   `json:"source_lang" yaml:"source_lang"`
	TargetLang string   `json:"target_lang" yaml:"target_lang"`
	Provider   string   `json:"provider" yaml:"provider"`
	Models     []string `json:"models,omitempty" yaml:"models,omitempty"`
	RequestID  string   `json:"request_id" yaml:"request_id"`
	LatencyMs  int64    `json:"latency_ms" yaml:"latency_ms"`
	Clipped    bool     `json:"clipped,omitempty" yaml:"clipped,omitempty"`
}

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	from := fs.String("from", "", "Source language code or auto (default: provider preference)")
	to := fs.String("to", "", "Target language code (default: provider preference)")
	provider := fs.String("provider", "", "Provider name (default: current provider)")
	pageURL := fs.String("url", "", "Translate the readable text of this web page")
	format := fs.String("format", outputFormatTable, "Output format: table (plain text), json or yaml")
	noLocal := fs.Bool("no-local", false, "Do not start the local translation engine")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	url := strings.TrimSpace(*pageURL)
	if text != "" && url != "" {
		fmt.Fprintln(stderr, "pass either text arguments or --url, not both")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := openRuntime(ctx, envLoader, runtimeOptions{skipLocal: *noLocal})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer rt.Close()

	target, err := rt.provider(*provider)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	clipped := false
	switch {
	case url != "":
		text, clipped, err = readPage(ctx, rt, url, target.CharacterLimit())
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read page: %v\n", err)
			return 1
		}
		if clipped {
			fmt.Fprintln(stderr, rt.messages.T("", i18n.MsgInputClipped, map[string]any{"Limit": target.CharacterLimit()}))
		}
	case text == "":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read stdin: %v\n", err)
			return 1
		}
		text = strings.TrimSpace(string(raw))
	}

	req := translation.TranslateRequest{
		Text:       text,
		SourceLang: strings.TrimSpace(*from),
		TargetLang: strings.TrimSpace(*to),
	}
	resp, err := rt.manager.TranslateWith(ctx, target.Name(), req)
	if err != nil {
		rt.logger.Debug().Err(err).Str("provider", target.Name()).Msg("translate command failed")
		fmt.Fprintln(stderr, rt.messages.Error("", err))
		return 1
	}

	if outputFormat == outputFormatTable {
		fmt.Fprintln(stdout, resp.Text)
		return 0
	}

	out := translateOutput{
		Text:       resp.Text,
		SourceLang: resp.SourceLang,
		TargetLang: resp.TargetLang,
		Provider:   resp.ProviderName,
		Models:     resp.Models,
		RequestID:  resp.RequestID,
		LatencyMs:  resp.LatencyMs,
		Clipped:    clipped,
	}
	if err := printStructured(outputFormat, out); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

// readPage extracts the readable text of a page and clips it to limit runes.
func readPage(ctx context.Context, rt *runtime, url string, limit int) (string, bool, error) {
	text, err := reader.FetchText(ctx, url, reader.FetchOptions{
		Timeout:        rt.cfg.HTTPTimeout,
		Proxy:          rt.cfg.HTTPProxy,
		AcceptLanguage: rt.messages.Locale(),
	})
	if err != nil {
		return "", false, err
	}
	clippedText, clipped := reader.ClipToLimit(text, limit)
	return clippedText, clipped, nil
}
