package translation

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"horse.fit/translator/internal/language"
)

// PivotLanguage bridges two models when no direct one exists.
const PivotLanguage = "en"

var modelLinePattern = regexp.MustCompile(`(\w+)-(\w+)\s+type:\s+(\w+)\s+version:\s+(\d+);\s+To invoke do -m (\w+-\w+-\w+)(?:\s|$)`)

// noiseMarkers are diagnostics the engine's toolkit prints on its streams.
var noiseMarkers = []string{
	"QVariant::load",
}

// Model is one installed language-pair model of the local engine.
type Model struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	SourceLabel string `json:"source_label,omitempty"`
	TargetLabel string `json:"target_label,omitempty"`
	Type        string `json:"type"`
	Version     int    `json:"version"`
}

// Catalog is the source -> target -> model map. Read-only once parsed.
type Catalog struct {
	models map[string]map[string]Model
	order  []string
}

// ParseCatalog parses the engine's model listing. Lines that do not match the
// listing format are dropped; a later line for the same pair replaces an
// earlier one.
func ParseCatalog(output string) *Catalog {
	catalog := &Catalog{models: make(map[string]map[string]Model)}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isNoise(line) {
			continue
		}
		model, ok := parseModelLine(line)
		if !ok {
			continue
		}
		catalog.add(model)
	}
	return catalog
}

func parseModelLine(line string) (Model, bool) {
	match := modelLinePattern.FindStringSubmatch(line)
	if match == nil {
		return Model{}, false
	}

	version, err := strconv.Atoi(match[4])
	if err != nil {
		return Model{}, false
	}

	// Pair codes come from the model id; the listing label may spell out
	// language names ("Czech-English") instead of codes.
	parts := strings.SplitN(match[5], "-", 3)
	source := language.NormalizeTag(parts[0])
	target := language.NormalizeTag(parts[1])
	if source == "" || target == "" {
		return Model{}, false
	}

	return Model{
		ID:          match[5],
		Source:      source,
		Target:      target,
		SourceLabel: match[1],
		TargetLabel: match[2],
		Type:        match[3],
		Version:     version,
	}, true
}

func (c *Catalog) add(model Model) {
	targets, ok := c.models[model.Source]
	if !ok {
		targets = make(map[string]Model)
		c.models[model.Source] = targets
	}
	if _, exists := targets[model.Target]; !exists {
		c.order = append(c.order, model.Source+"\x00"+model.Target)
	}
	targets[model.Target] = model
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Models returns installed models in listing order.
func (c *Catalog) Models() []Model {
	if c == nil {
		return nil
	}
	models := make([]Model, 0, len(c.order))
	for _, key := range c.order {
		source, target, _ := strings.Cut(key, "\x00")
		models = append(models, c.models[source][target])
	}
	return models
}

func (c *Catalog) Lookup(source, target string) (Model, bool) {
	if c == nil {
		return Model{}, false
	}
	model, ok := c.models[source][target]
	return model, ok
}

// Route returns the models to chain for source -> target: the direct model
// when installed, else source -> en -> target, else false.
func (c *Catalog) Route(source, target string) ([]Model, bool) {
	if direct, ok := c.Lookup(source, target); ok {
		return []Model{direct}, true
	}

	first, ok := c.Lookup(source, PivotLanguage)
	if !ok {
		return nil, false
	}
	second, ok := c.Lookup(PivotLanguage, target)
	if !ok {
		return nil, false
	}
	return []Model{first, second}, true
}

// Sources returns the codes with at least one outgoing model, sorted.
func (c *Catalog) Sources() []string {
	if c == nil {
		return nil
	}
	sources := make([]string, 0, len(c.models))
	for source := range c.models {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// Targets returns the codes reachable from source by a direct or bridged route, sorted.
func (c *Catalog) Targets(source string) []string {
	if c == nil {
		return nil
	}
	reachable := make(map[string]struct{})
	for target := range c.models[source] {
		reachable[target] = struct{}{}
	}
	if _, ok := c.Lookup(source, PivotLanguage); ok {
		for target := range c.models[PivotLanguage] {
			if target != source {
				reachable[target] = struct{}{}
			}
		}
	}

	targets := make([]string, 0, len(reachable))
	for target := range reachable {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// Codes returns every code appearing on either side of a model, sorted.
func (c *Catalog) Codes() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for source, targets := range c.models {
		seen[source] = struct{}{}
		for target := range targets {
			seen[target] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// label returns the listing's spelled-out name for code, if it has one.
func (c *Catalog) label(code string) string {
	for _, model := range c.Models() {
		switch {
		case model.Source == code && !strings.EqualFold(model.SourceLabel, code):
			return model.SourceLabel
		case model.Target == code && !strings.EqualFold(model.TargetLabel, code):
			return model.TargetLabel
		}
	}
	return ""
}

func isNoise(line string) bool {
	for _, marker := range noiseMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
