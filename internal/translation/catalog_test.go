package translation

import (
	"reflect"
	"testing"
)

const sampleListing = `QVariant::load: unknown user type with name BergamotModelVersion.
Czech-English type: base version: 1; To invoke do -m cs-en-base
English-Czech type: base version: 1; To invoke do -m en-cs-base
English-German type: base version: 2; To invoke do -m en-de-base
German-English type: base version: 2; To invoke do -m de-en-base
Italian-English type: tiny version: 1; To invoke do -m it-en-tiny
English-French type: tiny version: 1; To invoke do -m en-fr-tiny
`

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog(sampleListing)
	if catalog.Len() != 6 {
		t.Fatalf("expected 6 models, got %d", catalog.Len())
	}

	model, ok := catalog.Lookup("cs", "en")
	if !ok {
		t.Fatalf("expected cs->en model")
	}
	want := Model{ID: "cs-en-base", Source: "cs", Target: "en", SourceLabel: "Czech", TargetLabel: "English", Type: "base", Version: 1}
	if model != want {
		t.Fatalf("unexpected model: %+v", model)
	}

	if got := catalog.Sources(); !reflect.DeepEqual(got, []string{"cs", "de", "en", "it"}) {
		t.Fatalf("unexpected sources: %v", got)
	}
	if got := catalog.Codes(); !reflect.DeepEqual(got, []string{"cs", "de", "en", "fr", "it"}) {
		t.Fatalf("unexpected codes: %v", got)
	}
	if got := catalog.Models()[0].ID; got != "cs-en-base" {
		t.Fatalf("expected listing order, first model %q", got)
	}
}

func TestParseCatalogDropsMalformedLines(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog(`en-de type: base version: 1; To invoke do -m en-de-base
garbage line
en-fr type: base version: x; To invoke do -m en-fr-base
en-es type: base version: 1; To invoke do -m en-es

`)
	if catalog.Len() != 1 {
		t.Fatalf("expected only the well-formed model, got %d: %+v", catalog.Len(), catalog.Models())
	}
	if _, ok := catalog.Lookup("en", "de"); !ok {
		t.Fatalf("expected en->de model")
	}
}

func TestParseCatalogLaterDuplicateWins(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog(`en-de type: tiny version: 1; To invoke do -m en-de-tiny
en-de type: base version: 3; To invoke do -m en-de-base
`)
	if catalog.Len() != 1 {
		t.Fatalf("expected one pair, got %d", catalog.Len())
	}
	model, _ := catalog.Lookup("en", "de")
	if model.ID != "en-de-base" || model.Version != 3 {
		t.Fatalf("expected later model to win, got %+v", model)
	}
}

func TestParseCatalogEmptyOutput(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog("")
	if catalog.Len() != 0 || len(catalog.Sources()) != 0 {
		t.Fatalf("expected empty catalog")
	}
}

func TestCatalogRoute(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog(sampleListing)

	route, ok := catalog.Route("en", "de")
	if !ok || len(route) != 1 || route[0].ID != "en-de-base" {
		t.Fatalf("expected direct route, got %+v %v", route, ok)
	}

	route, ok = catalog.Route("it", "de")
	if !ok || len(route) != 2 {
		t.Fatalf("expected bridged route, got %+v %v", route, ok)
	}
	if route[0].ID != "it-en-tiny" || route[1].ID != "en-de-base" {
		t.Fatalf("unexpected bridge: %s -> %s", route[0].ID, route[1].ID)
	}

	if _, ok := catalog.Route("fr", "it"); ok {
		t.Fatalf("expected no route from fr to it")
	}
	if _, ok := catalog.Route("de", "it"); ok {
		t.Fatalf("expected no route from de to it")
	}
}

func TestCatalogTargetsIncludeBridged(t *testing.T) {
	t.Parallel()

	catalog := ParseCatalog(sampleListing)
	if got := catalog.Targets("it"); !reflect.DeepEqual(got, []string{"cs", "de", "en", "fr"}) {
		t.Fatalf("unexpected targets for it: %v", got)
	}
	if got := catalog.Targets("en"); !reflect.DeepEqual(got, []string{"cs", "de", "fr"}) {
		t.Fatalf("unexpected targets for en: %v", got)
	}
	if got := catalog.Targets("fr"); len(got) != 0 {
		t.Fatalf("expected no targets for fr, got %v", got)
	}
}
