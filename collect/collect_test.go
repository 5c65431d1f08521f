/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package collect_test

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"bennypowers.dev/precarica/collect"
	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/preload"
)

// appManifest is the shape a bundler emits for a small app: an HTML
// entry, a shared component chunk, and a lazily-loaded route.
func appManifest() manifest.Manifest {
	return manifest.Manifest{
		"index.html": {
			Src:     "index.html",
			File:    "/assets/index.js",
			IsEntry: true,
			Imports: []string{"src/App"},
			CSS:     []string{"/assets/index.css"},
		},
		"src/App": {
			Src:            "src/App.tsx",
			File:           "/assets/App.js",
			Imports:        []string{"src/shared"},
			DynamicImports: []string{"src/routes/About"},
			CSS:            []string{"/assets/App.css"},
		},
		"src/shared": {
			Src:    "src/shared.ts",
			File:   "/assets/shared.js",
			Assets: []string{"/assets/logo.svg"},
		},
		"src/routes/About": {
			Src:     "src/routes/About.tsx",
			File:    "/assets/About.js",
			CSS:     []string{"/assets/About.css"},
			Imports: []string{"src/shared"},
		},
	}
}

func hrefs(directives []preload.Directive) []string {
	result := make([]string, len(directives))
	for i, d := range directives {
		result[i] = d.Href
	}
	return result
}

func find(t *testing.T, directives []preload.Directive, href string) preload.Directive {
	t.Helper()
	for _, d := range directives {
		if d.Href == href {
			return d
		}
	}
	t.Fatalf("no directive for %s in %v", href, hrefs(directives))
	return preload.Directive{}
}

func TestNewSeedsEntrypoint(t *testing.T) {
	registry, err := collect.New(collect.Options{Manifest: appManifest()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	directives := registry.SortedDirectives()

	entry := find(t, directives, "/assets/index.js")
	if entry.Rel != preload.RelModule {
		t.Errorf("entry script rel = %q, want %q", entry.Rel, preload.RelModule)
	}
	if !entry.IsEntry {
		t.Error("entry script not flagged as entry")
	}

	// Statically reachable chunks are modulepreloads
	for _, href := range []string{"/assets/App.js", "/assets/shared.js"} {
		d := find(t, directives, href)
		if d.Rel != preload.RelModulePreload {
			t.Errorf("%s rel = %q, want %q", href, d.Rel, preload.RelModulePreload)
		}
	}

	// Dynamic imports are lazy boundaries, never collected eagerly
	for _, d := range directives {
		if strings.Contains(d.Href, "About") {
			t.Errorf("dynamic import chunk leaked into aggregate: %s", d.Href)
		}
	}
}

func TestEntryPropagation(t *testing.T) {
	registry, err := collect.New(collect.Options{Manifest: appManifest()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// src/shared is not an entry chunk itself, but was discovered
	// through the entrypoint, so it is entry-reachable.
	d := find(t, registry.SortedDirectives(), "/assets/shared.js")
	if !d.IsEntry {
		t.Error("chunk reached through the entry should carry the entry flag")
	}

	if tags := registry.RenderTags(false); tags != "" {
		t.Errorf("RenderTags(false) should exclude entry-reachable directives, got:\n%s", tags)
	}
	if tags := registry.RenderTags(true); !strings.Contains(tags, "/assets/shared.js") {
		t.Errorf("RenderTags(true) should include entry-reachable directives, got:\n%s", tags)
	}
}

func TestModuleTouchedIdempotent(t *testing.T) {
	registry, err := collect.New(collect.Options{Manifest: appManifest()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := registry.ModuleTouched("src/routes/About"); err != nil {
		t.Fatalf("ModuleTouched failed: %v", err)
	}
	once := registry.SortedDirectives()

	if err := registry.ModuleTouched("src/routes/About"); err != nil {
		t.Fatalf("repeat ModuleTouched failed: %v", err)
	}
	twice := registry.SortedDirectives()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("touching a module twice changed the aggregate:\n  once:  %v\n  twice: %v", once, twice)
	}
}

func TestOrderIndependentContent(t *testing.T) {
	m := appManifest()

	ab, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ba, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, id := range []string{"src/routes/About", "src/shared"} {
		if err := ab.ModuleTouched(id); err != nil {
			t.Fatalf("ModuleTouched(%s) failed: %v", id, err)
		}
	}
	for _, id := range []string{"src/shared", "src/routes/About"} {
		if err := ba.ModuleTouched(id); err != nil {
			t.Fatalf("ModuleTouched(%s) failed: %v", id, err)
		}
	}

	abHrefs := hrefs(ab.SortedDirectives())
	baHrefs := hrefs(ba.SortedDirectives())
	sort.Strings(abHrefs)
	sort.Strings(baHrefs)
	if !reflect.DeepEqual(abHrefs, baHrefs) {
		t.Errorf("aggregate content depends on touch order:\n  a,b: %v\n  b,a: %v", abHrefs, baHrefs)
	}
}

func TestSharedResourcesDeduplicated(t *testing.T) {
	m := appManifest()
	// Two chunks referencing the same stylesheet and asset
	m["src/App"].CSS = append(m["src/App"].CSS, "/assets/theme.css")
	m["src/shared"].CSS = []string{"/assets/theme.css"}
	m["src/routes/About"].Assets = []string{"/assets/logo.svg"}

	registry, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := registry.ModuleTouched("src/routes/About"); err != nil {
		t.Fatalf("ModuleTouched failed: %v", err)
	}

	counts := make(map[string]int)
	for _, href := range hrefs(registry.SortedDirectives()) {
		counts[href]++
	}
	for href, n := range counts {
		if n != 1 {
			t.Errorf("%s appears %d times in aggregate, want 1", href, n)
		}
	}
}

func TestFirstWriterWinsClassification(t *testing.T) {
	// The same file reachable both as the entrypoint and through a
	// second chunk keeps its first classification.
	m := appManifest()
	m["src/extra"] = &manifest.Chunk{
		Src:  "src/extra.ts",
		File: "/assets/index.js", // shares the entry's file
	}

	registry, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := registry.ModuleTouched("src/extra"); err != nil {
		t.Fatalf("ModuleTouched failed: %v", err)
	}

	d := find(t, registry.SortedDirectives(), "/assets/index.js")
	if d.Rel != preload.RelModule {
		t.Errorf("later collection overwrote first classification: rel = %q", d.Rel)
	}
}

func TestSharedFileChunkSkippedWhole(t *testing.T) {
	// A chunk whose file is already represented speaks through the first
	// claimant: its own CSS and assets must not join the aggregate either.
	m := appManifest()
	m["src/extra"] = &manifest.Chunk{
		Src:    "src/extra.ts",
		File:   "/assets/index.js", // shares the entry's file
		CSS:    []string{"/assets/extra.css"},
		Assets: []string{"/assets/extra.svg"},
	}

	registry, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := registry.ModuleTouched("src/extra"); err != nil {
		t.Fatalf("ModuleTouched failed: %v", err)
	}

	directives := registry.SortedDirectives()
	for _, d := range directives {
		if d.Href == "/assets/extra.css" || d.Href == "/assets/extra.svg" {
			t.Errorf("resource of a file-sharing chunk leaked into the aggregate: %s", d.Href)
		}
	}
	if d := find(t, directives, "/assets/index.js"); d.Rel != preload.RelModule {
		t.Errorf("shared file rel = %q, want %q", d.Rel, preload.RelModule)
	}
}

func TestCycleSafety(t *testing.T) {
	m := manifest.Manifest{
		"index.html": {
			Src:     "index.html",
			File:    "/assets/index.js",
			IsEntry: true,
			Imports: []string{"src/a"},
		},
		"src/a": {
			Src:     "src/a.ts",
			File:    "/assets/a.js",
			Imports: []string{"src/b"},
			CSS:     []string{"/assets/a.css"},
		},
		"src/b": {
			Src:     "src/b.ts",
			File:    "/assets/b.js",
			Imports: []string{"src/a"},
			CSS:     []string{"/assets/b.css"},
		},
	}

	registry, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed on cyclic manifest: %v", err)
	}

	got := hrefs(registry.SortedDirectives())
	sort.Strings(got)
	want := []string{
		"/assets/a.css", "/assets/a.js",
		"/assets/b.css", "/assets/b.js",
		"/assets/index.js",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cyclic collection mismatch:\n  got:  %v\n  want: %v", got, want)
	}
}

func TestMissingChunkIsConsistencyError(t *testing.T) {
	m := appManifest()
	m["src/App"].Imports = append(m["src/App"].Imports, "ghost")

	_, err := collect.New(collect.Options{Manifest: m})
	if err == nil {
		t.Fatal("expected consistency error for import edge to absent module")
	}
	if !strings.Contains(err.Error(), `"ghost"`) {
		t.Errorf("error should name the missing module, got: %v", err)
	}
}

func TestTouchedSoftMiss(t *testing.T) {
	registry, err := collect.New(collect.Options{Manifest: appManifest()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	before := registry.SortedDirectives()

	// Inlined modules own no chunk; reporting them is not an error.
	if err := registry.ModuleTouched("src/inlined-helper"); err != nil {
		t.Fatalf("touched module without a chunk should be a no-op, got: %v", err)
	}

	after := registry.SortedDirectives()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("soft miss changed the aggregate:\n  before: %v\n  after:  %v", before, after)
	}
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts collect.Options
		want string
	}{
		{
			name: "no source",
			opts: collect.Options{},
			want: collect.ErrNoSource.Error(),
		},
		{
			name: "entrypoint absent",
			opts: collect.Options{Manifest: appManifest(), Entrypoint: "missing.html"},
			want: "no such entry",
		},
		{
			name: "entrypoint not an entry",
			opts: collect.Options{Manifest: appManifest(), Entrypoint: "src/App"},
			want: "not an entry module",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect.New(tt.opts)
			if err == nil {
				t.Fatal("expected construction to fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	t.Run("no source sentinel", func(t *testing.T) {
		_, err := collect.New(collect.Options{})
		if !errors.Is(err, collect.ErrNoSource) {
			t.Errorf("error = %v, want ErrNoSource", err)
		}
	})
}

func TestMinimalAppScenario(t *testing.T) {
	m := manifest.Manifest{
		"index.html": {
			Src:     "index.html",
			File:    "/assets/index.js",
			IsEntry: true,
			Imports: []string{"src/App"},
			CSS:     []string{"/assets/index.css"},
		},
		"src/App": {
			Src:  "src/App.tsx",
			File: "/assets/App.js",
		},
	}

	registry, err := collect.New(collect.Options{Manifest: m})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	directives := registry.SortedDirectives()
	if len(directives) != 3 {
		t.Fatalf("expected 3 directives, got %d: %v", len(directives), hrefs(directives))
	}

	wantRels := map[string]preload.Rel{
		"/assets/index.js":  preload.RelModule,
		"/assets/index.css": preload.RelStylesheet,
		"/assets/App.js":    preload.RelModulePreload,
	}
	for href, rel := range wantRels {
		d := find(t, directives, href)
		if d.Rel != rel {
			t.Errorf("%s rel = %q, want %q", href, d.Rel, rel)
		}
		if !d.IsEntry {
			t.Errorf("%s should be entry-flagged", href)
		}
	}

	if tags := registry.RenderTags(false); tags != "" {
		t.Errorf("RenderTags(false) = %q, want empty", tags)
	}

	tags := registry.RenderTags(true)
	for href := range wantRels {
		if !strings.Contains(tags, href) {
			t.Errorf("RenderTags(true) missing %s:\n%s", href, tags)
		}
	}
}

func TestLiveGraphStrategy(t *testing.T) {
	graph := manifest.ModuleGraph{
		"index.html": {
			ID:              "index.html",
			URL:             "/index.html.js",
			IsEntry:         true,
			ImportedModules: []string{"src/App.tsx"},
		},
		"src/App.tsx": {
			ID:              "src/App.tsx",
			URL:             "/src/App.tsx",
			ImportedModules: []string{"src/shared.ts"},
			CSS:             []string{"/src/App.css"},
		},
		"src/shared.ts": {
			ID:  "src/shared.ts",
			URL: "/src/shared.ts",
			// structural cycle back to the importer
			ImportedModules: []string{"src/App.tsx"},
		},
	}

	registry, err := collect.New(collect.Options{Graph: graph})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := registry.ModuleTouched("src/shared.ts"); err != nil {
		t.Fatalf("ModuleTouched failed: %v", err)
	}

	directives := registry.SortedDirectives()

	entry := find(t, directives, "/index.html.js")
	if entry.Rel != preload.RelModule {
		t.Errorf("graph entry rel = %q, want %q", entry.Rel, preload.RelModule)
	}
	css := find(t, directives, "/src/App.css")
	if css.Rel != preload.RelStylesheet {
		t.Errorf("graph css rel = %q, want %q", css.Rel, preload.RelStylesheet)
	}

	got := hrefs(directives)
	sort.Strings(got)
	want := []string{"/index.html.js", "/src/App.css", "/src/App.tsx", "/src/shared.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("graph collection mismatch:\n  got:  %v\n  want: %v", got, want)
	}
}

func TestManifestWinsOverGraph(t *testing.T) {
	m := appManifest()
	graph := manifest.ModuleGraph{
		"index.html": {ID: "index.html", URL: "/dev/index.js", IsEntry: true},
	}

	registry, err := collect.New(collect.Options{Manifest: m, Graph: graph})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	directives := registry.SortedDirectives()
	find(t, directives, "/assets/index.js")
	for _, d := range directives {
		if d.Href == "/dev/index.js" {
			t.Error("graph source used despite manifest being configured")
		}
	}
}
