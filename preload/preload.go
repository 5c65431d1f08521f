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
// Package preload provides the preload directive type, the deduplicated
// directive set that accumulates over a rendering request, and rendering
// of directives as HTML tags or an HTTP Link header.
package preload

import "sort"

// Rel classifies how a preloaded resource relates to the document.
type Rel string

const (
	// RelModule is the configured entrypoint's own script.
	RelModule Rel = "module"
	// RelModulePreload is a script chunk preloaded ahead of use.
	RelModulePreload Rel = "modulepreload"
	// RelStylesheet is an associated stylesheet.
	RelStylesheet Rel = "stylesheet"
	// RelPreload is a generic static asset.
	RelPreload Rel = "preload"
)

// Directive is one resource destined for tag or header rendering.
// Directives are created once per distinct Href and never updated:
// when the same resource is reachable through several chunks, the
// first-encountered classification survives.
type Directive struct {
	Rel  Rel    `json:"rel"`
	Href string `json:"href"`

	// IsEntry records whether the chunk this directive was discovered
	// through, or any ancestor on that discovery path, is an entry chunk.
	IsEntry bool `json:"isEntry"`

	// Comment carries free-form diagnostics about where the directive
	// came from. Never rendered into tags or headers.
	Comment string `json:"comment,omitempty"`
}

// Set is an insertion-ordered collection of directives keyed by Href,
// scoped to one rendering request. It only ever grows: later collection
// calls can add directives but never invalidate earlier ones.
type Set struct {
	byHref map[string]*Directive
	order  []*Directive
}

// NewSet creates an empty directive set.
func NewSet() *Set {
	return &Set{byHref: make(map[string]*Directive)}
}

// Add inserts a directive unless its Href is already present.
// Reports whether the directive was inserted.
func (s *Set) Add(d Directive) bool {
	if _, exists := s.byHref[d.Href]; exists {
		return false
	}
	stored := &d
	s.byHref[d.Href] = stored
	s.order = append(s.order, stored)
	return true
}

// Has reports whether a directive with the given Href is present.
func (s *Set) Has(href string) bool {
	_, exists := s.byHref[href]
	return exists
}

// Len returns the number of directives in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// relRank orders directive classes for presentation. Stylesheets come
// first so they are loaded before the scripts that need them, then the
// entry module, then preloaded script chunks, then generic assets.
func relRank(rel Rel) int {
	switch rel {
	case RelStylesheet:
		return 0
	case RelModule:
		return 1
	case RelModulePreload:
		return 2
	default:
		return 3
	}
}

// Sorted returns the directives ordered by rel class, preserving
// first-discovery order within each class. The result is a copy; the
// set itself is not reordered. Output is deterministic for a given
// sequence of Add calls.
func (s *Set) Sorted() []Directive {
	result := make([]Directive, len(s.order))
	for i, d := range s.order {
		result[i] = *d
	}
	sort.SliceStable(result, func(i, j int) bool {
		return relRank(result[i].Rel) < relRank(result[j].Rel)
	})
	return result
}
