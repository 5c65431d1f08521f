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
// Package collect expands module IDs into preload directives by walking
// a chunk source: either a build manifest or a dev server's live module
// graph. The Registry owns the per-request directive aggregate and is the
// callback surface a rendering framework reports touched modules to.
package collect

import (
	"fmt"

	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/preload"
)

// source looks up chunks by module ID. It is selected once at registry
// construction and never changes for the life of a request.
type source interface {
	lookup(id string) (*manifest.Chunk, bool)
}

// manifestSource serves chunks from a build manifest.
type manifestSource struct {
	m manifest.Manifest
}

func (s manifestSource) lookup(id string) (*manifest.Chunk, bool) {
	chunk, ok := s.m[id]
	return chunk, ok
}

// graphSource serves chunks from a live dev-server module graph.
type graphSource struct {
	g manifest.ModuleGraph
}

func (s graphSource) lookup(id string) (*manifest.Chunk, bool) {
	node, ok := s.g[id]
	if !ok {
		return nil, false
	}
	return node.Chunk(), true
}

// collected is one chunk reached during a traversal, annotated with the
// entry flag propagated along its discovery path. The chunk itself is
// shared with the source and must not be mutated.
type collected struct {
	id      string
	chunk   *manifest.Chunk
	isEntry bool
}

// traversal is the visited state for a single collection call: a cycle
// guard keyed by module ID plus the chunks in discovery (pre-)order.
// Discovery order is what makes the final presentation deterministic.
type traversal struct {
	visited map[string]struct{}
	chunks  []collected
}

func newTraversal() *traversal {
	return &traversal{visited: make(map[string]struct{})}
}

// walk records the chunk for id and recurses through its static imports.
// The recorded entry flag is inherited || chunk.IsEntry: once any chunk
// on the path from the traversal root is an entry, everything reached
// through it counts as entry-reachable. Dynamic imports are lazy
// boundaries and are never followed.
//
// A missing id here means an import edge points at a module the source
// does not know, so the manifest is stale or corrupt relative to the
// code that produced it.
func (t *traversal) walk(src source, id string, inherited bool) error {
	if _, seen := t.visited[id]; seen {
		return nil
	}
	chunk, ok := src.lookup(id)
	if !ok {
		return fmt.Errorf("missing chunk for %q", id)
	}

	isEntry := inherited || chunk.IsEntry
	t.visited[id] = struct{}{}
	t.chunks = append(t.chunks, collected{id: id, chunk: chunk, isEntry: isEntry})

	for _, imp := range chunk.Imports {
		if err := t.walk(src, imp, isEntry); err != nil {
			return err
		}
	}
	return nil
}

// collect walks the source from id and returns every statically reachable
// chunk in discovery order. A root id the source does not know is not an
// error: modules may be reported as touched even though they were inlined
// and own no chunk. The result is then empty.
func collect(src source, id string) ([]collected, error) {
	if _, ok := src.lookup(id); !ok {
		return nil, nil
	}
	t := newTraversal()
	if err := t.walk(src, id, false); err != nil {
		return nil, err
	}
	return t.chunks, nil
}

// aggregate converts collected chunks into directives and inserts them
// into the set. A chunk whose file is already represented in the set is
// skipped whole, CSS and assets included: the first chunk to claim a file
// speaks for it. Insertion is first-writer-wins on href, so repeat calls
// against the same set only ever add. The chunk whose Src matches the
// configured entrypoint is the document's own module script; every other
// script chunk becomes a modulepreload.
func aggregate(set *preload.Set, chunks []collected, entrypoint string) {
	for _, c := range chunks {
		if set.Has(c.chunk.File) {
			continue
		}
		rel := preload.RelModulePreload
		if c.chunk.Src == entrypoint {
			rel = preload.RelModule
		}
		set.Add(preload.Directive{
			Rel:     rel,
			Href:    c.chunk.File,
			IsEntry: c.isEntry,
			Comment: "chunk " + c.id,
		})
		for _, css := range c.chunk.CSS {
			set.Add(preload.Directive{
				Rel:     preload.RelStylesheet,
				Href:    css,
				IsEntry: c.isEntry,
				Comment: "css of " + c.id,
			})
		}
		for _, asset := range c.chunk.Assets {
			set.Add(preload.Directive{
				Rel:     preload.RelPreload,
				Href:    asset,
				IsEntry: c.isEntry,
				Comment: "asset of " + c.id,
			})
		}
	}
}
