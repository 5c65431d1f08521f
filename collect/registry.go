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
package collect

import (
	"errors"

	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/preload"
)

// DefaultEntrypoint is the conventional root document module ID bundlers
// key the application entry under.
const DefaultEntrypoint = "index.html"

// Options configures a Registry. Exactly one of Manifest or Graph must be
// set; Manifest wins if both are.
type Options struct {
	// Manifest is the build manifest to walk in production mode.
	Manifest manifest.Manifest
	// Graph is a dev server's live module graph, walked with the same
	// semantics as the manifest.
	Graph manifest.ModuleGraph
	// Entrypoint is the module ID of the root document.
	// Defaults to DefaultEntrypoint.
	Entrypoint string
}

// ErrNoSource is returned by New when neither a manifest nor a module
// graph was supplied. There is nothing to walk in that configuration,
// and degrading to an empty registry would silently ship pages with no
// preload data.
var ErrNoSource = errors.New("a manifest or module graph is required")

// Registry owns the directive aggregate for one rendering request. It is
// seeded with the entrypoint's chunks at construction; during rendering
// the host framework reports each touched module via ModuleTouched, and
// after rendering reads the result once via RenderTags or LinkHeader.
//
// A Registry is not safe for unsequenced concurrent use; the rendering
// of one request is assumed to be a single logical flow of control.
type Registry struct {
	src        source
	entrypoint string
	set        *preload.Set
}

// New validates the configured source/entrypoint pair, then seeds the
// aggregate by collecting the entrypoint. Validation failures and
// consistency errors found while seeding abort construction.
func New(opts Options) (*Registry, error) {
	entrypoint := opts.Entrypoint
	if entrypoint == "" {
		entrypoint = DefaultEntrypoint
	}

	var src source
	switch {
	case opts.Manifest != nil:
		if _, err := opts.Manifest.EntryChunk(entrypoint); err != nil {
			return nil, err
		}
		src = manifestSource{opts.Manifest}
	case opts.Graph != nil:
		if _, err := opts.Graph.EntryNode(entrypoint); err != nil {
			return nil, err
		}
		src = graphSource{opts.Graph}
	default:
		return nil, ErrNoSource
	}

	r := &Registry{
		src:        src,
		entrypoint: entrypoint,
		set:        preload.NewSet(),
	}
	if err := r.ModuleTouched(entrypoint); err != nil {
		return nil, err
	}
	return r, nil
}

// ModuleTouched collects the chunks reachable from id and merges their
// directives into the aggregate. Safe to call any number of times in any
// order during rendering; an id already covered, or one with no chunk of
// its own, is a no-op. A missing internal import edge is a consistency
// error and is returned rather than swallowed.
func (r *Registry) ModuleTouched(id string) error {
	chunks, err := collect(r.src, id)
	if err != nil {
		return err
	}
	aggregate(r.set, chunks, r.entrypoint)
	return nil
}

// SortedDirectives returns the aggregate's directives in presentation
// order. The result is stable between ModuleTouched calls and does not
// alias registry state.
func (r *Registry) SortedDirectives() []preload.Directive {
	return r.set.Sorted()
}

// RenderTags renders the aggregate as newline-joined HTML tags,
// excluding entry-flagged directives unless includeEntry is set.
func (r *Registry) RenderTags(includeEntry bool) string {
	return r.set.RenderTags(includeEntry)
}

// LinkHeader renders the aggregate as one HTTP Link header value,
// entries included.
func (r *Registry) LinkHeader() string {
	return r.set.LinkHeader()
}
