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
// Package manifest provides types and parsing for build manifests: the
// mapping from module identifier to compiled chunk metadata that bundlers
// emit alongside their output.
package manifest

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/precarica/fs"
)

// Chunk is one compiled output unit as recorded in the manifest.
// Chunks are immutable once parsed; callers must not mutate them.
type Chunk struct {
	// Src is the source module path the chunk was compiled from.
	Src string `json:"src"`

	// Name is the chunk's display name, if the bundler assigned one.
	Name string `json:"name,omitempty"`

	// File is the served path of the compiled artifact.
	File string `json:"file"`

	// IsEntry marks chunks designated as top-level application entry points.
	IsEntry bool `json:"isEntry,omitempty"`

	// Imports lists module IDs the chunk imports statically, in source order.
	Imports []string `json:"imports,omitempty"`

	// DynamicImports lists module IDs behind lazy import() boundaries.
	// These are metadata only; eager preloading never follows them.
	DynamicImports []string `json:"dynamicImports,omitempty"`

	// CSS lists served stylesheet paths associated with the chunk.
	CSS []string `json:"css,omitempty"`

	// Assets lists served static asset paths associated with the chunk.
	Assets []string `json:"assets,omitempty"`
}

// Manifest maps module IDs to their chunks.
type Manifest map[string]*Chunk

// Parse parses JSON data into a Manifest.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// ParseFile reads and parses a manifest file.
func ParseFile(fsys fs.FileSystem, path string) (Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// EntryChunk returns the chunk for the given entrypoint module ID.
// It fails if the ID is absent from the manifest or present but not
// flagged as an entry; both are configuration errors that should abort
// whatever is being constructed on top of this manifest.
func (m Manifest) EntryChunk(entrypoint string) (*Chunk, error) {
	chunk, ok := m[entrypoint]
	if !ok {
		return nil, fmt.Errorf("no such entry %q in manifest", entrypoint)
	}
	if !chunk.IsEntry {
		return nil, fmt.Errorf("%q is not an entry module", entrypoint)
	}
	return chunk, nil
}
