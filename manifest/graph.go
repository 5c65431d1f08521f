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
package manifest

import "fmt"

// ModuleNode is one node in a development server's live module graph.
// It carries the same information a manifest chunk does, but is populated
// at request time by the dev server rather than ahead of time by a build.
type ModuleNode struct {
	// ID is the module identifier, matching what the renderer reports
	// as touched.
	ID string

	// URL is the path the dev server serves the module under.
	URL string

	// IsEntry marks top-level entry modules.
	IsEntry bool

	// ImportedModules lists IDs of modules this node imports statically.
	ImportedModules []string

	// CSS lists stylesheet URLs the module pulls in.
	CSS []string

	// Assets lists static asset URLs the module references.
	Assets []string
}

// ModuleGraph is a live dependency graph, the development-mode equivalent
// of a Manifest. Nodes are keyed by module ID.
type ModuleGraph map[string]*ModuleNode

// EntryNode returns the node for the given entrypoint module ID, with the
// same validation contract as Manifest.EntryChunk.
func (g ModuleGraph) EntryNode(entrypoint string) (*ModuleNode, error) {
	node, ok := g[entrypoint]
	if !ok {
		return nil, fmt.Errorf("no such entry %q in module graph", entrypoint)
	}
	if !node.IsEntry {
		return nil, fmt.Errorf("%q is not an entry module", entrypoint)
	}
	return node, nil
}

// Chunk converts the node to the chunk view the collector walks. Dev
// modules are served as authored, so Src and File are both the node's URL
// and there are no dynamic import records.
func (n *ModuleNode) Chunk() *Chunk {
	return &Chunk{
		Src:     n.ID,
		File:    n.URL,
		IsEntry: n.IsEntry,
		Imports: n.ImportedModules,
		CSS:     n.CSS,
		Assets:  n.Assets,
	}
}
