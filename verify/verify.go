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
// Package verify audits a build manifest against the built output on
// disk. It catches ahead of serving the same class of inconsistency the
// collector would fail on at request time: import edges that point
// nowhere, chunk files the build never wrote, and imports inside
// compiled chunks the manifest does not account for.
package verify

import (
	"path"
	"sort"
	"strings"

	"bennypowers.dev/precarica/fs"
	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/scan"
)

// IssueType classifies the type of manifest inconsistency.
type IssueType int

const (
	// DanglingImport indicates an import edge referencing a module ID
	// absent from the manifest. The collector fails on these at request
	// time.
	DanglingImport IssueType = iota
	// MissingFile indicates a chunk file that does not exist on disk.
	MissingFile
	// UnknownSpecifier indicates an import inside a compiled chunk that
	// resolves to no file the manifest knows about.
	UnknownSpecifier
)

// String returns a human-readable description of the issue type.
func (t IssueType) String() string {
	switch t {
	case DanglingImport:
		return "dangling import"
	case MissingFile:
		return "missing file"
	case UnknownSpecifier:
		return "unknown specifier"
	default:
		return "unknown"
	}
}

// Issue represents one inconsistency between the manifest and the build.
type Issue struct {
	Module    string    // Manifest module ID the issue was found under
	File      string    // Served path of the chunk file, where applicable
	Line      int       // Line number inside the chunk file, where applicable
	Specifier string    // Import specifier or referenced module ID
	IssueType IssueType // Type of issue
}

// Manifest audits every chunk in the manifest. The outDir is the
// directory chunk files were written to; served paths are resolved
// beneath it. Issues are returned in sorted module order so output is
// deterministic.
func Manifest(fsys fs.FileSystem, m manifest.Manifest, outDir string) ([]Issue, error) {
	// Sort module IDs for deterministic output
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Every served path the manifest accounts for
	known := make(map[string]struct{})
	for _, chunk := range m {
		known[chunk.File] = struct{}{}
		for _, css := range chunk.CSS {
			known[css] = struct{}{}
		}
		for _, asset := range chunk.Assets {
			known[asset] = struct{}{}
		}
	}

	var issues []Issue
	for _, id := range ids {
		chunk := m[id]

		for _, imp := range chunk.Imports {
			if _, ok := m[imp]; !ok {
				issues = append(issues, Issue{
					Module:    id,
					Specifier: imp,
					IssueType: DanglingImport,
				})
			}
		}
		for _, imp := range chunk.DynamicImports {
			if _, ok := m[imp]; !ok {
				issues = append(issues, Issue{
					Module:    id,
					Specifier: imp,
					IssueType: DanglingImport,
				})
			}
		}

		diskPath := path.Join(outDir, strings.TrimPrefix(chunk.File, "/"))
		if !fsys.Exists(diskPath) {
			issues = append(issues, Issue{
				Module:    id,
				File:      chunk.File,
				IssueType: MissingFile,
			})
			continue
		}

		chunkIssues, err := auditChunk(fsys, id, chunk, diskPath, known)
		if err != nil {
			return nil, err
		}
		issues = append(issues, chunkIssues...)
	}

	return issues, nil
}

// auditChunk parses a compiled chunk and checks that every import
// specifier in it resolves to a served path the manifest knows about.
func auditChunk(fsys fs.FileSystem, id string, chunk *manifest.Chunk, diskPath string, known map[string]struct{}) ([]Issue, error) {
	content, err := fsys.ReadFile(diskPath)
	if err != nil {
		return nil, err
	}

	imports, err := scan.ExtractImports(content)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, imp := range imports {
		served, ok := resolveServed(chunk.File, imp.Specifier)
		if !ok {
			// Bare or URL specifier - external, not the manifest's concern
			continue
		}
		if _, found := known[served]; !found {
			issues = append(issues, Issue{
				Module:    id,
				File:      chunk.File,
				Line:      imp.Line,
				Specifier: imp.Specifier,
				IssueType: UnknownSpecifier,
			})
		}
	}
	return issues, nil
}

// resolveServed resolves an import specifier against the importing
// chunk's served path. Reports false for specifiers that do not name a
// served file (bare package imports, URLs).
func resolveServed(chunkFile, specifier string) (string, bool) {
	switch {
	case strings.HasPrefix(specifier, "/"):
		return path.Clean(specifier), true
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		return path.Join(path.Dir(chunkFile), specifier), true
	default:
		return "", false
	}
}
