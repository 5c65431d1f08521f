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

// Package render provides the render command for precarica.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/precarica/collect"
	"bennypowers.dev/precarica/fs"
	"bennypowers.dev/precarica/internal/output"
	"bennypowers.dev/precarica/manifest"
)

// Cmd is the render cobra command that expands a manifest into preload
// directives.
var Cmd = &cobra.Command{
	Use:   "render",
	Short: "Expand a build manifest into preload tags or a Link header",
	Long: `Expand a build manifest into preload directives for an entrypoint.

Walks the manifest's static import graph from the entrypoint (plus any
modules passed with --module), deduplicates the reachable scripts,
stylesheets and assets, and renders them as HTML tags, an HTTP Link
header value, or JSON.`,
	Example: `  # Preload tags for the default entrypoint
  precarica render --manifest dist/.vite/manifest.json

  # Include the entry assets themselves
  precarica render --manifest dist/.vite/manifest.json --include-entry

  # Modules a page is known to touch during rendering
  precarica render --manifest dist/.vite/manifest.json --module src/App.tsx

  # A Link header value instead of tags
  precarica render --manifest dist/.vite/manifest.json --format header`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("entry", "e", collect.DefaultEntrypoint, "Entrypoint module ID")
	Cmd.Flags().StringArrayP("module", "m", nil, "Touched module ID (can be repeated)")
	Cmd.Flags().StringP("format", "f", "tags", "Output format (tags, header, json)")
	Cmd.Flags().Bool("include-entry", false, "Include entry-flagged directives in tag output")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	manifestPath := viper.GetString("manifest")
	if manifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "tags" && format != "header" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'tags', 'header' or 'json'", format)
	}

	m, err := manifest.ParseFile(osfs, manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	entry, _ := cmd.Flags().GetString("entry")
	registry, err := collect.New(collect.Options{
		Manifest:   m,
		Entrypoint: entry,
	})
	if err != nil {
		return err
	}

	modules, _ := cmd.Flags().GetStringArray("module")
	for _, id := range modules {
		if err := registry.ModuleTouched(id); err != nil {
			return err
		}
	}

	switch format {
	case "header":
		return output.Write(osfs, registry.LinkHeader())
	case "json":
		out, err := json.MarshalIndent(registry.SortedDirectives(), "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling directives: %w", err)
		}
		return output.Write(osfs, string(out))
	default:
		includeEntry, _ := cmd.Flags().GetBool("include-entry")
		return output.Write(osfs, registry.RenderTags(includeEntry))
	}
}
