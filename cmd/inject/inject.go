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

// Package inject provides the inject command for precarica.
package inject

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/precarica/collect"
	"bennypowers.dev/precarica/fs"
	"bennypowers.dev/precarica/inject"
	"bennypowers.dev/precarica/manifest"
)

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject",
	Short: "Write preload tag blocks into HTML files in-place",
	Long: `Write preload tag blocks into HTML files in-place.

For each file, updates the block between <!-- precarica --> markers when
present, or inserts a new marker block after the <head> start tag.`,
	Example: `  # Inject preload tags into all built pages
  precarica inject --manifest dist/.vite/manifest.json --glob "dist/**/*.html"

  # Static pages that do not reference the entry assets themselves
  precarica inject --manifest dist/.vite/manifest.json --glob "dist/**/*.html" --include-entry

  # Parallel processing with custom worker count
  precarica inject --manifest dist/.vite/manifest.json --glob "dist/**/*.html" -j 8

  # Dry run to see what would change
  precarica inject --manifest dist/.vite/manifest.json --glob "dist/**/*.html" --dry-run`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files (required)")
	Cmd.Flags().StringP("entry", "e", collect.DefaultEntrypoint, "Entrypoint module ID")
	Cmd.Flags().StringArrayP("module", "m", nil, "Touched module ID (can be repeated)")
	Cmd.Flags().Bool("include-entry", false, "Include entry-flagged directives")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	manifestPath := viper.GetString("manifest")
	if manifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	m, err := manifest.ParseFile(osfs, manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	// Collect files from glob pattern
	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern == "" {
		return fmt.Errorf("--glob is required")
	}

	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no files matched the glob pattern")
		return nil
	}

	// Deduplicate by absolute path
	seen := make(map[string]struct{})
	var files []string
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", match, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
	}

	entry, _ := cmd.Flags().GetString("entry")
	modules, _ := cmd.Flags().GetStringArray("module")
	includeEntry, _ := cmd.Flags().GetBool("include-entry")
	parallel, _ := cmd.Flags().GetInt("jobs")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")

	opts := inject.Options{
		Entrypoint:   entry,
		Modules:      modules,
		IncludeEntry: includeEntry,
		Parallel:     parallel,
		DryRun:       dryRun,
	}

	results := inject.InjectBatch(osfs, files, m, opts)

	var stats inject.Stats
	stats.Total = len(files)

	encoder := json.NewEncoder(os.Stdout)
	for result := range results {
		if result.Error != "" {
			stats.Errors++
			if format == "json" {
				_ = encoder.Encode(result)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %s: %s\n", result.File, result.Error)
			}
		} else if result.Modified {
			if result.Inserted {
				stats.Inserted++
			} else {
				stats.Updated++
			}
			if format == "json" {
				_ = encoder.Encode(result)
			} else if dryRun {
				fmt.Printf("Would update: %s\n", result.File)
			} else {
				fmt.Printf("Updated: %s\n", result.File)
			}
		} else {
			stats.Skipped++
		}
	}

	if format == "json" {
		_ = encoder.Encode(stats)
	} else {
		fmt.Printf("%d files: %d inserted, %d updated, %d unchanged, %d errors\n",
			stats.Total, stats.Inserted, stats.Updated, stats.Skipped, stats.Errors)
	}

	if stats.Errors > 0 {
		return fmt.Errorf("%d files failed", stats.Errors)
	}
	return nil
}
