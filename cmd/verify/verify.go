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

// Package verify provides the verify command for precarica.
package verify

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/precarica/fs"
	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/verify"
)

// Cmd is the verify command.
var Cmd = &cobra.Command{
	Use:   "verify",
	Short: "Audit a manifest against the built output directory",
	Long: `Audit a manifest against the built output directory.

Reports import edges that reference modules absent from the manifest,
chunk files missing on disk, and imports inside compiled chunks that
resolve to no file the manifest knows about. These are the same
inconsistencies the collector fails on at request time, caught ahead
of serving. Exits non-zero when issues are found.`,
	Example: `  # Audit a build
  precarica verify --manifest dist/.vite/manifest.json --out-dir dist

  # JSON for CI tooling
  precarica verify --manifest dist/.vite/manifest.json --out-dir dist -f json`,
	RunE: run,
}

// issueJSON is the JSON representation of a verify.Issue.
type issueJSON struct {
	Module    string `json:"module"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Specifier string `json:"specifier,omitempty"`
	IssueType string `json:"issue_type"`
}

func init() {
	Cmd.Flags().String("out-dir", ".", "Directory the build output was written to")
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

	outDir, _ := cmd.Flags().GetString("out-dir")
	issues, err := verify.Manifest(osfs, m, outDir)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		out := make([]issueJSON, len(issues))
		for i, issue := range issues {
			out[i] = issueJSON{
				Module:    issue.Module,
				File:      issue.File,
				Line:      issue.Line,
				Specifier: issue.Specifier,
				IssueType: issue.IssueType.String(),
			}
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("error marshaling issues: %w", err)
		}
	} else {
		for _, issue := range issues {
			switch issue.IssueType {
			case verify.UnknownSpecifier:
				fmt.Printf("%s:%d: %s %q in %s\n",
					issue.File, issue.Line, issue.IssueType, issue.Specifier, issue.Module)
			case verify.MissingFile:
				fmt.Printf("%s: %s for %s\n", issue.File, issue.IssueType, issue.Module)
			default:
				fmt.Printf("%s: %s %q\n", issue.Module, issue.IssueType, issue.Specifier)
			}
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("%d issues found", len(issues))
	}
	return nil
}
