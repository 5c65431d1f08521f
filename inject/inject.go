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

// Package inject writes preload tag blocks directly into HTML files,
// updating the block between precarica marker comments or inserting a new
// one after the <head> start tag.
package inject

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"bennypowers.dev/precarica/collect"
	"bennypowers.dev/precarica/fs"
	"bennypowers.dev/precarica/manifest"
	"bennypowers.dev/precarica/scan"
)

// Options configures the inject command.
type Options struct {
	// Entrypoint is the manifest module ID to expand.
	// Defaults to collect.DefaultEntrypoint.
	Entrypoint string
	// Modules are additional touched module IDs to expand beyond the
	// entrypoint, for pages known to use lazy-mounted islands.
	Modules []string
	// IncludeEntry renders entry-flagged directives too. Set this when
	// the HTML files do not already reference the entry assets.
	IncludeEntry bool
	// Parallel is the number of parallel workers for batch mode.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File     string `json:"file"`
	Modified bool   `json:"modified"`
	Inserted bool   `json:"inserted,omitempty"` // true if new block, false if replaced
	Error    string `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int `json:"total"`
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// InjectBatch injects preload tag blocks into multiple HTML files in
// parallel. The directive set is collected once from the manifest and
// shared across files.
func InjectBatch(osfs fs.FileSystem, files []string, m manifest.Manifest, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		// Expand the manifest once for all files
		registry, err := collect.New(collect.Options{
			Manifest:   m,
			Entrypoint: opts.Entrypoint,
		})
		if err == nil {
			for _, id := range opts.Modules {
				if err = registry.ModuleTouched(id); err != nil {
					break
				}
			}
		}
		if err != nil {
			for _, file := range files {
				results <- Result{File: file, Error: err.Error()}
			}
			return
		}

		tags := registry.RenderTags(opts.IncludeEntry)

		// Create jobs channel
		jobs := make(chan string, len(files))

		// Start worker goroutines
		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for htmlFile := range jobs {
					results <- injectFile(osfs, htmlFile, tags, opts.DryRun)
				}
			})
		}

		// Send jobs
		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// injectFile rewrites a single HTML file's preload block.
func injectFile(osfs fs.FileSystem, htmlFile, tags string, dryRun bool) Result {
	result := Result{File: htmlFile}

	content, err := osfs.ReadFile(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	newContent, inserted, err := buildNewContent(content, tags)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// Check if content actually changed
	if string(newContent) == string(content) {
		return result // No changes needed
	}

	result.Modified = true
	result.Inserted = inserted

	if !dryRun {
		if err := osfs.WriteFile(htmlFile, newContent, 0644); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	return result
}

// buildNewContent generates new HTML content with the tag block replaced
// or inserted.
func buildNewContent(content []byte, tags string) ([]byte, bool, error) {
	loc, err := scan.FindMarkerRegion(content)
	if err != nil {
		return nil, false, err
	}

	if loc.Found {
		// Replace content between the existing markers, preserving the
		// opening marker's line indentation.
		indent := lineIndent(content, loc.ContentStart)
		var newContent []byte
		newContent = append(newContent, content[:loc.ContentStart]...)
		newContent = append(newContent, '\n')
		newContent = append(newContent, indentLines(tags, indent)...)
		newContent = append(newContent, '\n')
		newContent = append(newContent, indent...)
		newContent = append(newContent, content[loc.ContentEnd:]...)
		return newContent, false, nil
	}

	// Insert a new marker block after the <head> start tag
	insertPoint, err := scan.FindInsertPoint(content)
	if err != nil {
		return nil, false, err
	}
	if !insertPoint.Found {
		return nil, false, fmt.Errorf("could not find insertion point (no <head> tag)")
	}

	var block strings.Builder
	block.WriteString("\n")
	block.WriteString(insertPoint.Indent)
	block.WriteString(scan.MarkerOpen)
	block.WriteString("\n")
	block.WriteString(indentLines(tags, insertPoint.Indent))
	block.WriteString("\n")
	block.WriteString(insertPoint.Indent)
	block.WriteString(scan.MarkerClose)

	var newContent []byte
	newContent = append(newContent, content[:insertPoint.Offset]...)
	newContent = append(newContent, block.String()...)
	newContent = append(newContent, content[insertPoint.Offset:]...)

	return newContent, true, nil
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(content []byte, offset int) string {
	start := offset
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	return string(content[start:end])
}

// indentLines prefixes each line of text with indent.
func indentLines(text, indent string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
