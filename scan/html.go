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
package scan

import (
	"bytes"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Marker comments bounding a managed preload block in HTML.
const (
	MarkerOpen  = "<!-- precarica -->"
	MarkerClose = "<!-- /precarica -->"
)

// MarkerRegion locates an existing managed preload block in a document.
type MarkerRegion struct {
	Found bool
	// ContentStart is the byte offset just after the opening marker.
	ContentStart int
	// ContentEnd is the byte offset of the closing marker.
	ContentEnd int
	// Line is the 1-indexed line of the opening marker.
	Line int
}

// InsertPoint locates where a new preload block should be inserted.
type InsertPoint struct {
	Found bool
	// Offset is the byte offset just after the <head> start tag.
	Offset int
	// Indent is the leading whitespace of the line following the
	// insertion point, used to keep inserted tags aligned.
	Indent string
}

// FindMarkerRegion parses HTML content and locates the region between the
// precarica marker comments, if both are present in order.
func FindMarkerRegion(content []byte) (MarkerRegion, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return MarkerRegion{}, err
	}

	parser := getHTMLParser()
	defer putHTMLParser(parser)

	tree := parser.Parse(content, nil)
	defer tree.Close()

	query, err := qm.Query("html", "comments")
	if err != nil {
		return MarkerRegion{}, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var region MarkerRegion
	var openFound bool

	matches := cursor.Matches(query, tree.RootNode(), content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			text := strings.TrimSpace(capture.Node.Utf8Text(content))
			switch text {
			case MarkerOpen:
				if !openFound {
					openFound = true
					region.ContentStart = int(capture.Node.EndByte())
					region.Line = int(capture.Node.StartPosition().Row) + 1
				}
			case MarkerClose:
				if openFound && !region.Found {
					region.ContentEnd = int(capture.Node.StartByte())
					region.Found = true
				}
			}
		}
	}

	return region, nil
}

// FindInsertPoint parses HTML content and locates the position just after
// the <head> start tag, where a new preload block can be inserted.
func FindInsertPoint(content []byte) (InsertPoint, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return InsertPoint{}, err
	}

	parser := getHTMLParser()
	defer putHTMLParser(parser)

	tree := parser.Parse(content, nil)
	defer tree.Close()

	query, err := qm.Query("html", "startTags")
	if err != nil {
		return InsertPoint{}, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var tagName string
		var tagEnd int
		for _, capture := range match.Captures {
			switch captureNames[capture.Index] {
			case "tag.name":
				tagName = capture.Node.Utf8Text(content)
			case "tag":
				tagEnd = int(capture.Node.EndByte())
			}
		}

		if tagName == "head" {
			return InsertPoint{
				Found:  true,
				Offset: tagEnd,
				Indent: indentAfter(content, tagEnd),
			}, nil
		}
	}

	return InsertPoint{}, nil
}

// indentAfter returns the leading whitespace of the line following offset.
func indentAfter(content []byte, offset int) string {
	rest := content[offset:]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	var indent strings.Builder
	for _, b := range rest[nl+1:] {
		if b == ' ' || b == '\t' {
			indent.WriteByte(b)
			continue
		}
		break
	}
	return indent.String()
}
