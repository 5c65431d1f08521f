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
package preload

import (
	"html"
	"path"
	"strings"
)

// assetAs maps an asset's file extension to a preload "as" destination,
// and reports whether the destination requires the crossorigin attribute.
// Unknown extensions get a bare preload link.
func assetAs(href string) (as string, crossorigin bool) {
	switch strings.ToLower(path.Ext(href)) {
	case ".woff", ".woff2", ".ttf", ".otf":
		// Font fetches are always CORS-mode
		return "font", true
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".avif", ".svg", ".ico":
		return "image", false
	case ".mp4", ".webm":
		return "video", false
	case ".mp3", ".ogg", ".wav", ".flac":
		return "audio", false
	case ".json":
		return "fetch", false
	default:
		return "", false
	}
}

// Tag renders the directive as an HTML tag string. Directive kinds with
// no tag representation render as the empty string; callers skip those.
func (d Directive) Tag() string {
	href := html.EscapeString(d.Href)
	switch d.Rel {
	case RelModule:
		return `<script type="module" src="` + href + `"></script>`
	case RelModulePreload:
		return `<link rel="modulepreload" href="` + href + `">`
	case RelStylesheet:
		return `<link rel="stylesheet" href="` + href + `">`
	case RelPreload:
		var b strings.Builder
		b.WriteString(`<link rel="preload" href="`)
		b.WriteString(href)
		b.WriteString(`"`)
		if as, crossorigin := assetAs(d.Href); as != "" {
			b.WriteString(` as="`)
			b.WriteString(as)
			b.WriteString(`"`)
			if crossorigin {
				b.WriteString(` crossorigin`)
			}
		}
		b.WriteString(`>`)
		return b.String()
	default:
		return ""
	}
}

// linkDescriptor renders the directive as one descriptor of a Link
// header value. A header cannot execute a script, so the entry module
// degrades to a modulepreload descriptor.
func (d Directive) linkDescriptor() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(d.Href)
	b.WriteString(">")
	switch d.Rel {
	case RelModule, RelModulePreload:
		b.WriteString(`; rel="modulepreload"`)
	case RelStylesheet:
		b.WriteString(`; rel="preload"; as="style"`)
	default:
		b.WriteString(`; rel="preload"`)
		if as, crossorigin := assetAs(d.Href); as != "" {
			b.WriteString(`; as="`)
			b.WriteString(as)
			b.WriteString(`"`)
			if crossorigin {
				b.WriteString(`; crossorigin`)
			}
		}
	}
	return b.String()
}

// RenderTags renders the set's directives as newline-joined HTML tags in
// presentation order. Entry-flagged directives are excluded unless
// includeEntry is set: server templates normally reference entry assets
// themselves, so re-emitting them would double-load.
func (s *Set) RenderTags(includeEntry bool) string {
	var tags []string
	for _, d := range s.Sorted() {
		if d.IsEntry && !includeEntry {
			continue
		}
		if tag := d.Tag(); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, "\n")
}

// LinkHeader renders every directive, entries included, as one HTTP Link
// header value in the same order as tag rendering.
func (s *Set) LinkHeader() string {
	var descriptors []string
	for _, d := range s.Sorted() {
		descriptors = append(descriptors, d.linkDescriptor())
	}
	return strings.Join(descriptors, ", ")
}
