// Package render turns post content into HTML blocks and renders the site pages.
package render

import (
	"html/template"
	"regexp"
	"strings"
)

type BlockKind int

const (
	Paragraph BlockKind = iota
	List
	Preview
)

// Block is one top-level element of rendered post content.
type Block struct {
	Kind  BlockKind
	Text  template.HTML   // Paragraph: lines joined with "\n"
	Items []template.HTML // List
	URL   string          // Preview
}

var (
	lineBreak     = regexp.MustCompile(`\r?\n`)
	bulletPattern = regexp.MustCompile(`^\s*-\s+(.*)$`)
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	urlOnly       = regexp.MustCompile(`^https?://\S+$`)

	// inline formatting tags authors may use, as they look once escaped
	inlineTag = regexp.MustCompile(`&lt;(/?)(b|i|em|strong)&gt;`)
)

// Blocks splits content into paragraphs, bullet lists and link previews.
// Lines starting with "- " form a list, blank lines end the current block,
// and a line holding only a URL becomes a preview of that URL.
func Blocks(content string) []Block {
	var (
		blocks []Block
		para   []string
		items  []template.HTML
	)
	flushParagraph := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: Paragraph, Text: inline(strings.Join(para, "\n"))})
			para = nil
		}
	}
	flushList := func() {
		if len(items) > 0 {
			blocks = append(blocks, Block{Kind: List, Items: items})
			items = nil
		}
	}

	for _, raw := range lineBreak.Split(content, -1) {
		line := strings.ReplaceAll(raw, "\t", "    ")
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			flushParagraph()
			items = append(items, inline(m[1]))
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flushList()
			flushParagraph()
			continue
		}
		flushList()
		if urlOnly.MatchString(trimmed) {
			flushParagraph()
			blocks = append(blocks, Block{Kind: Preview, URL: trimmed})
			continue
		}
		para = append(para, strings.TrimLeft(line, " \t"))
	}
	flushList()
	flushParagraph()
	return blocks
}

// PreviewURLs lists the URLs of every Preview block, in order, without duplicates.
func PreviewURLs(blocks []Block) []string {
	var urls []string
	seen := map[string]bool{}
	for _, b := range blocks {
		if b.Kind == Preview && !seen[b.URL] {
			seen[b.URL] = true
			urls = append(urls, b.URL)
		}
	}
	return urls
}

// Source escapes a source entry and links every http(s) URL in it.
func Source(s string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(s, -1) {
		b.WriteString(template.HTMLEscapeString(s[last:loc[0]]))
		u := template.HTMLEscapeString(s[loc[0]:loc[1]])
		b.WriteString(`<a href="` + u + `" target="_blank" rel="noopener noreferrer">` + u + `</a>`)
		last = loc[1]
	}
	b.WriteString(template.HTMLEscapeString(s[last:]))
	return template.HTML(b.String())
}

// inline escapes s, then restores b, i, em and strong tags. A closing tag
// that does not match the innermost open tag stays escaped, and tags still
// open at the end of s are closed there.
func inline(s string) template.HTML {
	var open []string
	out := inlineTag.ReplaceAllStringFunc(template.HTMLEscapeString(s), func(m string) string {
		sm := inlineTag.FindStringSubmatch(m)
		closing, name := sm[1] == "/", sm[2]
		if !closing {
			open = append(open, name)
			return "<" + name + ">"
		}
		if len(open) > 0 && open[len(open)-1] == name {
			open = open[:len(open)-1]
			return "</" + name + ">"
		}
		return m
	})
	for i := len(open) - 1; i >= 0; i-- {
		out += "</" + open[i] + ">"
	}
	return template.HTML(out)
}
