package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"knowledge-workers/internal/knowledge/textnorm"
)

const lineTrim = " \t\u00a0"

// Lines converts markup into trimmed, non-empty text lines. Script and style
// content is dropped, br and the common block-level closing tags break
// lines, entities are unescaped.
func Lines(markup string) []string {
	var b strings.Builder
	walkText(markup, func(tt html.TokenType, a atom.Atom, text []byte) {
		switch tt {
		case html.TextToken:
			b.Write(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			if a == atom.Br {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if breaksLine(a) {
				b.WriteByte('\n')
			}
		}
	})

	raw := strings.ReplaceAll(b.String(), "\r", "\n")
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.Trim(ln, lineTrim)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// Text converts markup into a single whitespace-collapsed string. Every tag
// acts as a word separator.
func Text(markup string) string {
	var b strings.Builder
	walkText(markup, func(tt html.TokenType, _ atom.Atom, text []byte) {
		if tt == html.TextToken {
			b.Write(text)
		}
		b.WriteByte(' ')
	})
	return textnorm.CollapseSpaces(b.String())
}

func breaksLine(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.Section, atom.Article:
		return true
	}
	return false
}

// walkText tokenizes markup and calls fn for every token outside script and
// style elements. Text tokens arrive unescaped.
func walkText(markup string, fn func(tt html.TokenType, a atom.Atom, text []byte)) {
	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return
		case html.TextToken:
			if skip == 0 {
				fn(tt, 0, z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if skip == 0 {
				fn(tt, a, nil)
			}
		}
	}
}

// parse builds a node tree. The html parser recovers from malformed input and
// only fails on reader errors, which a strings.Reader never returns.
func parse(markup string) *html.Node {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return &html.Node{Type: html.DocumentNode}
	}
	return doc
}

func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c != n && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func isElement(n *html.Node, atoms ...atom.Atom) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range atoms {
		if n.DataAtom == a {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// nodeText is the collapsed text content of n, skipping script and style.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if isElement(c, atom.Script, atom.Style) {
			return false
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return textnorm.CollapseSpaces(b.String())
}

// metaContent returns the content of the first <meta> whose key attribute
// (name or property) equals val.
func metaContent(doc *html.Node, key, val string) string {
	n := find(doc, func(c *html.Node) bool {
		if !isElement(c, atom.Meta) {
			return false
		}
		v, ok := attr(c, key)
		return ok && strings.EqualFold(strings.TrimSpace(v), val)
	})
	if n == nil {
		return ""
	}
	content, _ := attr(n, "content")
	return strings.TrimSpace(content)
}
