package ota

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseDocument(page string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

type matcher func(*html.Node) bool

func testID(id string) matcher {
	return func(n *html.Node) bool { return attr(n, "data-testid") == id }
}

func attrIs(key, val string) matcher {
	return func(n *html.Node) bool { return attr(n, key) == val }
}

func hasClass(class string) matcher {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func tagIs(a atom.Atom) matcher {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func anyOf(ms ...matcher) matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

func both(a, b matcher) matcher {
	return func(n *html.Node) bool { return a(n) && b(n) }
}

// findAll returns matching elements under n in document order. Matches are not
// searched for nested matches.
func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && m(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, m matcher) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && m(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findFirst(c, m); f != nil {
			return f
		}
	}
	return nil
}

// closest walks up from n (inclusive) to the first element matching m.
func closest(n *html.Node, m matcher) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && m(n) {
			return n
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// blockTags end a line in rendered text, so flag phrases in neighbouring cells stay apart.
var blockTags = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Li: true, atom.Tr: true, atom.Td: true,
	atom.Th: true, atom.Br: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.Section: true, atom.Article: true,
}

// innerText approximates the rendered text of n with whitespace collapsed per line.
func innerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(n)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// scriptText returns the contents of the first <script> with the given id.
func scriptText(doc *html.Node, id string) string {
	s := findFirst(doc, both(tagIs(atom.Script), attrIs("id", id)))
	if s == nil || s.FirstChild == nil {
		return ""
	}
	return s.FirstChild.Data
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
