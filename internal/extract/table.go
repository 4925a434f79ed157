package extract

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/cinfetch/internal/model"
)

// ErrNoResultsTable is returned when no table carries a recognized header.
var ErrNoResultsTable = errors.New("no results table")

// ParseResultsTable parses an HTML document and returns the first table
// with a recognized header cell.
//
// Every row with at least one cell becomes a table row: its th cells
// followed by its td cells, each trimmed. The first row is the header; the
// others are padded or truncated to its width.
func ParseResultsTable(r io.Reader) (model.Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Table{}, err
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && hasRecognizedHeader(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return model.Table{}, ErrNoResultsTable
	}

	var data [][]string
	for _, tr := range ownElements(found, atom.Tr) {
		cells := rowCells(tr)
		if len(cells) == 0 {
			continue
		}
		data = append(data, cells)
	}
	if len(data) == 0 {
		return model.NewTable(nil, nil), nil
	}
	return model.NewTable(data[0], data[1:]), nil
}

// ParseResultsTableString is ParseResultsTable on a string.
func ParseResultsTableString(s string) (model.Table, error) {
	return ParseResultsTable(strings.NewReader(s))
}

func hasRecognizedHeader(table *html.Node) bool {
	for _, th := range ownElements(table, atom.Th) {
		if _, ok := MatchHeader(textOf(th)); ok {
			return true
		}
	}
	return false
}

func rowCells(tr *html.Node) []string {
	var th, td []string
	for _, cell := range ownElements(tr, atom.Th) {
		th = append(th, strings.TrimSpace(textOf(cell)))
	}
	for _, cell := range ownElements(tr, atom.Td) {
		td = append(td, strings.TrimSpace(textOf(cell)))
	}
	return append(th, td...)
}

// ownElements returns descendants of root with the given atom, in document
// order, without entering nested tables.
func ownElements(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == a {
				out = append(out, c)
			}
			if c.DataAtom == atom.Table {
				continue
			}
			// Cells do not nest; skip their subtree when collecting cells.
			if a != atom.Tr && c.DataAtom == a {
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// breaking lists the elements that separate words in rendered text. Inline
// elements such as span or b join their text to the neighbours.
var breaking = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true,
	atom.Dd: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Section: true, atom.Hr: true,
}

// textOf returns the rendered text of n with whitespace runs collapsed.
// Text nodes are joined as they appear; only line-breaking elements add a gap.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		gap := false
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			gap = breaking[n.DataAtom]
		}
		if gap {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if gap {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
